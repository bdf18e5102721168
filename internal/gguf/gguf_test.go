package gguf_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/samcharles93/llamabricks/internal/gguf"
	"github.com/samcharles93/llamabricks/internal/gguf/gguftest"
)

func TestReadFile(t *testing.T) {
	t.Parallel()

	kvs := append(gguftest.Llama("tiny", 4096),
		gguftest.KV{Key: "general.file_type", Value: uint32(15)},
		gguftest.KV{Key: "tokenizer.ggml.tokens", Value: []string{"<s>", "</s>", "a"}},
		gguftest.KV{Key: "llama.rope.freq_base", Value: float32(10000)},
		gguftest.KV{Key: "tokenizer.ggml.add_bos_token", Value: true},
	)
	path := gguftest.WriteFile(t, "tiny.gguf", kvs...)

	md, err := gguf.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if md.Path != path {
		t.Fatalf("Path = %q, want %q", md.Path, path)
	}
	if md.Header.Version != 3 || md.Header.KVCount != uint64(len(kvs)) {
		t.Fatalf("Header = %+v", md.Header)
	}
	if got := md.Architecture(); got != "llama" {
		t.Fatalf("Architecture() = %q, want llama", got)
	}
	if got := md.Name(); got != "tiny" {
		t.Fatalf("Name() = %q, want tiny", got)
	}
	if got := md.ContextLength(); got != 4096 {
		t.Fatalf("ContextLength() = %d, want 4096", got)
	}
	if got := md.VocabSize(); got != 3 {
		t.Fatalf("VocabSize() = %d, want 3", got)
	}
	if got, _ := gguf.GetFloat64(md.KV, "llama.rope.freq_base"); got != 10000 {
		t.Fatalf("freq_base = %v, want 10000", got)
	}
	toks, ok := gguf.GetArray[string](md.KV, "tokenizer.ggml.tokens")
	if !ok || !reflect.DeepEqual(toks, []string{"<s>", "</s>", "a"}) {
		t.Fatalf("tokens = %v, %v", toks, ok)
	}
	if _, ok := gguf.GetArray[uint32](md.KV, "tokenizer.ggml.tokens"); ok {
		t.Fatalf("GetArray[uint32] on string array should fail")
	}
	if _, ok := gguf.GetArray[string](md.KV, "general.name"); ok {
		t.Fatalf("GetArray on scalar should fail")
	}

	sum := md.Summary()
	want := map[string]any{
		"version":        uint32(3),
		"tensor_count":   uint64(0),
		"architecture":   "llama",
		"name":           "tiny",
		"context_length": uint64(4096),
		"vocab_size":     uint64(3),
		"file_type":      uint64(15),
		"size_bytes":     md.Size,
	}
	if !reflect.DeepEqual(sum, want) {
		t.Fatalf("Summary() = %v, want %v", sum, want)
	}
}

func TestReadTruncatesLargeArrays(t *testing.T) {
	t.Parallel()

	tokens := make([]string, 200)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("t%d", i)
	}
	data := gguftest.Bytes(gguftest.KV{Key: "tokenizer.ggml.tokens", Value: tokens})
	md, err := gguf.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	arr := md.KV["tokenizer.ggml.tokens"].Value.(gguf.ArrayValue)
	if arr.Len != 200 || len(arr.Values) != 64 {
		t.Fatalf("array Len = %d, retained = %d", arr.Len, len(arr.Values))
	}
	if got := gguf.FormatValue(md.KV["tokenizer.ggml.tokens"]); got != "[string; 200]" {
		t.Fatalf("FormatValue() = %q", got)
	}
}

func TestReadRejectsNonGGUF(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"empty":     nil,
		"bad magic": []byte("GGML\x03\x00\x00\x00"),
	} {
		if _, err := gguf.Read(bytes.NewReader(data), int64(len(data))); !errors.Is(err, gguf.ErrNotGGUF) {
			t.Fatalf("%s: Read() error = %v, want ErrNotGGUF", name, err)
		}
	}
}

func TestReadTruncated(t *testing.T) {
	t.Parallel()

	data := gguftest.Bytes(gguftest.Llama("tiny", 2048)...)
	data = data[:len(data)-3]
	_, err := gguf.Read(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		t.Fatalf("Read() on truncated file succeeded")
	}
	if errors.Is(err, gguf.ErrNotGGUF) {
		t.Fatalf("Read() error = %v, want a read error", err)
	}
}

func TestReadContinuesAfterSkippedElements(t *testing.T) {
	t.Parallel()

	tokens := make([]string, 300)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%d", i)
	}
	data := gguftest.Bytes(
		gguftest.KV{Key: "tokenizer.ggml.tokens", Value: tokens},
		gguftest.KV{Key: "general.name", Value: "after"},
	)
	md, err := gguf.Read(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := md.Name(); got != "after" {
		t.Fatalf("Name() = %q, want key after skipped elements", got)
	}
	arr := md.KV["tokenizer.ggml.tokens"].Value.(gguf.ArrayValue)
	if arr.Values[63] != "token-63" {
		t.Fatalf("last retained value = %v, want token-63", arr.Values[63])
	}
}

func TestReadRejectsOversizedString(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, "GGUF"...)
	data = binary.LittleEndian.AppendUint32(data, 3)
	data = binary.LittleEndian.AppendUint64(data, 0)
	data = binary.LittleEndian.AppendUint64(data, 1)
	data = binary.LittleEndian.AppendUint64(data, 1<<40)
	_, err := gguf.Read(bytes.NewReader(data), 0)
	if err == nil || !strings.Contains(err.Error(), "string length too large") {
		t.Fatalf("Read() error = %v, want string length error", err)
	}
}
