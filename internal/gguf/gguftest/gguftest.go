// Package gguftest builds minimal GGUF files for tests.
package gguftest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// KV is one metadata entry. Supported value types are string, uint32,
// uint64, float32, bool and []string.
type KV struct {
	Key   string
	Value any
}

// Bytes encodes a GGUF v3 header with no tensors followed by kvs.
func Bytes(kvs ...KV) []byte {
	var b bytes.Buffer
	b.WriteString("GGUF")
	put(&b, uint32(3))
	put(&b, uint64(0))
	put(&b, uint64(len(kvs)))
	for _, kv := range kvs {
		putString(&b, kv.Key)
		putValue(&b, kv.Value)
	}
	return b.Bytes()
}

// WriteFile writes Bytes(kvs...) to name inside a temp dir and returns the
// path.
func WriteFile(t testing.TB, name string, kvs ...KV) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Bytes(kvs...), 0o644); err != nil {
		t.Fatalf("write gguf %s: %v", name, err)
	}
	return path
}

// Llama returns the metadata of a small llama-architecture model.
func Llama(name string, ctx uint32) []KV {
	return []KV{
		{Key: "general.architecture", Value: "llama"},
		{Key: "general.name", Value: name},
		{Key: "llama.context_length", Value: ctx},
	}
}

func putValue(b *bytes.Buffer, v any) {
	switch t := v.(type) {
	case string:
		put(b, uint32(8))
		putString(b, t)
	case uint32:
		put(b, uint32(4))
		put(b, t)
	case uint64:
		put(b, uint32(10))
		put(b, t)
	case float32:
		put(b, uint32(6))
		put(b, t)
	case bool:
		put(b, uint32(7))
		if t {
			b.WriteByte(1)
		} else {
			b.WriteByte(0)
		}
	case []string:
		put(b, uint32(9))
		put(b, uint32(8))
		put(b, uint64(len(t)))
		for _, s := range t {
			putString(b, s)
		}
	default:
		panic("gguftest: unsupported value type")
	}
}

func putString(b *bytes.Buffer, s string) {
	put(b, uint64(len(s)))
	b.WriteString(s)
}

func put(b *bytes.Buffer, v any) {
	_ = binary.Write(b, binary.LittleEndian, v)
}
