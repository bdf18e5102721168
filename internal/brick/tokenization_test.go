package brick

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/samcharles93/llamabricks/internal/llamacpp/llamacpptest"
)

func TestParseTokenIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []int
	}{
		{"listing", "     1 -> '<s>'\n 15043 -> ' Hello'\n", []int{1, 15043}},
		{"ids", "[1, 15043, 3186]", []int{1, 15043, 3186}},
		{"empty", "", []int{}},
		{"noise", "loading model\n42 -> 'x'", []int{42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseTokenIDs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseTokenIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizationTokenizeCaches(t *testing.T) {
	t.Parallel()

	counter := filepath.Join(t.TempDir(), "calls")
	bin := llamacpptest.Script(t, "llama-tokenize", `echo x >> "`+counter+`"
echo "[1, 2, 3]"`)
	tok := NewTokenization(NewModel(writeModel(t), ModelOptions{}))
	tok.SetExecutable(bin)

	for range 2 {
		res, err := tok.Execute(context.Background(), Values{"text": "abc"})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !reflect.DeepEqual(res.Payload["tokens"], []int{1, 2, 3}) || res.Payload["count"] != 3 {
			t.Fatalf("payload = %v", res.Payload)
		}
		if _, ok := res.Outputs["tokens"]; !ok {
			t.Fatalf("outputs = %v, want tokens key", res.Outputs)
		}
	}
	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if n := strings.Count(string(data), "x"); n != 1 {
		t.Fatalf("tokenizer invoked %d times, want 1", n)
	}
}

func TestTokenizationCount(t *testing.T) {
	t.Parallel()

	bin := llamacpptest.Script(t, "llama-tokenize", `echo "1 -> 'a'"; echo "2 -> 'b'"`)
	tok := NewTokenization(NewModel(writeModel(t), ModelOptions{}))
	tok.SetExecutable(bin)

	res, _ := tok.Execute(context.Background(), Values{"input": "ab", "operation": OpCount})
	if res.Status != StatusSuccess || res.Payload["count"] != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Outputs["output"] != 2 {
		t.Fatalf("output = %v, want 2", res.Outputs["output"])
	}
}

func TestTokenizationErrors(t *testing.T) {
	t.Parallel()

	withModel := NewTokenization(NewModel(writeModel(t), ModelOptions{}))
	tests := []struct {
		name string
		tok  *Tokenization
		in   Values
		want string
	}{
		{"no model", NewTokenization(nil), Values{"text": "a"}, "No model available for tokenization"},
		{"no model count", NewTokenization(nil), Values{"text": "a", "operation": OpCount}, "No model available for tokenization"},
		{"no model detokenize", NewTokenization(nil), Values{"text": "a", "operation": OpDetokenize}, "No model available for tokenization"},
		{"no model unknown op", NewTokenization(nil), Values{"text": "a", "operation": "split"}, "No model available for tokenization"},
		{"detokenize", withModel, Values{"text": "a", "operation": OpDetokenize}, "Detokenization not yet implemented"},
		{"unknown", withModel, Values{"text": "a", "operation": "split"}, "Unknown operation: split"},
	}
	for _, tt := range tests {
		res, err := tt.tok.Execute(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("%s: Execute() error = %v", tt.name, err)
		}
		if res.Status != StatusError || res.Error != tt.want {
			t.Fatalf("%s: result = %+v, want error %q", tt.name, res, tt.want)
		}
	}
}
