package brick

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/llamabricks/internal/llamacpp/llamacpptest"
)

func TestGenerationDirectArguments(t *testing.T) {
	t.Parallel()

	bin := llamacpptest.Script(t, "llama-main", `echo "$@"`)
	path := writeModel(t)
	g := NewGeneration(NewModel(path, ModelOptions{}), Values{"top_k": 5})
	g.SetExecutable(bin)

	res, err := g.Execute(context.Background(), Values{"prompt": "Hello", "temperature": 0.2})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != StatusSuccess || res.Payload["method"] != MethodDirect {
		t.Fatalf("result = %+v", res)
	}
	want := "--model " + path + " --prompt Hello --n-predict 100 --temp 0.2 --top-p 0.9 --top-k 5"
	if got := res.Outputs["generated_text"]; got != want {
		t.Fatalf("generated_text = %q, want %q", got, want)
	}
	if res.Outputs["output"] != want {
		t.Fatalf("output = %v, want generated text", res.Outputs["output"])
	}
	if g.Params()["temperature"] != 0.8 {
		t.Fatalf("per-call override leaked into params: %v", g.Params())
	}
}

func TestGenerationLongPromptUsesFile(t *testing.T) {
	t.Parallel()

	bin := llamacpptest.Script(t, "llama-main", `while [ $# -gt 0 ]; do
  if [ "$1" = "--file" ]; then wc -c < "$2"; fi
  if [ "$1" = "--prompt" ]; then echo inline; fi
  shift
done`)
	dir := t.TempDir()
	g := NewGeneration(NewModel(writeModel(t), ModelOptions{}), nil)
	g.SetExecutable(bin)
	g.SetTempDir(dir)

	res, err := g.Execute(context.Background(), Values{"prompt": strings.Repeat("a", 5000)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := res.Payload["text"]; got != "5000" {
		t.Fatalf("text = %q, want prompt read from file", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("prompt file not removed: %v", entries)
	}
}

func TestGenerationNoModel(t *testing.T) {
	t.Parallel()

	g := NewGeneration(nil, nil)
	res, err := g.Execute(context.Background(), Values{"prompt": "x"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != StatusError || res.Error != "No model available" {
		t.Fatalf("result = %+v", res)
	}
	if res.Payload["text"] != "" || res.Payload["method"] != MethodDirect {
		t.Fatalf("payload = %v", res.Payload)
	}
}

func TestGenerationMissingPrompt(t *testing.T) {
	t.Parallel()

	res, err := NewGeneration(nil, nil).Execute(context.Background(), Values{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.OK() {
		t.Fatalf("status = %q, want error", res.Status)
	}
}

func TestGenerationExecutableFailure(t *testing.T) {
	t.Parallel()

	bin := llamacpptest.Script(t, "llama-main", `echo "out of memory" >&2; exit 3`)
	g := NewGeneration(NewModel(writeModel(t), ModelOptions{}), nil)
	g.SetExecutable(bin)

	res, _ := g.Execute(context.Background(), Values{"input": "x"})
	if res.Status != StatusError || res.Error != "out of memory" {
		t.Fatalf("result = %+v", res)
	}
}

func TestGenerationUsesServerWhenTracked(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	_, port := llamacpptest.Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"content":"from server"}`))
	}))
	bin := llamacpptest.Script(t, "llama-server", `exec sleep 30`)

	m := NewModel(writeModel(t), ModelOptions{ServerBinary: bin, Port: port})
	if !m.StartServer(context.Background()) {
		t.Fatal("StartServer() = false")
	}
	t.Cleanup(func() { _ = m.StopServer() })

	g := NewGeneration(m, nil)
	res, err := g.Execute(context.Background(), Values{"prompt": "hi", "n_keep": 1})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Payload["text"] != "from server" || res.Payload["method"] != MethodAPI {
		t.Fatalf("payload = %v", res.Payload)
	}
	if gotBody["prompt"] != "hi" || gotBody["max_tokens"] != float64(100) || gotBody["n_keep"] != float64(1) {
		t.Fatalf("request body = %v", gotBody)
	}
}

func TestGenerationSplitReasoning(t *testing.T) {
	t.Parallel()

	bin := llamacpptest.Script(t, "llama-main", `printf '<think>plan</think>Answer'`)
	g := NewGeneration(NewModel(writeModel(t), ModelOptions{}), Values{ParamSplitReasoning: true})
	g.SetExecutable(bin)

	res, err := g.Execute(context.Background(), Values{"prompt": "q"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Payload["text"] != "Answer" || res.Payload["reasoning"] != "plan" {
		t.Fatalf("payload = %v", res.Payload)
	}
	if res.Outputs["output"] != "Answer" || res.Outputs["reasoning"] != "plan" {
		t.Fatalf("outputs = %v", res.Outputs)
	}

	res, err = g.Execute(context.Background(), Values{"prompt": "q", ParamSplitReasoning: false})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Payload["text"] != "<think>plan</think>Answer" {
		t.Fatalf("text = %v, want raw output when splitting is off", res.Payload["text"])
	}
	if _, ok := res.Outputs["reasoning"]; ok {
		t.Fatalf("reasoning output set with splitting off")
	}
}
