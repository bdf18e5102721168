package brick

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/samcharles93/llamabricks/internal/llamacpp"
	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/reasoning"
)

// Generation methods reported in results.
const (
	MethodAPI    = "api"
	MethodDirect = "direct"
)

const msgNoModel = "No model available"

// ParamSplitReasoning, when true, moves <think> blocks out of "text" and
// into a separate "reasoning" value. It is never sent to llama.cpp.
const ParamSplitReasoning = "split_reasoning"

// Prompts longer than this go to the one-shot executable through a file.
const promptFileThreshold = 4096

// DefaultGenerationParams returns the sampling defaults.
func DefaultGenerationParams() Values {
	return Values{
		"max_tokens":  100,
		"temperature": 0.8,
		"top_p":       0.9,
		"top_k":       40,
	}
}

// Generation produces text from a prompt, through llama-server when the
// model has a process and through the one-shot executable otherwise.
type Generation struct {
	Base
	model      *Model
	params     Values
	executable string
	tempDir    string
}

// NewGeneration merges params over the defaults. model may be nil.
func NewGeneration(model *Model, params Values) *Generation {
	merged := DefaultGenerationParams()
	maps.Copy(merged, params)
	return &Generation{
		Base:       NewBase("GenerationBrick"),
		model:      model,
		params:     merged,
		executable: "llama-main",
	}
}

// SetExecutable overrides the one-shot generation binary.
func (g *Generation) SetExecutable(path string) {
	if path != "" {
		g.executable = path
	}
}

// SetTempDir sets where prompt files are created. Empty means os.TempDir.
func (g *Generation) SetTempDir(dir string) { g.tempDir = dir }

// Params returns a copy of the construction-time parameters.
func (g *Generation) Params() Values { return g.params.Clone() }

// Execute reads "prompt" (or "input" when wired by a default connection).
// Every other input key overrides a parameter for this call only.
func (g *Generation) Execute(ctx context.Context, in Values) (Result, error) {
	prompt, ok := in.String("prompt")
	if !ok {
		prompt, ok = in.String("input")
	}
	params := g.params.Clone()
	for k, v := range in {
		if k != "prompt" && k != "input" {
			params[k] = v
		}
	}
	split, _ := params[ParamSplitReasoning].(bool)
	delete(params, ParamSplitReasoning)

	var res Result
	switch {
	case !ok:
		res = Failure("prompt is required", Values{"text": "", "method": MethodDirect})
	case g.model.HasProcess():
		res = g.viaAPI(ctx, prompt, params)
	default:
		res = g.direct(ctx, prompt, params)
	}

	text, _ := res.Payload["text"].(string)
	out := Values{}
	if split && res.OK() {
		parts := reasoning.Split(text)
		text = parts.Content
		res.Payload["text"] = text
		res.Payload["reasoning"] = parts.Reasoning
		out["reasoning"] = parts.Reasoning
	}
	out["generated_text"] = text
	out["generation_info"] = res.Map()
	out[DefaultOutputKey] = text
	return res.WithOutputs(out), nil
}

func (g *Generation) viaAPI(ctx context.Context, prompt string, params Values) Result {
	text, err := g.model.Server().Client().Complete(ctx, prompt, params)
	if err != nil {
		return Failure(err.Error(), Values{"text": "", "method": MethodAPI})
	}
	return Success(Values{"text": text, "method": MethodAPI})
}

func (g *Generation) direct(ctx context.Context, prompt string, params Values) Result {
	if !g.model.Exists() {
		return Failure(msgNoModel, Values{"text": "", "method": MethodDirect})
	}

	args := []string{"--model", g.model.Path()}
	if len(prompt) > promptFileThreshold {
		f, err := os.CreateTemp(g.tempDir, "llamabricks-prompt-*.txt")
		if err != nil {
			return Failure(err.Error(), Values{"text": "", "method": MethodDirect})
		}
		defer func() { _ = os.Remove(f.Name()) }()
		_, werr := f.WriteString(prompt)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return Failure(werr.Error(), Values{"text": "", "method": MethodDirect})
		}
		args = append(args, "--file", f.Name())
	} else {
		args = append(args, "--prompt", prompt)
	}
	args = append(args,
		"--n-predict", fmt.Sprint(params["max_tokens"]),
		"--temp", fmt.Sprint(params["temperature"]),
		"--top-p", fmt.Sprint(params["top_p"]),
		"--top-k", fmt.Sprint(params["top_k"]),
	)

	text, err := llamacpp.Exec(ctx, llamacpp.GenerateTimeout, g.executable, args...)
	if err != nil {
		logger.FromContext(ctx).Warn("direct generation failed", "executable", g.executable, "err", err)
		return Failure(err.Error(), Values{"text": "", "method": MethodDirect})
	}
	return Success(Values{"text": text, "method": MethodDirect})
}
