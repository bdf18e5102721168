package brick

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/samcharles93/llamabricks/internal/llamacpp"
)

// Tokenization operations.
const (
	OpTokenize   = "tokenize"
	OpDetokenize = "detokenize"
	OpCount      = "count"
)

const (
	tokenCacheTTL      = 10 * time.Minute
	tokenCacheCapacity = 512
)

// Tokenization runs the llama-tokenize executable against the model and
// caches token ids per (model, text).
type Tokenization struct {
	Base
	model      *Model
	executable string
	cache      *ttlcache.Cache[string, []int]
}

// NewTokenization returns a Tokenization bound to model, which may be nil.
func NewTokenization(model *Model) *Tokenization {
	return &Tokenization{
		Base:       NewBase("TokenizationBrick"),
		model:      model,
		executable: "llama-tokenize",
		cache: ttlcache.New[string, []int](
			ttlcache.WithTTL[string, []int](tokenCacheTTL),
			ttlcache.WithCapacity[string, []int](tokenCacheCapacity),
			ttlcache.WithDisableTouchOnHit[string, []int](),
		),
	}
}

// SetExecutable overrides the tokenizer binary.
func (t *Tokenization) SetExecutable(path string) {
	if path != "" {
		t.executable = path
	}
}

const msgNoTokenizerModel = "No model available for tokenization"

// Execute reads "text" (or "input") and "operation", which defaults to
// tokenize.
func (t *Tokenization) Execute(ctx context.Context, in Values) (Result, error) {
	text, ok := in.String("text")
	if !ok {
		text, _ = in.String("input")
	}
	op, _ := in.String("operation")
	if op == "" {
		op = OpTokenize
	}

	var res Result
	switch {
	case !t.model.Exists():
		res = Failure(msgNoTokenizerModel, Values{})
	case op == OpTokenize:
		res = t.tokenize(ctx, text)
	case op == OpCount:
		res = t.tokenize(ctx, text)
		if res.OK() {
			res.Payload = Values{"count": res.Payload["count"]}
		}
	case op == OpDetokenize:
		res = Failure("Detokenization not yet implemented", Values{})
	default:
		res = Failure("Unknown operation: "+op, Values{})
	}

	out := Values{"tokens": res.Map()}
	if res.OK() {
		if op == OpCount {
			out[DefaultOutputKey] = res.Payload["count"]
		} else {
			out[DefaultOutputKey] = res.Payload["tokens"]
		}
	}
	return res.WithOutputs(out), nil
}

func (t *Tokenization) tokenize(ctx context.Context, text string) Result {
	key := t.model.Path() + "\x00" + text
	if item := t.cache.Get(key); item != nil {
		ids := item.Value()
		return Success(Values{"tokens": ids, "count": len(ids)})
	}

	out, err := llamacpp.Exec(ctx, llamacpp.TokenizeTimeout, t.executable,
		"--model", t.model.Path(), "--prompt", text)
	if err != nil {
		return Failure(err.Error(), Values{})
	}
	ids := ParseTokenIDs(out)
	t.cache.Set(key, ids, ttlcache.DefaultTTL)
	return Success(Values{"tokens": ids, "count": len(ids)})
}

// ParseTokenIDs extracts the integer token ids from llama-tokenize output.
// It accepts both the "id -> 'piece'" listing and the bracketed "--ids" form;
// anything that is not an integer is ignored.
func ParseTokenIDs(out string) []int {
	ids := []int{}
	for _, f := range strings.Fields(out) {
		f = strings.Trim(f, "[],")
		if f == "" {
			continue
		}
		if n, err := strconv.Atoi(f); err == nil && n >= 0 {
			ids = append(ids, n)
		}
	}
	return ids
}
