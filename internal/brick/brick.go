// Package brick defines the unit-of-work contract and the bricks that drive
// the llama.cpp binaries: Model, Generation, Tokenization and Config.
//
// A brick has a name, a pair of recorded slots (the last inputs staged for it
// and the last outputs it produced) and a single Execute operation. Slots are
// reset only at construction; repeated runs overwrite or accumulate keys.
// Bricks are not safe for concurrent use. A brick shared by two chains that
// run at the same time races on its slots, so give each chain its own bricks.
package brick

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/metrics"
)

// Default connection keys.
const (
	DefaultOutputKey = "output"
	DefaultInputKey  = "input"
)

// Values carries keyword inputs and named outputs.
type Values map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	return out
}

// String returns the value under key when it is a string.
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}

// Brick is a named single-operation unit of work.
//
// Execute returns an error only for faults the caller must see (a missing
// model artifact, a panic converted by Run). Expected failures come back as
// a Result with StatusError.
type Brick interface {
	Name() string
	Slots() *Slots
	Execute(ctx context.Context, in Values) (Result, error)
}

// Base carries the name and slots every brick embeds.
type Base struct {
	kind  string
	name  string
	slots Slots
}

// NewBase returns a Base with empty slots. name is also the brick's kind,
// which survives Rename.
func NewBase(name string) Base {
	return Base{kind: name, name: name, slots: Slots{inputs: Values{}, outputs: Values{}}}
}

func (b *Base) Name() string { return b.name }

// Kind returns the construction-time name. Metrics label by kind so
// caller-chosen names cannot grow label sets.
func (b *Base) Kind() string { return b.kind }

// Rename changes the brick name. Chains key results by name, so two bricks
// of the same type in one chain need distinct names.
func (b *Base) Rename(name string) { b.name = name }

func (b *Base) Slots() *Slots { return &b.slots }

// Slots holds a brick's recorded inputs and outputs.
type Slots struct {
	inputs  Values
	outputs Values
}

// Inputs returns a copy of the staged inputs.
func (s *Slots) Inputs() Values { return s.inputs.Clone() }

// Outputs returns a copy of the recorded outputs.
func (s *Slots) Outputs() Values { return s.outputs.Clone() }

// Output looks up one recorded output.
func (s *Slots) Output(key string) (any, bool) {
	v, ok := s.outputs[key]
	return v, ok
}

// SetInput stages a value for the next execution.
func (s *Slots) SetInput(key string, v any) {
	if s.inputs == nil {
		s.inputs = Values{}
	}
	s.inputs[key] = v
}

// Record merges out into the recorded outputs.
func (s *Slots) Record(out Values) {
	if len(out) == 0 {
		return
	}
	if s.outputs == nil {
		s.outputs = Values{}
	}
	maps.Copy(s.outputs, out)
}

// Connect copies from's recorded output outputKey into to's inputs under
// inputKey. A missing output key leaves to untouched. It returns to so calls
// can be chained.
func Connect(from, to Brick, outputKey, inputKey string) Brick {
	if v, ok := from.Slots().Output(outputKey); ok {
		to.Slots().SetInput(inputKey, v)
	}
	return to
}

// Run executes b with a private copy of in, records the result outputs in
// b's slots and converts a panic into an error.
func Run(ctx context.Context, b Brick, in Values) (res Result, err error) {
	log := logger.FromContext(ctx).With("brick", b.Name())
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", b.Name(), r)
		}
		status := string(res.Status)
		if err != nil {
			status = "fault"
		}
		metrics.ObserveBrick(kindOf(b), status, time.Since(start))
		log.Debug("brick finished", "status", status, "elapsed", time.Since(start))
	}()

	log.Debug("brick started", "inputs", len(in))
	res, err = b.Execute(ctx, in.Clone())
	if err != nil {
		return res, err
	}
	b.Slots().Record(res.Outputs)
	return res, nil
}

func kindOf(b Brick) string {
	if k, ok := b.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return "custom"
}
