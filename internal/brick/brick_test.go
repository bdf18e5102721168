package brick

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/samcharles93/llamabricks/internal/metrics"
)

type stubBrick struct {
	Base
	run func(in Values) (Result, error)
}

func newStub(name string, run func(in Values) (Result, error)) *stubBrick {
	return &stubBrick{Base: NewBase(name), run: run}
}

func (s *stubBrick) Execute(_ context.Context, in Values) (Result, error) {
	return s.run(in)
}

func TestConnectCopiesRecordedOutput(t *testing.T) {
	t.Parallel()

	from := newStub("a", nil)
	to := newStub("b", nil)
	from.Slots().Record(Values{"output": "hello"})

	if got := Connect(from, to, "output", "prompt"); got != Brick(to) {
		t.Fatalf("Connect() returned %v, want target", got)
	}
	if v := to.Slots().Inputs()["prompt"]; v != "hello" {
		t.Fatalf("staged input = %v, want hello", v)
	}
}

func TestConnectMissingOutputIsNoop(t *testing.T) {
	t.Parallel()

	from := newStub("a", nil)
	to := newStub("b", nil)
	to.Slots().SetInput("prompt", "keep")

	Connect(from, to, "output", "prompt")
	if v := to.Slots().Inputs()["prompt"]; v != "keep" {
		t.Fatalf("staged input = %v, want keep", v)
	}
}

func TestRunRecordsOutputsAndIsolatesInput(t *testing.T) {
	t.Parallel()

	b := newStub("echo", func(in Values) (Result, error) {
		in["mutated"] = true
		return Success(Values{"x": 1}).WithOutputs(Values{"output": in["input"]}), nil
	})
	in := Values{"input": "v"}

	res, err := Run(context.Background(), b, in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if _, ok := in["mutated"]; ok {
		t.Fatalf("Run() leaked mutation into caller input")
	}
	if v, _ := b.Slots().Output("output"); v != "v" {
		t.Fatalf("recorded output = %v, want v", v)
	}
}

func TestRunConvertsPanic(t *testing.T) {
	t.Parallel()

	b := newStub("boom", func(Values) (Result, error) { panic("bad") })
	_, err := Run(context.Background(), b, nil)
	if err == nil || !strings.Contains(err.Error(), "panic in boom: bad") {
		t.Fatalf("Run() error = %v, want panic conversion", err)
	}
}

func TestRunFaultSkipsRecording(t *testing.T) {
	t.Parallel()

	want := errors.New("fault")
	b := newStub("f", func(Values) (Result, error) {
		return Success(nil).WithOutputs(Values{"output": 1}), want
	})
	if _, err := Run(context.Background(), b, nil); !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}
	if _, ok := b.Slots().Output("output"); ok {
		t.Fatalf("outputs recorded despite fault")
	}
}

func TestResultMap(t *testing.T) {
	t.Parallel()

	m := Failure("nope", Values{"text": ""}).Map()
	if m["status"] != "error" || m["error"] != "nope" || m["text"] != "" {
		t.Fatalf("Map() = %v", m)
	}
	if _, ok := Success(nil).Map()["error"]; ok {
		t.Fatalf("success Map() carries an error key")
	}
}

func TestRunLabelsMetricsByKind(t *testing.T) {
	t.Parallel()

	b := newStub("kind-label-test", func(Values) (Result, error) { return Success(nil), nil })
	b.Rename("renamed-by-caller")
	if b.Kind() != "kind-label-test" {
		t.Fatalf("Kind() = %q, want construction name", b.Kind())
	}

	before := testutil.ToFloat64(metrics.BrickExecutions("kind-label-test", "success"))
	if _, err := Run(context.Background(), b, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.BrickExecutions("kind-label-test", "success")) - before; got != 1 {
		t.Fatalf("kind counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.BrickExecutions("renamed-by-caller", "success")); got != 0 {
		t.Fatalf("renamed counter = %v, want 0", got)
	}
}
