// Package chain runs bricks as a flat graph: sequentially along declared
// connections, as a pipeline, side by side on one input, or by predicate.
//
// Execution is lazy. A brick runs at most once per run, and only when it is
// the entry brick or the target of a connection. Bricks no connection
// reaches are silently skipped; Validate reports them.
package chain

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/samcharles93/llamabricks/internal/brick"
	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/metrics"
)

// Kinds label metrics and logs.
const (
	KindChain       = "chain"
	KindPipeline    = "pipeline"
	KindParallel    = "parallel"
	KindConditional = "conditional"
)

const msgEmpty = "No bricks in chain"

// Runner is anything that executes into a Report.
type Runner interface {
	Name() string
	Execute(ctx context.Context, initial brick.Values) *Report
}

// Connection routes one recorded output of From into one input of To.
type Connection struct {
	From      brick.Brick
	To        brick.Brick
	OutputKey string
	InputKey  string
}

func (c Connection) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", c.From.Name(), c.OutputKey, c.To.Name(), c.InputKey)
}

// Chain executes its first brick, then walks connections in declaration
// order.
type Chain struct {
	name   string
	kind   string
	bricks []brick.Brick
	conns  []Connection
}

// New returns an empty chain.
func New(name string) *Chain {
	return &Chain{name: name, kind: KindChain}
}

func (c *Chain) Name() string { return c.name }

// Add appends b. Duplicates are allowed.
func (c *Chain) Add(b brick.Brick) *Chain {
	c.bricks = append(c.bricks, b)
	return c
}

// Connect declares a connection. Empty keys mean "output" and "input".
func (c *Chain) Connect(from, to brick.Brick, outputKey, inputKey string) *Chain {
	if outputKey == "" {
		outputKey = brick.DefaultOutputKey
	}
	if inputKey == "" {
		inputKey = brick.DefaultInputKey
	}
	c.conns = append(c.conns, Connection{From: from, To: to, OutputKey: outputKey, InputKey: inputKey})
	return c
}

// Bricks returns the registered bricks in order.
func (c *Chain) Bricks() []brick.Brick { return append([]brick.Brick(nil), c.bricks...) }

// Connections returns the declared connections in order.
func (c *Chain) Connections() []Connection { return append([]Connection(nil), c.conns...) }

// Execute runs the chain. initial goes to the first brick only; nil means no
// input. A fault aborts the run and the report carries the partial results.
func (c *Chain) Execute(ctx context.Context, initial brick.Values) *Report {
	rep, log, ctx := begin(ctx, c.name, c.kind)
	if len(c.bricks) == 0 {
		return finish(log, c.kind, rep, msgEmpty)
	}
	for _, f := range c.findings() {
		log.Warn("chain graph issue", "issue", f)
	}

	first := c.bricks[0]
	res, err := brick.Run(ctx, first, initial)
	if err != nil {
		return finish(log, c.kind, rep, err.Error())
	}
	rep.Results.put(first.Name(), res)

	for _, conn := range c.conns {
		brick.Connect(conn.From, conn.To, conn.OutputKey, conn.InputKey)
		if rep.Results.Has(conn.To.Name()) {
			continue
		}
		res, err := brick.Run(ctx, conn.To, conn.To.Slots().Inputs())
		if err != nil {
			return finish(log, c.kind, rep, err.Error())
		}
		rep.Results.put(conn.To.Name(), res)
	}
	return finish(log, c.kind, rep, "")
}

func begin(ctx context.Context, name, kind string) (*Report, logger.Logger, context.Context) {
	rep := &Report{
		RunID:     uuid.NewString(),
		ChainName: name,
		Status:    brick.StatusSuccess,
		Results:   newResults(),
	}
	log := logger.FromContext(ctx).With("chain", name, "kind", kind, "run_id", rep.RunID)
	log.Debug("chain started")
	return rep, log, logger.WithContext(ctx, log)
}

func finish(log logger.Logger, kind string, rep *Report, fault string) *Report {
	if fault != "" {
		rep.Status = brick.StatusError
		rep.Error = fault
		log.Error("chain failed", "err", fault, "completed", rep.Results.Len())
	} else {
		log.Debug("chain finished", "completed", rep.Results.Len())
	}
	metrics.ObserveChain(kind, string(rep.Status))
	return rep
}
