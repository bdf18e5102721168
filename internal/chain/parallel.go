package chain

import (
	"context"

	"github.com/samcharles93/llamabricks/internal/brick"
)

// Parallel hands the same initial input to every brick. Bricks still run one
// after another in registration order and nothing propagates between them.
type Parallel struct {
	name   string
	bricks []brick.Brick
}

// NewParallel returns an empty group.
func NewParallel(name string) *Parallel {
	return &Parallel{name: name}
}

func (p *Parallel) Name() string { return p.name }

// Add appends b.
func (p *Parallel) Add(b brick.Brick) *Parallel {
	p.bricks = append(p.bricks, b)
	return p
}

// Execute runs every brick with initial.
func (p *Parallel) Execute(ctx context.Context, initial brick.Values) *Report {
	rep, log, ctx := begin(ctx, p.name, KindParallel)
	if len(p.bricks) == 0 {
		return finish(log, KindParallel, rep, msgEmpty)
	}
	for _, b := range p.bricks {
		res, err := brick.Run(ctx, b, initial)
		if err != nil {
			return finish(log, KindParallel, rep, err.Error())
		}
		rep.Results.put(b.Name(), res)
	}
	return finish(log, KindParallel, rep, "")
}
