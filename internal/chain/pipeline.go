package chain

import "github.com/samcharles93/llamabricks/internal/brick"

// Pipeline is a Chain whose Add connects the previous last brick's "output"
// to the new brick's "input".
type Pipeline struct {
	*Chain
}

// NewPipeline returns an empty pipeline.
func NewPipeline(name string) *Pipeline {
	c := New(name)
	c.kind = KindPipeline
	return &Pipeline{Chain: c}
}

// Add connects then appends b.
func (p *Pipeline) Add(b brick.Brick) *Pipeline {
	if n := len(p.bricks); n > 0 {
		p.Connect(p.bricks[n-1], b, brick.DefaultOutputKey, brick.DefaultInputKey)
	}
	p.Chain.Add(b)
	return p
}

// Pipe is Add.
func (p *Pipeline) Pipe(b brick.Brick) *Pipeline { return p.Add(b) }
