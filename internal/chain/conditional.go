package chain

import (
	"context"
	"fmt"

	"github.com/samcharles93/llamabricks/internal/brick"
)

// Predicate decides a branch from the initial input.
type Predicate func(brick.Values) bool

// Branch pairs a predicate with the brick to run either way. Either brick
// may be nil.
type Branch struct {
	When Predicate
	Then brick.Brick
	Else brick.Brick
}

// Conditional evaluates each branch against the initial input and runs
// exactly one side of it.
type Conditional struct {
	name     string
	branches []Branch
}

// NewConditional returns a conditional with no branches.
func NewConditional(name string) *Conditional {
	return &Conditional{name: name}
}

func (c *Conditional) Name() string { return c.name }

// AddCondition appends a branch.
func (c *Conditional) AddCondition(when Predicate, then, otherwise brick.Brick) *Conditional {
	c.branches = append(c.branches, Branch{When: when, Then: then, Else: otherwise})
	return c
}

// Execute picks Then when initial is non-empty and When holds, Else
// otherwise. With no branches it succeeds with no results.
func (c *Conditional) Execute(ctx context.Context, initial brick.Values) *Report {
	rep, log, ctx := begin(ctx, c.name, KindConditional)
	for _, br := range c.branches {
		pick, err := decide(br.When, initial)
		if err != nil {
			return finish(log, KindConditional, rep, err.Error())
		}
		target := br.Else
		if pick {
			target = br.Then
		}
		if target == nil {
			continue
		}
		res, err := brick.Run(ctx, target, initial)
		if err != nil {
			return finish(log, KindConditional, rep, err.Error())
		}
		rep.Results.put(target.Name(), res)
	}
	return finish(log, KindConditional, rep, "")
}

func decide(when Predicate, initial brick.Values) (pick bool, err error) {
	if len(initial) == 0 || when == nil {
		return false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in predicate: %v", r)
		}
	}()
	return when(initial), nil
}
