package chain

import (
	"errors"
	"fmt"

	"github.com/samcharles93/llamabricks/internal/brick"
)

var (
	ErrEmpty              = errors.New("no bricks in chain")
	ErrDanglingConnection = errors.New("connection endpoint not registered")
	ErrSelfLoop           = errors.New("connection loops to itself")
	ErrCycle              = errors.New("connections form a cycle")
	ErrUnreachable        = errors.New("brick never executed")
	ErrSourceNotRun       = errors.New("connection source has not run")
)

// Validate checks the connection graph. It returns every finding joined; nil
// means each registered brick will run and every connection reads outputs
// produced earlier in the same run.
func (c *Chain) Validate() error {
	return errors.Join(c.findings()...)
}

func (c *Chain) findings() []error {
	if len(c.bricks) == 0 {
		return []error{ErrEmpty}
	}

	registered := make(map[brick.Brick]bool, len(c.bricks))
	for _, b := range c.bricks {
		registered[b] = true
	}

	var errs []error
	edges := make(map[brick.Brick][]brick.Brick)
	for _, conn := range c.conns {
		switch {
		case !registered[conn.From] || !registered[conn.To]:
			errs = append(errs, fmt.Errorf("%w: %s", ErrDanglingConnection, conn))
			continue
		case conn.From == conn.To:
			errs = append(errs, fmt.Errorf("%w: %s", ErrSelfLoop, conn))
			continue
		}
		edges[conn.From] = append(edges[conn.From], conn.To)
	}

	if cyc := findCycle(c.bricks, edges); cyc != nil {
		errs = append(errs, fmt.Errorf("%w: %s", ErrCycle, pathString(cyc)))
	}

	// Replay Execute's order: the entry brick, then each connection's target
	// once per name.
	ran := map[string]bool{c.bricks[0].Name(): true}
	for _, conn := range c.conns {
		if !ran[conn.From.Name()] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrSourceNotRun, conn))
		}
		ran[conn.To.Name()] = true
	}
	reported := make(map[string]bool)
	for _, b := range c.bricks {
		if name := b.Name(); !ran[name] && !reported[name] {
			reported[name] = true
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachable, name))
		}
	}
	return errs
}

// findCycle returns the bricks along the first cycle found, closed by
// repeating its start, or nil.
func findCycle(bricks []brick.Brick, edges map[brick.Brick][]brick.Brick) []brick.Brick {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[brick.Brick]int)
	var stack []brick.Brick

	var visit func(b brick.Brick) []brick.Brick
	visit = func(b brick.Brick) []brick.Brick {
		state[b] = active
		stack = append(stack, b)
		for _, next := range edges[b] {
			switch state[next] {
			case active:
				for i, s := range stack {
					if s == next {
						return append(append([]brick.Brick(nil), stack[i:]...), next)
					}
				}
			case unvisited:
				if cyc := visit(next); cyc != nil {
					return cyc
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[b] = done
		return nil
	}

	for _, b := range bricks {
		if state[b] == unvisited {
			if cyc := visit(b); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

func pathString(path []brick.Brick) string {
	s := ""
	for i, b := range path {
		if i > 0 {
			s += " -> "
		}
		s += b.Name()
	}
	return s
}
