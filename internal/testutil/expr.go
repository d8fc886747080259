package testutil

import (
	"time"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Predicate is an expression backed by a Go function over the solution
// being tested. Unknown ids evaluate to an expression error.
type Predicate struct {
	Fn       func(*solution.Set) bool
	Parallel bool
}

func (p Predicate) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	s, ok := ctx.Solution(id)
	if !ok {
		return nil, eval.NewExpressionError("no solution %d", id)
	}
	return rdf.NewBoolean(p.Fn(s)), nil
}

func (p Predicate) CanParallelise() bool { return p.Parallel }
func (Predicate) Variables() []string    { return nil }
func (Predicate) String() string         { return "predicate()" }

// Slow is an always-true expression that takes Delay per evaluation. It
// stops waiting when the evaluation is cancelled.
type Slow struct {
	Delay    time.Duration
	Parallel bool
}

func (s Slow) Evaluate(ctx *eval.Context, _ int) (rdf.Term, error) {
	select {
	case <-time.After(s.Delay):
	case <-ctx.Context().Done():
	}
	return rdf.NewBoolean(true), nil
}

func (s Slow) CanParallelise() bool { return s.Parallel }
func (Slow) Variables() []string    { return nil }
func (s Slow) String() string       { return "slow(" + s.Delay.String() + ")" }
