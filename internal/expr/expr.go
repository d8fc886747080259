// Package expr provides the expressions used by FILTER and ORDER BY:
// variables, constants, comparisons, logical connectives, BOUND and a small
// set of built-in functions. Expressions resolve solutions by ID through
// the evaluation context's binder.
package expr

import (
	"fmt"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/rdf"
)

// Var reads a variable from the solution.
type Var string

func (v Var) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	s, ok := ctx.Solution(id)
	if !ok {
		return nil, eval.NewExpressionError("no solution with id %d", id)
	}
	t := s.Get(string(v))
	if t == nil {
		return nil, eval.NewExpressionError("variable ?%s is unbound", string(v))
	}
	return t, nil
}

func (Var) CanParallelise() bool  { return true }
func (v Var) Variables() []string { return []string{string(v)} }
func (v Var) String() string      { return "?" + string(v) }

// Const is a constant term.
type Const struct {
	Term rdf.Term
}

func (c Const) Evaluate(*eval.Context, int) (rdf.Term, error) { return c.Term, nil }
func (Const) CanParallelise() bool                            { return true }
func (Const) Variables() []string                             { return nil }
func (c Const) String() string                                { return fmt.Sprint(c.Term) }

// Bound tests whether a variable is bound.
type Bound string

func (b Bound) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	s, ok := ctx.Solution(id)
	if !ok {
		return nil, eval.NewExpressionError("no solution with id %d", id)
	}
	return rdf.NewBoolean(s.Bound(string(b))), nil
}

func (Bound) CanParallelise() bool  { return true }
func (b Bound) Variables() []string { return []string{string(b)} }
func (b Bound) String() string      { return "BOUND(?" + string(b) + ")" }

// variablesOf merges the variables of several expressions without
// duplicates.
func variablesOf(exprs ...eval.Expression) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, e := range exprs {
		for _, v := range e.Variables() {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func allParallel(exprs ...eval.Expression) bool {
	for _, e := range exprs {
		if !e.CanParallelise() {
			return false
		}
	}
	return true
}
