package eval

import (
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Operator is a node of the algebra tree. Evaluate may read and replace
// ctx.InputMultiset; the returned multiset is the operator's result.
type Operator interface {
	Evaluate(ctx *Context) (*multiset.Multiset, error)
	// Variables lists the variables the operator may bind, without
	// duplicates.
	Variables() []string
	String() string
}

// Expression is a value expression over one solution, identified by ID and
// resolved through the context's Binder.
//
// Evaluate returns a *QueryError with ErrCodeExpression for type errors and
// unbound variables.
type Expression interface {
	Evaluate(ctx *Context, id int) (rdf.Term, error)
	// CanParallelise reports whether the expression may be evaluated
	// concurrently and out of order.
	CanParallelise() bool
	Variables() []string
	String() string
}

// Ordering compares two solutions for ORDER BY.
type Ordering interface {
	Compare(ctx *Context, a, b *solution.Set) int
	String() string
}

// Optimizer rewrites an algebra tree before evaluation.
type Optimizer interface {
	Name() string
	Optimize(op Operator) Operator
}

// Binder resolves a solution ID to the solution it names.
type Binder interface {
	Solution(ctx *Context, id int) (*solution.Set, bool)
}

// DefaultBinder looks the ID up in the output multiset, then the input.
type DefaultBinder struct{}

func (DefaultBinder) Solution(ctx *Context, id int) (*solution.Set, bool) {
	for _, m := range []*multiset.Multiset{ctx.OutputMultiset, ctx.InputMultiset} {
		if m == nil {
			continue
		}
		if s, ok := m.Get(id); ok {
			return s, true
		}
	}
	return nil, false
}

// MultisetBinder resolves IDs against a single multiset.
type MultisetBinder struct {
	Multiset *multiset.Multiset
}

func (b MultisetBinder) Solution(_ *Context, id int) (*solution.Set, bool) {
	if b.Multiset == nil {
		return nil, false
	}
	return b.Multiset.Get(id)
}
