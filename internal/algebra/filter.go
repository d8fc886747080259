package algebra

import (
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
)

// Filter keeps the solutions of Inner for which Expr is true. Expression
// errors count as false.
type Filter struct {
	Expr  eval.Expression
	Inner eval.Operator
}

func (f *Filter) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(f.Inner)
	if err != nil {
		return nil, err
	}
	return eval.Filter(ctx, in, f.Expr), nil
}

func (f *Filter) Children() []eval.Operator { return []eval.Operator{f.Inner} }
func (f *Filter) Variables() []string       { return f.Inner.Variables() }
func (f *Filter) String() string            { return unary("Filter", f.Expr.String(), f.Inner) }
