package algebra

import (
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
)

// PropertyFunctionImpl is an extension that replaces plain triple lookup
// for a predicate. It reads its input from ctx.InputMultiset.
type PropertyFunctionImpl interface {
	Name() string
	Variables() []string
	Evaluate(ctx *eval.Context) (*multiset.Multiset, error)
}

// PropertyFunction evaluates Inner into the context's input multiset and
// hands over to Function. It has no query form.
type PropertyFunction struct {
	Inner    eval.Operator
	Function PropertyFunctionImpl
}

func (p *PropertyFunction) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(p.Inner)
	if err != nil {
		return nil, err
	}
	defer ctx.WithInput(in)()
	return p.Function.Evaluate(ctx)
}

func (p *PropertyFunction) Children() []eval.Operator { return []eval.Operator{p.Inner} }

func (p *PropertyFunction) Variables() []string {
	return mergeVariables(p.Inner.Variables(), p.Function.Variables())
}

func (p *PropertyFunction) String() string { return unary("PropertyFunction", p.Function.Name(), p.Inner) }
