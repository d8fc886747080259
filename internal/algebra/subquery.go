package algebra

import (
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
)

// SubQuery evaluates a nested query as a leaf.
//
// A Null or empty input short-circuits to Null. Otherwise the nested query
// runs in a child context that starts from the outer input and the current
// graph scope and shares the optimizer pipeline. The nested query sees the
// named graphs of the outer query as well as its own. The operator tree is
// never mutated, so one SubQuery may be evaluated concurrently.
// Grouped results are flattened before they leave.
type SubQuery struct {
	Query *eval.Query
}

func (q *SubQuery) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in := ctx.InputMultiset
	if in == nil {
		in = multiset.NewIdentity()
	}
	if in.IsNull() || in.IsEmpty() {
		return multiset.NewNull(), nil
	}

	nested := q.Query
	if ctx.Query != nil {
		nested = nested.WithNamedGraphs(ctx.Query.NamedGraphs)
	}
	child := ctx.NewChild(nested)
	child.InputMultiset = in

	root := child.Optimize(nested.Root)
	result, err := child.Evaluate(root)
	if err != nil {
		return nil, eval.NewSubQueryError(q.String(), err)
	}
	if result.Kind() == multiset.KindGrouped {
		result = result.Flatten()
	}
	return result, nil
}

func (q *SubQuery) Children() []eval.Operator { return []eval.Operator{q.Query.Root} }
func (q *SubQuery) Variables() []string       { return q.Query.ProjectedVariables() }
func (q *SubQuery) String() string            { return "SubQuery(" + q.Query.Root.String() + ")" }
