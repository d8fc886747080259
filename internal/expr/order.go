package expr

import (
	"strings"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Condition is one ORDER BY key.
type Condition struct {
	Expr       eval.Expression
	Descending bool
}

// Ordering sorts solutions by a list of conditions, the first deciding.
// Keys are evaluated through the context's binder, so the caller must
// point it at the multiset being sorted. A key that fails to evaluate sorts
// as unbound.
type Ordering []Condition

// Asc orders by the ascending value of e.
func Asc(e eval.Expression) Condition { return Condition{Expr: e} }

// Desc orders by the descending value of e.
func Desc(e eval.Expression) Condition { return Condition{Expr: e, Descending: true} }

// OrderBy builds an Ordering.
func OrderBy(conds ...Condition) Ordering { return Ordering(conds) }

func (o Ordering) Compare(ctx *eval.Context, a, b *solution.Set) int {
	for _, c := range o {
		ka := key(ctx, c.Expr, a.ID())
		kb := key(ctx, c.Expr, b.ID())
		cmp := rdf.Compare(ka, kb)
		if c.Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

func (o Ordering) String() string {
	parts := make([]string, len(o))
	for i, c := range o {
		if c.Descending {
			parts[i] = "DESC(" + c.Expr.String() + ")"
		} else {
			parts[i] = "ASC(" + c.Expr.String() + ")"
		}
	}
	return strings.Join(parts, " ")
}

func key(ctx *eval.Context, e eval.Expression, id int) rdf.Term {
	t, err := e.Evaluate(ctx, id)
	if err != nil {
		return nil
	}
	return t
}
