package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/rdf"
)

// Op is a comparison operator.
type Op string

const (
	OpEqual          Op = "="
	OpNotEqual       Op = "!="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
)

// Compare applies Op to two operands.
//
// Numeric literals compare by value. = and != fall back to term identity
// for everything else; ordering comparisons require two numbers or two
// literals of the same datatype and are an error otherwise.
type Compare struct {
	Op          Op
	Left, Right eval.Expression
}

// Equal builds left = right.
func Equal(left, right eval.Expression) Compare { return Compare{OpEqual, left, right} }

// NotEqual builds left != right.
func NotEqual(left, right eval.Expression) Compare { return Compare{OpNotEqual, left, right} }

// Less builds left < right.
func Less(left, right eval.Expression) Compare { return Compare{OpLess, left, right} }

// Greater builds left > right.
func Greater(left, right eval.Expression) Compare { return Compare{OpGreater, left, right} }

func (c Compare) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	l, err := c.Left.Evaluate(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := c.Right.Evaluate(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Op == OpEqual || c.Op == OpNotEqual {
		eq := termsEqual(l, r)
		return rdf.NewBoolean(eq == (c.Op == OpEqual)), nil
	}

	cmp, err := order(l, r)
	if err != nil {
		return nil, err
	}
	var res bool
	switch c.Op {
	case OpLess:
		res = cmp < 0
	case OpLessOrEqual:
		res = cmp <= 0
	case OpGreater:
		res = cmp > 0
	case OpGreaterOrEqual:
		res = cmp >= 0
	default:
		return nil, eval.NewExpressionError("unknown operator %q", c.Op)
	}
	return rdf.NewBoolean(res), nil
}

func (c Compare) CanParallelise() bool { return allParallel(c.Left, c.Right) }
func (c Compare) Variables() []string  { return variablesOf(c.Left, c.Right) }
func (c Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

func termsEqual(a, b rdf.Term) bool {
	la, okA := a.(rdf.Literal)
	lb, okB := b.(rdf.Literal)
	if okA && okB && la.IsNumeric() && lb.IsNumeric() {
		return rdf.Compare(la, lb) == 0
	}
	return rdf.Equal(a, b)
}

func order(a, b rdf.Term) (int, error) {
	la, okA := a.(rdf.Literal)
	lb, okB := b.(rdf.Literal)
	if !okA || !okB {
		return 0, eval.NewExpressionError("cannot order %s and %s", a, b)
	}
	if la.IsNumeric() != lb.IsNumeric() || (!la.IsNumeric() && la.Datatype != lb.Datatype) {
		return 0, eval.NewExpressionError("cannot order %s and %s", a, b)
	}
	if la.IsNumeric() {
		if _, err := la.Number(); err != nil {
			return 0, eval.NewExpressionError("%v", err)
		}
		if _, err := lb.Number(); err != nil {
			return 0, eval.NewExpressionError("%v", err)
		}
	}
	return rdf.Compare(la, lb), nil
}

// And is logical conjunction with FILTER error semantics: false wins over
// an error, otherwise an error propagates.
type And []eval.Expression

func (a And) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	var firstErr error
	for _, e := range a {
		ok, err := boolOf(ctx, e, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !ok {
			return rdf.NewBoolean(false), nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return rdf.NewBoolean(true), nil
}

func (a And) CanParallelise() bool { return allParallel(a...) }
func (a And) Variables() []string  { return variablesOf(a...) }
func (a And) String() string       { return joinExprs(a, " && ") }

// Or is logical disjunction: true wins over an error.
type Or []eval.Expression

func (o Or) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	var firstErr error
	for _, e := range o {
		ok, err := boolOf(ctx, e, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return rdf.NewBoolean(true), nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return rdf.NewBoolean(false), nil
}

func (o Or) CanParallelise() bool { return allParallel(o...) }
func (o Or) Variables() []string  { return variablesOf(o...) }
func (o Or) String() string       { return joinExprs(o, " || ") }

// Not negates its operand.
type Not struct {
	Expr eval.Expression
}

func (n Not) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	ok, err := boolOf(ctx, n.Expr, id)
	if err != nil {
		return nil, err
	}
	return rdf.NewBoolean(!ok), nil
}

func (n Not) CanParallelise() bool { return n.Expr.CanParallelise() }
func (n Not) Variables() []string  { return n.Expr.Variables() }
func (n Not) String() string       { return "!" + n.Expr.String() }

func boolOf(ctx *eval.Context, e eval.Expression, id int) (bool, error) {
	t, err := e.Evaluate(ctx, id)
	if err != nil {
		return false, err
	}
	return eval.EffectiveBooleanValue(t)
}

func joinExprs[E ~[]eval.Expression](exprs E, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
