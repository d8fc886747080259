package algebra

import (
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/solution"
)

// Product is the unconditional cross product of two operators.
type Product struct {
	Left, Right eval.Operator
}

func (p *Product) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	left, right, err := evaluatePair(ctx, p.Left, p.Right, true)
	if err != nil {
		return nil, err
	}
	return eval.Product(ctx, left, right), nil
}

func (p *Product) Children() []eval.Operator { return []eval.Operator{p.Left, p.Right} }
func (p *Product) Variables() []string       { return mergeVariables(p.Left.Variables(), p.Right.Variables()) }
func (p *Product) String() string            { return "Product(" + p.Left.String() + ", " + p.Right.String() + ")" }

// FilteredProduct is a cross product fused with a filter expression.
// Solutions for which Expr is false or fails are dropped.
type FilteredProduct struct {
	Left, Right eval.Operator
	Expr        eval.Expression
}

func (p *FilteredProduct) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	left, right, err := evaluatePair(ctx, p.Left, p.Right, true)
	if err != nil {
		return nil, err
	}
	return eval.FilteredProduct(ctx, left, right, p.Expr), nil
}

func (p *FilteredProduct) Children() []eval.Operator { return []eval.Operator{p.Left, p.Right} }

func (p *FilteredProduct) Variables() []string {
	return mergeVariables(p.Left.Variables(), p.Right.Variables())
}

func (p *FilteredProduct) String() string {
	return "FilteredProduct(" + p.Expr.String() + ", " + p.Left.String() + ", " + p.Right.String() + ")"
}

// Join is the compatibility join. When the operands share no variables it
// is the cross product and delegates to eval.Product, which brings the
// timeout and parallel strategies with it.
type Join struct {
	Left, Right eval.Operator
}

func (j *Join) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	left, right, err := evaluatePair(ctx, j.Left, j.Right, true)
	if err != nil {
		return nil, err
	}
	if left.IsSentinel() || right.IsSentinel() || left.IsDisjointWith(right) {
		return eval.Product(ctx, left, right), nil
	}
	if left.IsEmpty() || right.IsEmpty() {
		return multiset.NewNull(), nil
	}

	shared := left.SharedVariables(right)
	out := multiset.New(mergeVariables(left.Variables(), right.Variables())...)
	inner := right.Sets()
	for _, l := range left.Sets() {
		for _, r := range inner {
			if l.IsCompatibleWith(r, shared) {
				out.Add(l.Join(r))
			}
		}
	}
	return out, nil
}

func (j *Join) Children() []eval.Operator { return []eval.Operator{j.Left, j.Right} }
func (j *Join) Variables() []string       { return mergeVariables(j.Left.Variables(), j.Right.Variables()) }
func (j *Join) String() string            { return "Join(" + j.Left.String() + ", " + j.Right.String() + ")" }

// LeftJoin keeps every left solution, extended by the compatible right
// solutions for which Expr (optional) holds.
type LeftJoin struct {
	Left, Right eval.Operator
	Expr        eval.Expression
}

func (j *LeftJoin) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	left, right, err := evaluatePair(ctx, j.Left, j.Right, true)
	if err != nil {
		return nil, err
	}
	if left.IsNull() {
		return left, nil
	}
	if right.IsNull() || right.IsEmpty() {
		return left, nil
	}

	shared := left.SharedVariables(right)
	out := multiset.New(mergeVariables(left.Variables(), right.Variables())...)
	inner := right.Sets()
	for _, l := range left.Sets() {
		matched := false
		for _, r := range inner {
			if !l.IsCompatibleWith(r, shared) {
				continue
			}
			id := out.Add(l.Join(r))
			if j.Expr != nil && !accept(ctx, out, j.Expr, id) {
				out.Remove(id)
				continue
			}
			matched = true
		}
		if !matched {
			out.Add(l.Copy())
		}
	}
	return out, nil
}

func (j *LeftJoin) Children() []eval.Operator { return []eval.Operator{j.Left, j.Right} }

func (j *LeftJoin) Variables() []string {
	return mergeVariables(j.Left.Variables(), j.Right.Variables())
}

func (j *LeftJoin) String() string {
	if j.Expr != nil {
		return "LeftJoin(" + j.Expr.String() + ", " + j.Left.String() + ", " + j.Right.String() + ")"
	}
	return "LeftJoin(" + j.Left.String() + ", " + j.Right.String() + ")"
}

// Union is the bag union of two operators. Null on both sides is Null.
type Union struct {
	Left, Right eval.Operator
}

func (u *Union) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	left, right, err := evaluatePair(ctx, u.Left, u.Right, false)
	if err != nil {
		return nil, err
	}
	switch {
	case left.IsNull() && right.IsNull():
		return multiset.NewNull(), nil
	case right.IsNull():
		return left, nil
	case left.IsNull():
		return right, nil
	}
	vars := mergeVariables(left.Variables(), right.Variables())
	return copyInto(vars, append(left.Sets(), right.Sets()...)), nil
}

func (u *Union) Children() []eval.Operator { return []eval.Operator{u.Left, u.Right} }
func (u *Union) Variables() []string       { return mergeVariables(u.Left.Variables(), u.Right.Variables()) }
func (u *Union) String() string            { return "Union(" + u.Left.String() + ", " + u.Right.String() + ")" }

// Minus removes the left solutions that share an equal binding with some
// right solution.
type Minus struct {
	Left, Right eval.Operator
}

func (m *Minus) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	left, right, err := evaluatePair(ctx, m.Left, m.Right, false)
	if err != nil {
		return nil, err
	}
	if left.IsSentinel() || right.IsSentinel() || right.IsEmpty() {
		return left, nil
	}
	shared := left.SharedVariables(right)
	if len(shared) == 0 {
		return left, nil
	}
	excluded := right.Sets()
	var kept []*solution.Set
	for _, l := range left.Sets() {
		drop := false
		for _, r := range excluded {
			if l.IsCompatibleWith(r, shared) && l.IsMinusCompatibleWith(r, shared) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, l)
		}
	}
	return copyInto(left.Variables(), kept), nil
}

func (m *Minus) Children() []eval.Operator { return []eval.Operator{m.Left, m.Right} }
func (m *Minus) Variables() []string       { return m.Left.Variables() }
func (m *Minus) String() string            { return "Minus(" + m.Left.String() + ", " + m.Right.String() + ")" }

// evaluatePair evaluates both operands under the input the pair itself
// received, and leaves that input in place afterwards. When correlated, the
// right operand sees the left result as its input instead, so a sub-query on
// the right starts from the solutions it will be joined with.
func evaluatePair(ctx *eval.Context, left, right eval.Operator, correlated bool) (*multiset.Multiset, *multiset.Multiset, error) {
	outer := ctx.InputMultiset
	defer func() { ctx.InputMultiset = outer }()

	l, err := ctx.Evaluate(left)
	if err != nil {
		return nil, nil, err
	}
	ctx.InputMultiset = outer
	if correlated {
		ctx.InputMultiset = l
	}
	r, err := ctx.Evaluate(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// accept evaluates expr for solution id of m. Errors count as false.
func accept(ctx *eval.Context, m *multiset.Multiset, expr eval.Expression, id int) bool {
	defer ctx.WithBinder(eval.MultisetBinder{Multiset: m})()
	t, err := expr.Evaluate(ctx, id)
	if err != nil {
		return false
	}
	ok, err := eval.EffectiveBooleanValue(t)
	return err == nil && ok
}
