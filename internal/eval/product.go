package eval

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/solution"
)

// stopFlag is a write-once cancellation signal shared by the product's
// workers. Once stopped it stays stopped.
type stopFlag struct {
	v atomic.Bool
}

func (f *stopFlag) Stop()         { f.v.Store(true) }
func (f *stopFlag) Stopped() bool { return f != nil && f.v.Load() }

// Product computes the cross product of left and right. Every left solution
// is joined with every right solution (left-biased, no compatibility
// check).
//
// Short-circuits: right Identity returns left; right Null or empty returns
// Null; left Identity returns right; left Null or empty returns Null.
//
// With a timeout configured the product runs asynchronously and is raced
// against the remaining budget. On expiry workers are told to stop and the
// solutions produced so far are returned; ctx is marked partial.
func Product(ctx *Context, left, right *multiset.Multiset) *multiset.Multiset {
	if r, done := shortCircuit(left, right); done {
		return r
	}
	return run(ctx, left, right, nil)
}

// FilteredProduct is Product fused with a filter: each joined solution is
// inserted, evaluated by ID against expr, and removed again when expr is
// false or raises an error.
//
// When right is Identity, expr is applied to left directly. The parallel
// path is used only when expr.CanParallelise().
func FilteredProduct(ctx *Context, left, right *multiset.Multiset, expr Expression) *multiset.Multiset {
	if right.IsIdentity() {
		return Filter(ctx, left, expr)
	}
	if r, done := shortCircuit(left, right); done {
		if r.IsNull() {
			return r
		}
		// left was Identity
		return Filter(ctx, r, expr)
	}
	return run(ctx, left, right, expr)
}

// Filter returns a General multiset holding copies of the solutions of m for
// which expr is true. Errors count as false. Null stays Null; Identity stays
// Identity when the filter accepts the empty solution.
func Filter(ctx *Context, m *multiset.Multiset, expr Expression) *multiset.Multiset {
	if m.IsNull() {
		return m
	}
	defer ctx.WithBinder(MultisetBinder{Multiset: m})()

	if m.IsIdentity() {
		if accepts(ctx, expr, 0) {
			return m
		}
		return multiset.New()
	}
	out := multiset.New(m.Variables()...)
	for _, s := range m.Sets() {
		if accepts(ctx, expr, s.ID()) {
			out.Add(s.Copy())
		}
	}
	return out
}

func shortCircuit(left, right *multiset.Multiset) (*multiset.Multiset, bool) {
	switch {
	case right.IsIdentity():
		return left, true
	case right.IsNull() || right.IsEmpty():
		return multiset.NewNull(), true
	case left.IsIdentity():
		return right, true
	case left.IsNull():
		return multiset.NewNull(), true
	case left.IsEmpty():
		// A satisfiable shape with no matches, not Null.
		return multiset.New(), true
	}
	return nil, false
}

// run picks the target shape and strategy and executes the product.
func run(ctx *Context, left, right *multiset.Multiset, expr Expression) *multiset.Multiset {
	parallel := ctx.Options.Parallel && (expr == nil || expr.CanParallelise())

	var target *multiset.Multiset
	if parallel {
		outer, inner := left.Len(), right.Len()
		if inner > outer {
			outer, inner = inner, outer
		}
		target = multiset.NewPartitioned(outer, inner)
	} else {
		target = multiset.New()
	}
	for _, v := range left.Variables() {
		target.AddVariable(v)
	}
	for _, v := range right.Variables() {
		target.AddVariable(v)
	}

	if expr != nil {
		defer ctx.WithBinder(MultisetBinder{Multiset: target})()
	}

	compute := func(stop *stopFlag) {
		if parallel {
			parallelProduct(ctx, left, right, target, expr, stop)
			return
		}
		serialProduct(ctx, left, right, target, expr, stop)
	}

	timeout := ctx.RemainingTimeout()
	if timeout <= 0 {
		compute(nil)
		return target
	}

	if raced(ctx, timeout, compute) {
		ctx.MarkPartial()
		ctx.Logger.Warn("product timed out, returning partial result",
			"timeout", ctx.Options.Timeout,
			"solutions", target.Len(),
			"parallel", parallel,
		)
	}
	return target
}

// raced runs compute asynchronously and waits up to timeout. On expiry (or
// cancellation of the standard context) it sets the stop flag and waits for
// compute to observe it. Reports whether the flag was set.
func raced(ctx *Context, timeout time.Duration, compute func(*stopFlag)) bool {
	stop := &stopFlag{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		compute(stop)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return false
	case <-timer.C:
	case <-ctx.Context().Done():
	}
	stop.Stop()
	<-done
	return true
}

// serialProduct joins left-outer × right-inner, checking stop once per
// outer row.
func serialProduct(ctx *Context, left, right, target *multiset.Multiset, expr Expression, stop *stopFlag) {
	inner := right.Sets()
	for _, l := range left.Sets() {
		if stop.Stopped() {
			return
		}
		for _, r := range inner {
			id := target.Add(l.Join(r))
			if expr != nil && !accepts(ctx, expr, id) {
				target.Remove(id)
			}
		}
	}
}

// parallelProduct runs one task per row of the larger operand, bounded by
// the worker limit. Task i writes partition i. Joins stay left-biased
// whichever side is outer. Stop is checked once per task.
func parallelProduct(ctx *Context, left, right, target *multiset.Multiset, expr Expression, stop *stopFlag) {
	ls, rs := left.Sets(), right.Sets()
	outer, inner := ls, rs
	leftOuter := len(ls) >= len(rs)
	if !leftOuter {
		outer, inner = rs, ls
	}

	var g errgroup.Group
	g.SetLimit(ctx.workers())
	for i, o := range outer {
		if stop.Stopped() {
			break
		}
		g.Go(func() error {
			if stop.Stopped() {
				return nil
			}
			for _, in := range inner {
				var joined *solution.Set
				if leftOuter {
					joined = o.Join(in)
				} else {
					joined = in.Join(o)
				}
				id := target.AddToPartition(i, joined)
				if expr != nil && !accepts(ctx, expr, id) {
					target.Remove(id)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// accepts evaluates expr for solution id. Errors count as false.
func accepts(ctx *Context, expr Expression, id int) bool {
	t, err := expr.Evaluate(ctx, id)
	if err != nil {
		ctx.Logger.Debug("filter rejected solution", "solution", id, "error", err)
		return false
	}
	ok, err := EffectiveBooleanValue(t)
	if err != nil {
		ctx.Logger.Debug("filter rejected solution", "solution", id, "error", err)
		return false
	}
	return ok
}
