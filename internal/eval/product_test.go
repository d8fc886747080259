package eval

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// predicate is a test expression backed by a Go function over the resolved
// solution.
type predicate struct {
	fn       func(s *solution.Set) (rdf.Term, error)
	parallel bool
	delay    time.Duration
}

func (p predicate) Evaluate(ctx *Context, id int) (rdf.Term, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	s, ok := ctx.Solution(id)
	if !ok {
		return nil, NewExpressionError("solution %d not found", id)
	}
	return p.fn(s)
}

func (p predicate) CanParallelise() bool { return p.parallel }
func (p predicate) Variables() []string  { return nil }
func (p predicate) String() string       { return "predicate" }

func newTestContext(opts Options) *Context {
	ds := dataset.NewMemory(nil)
	return NewContext(context.Background(), dataset.NewScoped(ds), nil, opts)
}

func numbers(v string, n int) *multiset.Multiset {
	m := multiset.New(v)
	for i := 0; i < n; i++ {
		m.Add(solution.New().MustAdd(v, rdf.NewInteger(int64(i))))
	}
	return m
}

func value(s *solution.Set, v string) int {
	n, _ := s.Get(v).(rdf.Literal).Number()
	return int(n)
}

var strategies = []struct {
	name string
	opts Options
}{
	{"serial", Options{}},
	{"serial with timeout", Options{Timeout: time.Minute}},
	{"parallel", Options{Parallel: true, MaxWorkers: 3}},
	{"parallel with timeout", Options{Parallel: true, MaxWorkers: 3, Timeout: time.Minute}},
}

func TestProduct_IdentityLaws(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ctx := newTestContext(st.opts)
			m := numbers("x", 3)

			assert.Same(t, m, Product(ctx, m, multiset.NewIdentity()))
			assert.True(t, Product(ctx, m, multiset.NewNull()).IsNull())
			assert.True(t, Product(ctx, m, multiset.New()).IsNull(), "empty right absorbs")
			assert.Same(t, m, Product(ctx, multiset.NewIdentity(), m))
			assert.True(t, Product(ctx, multiset.NewNull(), m).IsNull())

			empty := Product(ctx, multiset.New(), m)
			assert.False(t, empty.IsNull(), "empty left does not absorb")
			assert.Equal(t, multiset.KindGeneral, empty.Kind())
			assert.True(t, empty.IsEmpty())

			id := multiset.NewIdentity()
			assert.Same(t, id, Product(ctx, id, multiset.NewIdentity()))
		})
	}
}

func TestProduct_Cardinality(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ctx := newTestContext(st.opts)
			for _, size := range [][2]int{{1, 1}, {4, 7}, {7, 4}, {10, 1}} {
				got := Product(ctx, numbers("x", size[0]), numbers("y", size[1]))
				assert.Equal(t, size[0]*size[1], got.Len(), "%v", size)
				assert.ElementsMatch(t, []string{"x", "y"}, got.Variables())
				assert.False(t, ctx.Partial())
			}
		})
	}
}

func TestProduct_LeftBiasWithoutCompatibilityCheck(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ctx := newTestContext(st.opts)
			left := multiset.New()
			left.Add(solution.New().MustAdd("v", rdf.NewLiteral("a")))
			right := multiset.New()
			right.Add(solution.New().MustAdd("v", rdf.NewLiteral("b")))

			got := Product(ctx, left, right)
			require.Equal(t, 1, got.Len())
			assert.Equal(t, rdf.NewLiteral("a"), got.Sets()[0].Get("v"))
		})
	}
}

func TestProduct_ParallelKeepsLeftBiasWhenRightIsLarger(t *testing.T) {
	ctx := newTestContext(Options{Parallel: true, MaxWorkers: 2})
	left := multiset.New()
	left.Add(solution.New().MustAdd("v", rdf.NewLiteral("left")))
	right := multiset.New()
	for i := 0; i < 5; i++ {
		right.Add(solution.New().MustAdd("v", rdf.NewLiteral("right")).MustAdd("i", rdf.NewInteger(int64(i))))
	}

	got := Product(ctx, left, right)
	assert.Equal(t, multiset.KindPartitioned, got.Kind())
	require.Equal(t, 5, got.Len())
	for _, s := range got.Sets() {
		assert.Equal(t, rdf.NewLiteral("left"), s.Get("v"))
	}
}

func sumIsEven(s *solution.Set) (rdf.Term, error) {
	if !s.Bound("x") || !s.Bound("y") {
		return nil, NewExpressionError("unbound")
	}
	x, y := value(s, "x"), value(s, "y")
	if x == 3 {
		return nil, NewExpressionError("boom on x=3")
	}
	return rdf.NewBoolean((x+y)%2 == 0), nil
}

func TestFilteredProduct_SubsetOfProduct(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ctx := newTestContext(st.opts)
			left, right := numbers("x", 6), numbers("y", 4)
			expr := predicate{fn: sumIsEven, parallel: true}

			full := Product(ctx, left, right)
			filtered := FilteredProduct(ctx, left, right, expr)

			fullKeys := make(map[string]bool)
			for _, s := range full.Sets() {
				fullKeys[s.Key()] = true
			}

			// 6*4 pairs, half even, minus the even pairs with x=3 (y=1, y=3)
			assert.Equal(t, 10, filtered.Len())
			for _, s := range filtered.Sets() {
				assert.True(t, fullKeys[s.Key()], "%s not in product", s)
				assert.NotEqual(t, 3, value(s, "x"), "errors count as false")
				assert.Equal(t, 0, (value(s, "x")+value(s, "y"))%2)
			}
		})
	}
}

func TestFilteredProduct_NonParallelExpressionRunsSerially(t *testing.T) {
	ctx := newTestContext(Options{Parallel: true})
	got := FilteredProduct(ctx, numbers("x", 3), numbers("y", 3), predicate{fn: sumIsEven})
	assert.Equal(t, multiset.KindGeneral, got.Kind())
}

func TestFilteredProduct_RejectingEverythingIsEmptyNotNull(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ctx := newTestContext(st.opts)
			never := predicate{fn: func(*solution.Set) (rdf.Term, error) { return rdf.NewBoolean(false), nil }, parallel: true}
			got := FilteredProduct(ctx, numbers("x", 3), numbers("y", 3), never)
			assert.False(t, got.IsNull())
			assert.True(t, got.IsEmpty())
		})
	}
}

func TestFilteredProduct_IdentityRightFiltersLeft(t *testing.T) {
	ctx := newTestContext(Options{})
	odd := predicate{fn: func(s *solution.Set) (rdf.Term, error) {
		return rdf.NewBoolean(value(s, "x")%2 == 1), nil
	}}

	got := FilteredProduct(ctx, numbers("x", 5), multiset.NewIdentity(), odd)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 1, value(got.Sets()[0], "x"))
	assert.Equal(t, 3, value(got.Sets()[1], "x"))

	got = FilteredProduct(ctx, multiset.NewIdentity(), numbers("x", 5), odd)
	assert.Equal(t, 2, got.Len(), "identity left filters right")
}

func TestFilteredProduct_RestoresBinder(t *testing.T) {
	ctx := newTestContext(Options{})
	custom := MultisetBinder{Multiset: numbers("z", 1)}
	ctx.Binder = custom

	FilteredProduct(ctx, numbers("x", 2), numbers("y", 2), predicate{fn: sumIsEven})
	assert.Equal(t, custom, ctx.Binder)
}

func TestProduct_TimeoutTruncates(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			ctx := newTestContext(Options{Parallel: parallel, MaxWorkers: 2, Timeout: time.Millisecond})
			slow := predicate{
				fn:       func(*solution.Set) (rdf.Term, error) { return rdf.NewBoolean(true), nil },
				parallel: true,
				delay:    time.Millisecond,
			}

			got := FilteredProduct(ctx, numbers("x", 40), numbers("y", 40), slow)

			assert.LessOrEqual(t, got.Len(), 40*40)
			assert.GreaterOrEqual(t, got.Len(), 0)
			assert.True(t, ctx.Partial())
		})
	}
}

func TestProduct_ExpiredBudgetStillReturns(t *testing.T) {
	ctx := newTestContext(Options{Timeout: time.Nanosecond})
	time.Sleep(time.Millisecond)
	assert.Equal(t, time.Nanosecond, ctx.RemainingTimeout())

	got := Product(ctx, numbers("x", 3), numbers("y", 3))
	assert.LessOrEqual(t, got.Len(), 9)
}

func TestFilter_IdentityAndNull(t *testing.T) {
	ctx := newTestContext(Options{})
	yes := predicate{fn: func(*solution.Set) (rdf.Term, error) { return rdf.NewBoolean(true), nil }}
	no := predicate{fn: func(*solution.Set) (rdf.Term, error) { return rdf.NewBoolean(false), nil }}

	id := multiset.NewIdentity()
	assert.Same(t, id, Filter(ctx, id, yes))
	assert.True(t, Filter(ctx, id, no).IsEmpty())
	assert.True(t, Filter(ctx, multiset.NewNull(), yes).IsNull())
}
