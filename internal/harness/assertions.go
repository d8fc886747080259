package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/leviathan/internal/engine"
	"github.com/roach88/leviathan/internal/plan"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/store"
)

// undef marks an unbound variable in column and contains assertions.
const undef = "UNDEF"

// AssertionError is returned when an assertion fails.
// It includes the solutions to help debug the failure.
type AssertionError struct {
	Type      string   // Assertion type for categorization
	Expected  string   // Human-readable expected outcome
	Actual    string   // Human-readable actual outcome
	Solutions []string // Solutions of the result, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Solutions) > 0 {
		fmt.Fprintf(&buf, "\nSolutions:\n")
		for i, s := range e.Solutions {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, s)
		}
	}

	return buf.String()
}

func newAssertionError(kind string, res *engine.Result, expected, actual string) *AssertionError {
	e := &AssertionError{Type: kind, Expected: expected, Actual: actual}
	if res != nil {
		for _, s := range res.Solutions {
			e.Solutions = append(e.Solutions, s.String())
		}
	}
	return e
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Plan  *plan.Plan
	Ctx   context.Context
}

func (a *AssertionContext) term(s string) (rdf.Term, error) {
	if a == nil || a.Plan == nil {
		return (&plan.Plan{}).Term(s)
	}
	return a.Plan.Term(s)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the store for graph_triples assertions and
// the plan whose prefixes terms are read with.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if result.Query == nil && assertion.Type != AssertGraphTriples {
			err = fmt.Errorf("assertion[%d]: %s needs a result, but the execution failed", i, assertion.Type)
		} else {
			switch assertion.Type {
			case AssertSolutionCount:
				err = assertSolutionCount(result.Query, assertion)
			case AssertColumn:
				err = assertColumn(result.Query, assertion, actx)
			case AssertContains:
				err = assertContains(result.Query, assertion, actx)
			case AssertAsk:
				err = assertFlag(result.Query, assertion, result.Query.Ask)
			case AssertPartial:
				err = assertFlag(result.Query, assertion, result.Query.Partial)
			case AssertGraphTriples:
				if actx == nil || actx.Store == nil {
					err = fmt.Errorf("assertion[%d]: graph_triples requires store context", i)
				} else {
					err = assertGraphTriples(actx, assertion)
				}
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertSolutionCount(res *engine.Result, a Assertion) error {
	if res.Len() != a.Count {
		return newAssertionError(a.Type, res,
			fmt.Sprintf("%d solutions", a.Count),
			fmt.Sprintf("%d solutions", res.Len()))
	}
	return nil
}

func assertColumn(res *engine.Result, a Assertion, actx *AssertionContext) error {
	want := make([]rdf.Term, len(a.Values))
	for i, s := range a.Values {
		if s == undef {
			continue
		}
		t, err := actx.term(s)
		if err != nil {
			return fmt.Errorf("column %s: value %d: %w", a.Var, i, err)
		}
		want[i] = t
	}

	got := res.Column(a.Var)
	if !termsEqual(want, got) {
		return newAssertionError(a.Type, res,
			fmt.Sprintf("?%s = %s", a.Var, formatTerms(want)),
			fmt.Sprintf("?%s = %s", a.Var, formatTerms(got)))
	}
	return nil
}

func assertContains(res *engine.Result, a Assertion, actx *AssertionContext) error {
	want := make(map[string]rdf.Term, len(a.Row))
	for v, s := range a.Row {
		if s == undef {
			want[v] = nil
			continue
		}
		t, err := actx.term(s)
		if err != nil {
			return fmt.Errorf("contains: ?%s: %w", v, err)
		}
		want[v] = t
	}

	for _, s := range res.Solutions {
		if matchRow(want, s.Get) {
			return nil
		}
	}
	return newAssertionError(a.Type, res, fmt.Sprintf("a solution with %s", formatRow(want)), "no such solution")
}

// matchRow reports whether get binds every variable of want as expected
// (subset semantics).
func matchRow(want map[string]rdf.Term, get func(string) rdf.Term) bool {
	for v, t := range want {
		if !rdf.Equal(get(v), t) {
			return false
		}
	}
	return true
}

func assertFlag(res *engine.Result, a Assertion, actual bool) error {
	if actual != *a.Value {
		return newAssertionError(a.Type, res, fmt.Sprint(*a.Value), fmt.Sprint(actual))
	}
	return nil
}

func assertGraphTriples(actx *AssertionContext, a Assertion) error {
	var name rdf.Term
	if a.Graph != "" {
		t, err := actx.term(a.Graph)
		if err != nil {
			return fmt.Errorf("graph_triples: %w", err)
		}
		name = t
	}

	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	infos, err := actx.Store.Graphs(ctx)
	if err != nil {
		return fmt.Errorf("graph_triples: %w", err)
	}

	actual := 0
	for _, info := range infos {
		if rdf.Equal(info.Name, name) {
			actual = info.Triples
		}
	}
	if actual != a.Count {
		label := "unnamed graph"
		if name != nil {
			label = name.String()
		}
		return newAssertionError(a.Type, nil,
			fmt.Sprintf("%d triples in %s", a.Count, label),
			fmt.Sprintf("%d triples", actual))
	}
	return nil
}

func termsEqual(a, b []rdf.Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !rdf.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func formatTerms(ts []rdf.Term) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = formatTerm(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatRow(row map[string]rdf.Term) string {
	parts := make([]string, 0, len(row))
	for v, t := range row {
		parts = append(parts, "?"+v+" = "+formatTerm(t))
	}
	slices.Sort(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatTerm(t rdf.Term) string {
	if t == nil {
		return undef
	}
	return t.String()
}
