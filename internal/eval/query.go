package eval

import (
	"fmt"
	"slices"

	"github.com/roach88/leviathan/internal/rdf"
)

// Form is the result form of a query.
type Form string

const (
	FormSelect Form = "SELECT"
	FormAsk    Form = "ASK"
)

// Query is the query object an algebra tree was built from. Operators read
// it through the context to pick policy: Reduced looks at Limit, OrderBy
// prefers Ordering over its own.
type Query struct {
	Form Form
	Root Operator

	// Variables is the projection. Empty means every variable of Root.
	Variables []string

	// Limit caps the number of solutions; 0 means no limit.
	Limit  int
	Offset int

	// Ordering, when set, overrides any ordering baked into OrderBy nodes.
	Ordering Ordering

	// DefaultGraphs (FROM) and NamedGraphs (FROM NAMED).
	DefaultGraphs []rdf.Term
	NamedGraphs   []rdf.Term

	Optimizers []Optimizer
}

// HasLimit reports whether a positive LIMIT is declared.
func (q *Query) HasLimit() bool { return q != nil && q.Limit > 0 }

// ProjectedVariables returns Variables, or Root's variables when empty.
func (q *Query) ProjectedVariables() []string {
	if len(q.Variables) > 0 {
		return slices.Clone(q.Variables)
	}
	if q.Root == nil {
		return nil
	}
	return q.Root.Variables()
}

// WithNamedGraphs returns a shallow copy of q whose NamedGraphs also hold
// the uris not already present. q itself is left unchanged.
func (q *Query) WithNamedGraphs(uris []rdf.Term) *Query {
	next := slices.Clone(q.NamedGraphs)
	for _, uri := range uris {
		if !slices.ContainsFunc(next, func(t rdf.Term) bool { return rdf.Equal(t, uri) }) {
			next = append(next, uri)
		}
	}
	cp := *q
	cp.NamedGraphs = next
	return &cp
}

// String renders the query head for logs.
func (q *Query) String() string {
	form := q.Form
	if form == "" {
		form = FormSelect
	}
	s := fmt.Sprintf("%s %v", form, q.ProjectedVariables())
	if q.Limit > 0 {
		s += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		s += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	return s
}
