// Package solution implements the solution (binding set) data model: a
// mapping from variable name to an optional RDF term.
package solution

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/leviathan/internal/rdf"
)

// ErrVariableBound is returned when Add targets a variable the set already
// holds. Bindings are write-once.
var ErrVariableBound = errors.New("variable cannot be changed")

// Set is one solution: variable name to term, where a nil term means the
// variable is present but unbound.
//
// A Set is owned by whoever created it until it is placed into a multiset;
// after that it must be treated as immutable. Join always allocates a new Set.
type Set struct {
	id     int
	vars   []string // insertion order
	values map[string]rdf.Term
}

// New creates an empty Set.
func New() *Set {
	return &Set{values: make(map[string]rdf.Term)}
}

// FromMap creates a Set from a map. Variables are ordered by name.
func FromMap(m map[string]rdf.Term) *Set {
	s := &Set{values: make(map[string]rdf.Term, len(m))}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		s.vars = append(s.vars, k)
		s.values[k] = m[k]
	}
	return s
}

// ID returns the identifier assigned by the owning multiset.
func (s *Set) ID() int { return s.id }

// SetID assigns the identifier. Called by multisets on insertion.
func (s *Set) SetID(id int) { s.id = id }

// Len returns the number of variables held (bound or not).
func (s *Set) Len() int { return len(s.vars) }

// Variables returns the variables held, in insertion order.
func (s *Set) Variables() []string { return slices.Clone(s.vars) }

// Contains reports whether the variable is held (bound or not).
func (s *Set) Contains(v string) bool {
	_, ok := s.values[v]
	return ok
}

// Bound reports whether the variable is held with a non-nil term.
func (s *Set) Bound(v string) bool { return s.values[v] != nil }

// Get returns the term bound to v, or nil.
func (s *Set) Get(v string) rdf.Term { return s.values[v] }

// Add binds v to t. Fails with ErrVariableBound if v is already held.
func (s *Set) Add(v string, t rdf.Term) error {
	if _, exists := s.values[v]; exists {
		return fmt.Errorf("add ?%s: %w", v, ErrVariableBound)
	}
	s.vars = append(s.vars, v)
	s.values[v] = t
	return nil
}

// MustAdd is like Add but panics on error.
// Use only in tests or when v is known to be fresh.
func (s *Set) MustAdd(v string, t rdf.Term) *Set {
	if err := s.Add(v, t); err != nil {
		panic(err)
	}
	return s
}

// Remove drops v from the set. No-op if absent.
func (s *Set) Remove(v string) {
	if _, exists := s.values[v]; !exists {
		return
	}
	delete(s.values, v)
	if i := slices.Index(s.vars, v); i >= 0 {
		s.vars = slices.Delete(s.vars, i, i+1)
	}
}

// Join returns a new Set holding the union of both sides' bindings.
// On collision the left (receiver) binding wins unless it is unbound, in
// which case the right binding is used. Neither input is modified.
func (s *Set) Join(other *Set) *Set {
	out := &Set{
		vars:   make([]string, 0, len(s.vars)+len(other.vars)),
		values: make(map[string]rdf.Term, len(s.vars)+len(other.vars)),
	}
	for _, v := range s.vars {
		out.vars = append(out.vars, v)
		out.values[v] = s.values[v]
	}
	for _, v := range other.vars {
		existing, held := out.values[v]
		switch {
		case !held:
			out.vars = append(out.vars, v)
			out.values[v] = other.values[v]
		case existing == nil:
			out.values[v] = other.values[v]
		}
	}
	return out
}

// IsCompatibleWith reports SPARQL join-compatibility over vars: for each
// variable, either side is unbound or both hold equal terms.
func (s *Set) IsCompatibleWith(other *Set, vars []string) bool {
	for _, v := range vars {
		a, b := s.values[v], other.values[v]
		if a == nil || b == nil {
			continue
		}
		if !rdf.Equal(a, b) {
			return false
		}
	}
	return true
}

// IsMinusCompatibleWith reports whether any variable in vars is bound on
// both sides to equal terms. Used by MINUS exclusion.
func (s *Set) IsMinusCompatibleWith(other *Set, vars []string) bool {
	for _, v := range vars {
		a, b := s.values[v], other.values[v]
		if a != nil && b != nil && rdf.Equal(a, b) {
			return true
		}
	}
	return false
}

// Copy returns an independent copy of the bindings. The ID is not copied.
func (s *Set) Copy() *Set {
	out := &Set{
		vars:   slices.Clone(s.vars),
		values: make(map[string]rdf.Term, len(s.values)),
	}
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

// Project returns a new Set restricted to vars. Variables the receiver does
// not hold are skipped.
func (s *Set) Project(vars []string) *Set {
	out := New()
	for _, v := range vars {
		if t, ok := s.values[v]; ok {
			out.vars = append(out.vars, v)
			out.values[v] = t
		}
	}
	return out
}

// Equals compares bindings structurally. A variable missing on one side is
// treated as unbound, so unbound matches unbound.
func (s *Set) Equals(other *Set) bool {
	if other == nil {
		return false
	}
	for _, v := range s.vars {
		if !rdf.Equal(s.values[v], other.values[v]) {
			return false
		}
	}
	for _, v := range other.vars {
		if _, held := s.values[v]; !held && other.values[v] != nil {
			return false
		}
	}
	return true
}

// Key returns the canonical form of the bound variables, sorted by name.
// Sets that are Equals have identical keys.
func (s *Set) Key() string {
	bound := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		if s.values[v] != nil {
			bound = append(bound, v)
		}
	}
	slices.Sort(bound)

	var b strings.Builder
	for _, v := range bound {
		b.WriteString(v)
		b.WriteByte(0)
		b.WriteString(rdf.Key(s.values[v]))
		b.WriteByte(0)
	}
	return b.String()
}

// Hash returns a content-addressed identity for the bindings.
func (s *Set) Hash() string {
	return rdf.HashWithDomain(rdf.DomainSolution, []byte(s.Key()))
}

// String renders the set as {?a = <x>, ?b = "y"}, in insertion order.
func (s *Set) String() string {
	parts := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		t := s.values[v]
		if t == nil {
			parts = append(parts, "?"+v+" = UNDEF")
			continue
		}
		parts = append(parts, "?"+v+" = "+t.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
