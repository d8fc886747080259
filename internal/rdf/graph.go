package rdf

import (
	"slices"
	"sync"
)

// Triple is a subject/predicate/object statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple creates a triple.
func NewTriple(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// String renders the triple as an N-Triples line (without newline).
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// Key returns the canonical identity of the triple.
func (t Triple) Key() string {
	return Key(t.Subject) + "\x00" + Key(t.Predicate) + "\x00" + Key(t.Object)
}

// Graph is a read view over a set of triples.
//
// All lookup methods return triples in insertion order so that evaluation
// over the same data is deterministic.
type Graph interface {
	// Name returns the graph name, or nil for an unnamed graph.
	Name() Term
	Len() int
	IsEmpty() bool
	Contains(t Triple) bool
	Triples() []Triple
	WithSubject(s Term) []Triple
	WithPredicate(p Term) []Triple
	WithObject(o Term) []Triple
	WithSubjectPredicate(s, p Term) []Triple
	WithSubjectObject(s, o Term) []Triple
	WithPredicateObject(p, o Term) []Triple
}

// MutableGraph is a Graph that accepts changes.
type MutableGraph interface {
	Graph
	// Assert adds triples, returning how many were new.
	Assert(ts ...Triple) int
	// Retract removes triples, returning how many were present.
	Retract(ts ...Triple) int
	Clear()
}

// Match returns the triples of g matching the pattern, where a nil position
// matches anything. It picks the narrowest lookup the graph offers.
func Match(g Graph, s, p, o Term) []Triple {
	switch {
	case s != nil && p != nil && o != nil:
		t := NewTriple(s, p, o)
		if g.Contains(t) {
			return []Triple{t}
		}
		return nil
	case s != nil && p != nil:
		return g.WithSubjectPredicate(s, p)
	case s != nil && o != nil:
		return g.WithSubjectObject(s, o)
	case p != nil && o != nil:
		return g.WithPredicateObject(p, o)
	case s != nil:
		return g.WithSubject(s)
	case p != nil:
		return g.WithPredicate(p)
	case o != nil:
		return g.WithObject(o)
	default:
		return g.Triples()
	}
}

// MemGraph is an indexed in-memory graph.
//
// Thread-safety: reads may run concurrently with each other; writes take an
// exclusive lock.
type MemGraph struct {
	mu      sync.RWMutex
	name    Term
	order   []string
	triples map[string]Triple
	subj    map[string][]string
	pred    map[string][]string
	obj     map[string][]string
}

// NewMemGraph creates a graph with the given name (nil for unnamed)
// holding the given triples.
func NewMemGraph(name Term, triples ...Triple) *MemGraph {
	g := &MemGraph{
		name:    name,
		triples: make(map[string]Triple),
		subj:    make(map[string][]string),
		pred:    make(map[string][]string),
		obj:     make(map[string][]string),
	}
	g.Assert(triples...)
	return g
}

// Name returns the graph name.
func (g *MemGraph) Name() Term { return g.name }

// Len returns the number of triples.
func (g *MemGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// IsEmpty reports whether the graph has no triples.
func (g *MemGraph) IsEmpty() bool { return g.Len() == 0 }

// Contains reports whether the triple is asserted.
func (g *MemGraph) Contains(t Triple) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.triples[t.Key()]
	return ok
}

// Assert adds triples, returning how many were new.
func (g *MemGraph) Assert(ts ...Triple) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	added := 0
	for _, t := range ts {
		k := t.Key()
		if _, exists := g.triples[k]; exists {
			continue
		}
		g.triples[k] = t
		g.order = append(g.order, k)
		g.subj[Key(t.Subject)] = append(g.subj[Key(t.Subject)], k)
		g.pred[Key(t.Predicate)] = append(g.pred[Key(t.Predicate)], k)
		g.obj[Key(t.Object)] = append(g.obj[Key(t.Object)], k)
		added++
	}
	return added
}

// Retract removes triples, returning how many were present.
func (g *MemGraph) Retract(ts ...Triple) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for _, t := range ts {
		k := t.Key()
		if _, exists := g.triples[k]; !exists {
			continue
		}
		delete(g.triples, k)
		g.order = without(g.order, k)
		dropIndex(g.subj, Key(t.Subject), k)
		dropIndex(g.pred, Key(t.Predicate), k)
		dropIndex(g.obj, Key(t.Object), k)
		removed++
	}
	return removed
}

// Clear removes every triple.
func (g *MemGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.order = nil
	g.triples = make(map[string]Triple)
	g.subj = make(map[string][]string)
	g.pred = make(map[string][]string)
	g.obj = make(map[string][]string)
}

// Merge asserts every triple of other into g.
func (g *MemGraph) Merge(other Graph) int {
	return g.Assert(other.Triples()...)
}

// Triples returns all triples in insertion order.
func (g *MemGraph) Triples() []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolve(g.order, nil)
}

// WithSubject returns triples with the given subject.
func (g *MemGraph) WithSubject(s Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolve(g.subj[Key(s)], nil)
}

// WithPredicate returns triples with the given predicate.
func (g *MemGraph) WithPredicate(p Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolve(g.pred[Key(p)], nil)
}

// WithObject returns triples with the given object.
func (g *MemGraph) WithObject(o Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolve(g.obj[Key(o)], nil)
}

// WithSubjectPredicate returns triples with the given subject and predicate.
func (g *MemGraph) WithSubjectPredicate(s, p Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pk := Key(p)
	return g.resolve(g.subj[Key(s)], func(t Triple) bool { return Key(t.Predicate) == pk })
}

// WithSubjectObject returns triples with the given subject and object.
func (g *MemGraph) WithSubjectObject(s, o Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ok := Key(o)
	return g.resolve(g.subj[Key(s)], func(t Triple) bool { return Key(t.Object) == ok })
}

// WithPredicateObject returns triples with the given predicate and object.
func (g *MemGraph) WithPredicateObject(p, o Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pk := Key(p)
	return g.resolve(g.obj[Key(o)], func(t Triple) bool { return Key(t.Predicate) == pk })
}

// resolve maps triple keys to triples. Caller holds the read lock.
func (g *MemGraph) resolve(keys []string, keep func(Triple) bool) []Triple {
	out := make([]Triple, 0, len(keys))
	for _, k := range keys {
		t := g.triples[k]
		if keep == nil || keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func dropIndex(index map[string][]string, term, key string) {
	rest := without(index[term], key)
	if len(rest) == 0 {
		delete(index, term)
		return
	}
	index[term] = rest
}

func without(keys []string, key string) []string {
	if i := slices.Index(keys, key); i >= 0 {
		return slices.Delete(keys, i, i+1)
	}
	return keys
}
