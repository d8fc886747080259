// Package dataset provides the graph store that operators query against and
// the per-evaluation graph-scope manager (Scoped) that decides which graph a
// triple lookup resolves to.
//
// A Dataset holds one unnamed graph (name nil) plus any number of named
// graphs. Lookups on a Dataset span every graph; Scoped narrows them to the
// active or default graph.
package dataset

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/leviathan/internal/rdf"
)

// Dataset is the store abstraction consumed by the evaluator.
type Dataset interface {
	HasTriples() bool
	Triples() []rdf.Triple
	WithSubject(s rdf.Term) []rdf.Triple
	WithPredicate(p rdf.Term) []rdf.Triple
	WithObject(o rdf.Term) []rdf.Triple
	WithSubjectPredicate(s, p rdf.Term) []rdf.Triple
	WithSubjectObject(s, o rdf.Term) []rdf.Triple
	WithPredicateObject(p, o rdf.Term) []rdf.Triple

	// Graph returns the graph named uri. An absent graph yields a fresh
	// empty graph, never nil.
	Graph(uri rdf.Term) rdf.Graph
	HasGraph(uri rdf.Term) bool
	// GraphURIs returns the names of the named graphs (the unnamed graph is
	// excluded), sorted.
	GraphURIs() []rdf.Term
	// Graphs returns every graph including the unnamed one.
	Graphs() []rdf.Graph
	AddGraph(g rdf.Graph)
	RemoveGraph(uri rdf.Term) bool

	// ModifiableGraph returns a buffered read/write view of uri. Changes
	// become visible to the dataset on Flush and are dropped by Discard.
	ModifiableGraph(uri rdf.Term) rdf.MutableGraph
	Flush(ctx context.Context) error
	Discard()
}

// Persister receives committed graph changes on Flush.
type Persister interface {
	SaveGraph(ctx context.Context, g rdf.Graph) error
	DeleteGraph(ctx context.Context, uri rdf.Term) error
}

// MemoryOption configures a Memory dataset.
type MemoryOption func(*Memory)

// WithPersister attaches a Persister that Flush writes through to.
func WithPersister(p Persister) MemoryOption {
	return func(m *Memory) { m.persister = p }
}

// Memory is an in-memory Dataset. Safe for concurrent reads; writes take an
// exclusive lock.
type Memory struct {
	mu        sync.RWMutex
	graphs    map[string]*rdf.MemGraph
	views     map[string]*view
	dirty     map[string]rdf.Term
	deleted   map[string]rdf.Term
	persister Persister
}

// NewMemory creates a dataset holding the given graphs.
func NewMemory(graphs []rdf.Graph, opts ...MemoryOption) *Memory {
	m := &Memory{
		graphs:  make(map[string]*rdf.MemGraph),
		views:   make(map[string]*view),
		dirty:   make(map[string]rdf.Term),
		deleted: make(map[string]rdf.Term),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, g := range graphs {
		m.graphs[rdf.Key(g.Name())] = copyGraph(g.Name(), g)
	}
	return m
}

// HasTriples reports whether any graph holds a triple.
func (m *Memory) HasTriples() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.graphs {
		if !g.IsEmpty() {
			return true
		}
	}
	return false
}

// Triples returns every distinct triple in the dataset.
func (m *Memory) Triples() []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.Triples() })
}

func (m *Memory) WithSubject(s rdf.Term) []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.WithSubject(s) })
}

func (m *Memory) WithPredicate(p rdf.Term) []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.WithPredicate(p) })
}

func (m *Memory) WithObject(o rdf.Term) []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.WithObject(o) })
}

func (m *Memory) WithSubjectPredicate(s, p rdf.Term) []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.WithSubjectPredicate(s, p) })
}

func (m *Memory) WithSubjectObject(s, o rdf.Term) []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.WithSubjectObject(s, o) })
}

func (m *Memory) WithPredicateObject(p, o rdf.Term) []rdf.Triple {
	return m.collect(func(g rdf.Graph) []rdf.Triple { return g.WithPredicateObject(p, o) })
}

// Graph returns the named graph or an empty graph carrying that name.
func (m *Memory) Graph(uri rdf.Term) rdf.Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.graphs[rdf.Key(uri)]; ok {
		return g
	}
	return rdf.NewMemGraph(uri)
}

func (m *Memory) HasGraph(uri rdf.Term) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.graphs[rdf.Key(uri)]
	return ok
}

func (m *Memory) GraphURIs() []rdf.Term {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uris := make([]rdf.Term, 0, len(m.graphs))
	for _, g := range m.graphs {
		if g.Name() != nil {
			uris = append(uris, g.Name())
		}
	}
	slices.SortFunc(uris, rdf.Compare)
	return uris
}

func (m *Memory) Graphs() []rdf.Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graphsLocked()
}

// AddGraph stores a copy of g, replacing any graph with the same name.
func (m *Memory) AddGraph(g rdf.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rdf.Key(g.Name())
	m.graphs[key] = copyGraph(g.Name(), g)
	m.dirty[key] = g.Name()
	delete(m.deleted, key)
}

// RemoveGraph drops the named graph. Reports whether it existed.
func (m *Memory) RemoveGraph(uri rdf.Term) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rdf.Key(uri)
	if _, ok := m.graphs[key]; !ok {
		return false
	}
	delete(m.graphs, key)
	delete(m.dirty, key)
	m.deleted[key] = uri
	return true
}

// ModifiableGraph returns the pending view for uri, creating it from the
// current committed state on first use.
func (m *Memory) ModifiableGraph(uri rdf.Term) rdf.MutableGraph {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rdf.Key(uri)
	if v, ok := m.views[key]; ok {
		return v
	}
	var base rdf.Graph = rdf.NewMemGraph(uri)
	if g, ok := m.graphs[key]; ok {
		base = g
	}
	v := newView(uri, base)
	m.views[key] = v
	return v
}

// Flush commits every pending view and writes changed graphs through to the
// persister, if one is attached. A graph stays queued until the persister
// accepts it, so a failed Flush can be retried.
func (m *Memory) Flush(ctx context.Context) error {
	m.mu.Lock()
	for key, v := range m.views {
		if !v.changed() {
			continue
		}
		m.graphs[key] = v.snapshot()
		m.dirty[key] = v.Name()
		delete(m.deleted, key)
	}
	m.views = make(map[string]*view)

	if m.persister == nil {
		m.dirty = make(map[string]rdf.Term)
		m.deleted = make(map[string]rdf.Term)
		m.mu.Unlock()
		return nil
	}

	type pending struct {
		key string
		src *rdf.MemGraph
		uri rdf.Term
	}
	var save, drop []pending
	for key := range m.dirty {
		save = append(save, pending{key: key, src: m.graphs[key]})
	}
	for key, uri := range m.deleted {
		drop = append(drop, pending{key: key, uri: uri})
	}
	m.mu.Unlock()

	for _, d := range drop {
		if err := m.persister.DeleteGraph(ctx, d.uri); err != nil {
			return fmt.Errorf("flush: delete graph %v: %w", d.uri, err)
		}
		m.mu.Lock()
		if _, back := m.graphs[d.key]; !back {
			delete(m.deleted, d.key)
		}
		m.mu.Unlock()
	}
	for _, p := range save {
		if err := m.persister.SaveGraph(ctx, copyGraph(p.src.Name(), p.src)); err != nil {
			return fmt.Errorf("flush: save graph %v: %w", p.src.Name(), err)
		}
		// A write that landed meanwhile keeps the graph queued.
		m.mu.Lock()
		if m.graphs[p.key] == p.src {
			delete(m.dirty, p.key)
		}
		m.mu.Unlock()
	}
	return nil
}

// Discard drops every pending view.
func (m *Memory) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = make(map[string]*view)
}

func (m *Memory) graphsLocked() []rdf.Graph {
	out := make([]rdf.Graph, 0, len(m.graphs))
	for _, g := range m.graphs {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b rdf.Graph) int { return rdf.Compare(a.Name(), b.Name()) })
	return out
}

// collect runs lookup on every graph in name order and drops duplicate
// triples.
func (m *Memory) collect(lookup func(rdf.Graph) []rdf.Triple) []rdf.Triple {
	m.mu.RLock()
	graphs := m.graphsLocked()
	m.mu.RUnlock()

	var out []rdf.Triple
	seen := make(map[string]struct{})
	for _, g := range graphs {
		for _, t := range lookup(g) {
			k := t.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func copyGraph(name rdf.Term, g rdf.Graph) *rdf.MemGraph {
	return rdf.NewMemGraph(name, g.Triples()...)
}
