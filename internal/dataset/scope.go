package dataset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/leviathan/internal/rdf"
)

// ErrScopeUnderflow is returned by ResetActiveGraph and ResetDefaultGraph
// when there is no earlier scope to restore. It means Set and Reset calls
// were not paired.
var ErrScopeUnderflow = errors.New("graph scope stack is empty")

// scope is one installed graph plus the URIs it was built from. A nil graph
// means "no graph at this tier".
type scope struct {
	graph rdf.Graph
	uris  []rdf.Term
}

// Scoped is the graph-scope manager for one evaluation. Triple lookups
// resolve against the active graph if one is set, else the default graph,
// else the whole dataset.
//
// A Scoped is owned by a single goroutine. Concurrent evaluations each get
// their own via NewScoped or Fork; the underlying Dataset is shared.
type Scoped struct {
	ds Dataset

	def    scope
	active scope

	defStack    []scope
	activeStack []scope
}

// NewScoped wraps ds with empty scope stacks.
func NewScoped(ds Dataset) *Scoped {
	return &Scoped{ds: ds}
}

// Dataset returns the underlying dataset.
func (s *Scoped) Dataset() Dataset { return s.ds }

// Fork returns a Scoped over the same dataset starting from the current
// default and active graphs, with empty stacks of its own.
func (s *Scoped) Fork() *Scoped {
	return &Scoped{ds: s.ds, def: s.def, active: s.active}
}

// SetDefaultGraph pushes the current default graph and installs uri.
// A nil uri clears the default tier so lookups fall through to the whole
// dataset.
func (s *Scoped) SetDefaultGraph(uri rdf.Term) {
	if uri == nil {
		s.SetDefaultGraphs(nil)
		return
	}
	s.SetDefaultGraphs([]rdf.Term{uri})
}

// SetDefaultGraphs pushes the current default graph and installs the graph
// built from uris (see resolve).
func (s *Scoped) SetDefaultGraphs(uris []rdf.Term) {
	s.defStack = append(s.defStack, s.def)
	s.def = s.resolve(uris)
}

// ResetDefaultGraph restores the previous default graph.
func (s *Scoped) ResetDefaultGraph() error {
	if len(s.defStack) == 0 {
		return fmt.Errorf("reset default graph: %w", ErrScopeUnderflow)
	}
	last := len(s.defStack) - 1
	s.def = s.defStack[last]
	s.defStack = s.defStack[:last]
	return nil
}

// SetActiveGraph pushes the current active graph and installs uri. A nil
// uri makes the active graph follow the current default graph.
func (s *Scoped) SetActiveGraph(uri rdf.Term) {
	if uri == nil {
		s.SetActiveGraphs(nil)
		return
	}
	s.SetActiveGraphs([]rdf.Term{uri})
}

// SetActiveGraphs pushes the current active graph and installs the graph
// built from uris. An empty list falls back to the current default graph.
func (s *Scoped) SetActiveGraphs(uris []rdf.Term) {
	s.activeStack = append(s.activeStack, s.active)
	if len(uris) == 0 {
		s.active = scope{graph: s.def.graph, uris: slices.Clone(s.def.uris)}
		return
	}
	s.active = s.resolve(uris)
}

// ResetActiveGraph restores the previous active graph.
func (s *Scoped) ResetActiveGraph() error {
	if len(s.activeStack) == 0 {
		return fmt.Errorf("reset active graph: %w", ErrScopeUnderflow)
	}
	last := len(s.activeStack) - 1
	s.active = s.activeStack[last]
	s.activeStack = s.activeStack[:last]
	return nil
}

// ActiveGraph returns the active graph, or nil when lookups fall through.
func (s *Scoped) ActiveGraph() rdf.Graph { return s.active.graph }

// DefaultGraph returns the default graph, or nil when none is set.
func (s *Scoped) DefaultGraph() rdf.Graph { return s.def.graph }

// ActiveGraphURIs returns the URIs the active graph was built from.
func (s *Scoped) ActiveGraphURIs() []rdf.Term { return slices.Clone(s.active.uris) }

// DefaultGraphURIs returns the URIs the default graph was built from.
func (s *Scoped) DefaultGraphURIs() []rdf.Term { return slices.Clone(s.def.uris) }

// HasTriples reports whether the resolved graph holds any triple.
func (s *Scoped) HasTriples() bool {
	if g := s.current(); g != nil {
		return !g.IsEmpty()
	}
	return s.ds.HasTriples()
}

func (s *Scoped) Triples() []rdf.Triple {
	if g := s.current(); g != nil {
		return g.Triples()
	}
	return s.ds.Triples()
}

func (s *Scoped) WithSubject(subj rdf.Term) []rdf.Triple {
	if g := s.current(); g != nil {
		return g.WithSubject(subj)
	}
	return s.ds.WithSubject(subj)
}

func (s *Scoped) WithPredicate(p rdf.Term) []rdf.Triple {
	if g := s.current(); g != nil {
		return g.WithPredicate(p)
	}
	return s.ds.WithPredicate(p)
}

func (s *Scoped) WithObject(o rdf.Term) []rdf.Triple {
	if g := s.current(); g != nil {
		return g.WithObject(o)
	}
	return s.ds.WithObject(o)
}

func (s *Scoped) WithSubjectPredicate(subj, p rdf.Term) []rdf.Triple {
	if g := s.current(); g != nil {
		return g.WithSubjectPredicate(subj, p)
	}
	return s.ds.WithSubjectPredicate(subj, p)
}

func (s *Scoped) WithSubjectObject(subj, o rdf.Term) []rdf.Triple {
	if g := s.current(); g != nil {
		return g.WithSubjectObject(subj, o)
	}
	return s.ds.WithSubjectObject(subj, o)
}

func (s *Scoped) WithPredicateObject(p, o rdf.Term) []rdf.Triple {
	if g := s.current(); g != nil {
		return g.WithPredicateObject(p, o)
	}
	return s.ds.WithPredicateObject(p, o)
}

// Match returns the triples matching a pattern where nil terms are
// wildcards, using the narrowest lookup available.
func (s *Scoped) Match(subj, p, o rdf.Term) []rdf.Triple {
	var candidates []rdf.Triple
	switch {
	case subj != nil && p != nil:
		candidates = s.WithSubjectPredicate(subj, p)
	case subj != nil && o != nil:
		candidates = s.WithSubjectObject(subj, o)
	case p != nil && o != nil:
		candidates = s.WithPredicateObject(p, o)
	case subj != nil:
		candidates = s.WithSubject(subj)
	case p != nil:
		candidates = s.WithPredicate(p)
	case o != nil:
		candidates = s.WithObject(o)
	default:
		return s.Triples()
	}
	if subj == nil || p == nil || o == nil {
		return candidates
	}
	out := candidates[:0:0]
	for _, t := range candidates {
		if rdf.Equal(t.Object, o) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Scoped) current() rdf.Graph {
	if s.active.graph != nil {
		return s.active.graph
	}
	return s.def.graph
}

// resolve builds the graph for a URI list: none gives no graph, one gives
// the dataset's graph (empty if absent), several give a merged copy of the
// graphs that exist.
func (s *Scoped) resolve(uris []rdf.Term) scope {
	switch len(uris) {
	case 0:
		return scope{}
	case 1:
		return scope{graph: s.ds.Graph(uris[0]), uris: slices.Clone(uris)}
	}
	merged := rdf.NewMemGraph(nil)
	for _, uri := range uris {
		if s.ds.HasGraph(uri) {
			merged.Merge(s.ds.Graph(uri))
		}
	}
	return scope{graph: merged, uris: slices.Clone(uris)}
}
