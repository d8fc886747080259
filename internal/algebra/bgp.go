package algebra

import (
	"fmt"
	"strings"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Node is one position of a triple pattern: a variable or a fixed term.
type Node struct {
	Variable string
	Term     rdf.Term
}

// V is a variable node.
func V(name string) Node { return Node{Variable: name} }

// T is a fixed-term node.
func T(t rdf.Term) Node { return Node{Term: t} }

// IsVariable reports whether n is a variable.
func (n Node) IsVariable() bool { return n.Variable != "" }

func (n Node) String() string {
	if n.IsVariable() {
		return "?" + n.Variable
	}
	return fmt.Sprint(n.Term)
}

// resolve returns the term at n under s: the fixed term, the variable's
// binding, or nil when the variable is free.
func (n Node) resolve(s *solution.Set) rdf.Term {
	if n.IsVariable() {
		return s.Get(n.Variable)
	}
	return n.Term
}

// TriplePattern is a triple whose positions may be variables.
type TriplePattern struct {
	Subject, Predicate, Object Node
}

// Pattern builds a TriplePattern.
func Pattern(s, p, o Node) TriplePattern { return TriplePattern{s, p, o} }

func (tp TriplePattern) String() string {
	return fmt.Sprintf("%s %s %s", tp.Subject, tp.Predicate, tp.Object)
}

func (tp TriplePattern) nodes() [3]Node { return [3]Node{tp.Subject, tp.Predicate, tp.Object} }

// BGP matches a basic graph pattern against the scoped dataset. Lookups go
// through the context's graph scope, so they resolve against the active
// graph, else the default graph, else the whole dataset.
//
// An empty pattern list yields Identity. Variables named with the "_:"
// prefix are temporary and are dropped by Distinct and by result shaping.
type BGP struct {
	Patterns []TriplePattern
}

func (b *BGP) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	if len(b.Patterns) == 0 {
		return multiset.NewIdentity(), nil
	}
	current := []*solution.Set{solution.New()}
	for _, tp := range b.Patterns {
		if err := ctx.Context().Err(); err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", tp, err)
		}
		var next []*solution.Set
		for _, s := range current {
			next = append(next, extend(ctx, tp, s)...)
		}
		current = next
		if len(current) == 0 {
			break
		}
	}
	out := multiset.New(b.Variables()...)
	for _, s := range current {
		out.Add(s)
	}
	return out, nil
}

// extend matches tp under the bindings of s and returns s extended by each
// match.
func extend(ctx *eval.Context, tp TriplePattern, s *solution.Set) []*solution.Set {
	nodes := tp.nodes()
	subj, pred, obj := nodes[0].resolve(s), nodes[1].resolve(s), nodes[2].resolve(s)

	var out []*solution.Set
	for _, t := range ctx.Data.Match(subj, pred, obj) {
		terms := [3]rdf.Term{t.Subject, t.Predicate, t.Object}
		next := s.Copy()
		ok := true
		for i, n := range nodes {
			if !n.IsVariable() {
				continue
			}
			if prev := next.Get(n.Variable); prev != nil {
				// repeated variable within the pattern
				if !rdf.Equal(prev, terms[i]) {
					ok = false
					break
				}
				continue
			}
			next.Remove(n.Variable)
			_ = next.Add(n.Variable, terms[i])
		}
		if ok {
			out = append(out, next)
		}
	}
	return out
}

func (b *BGP) Variables() []string {
	var vars []string
	for _, tp := range b.Patterns {
		for _, n := range tp.nodes() {
			if n.IsVariable() {
				vars = append(vars, n.Variable)
			}
		}
	}
	return mergeVariables(vars)
}

func (b *BGP) String() string {
	parts := make([]string, len(b.Patterns))
	for i, tp := range b.Patterns {
		parts[i] = tp.String()
	}
	return "BGP(" + strings.Join(parts, " . ") + ")"
}
