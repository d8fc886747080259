package algebra

import "github.com/roach88/leviathan/internal/eval"

// FastPaths rewrites two query shapes into dedicated operators:
//
//	Distinct(Project(?g, Graph(?g, BGP(?s ?p ?o))))  ->  SelectDistinctGraphs(?g)
//	BGP(?s ?p ?o) as the root of an ASK query         ->  AskAnyTriples
//
// Everything else is returned unchanged.
type FastPaths struct {
	Ask bool
}

func (FastPaths) Name() string { return "fast-paths" }

func (f FastPaths) Optimize(op eval.Operator) eval.Operator {
	if f.Ask {
		if b, ok := op.(*BGP); ok && isAnyTriple(b, "") {
			return AskAnyTriples{}
		}
		return op
	}

	d, ok := op.(*Distinct)
	if !ok {
		return op
	}
	p, ok := d.Inner.(*Project)
	if !ok || len(p.Vars) != 1 {
		return op
	}
	g, ok := p.Inner.(*Graph)
	if !ok || !g.Name.IsVariable() || g.Name.Variable != p.Vars[0] {
		return op
	}
	b, ok := g.Inner.(*BGP)
	if !ok || !isAnyTriple(b, g.Name.Variable) {
		return op
	}
	return &SelectDistinctGraphs{Var: g.Name.Variable}
}

// isAnyTriple reports whether b is a single pattern of three distinct
// variables, none of them named exclude.
func isAnyTriple(b *BGP, exclude string) bool {
	if len(b.Patterns) != 1 {
		return false
	}
	seen := make(map[string]bool)
	for _, n := range b.Patterns[0].nodes() {
		if !n.IsVariable() || n.Variable == exclude || seen[n.Variable] {
			return false
		}
		seen[n.Variable] = true
	}
	return true
}
