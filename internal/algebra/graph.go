package algebra

import (
	"fmt"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Graph evaluates Inner with the active graph switched, as a GRAPH clause
// does.
//
// For a fixed name the inner pattern runs against that graph (an absent
// graph yields no triples). For a variable the inner pattern runs once per
// candidate graph and each solution is extended with the graph name; the
// candidates are the query's named graphs when it declares any, else every
// named graph of the dataset.
type Graph struct {
	Name  Node
	Inner eval.Operator
}

func (g *Graph) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	if !g.Name.IsVariable() {
		return g.evaluateIn(ctx, g.Name.Term)
	}

	out := multiset.New(g.Variables()...)
	for _, uri := range candidateGraphs(ctx) {
		res, err := g.evaluateIn(ctx, uri)
		if err != nil {
			return nil, err
		}
		if res.IsNull() {
			continue
		}
		for _, s := range res.Sets() {
			bound := s.Get(g.Name.Variable)
			if bound != nil && !rdf.Equal(bound, uri) {
				continue
			}
			named := s.Copy()
			if bound == nil {
				named.Remove(g.Name.Variable)
				_ = named.Add(g.Name.Variable, uri)
			}
			out.Add(named)
		}
	}
	return out, nil
}

// evaluateIn evaluates Inner with uri as the active graph. The previous
// scope is restored on every path.
func (g *Graph) evaluateIn(ctx *eval.Context, uri rdf.Term) (res *multiset.Multiset, err error) {
	ctx.Data.SetActiveGraph(uri)
	defer func() {
		if rerr := ctx.Data.ResetActiveGraph(); rerr != nil && err == nil {
			err = fmt.Errorf("graph %v: %w", uri, rerr)
		}
	}()
	return ctx.Evaluate(g.Inner)
}

func candidateGraphs(ctx *eval.Context) []rdf.Term {
	if ctx.Query != nil && len(ctx.Query.NamedGraphs) > 0 {
		return ctx.Query.NamedGraphs
	}
	return ctx.Data.Dataset().GraphURIs()
}

func (g *Graph) Children() []eval.Operator { return []eval.Operator{g.Inner} }

func (g *Graph) Variables() []string {
	if g.Name.IsVariable() {
		return mergeVariables([]string{g.Name.Variable}, g.Inner.Variables())
	}
	return g.Inner.Variables()
}

func (g *Graph) String() string { return unary("Graph", g.Name.String(), g.Inner) }

// graphSolution binds v to uri.
func graphSolution(v string, uri rdf.Term) *solution.Set {
	return solution.New().MustAdd(v, uri)
}
