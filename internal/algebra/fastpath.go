package algebra

import (
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
)

// SelectDistinctGraphs answers SELECT DISTINCT ?g WHERE { GRAPH ?g { ?s ?p ?o } }
// without matching triples: one solution per non-empty candidate graph.
type SelectDistinctGraphs struct {
	Var string
}

func (o *SelectDistinctGraphs) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	out := multiset.New(o.Var)
	ds := ctx.Data.Dataset()
	for _, uri := range candidateGraphs(ctx) {
		if ds.HasGraph(uri) && !ds.Graph(uri).IsEmpty() {
			out.Add(graphSolution(o.Var, uri))
		}
	}
	return out, nil
}

func (o *SelectDistinctGraphs) Variables() []string { return []string{o.Var} }
func (o *SelectDistinctGraphs) String() string      { return "SelectDistinctGraphs(?" + o.Var + ")" }

// AskAnyTriples answers ASK { ?s ?p ?o }: Identity when the scoped dataset
// holds a triple, Null otherwise.
type AskAnyTriples struct{}

func (AskAnyTriples) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	if ctx.Data.HasTriples() {
		return multiset.NewIdentity(), nil
	}
	return multiset.NewNull(), nil
}

func (AskAnyTriples) Variables() []string { return nil }
func (AskAnyTriples) String() string      { return "AskAnyTriples" }
