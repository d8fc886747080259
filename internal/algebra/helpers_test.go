package algebra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

const ex = "http://example.org/"

var (
	alice = rdf.IRI(ex + "alice")
	bob   = rdf.IRI(ex + "bob")
	carol = rdf.IRI(ex + "carol")
	knows = rdf.IRI("http://xmlns.com/foaf/0.1/knows")
	name  = rdf.IRI("http://xmlns.com/foaf/0.1/name")
	age   = rdf.IRI("http://xmlns.com/foaf/0.1/age")

	people  = rdf.IRI(ex + "people")
	friends = rdf.IRI(ex + "friends")
	empty   = rdf.IRI(ex + "empty")
)

// fixture: the unnamed graph holds names and ages, "friends" holds knows
// edges, "people" repeats one name, "empty" exists without triples.
func fixture() *dataset.Memory {
	return dataset.NewMemory([]rdf.Graph{
		rdf.NewMemGraph(nil,
			rdf.NewTriple(alice, name, rdf.NewLiteral("Alice")),
			rdf.NewTriple(bob, name, rdf.NewLiteral("Bob")),
			rdf.NewTriple(carol, name, rdf.NewLiteral("Carol")),
			rdf.NewTriple(alice, age, rdf.NewInteger(30)),
			rdf.NewTriple(bob, age, rdf.NewInteger(25)),
		),
		rdf.NewMemGraph(friends,
			rdf.NewTriple(alice, knows, bob),
			rdf.NewTriple(bob, knows, carol),
			rdf.NewTriple(carol, knows, carol),
		),
		rdf.NewMemGraph(people,
			rdf.NewTriple(alice, name, rdf.NewLiteral("Alice")),
		),
		rdf.NewMemGraph(empty),
	})
}

func newContext(q *eval.Query) *eval.Context {
	return eval.NewContext(context.Background(), dataset.NewScoped(fixture()), q, eval.Options{TrimTemporaryVariables: true})
}

func run(t *testing.T, ctx *eval.Context, op eval.Operator) *multiset.Multiset {
	t.Helper()
	m, err := ctx.Evaluate(op)
	require.NoError(t, err)
	return m
}

func lit(v string) rdf.Term { return rdf.NewLiteral(v) }

func row(pairs ...any) *solution.Set {
	s := solution.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		s.MustAdd(pairs[i].(string), pairs[i+1].(rdf.Term))
	}
	return s
}

// table builds a Table over the given rows.
func table(rows ...*solution.Set) *Table {
	m := multiset.New()
	for _, r := range rows {
		m.Add(r)
	}
	return &Table{Multiset: m}
}

// values collects the bindings of v in result order.
func values(m *multiset.Multiset, v string) []rdf.Term {
	var out []rdf.Term
	for _, s := range m.Sets() {
		out = append(out, s.Get(v))
	}
	return out
}

// recorder records the context it was evaluated with.
type recorder struct {
	result *multiset.Multiset
	err    error
	seen   *eval.Context
	named  []rdf.Term
	input  *multiset.Multiset
}

func (p *recorder) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	p.seen = ctx
	p.input = ctx.InputMultiset
	if ctx.Query != nil {
		p.named = append([]rdf.Term(nil), ctx.Query.NamedGraphs...)
	}
	return p.result, p.err
}

func (p *recorder) Variables() []string { return nil }
func (p *recorder) String() string      { return "Recorder" }
