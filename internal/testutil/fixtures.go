// Package testutil holds fixtures shared by tests across packages: a small
// social dataset, solution and multiset builders, and expressions with
// controllable cost for timeout tests.
package testutil

import (
	"fmt"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// NS is the namespace of the fixture resources.
const NS = "http://example.org/"

var (
	Alice = rdf.IRI(NS + "alice")
	Bob   = rdf.IRI(NS + "bob")
	Carol = rdf.IRI(NS + "carol")

	Knows = rdf.IRI("http://xmlns.com/foaf/0.1/knows")
	Name  = rdf.IRI("http://xmlns.com/foaf/0.1/name")
	Age   = rdf.IRI("http://xmlns.com/foaf/0.1/age")

	PeopleGraph  = rdf.IRI(NS + "people")
	FriendsGraph = rdf.IRI(NS + "friends")
)

// PeopleDataset returns a dataset whose unnamed graph holds names and ages
// of alice, bob and carol, and whose named graph FriendsGraph holds the
// knows edges alice->bob, bob->carol. PeopleGraph repeats alice's name.
func PeopleDataset(opts ...dataset.MemoryOption) *dataset.Memory {
	return dataset.NewMemory([]rdf.Graph{
		rdf.NewMemGraph(nil,
			rdf.NewTriple(Alice, Name, rdf.NewLiteral("Alice")),
			rdf.NewTriple(Bob, Name, rdf.NewLiteral("Bob")),
			rdf.NewTriple(Carol, Name, rdf.NewLiteral("Carol")),
			rdf.NewTriple(Alice, Age, rdf.NewInteger(30)),
			rdf.NewTriple(Bob, Age, rdf.NewInteger(25)),
		),
		rdf.NewMemGraph(FriendsGraph,
			rdf.NewTriple(Alice, Knows, Bob),
			rdf.NewTriple(Bob, Knows, Carol),
		),
		rdf.NewMemGraph(PeopleGraph,
			rdf.NewTriple(Alice, Name, rdf.NewLiteral("Alice")),
		),
	}, opts...)
}

// Row builds a solution from variable/term pairs. A nil term leaves the
// variable out.
func Row(pairs ...any) *solution.Set {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("testutil.Row: odd number of arguments (%d)", len(pairs)))
	}
	s := solution.New()
	for i := 0; i < len(pairs); i += 2 {
		t, _ := pairs[i+1].(rdf.Term)
		if t == nil {
			continue
		}
		s.MustAdd(pairs[i].(string), t)
	}
	return s
}

// Multiset builds a General multiset holding rows.
func Multiset(rows ...*solution.Set) *multiset.Multiset {
	m := multiset.New()
	for _, r := range rows {
		m.Add(r)
	}
	return m
}

// Numbers builds a multiset binding v to the integers 0..n-1.
func Numbers(v string, n int) *multiset.Multiset {
	m := multiset.New(v)
	for i := range n {
		m.Add(solution.New().MustAdd(v, rdf.NewInteger(int64(i))))
	}
	return m
}
