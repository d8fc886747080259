package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/rdf"
)

func TestScoped_ThreeTierLookup(t *testing.T) {
	s := NewScoped(sampleDataset())

	assert.Len(t, s.WithPredicate(knows), 3, "no scope: whole dataset")

	s.SetDefaultGraph(g2)
	assert.Len(t, s.WithPredicate(knows), 2, "default graph")

	s.SetActiveGraph(g1)
	assert.Len(t, s.WithPredicate(knows), 1, "active graph wins")

	require.NoError(t, s.ResetActiveGraph())
	assert.Len(t, s.WithPredicate(knows), 2)

	require.NoError(t, s.ResetDefaultGraph())
	assert.Len(t, s.WithPredicate(knows), 3)
}

func TestScoped_StackDiscipline(t *testing.T) {
	s := NewScoped(sampleDataset())

	s.SetActiveGraph(g1)
	s.SetActiveGraphs([]rdf.Term{g1, g2})
	s.SetActiveGraph(g2)

	assert.Equal(t, []rdf.Term{g2}, s.ActiveGraphURIs())
	require.NoError(t, s.ResetActiveGraph())
	assert.Equal(t, []rdf.Term{g1, g2}, s.ActiveGraphURIs())
	require.NoError(t, s.ResetActiveGraph())
	assert.Equal(t, []rdf.Term{g1}, s.ActiveGraphURIs())
	require.NoError(t, s.ResetActiveGraph())
	assert.Empty(t, s.ActiveGraphURIs())
	assert.Nil(t, s.ActiveGraph())

	assert.ErrorIs(t, s.ResetActiveGraph(), ErrScopeUnderflow)
	assert.ErrorIs(t, s.ResetDefaultGraph(), ErrScopeUnderflow)
}

func TestScoped_NilActiveFallsBackToDefault(t *testing.T) {
	s := NewScoped(sampleDataset())

	s.SetActiveGraph(nil)
	assert.Nil(t, s.ActiveGraph(), "no default: whole dataset")
	assert.Empty(t, s.ActiveGraphURIs())
	assert.Len(t, s.Triples(), 3)
	require.NoError(t, s.ResetActiveGraph())

	s.SetDefaultGraph(g1)
	s.SetActiveGraph(nil)
	assert.Equal(t, []rdf.Term{g1}, s.ActiveGraphURIs())
	assert.Len(t, s.Triples(), 1)
}

func TestScoped_AbsentGraphYieldsNothing(t *testing.T) {
	s := NewScoped(sampleDataset())
	s.SetActiveGraph(rdf.IRI("http://example.org/missing"))
	assert.False(t, s.HasTriples())
	assert.Empty(t, s.Match(nil, nil, nil))
}

func TestScoped_MultipleURIsMerge(t *testing.T) {
	s := NewScoped(sampleDataset())
	s.SetDefaultGraphs([]rdf.Term{g1, g2, rdf.IRI("http://example.org/missing")})
	assert.Len(t, s.Triples(), 2, "union of g1 and g2 without duplicates")
	assert.Len(t, s.DefaultGraphURIs(), 3)
}

func TestScoped_Match(t *testing.T) {
	s := NewScoped(sampleDataset())
	assert.Len(t, s.Match(alice, knows, bob), 1)
	assert.Empty(t, s.Match(alice, knows, carol))
	assert.Len(t, s.Match(nil, knows, carol), 1)
}

func TestScoped_ForkIsIsolated(t *testing.T) {
	s := NewScoped(sampleDataset())
	s.SetActiveGraph(g1)

	child := s.Fork()
	assert.Equal(t, []rdf.Term{g1}, child.ActiveGraphURIs(), "fork starts from the parent's scope")
	assert.ErrorIs(t, child.ResetActiveGraph(), ErrScopeUnderflow, "but not its stack")

	child.SetActiveGraph(g2)
	assert.Equal(t, []rdf.Term{g1}, s.ActiveGraphURIs(), "parent unaffected")
}
