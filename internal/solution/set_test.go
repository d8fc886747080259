package solution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/rdf"
)

func TestSet_AddIsWriteOnce(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("x", rdf.IRI("a")))

	err := s.Add("x", rdf.IRI("b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVariableBound)
	assert.Equal(t, rdf.IRI("a"), s.Get("x"), "original binding unchanged")

	// An unbound slot is still a held variable
	require.NoError(t, s.Add("y", nil))
	assert.ErrorIs(t, s.Add("y", rdf.IRI("c")), ErrVariableBound)
}

func TestSet_RemoveThenAdd(t *testing.T) {
	s := New().MustAdd("x", rdf.IRI("a"))
	s.Remove("x")
	assert.False(t, s.Contains("x"))
	require.NoError(t, s.Add("x", rdf.IRI("b")))
	assert.Equal(t, []string{"x"}, s.Variables())
}

func TestSet_JoinLeftBias(t *testing.T) {
	x := New().MustAdd("v", rdf.NewLiteral("a")).MustAdd("l", rdf.IRI("left"))
	y := New().MustAdd("v", rdf.NewLiteral("b")).MustAdd("r", rdf.IRI("right"))

	xy := x.Join(y)
	yx := y.Join(x)

	assert.Equal(t, rdf.NewLiteral("a"), xy.Get("v"), "left wins in x.Join(y)")
	assert.Equal(t, rdf.NewLiteral("b"), yx.Get("v"), "left wins in y.Join(x)")
	assert.ElementsMatch(t, xy.Variables(), yx.Variables(), "same variable coverage")
	assert.ElementsMatch(t, []string{"v", "l", "r"}, xy.Variables())
}

func TestSet_JoinUnboundLeftTakesRight(t *testing.T) {
	x := New().MustAdd("v", nil)
	y := New().MustAdd("v", rdf.IRI("b"))
	assert.Equal(t, rdf.IRI("b"), x.Join(y).Get("v"))
}

func TestSet_JoinDoesNotMutateInputs(t *testing.T) {
	x := New().MustAdd("a", rdf.IRI("1"))
	y := New().MustAdd("b", rdf.IRI("2"))
	_ = x.Join(y)
	assert.Equal(t, []string{"a"}, x.Variables())
	assert.Equal(t, []string{"b"}, y.Variables())
}

func TestSet_IsCompatibleWith(t *testing.T) {
	x := New().MustAdd("a", rdf.IRI("1")).MustAdd("b", nil)
	y := New().MustAdd("a", rdf.IRI("1")).MustAdd("b", rdf.IRI("2"))
	z := New().MustAdd("a", rdf.IRI("9"))

	assert.True(t, x.IsCompatibleWith(y, []string{"a", "b"}))
	assert.False(t, x.IsCompatibleWith(z, []string{"a"}))
	assert.True(t, x.IsCompatibleWith(z, []string{"b"}), "unbound on one side is compatible")
	assert.True(t, x.IsCompatibleWith(z, nil))
}

func TestSet_IsMinusCompatibleWith(t *testing.T) {
	x := New().MustAdd("a", rdf.IRI("1")).MustAdd("b", rdf.IRI("2"))
	y := New().MustAdd("a", rdf.IRI("9")).MustAdd("b", rdf.IRI("2"))
	z := New().MustAdd("a", rdf.IRI("9"))

	assert.True(t, x.IsMinusCompatibleWith(y, []string{"a", "b"}), "any shared equal binding")
	assert.False(t, x.IsMinusCompatibleWith(z, []string{"a", "b"}))
	assert.False(t, x.IsMinusCompatibleWith(y, nil))
}

func TestSet_CopyIsIndependent(t *testing.T) {
	x := New().MustAdd("a", rdf.IRI("1"))
	x.SetID(7)
	c := x.Copy()
	c.MustAdd("b", rdf.IRI("2"))

	assert.False(t, x.Contains("b"))
	assert.Equal(t, 0, c.ID())
	assert.True(t, x.Equals(c.Project([]string{"a"})))
}

func TestSet_Equals(t *testing.T) {
	tests := []struct {
		name string
		a, b *Set
		want bool
	}{
		{"identical", New().MustAdd("x", rdf.IRI("1")), New().MustAdd("x", rdf.IRI("1")), true},
		{"different value", New().MustAdd("x", rdf.IRI("1")), New().MustAdd("x", rdf.IRI("2")), false},
		{"null vs null", New().MustAdd("x", nil), New().MustAdd("x", nil), true},
		{"null vs missing", New().MustAdd("x", nil), New(), true},
		{"bound vs missing", New().MustAdd("x", rdf.IRI("1")), New(), false},
		{"missing vs bound", New(), New().MustAdd("x", rdf.IRI("1")), false},
		{"order irrelevant",
			New().MustAdd("x", rdf.IRI("1")).MustAdd("y", rdf.IRI("2")),
			New().MustAdd("y", rdf.IRI("2")).MustAdd("x", rdf.IRI("1")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equals(tt.b))
			if tt.want {
				assert.Equal(t, tt.a.Key(), tt.b.Key(), "equal sets share a key")
				assert.Equal(t, tt.a.Hash(), tt.b.Hash())
			}
		})
	}
}

func TestSet_String(t *testing.T) {
	s := New().MustAdd("x", rdf.IRI("http://a")).MustAdd("y", nil)
	assert.Equal(t, "{?x = <http://a>, ?y = UNDEF}", s.String())
}

func TestFromMap_SortedVariables(t *testing.T) {
	s := FromMap(map[string]rdf.Term{"b": rdf.IRI("2"), "a": rdf.IRI("1")})
	assert.Equal(t, []string{"a", "b"}, s.Variables())
}
