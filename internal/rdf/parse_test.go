package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm_RoundTripsString(t *testing.T) {
	terms := []Term{
		IRI("http://example.org/a"),
		BlankNode("b0"),
		NewLiteral("plain"),
		NewLiteral("with \"quotes\" and\nnewline"),
		NewLangLiteral("chat", "FR"),
		NewInteger(-42),
		NewTypedLiteral("2.5", XSDDecimal),
	}
	for _, term := range terms {
		t.Run(term.String(), func(t *testing.T) {
			got, err := ParseTerm(term.String())
			require.NoError(t, err)
			assert.True(t, Equal(term, got), "got %v", got)
		})
	}
}

func TestParseTerm_Errors(t *testing.T) {
	for _, in := range []string{"", "<open", "_:", `"unterminated`, `"x"@`, `"x"^^_:b`, `"x"junk`, "bare"} {
		_, err := ParseTerm(in)
		assert.Error(t, err, "input %q", in)
	}
	assert.Panics(t, func() { MustParseTerm("bare") })
}
