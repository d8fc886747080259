package eval

import (
	"math"
	"strconv"

	"github.com/roach88/leviathan/internal/rdf"
)

// EffectiveBooleanValue converts a term to a boolean the way FILTER does.
//
//	boolean literal  its value (invalid lexical form is an error)
//	numeric literal  false for zero and NaN
//	string literal   false for the empty string
//	anything else    expression error (including unbound)
func EffectiveBooleanValue(t rdf.Term) (bool, error) {
	switch v := t.(type) {
	case nil:
		return false, NewExpressionError("unbound value has no boolean value")
	case rdf.Literal:
		switch {
		case v.Datatype == rdf.XSDBoolean:
			b, err := strconv.ParseBool(v.Value)
			if err != nil {
				return false, NewExpressionError("invalid boolean %q", v.Value)
			}
			return b, nil
		case v.IsNumeric():
			n, err := v.Number()
			if err != nil {
				return false, NewExpressionError("invalid number %q", v.Value)
			}
			return n != 0 && !math.IsNaN(n), nil
		case v.Datatype == "" || v.Datatype == rdf.XSDString || v.Datatype == rdf.RDFLangString:
			return v.Value != "", nil
		}
		return false, NewExpressionError("no boolean value for %s", v)
	default:
		return false, NewExpressionError("no boolean value for %s", t)
	}
}
