package rdf

import "strings"

// Compare orders terms for ORDER BY: unbound < blank nodes < IRIs < literals.
// Numeric literals compare by value, other literals by lexical form, then
// language tag, then datatype. Returns -1, 0 or 1.
func Compare(a, b Term) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch x := a.(type) {
	case nil:
		return 0
	case BlankNode:
		return strings.Compare(string(x), string(b.(BlankNode)))
	case IRI:
		return strings.Compare(string(x), string(b.(IRI)))
	case Literal:
		return compareLiterals(x, b.(Literal))
	}
	return 0
}

func rank(t Term) int {
	switch t.(type) {
	case nil:
		return 0
	case BlankNode:
		return 1
	case IRI:
		return 2
	case Literal:
		return 3
	}
	return 4
}

func compareLiterals(a, b Literal) int {
	if a.IsNumeric() && b.IsNumeric() {
		fa, errA := a.Number()
		fb, errB := b.Number()
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if c := strings.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	if c := strings.Compare(a.Language, b.Language); c != 0 {
		return c
	}
	return strings.Compare(string(a.Datatype), string(b.Datatype))
}
