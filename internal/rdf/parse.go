package rdf

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTerm parses a term in the N-Triples form produced by String:
// <iri>, _:label, "lexical", "lexical"@lang or "lexical"^^<datatype>.
// Lexical forms use Go string escapes.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("parse term: empty input")
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") || len(s) < 3 {
			return nil, fmt.Errorf("parse term %q: unterminated IRI", s)
		}
		return IRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return nil, fmt.Errorf("parse term %q: empty blank node label", s)
		}
		return BlankNode(s[2:]), nil
	case strings.HasPrefix(s, `"`):
		return parseLiteral(s)
	}
	return nil, fmt.Errorf("parse term %q: not an IRI, blank node or literal", s)
}

func parseLiteral(s string) (Term, error) {
	quoted, err := strconv.QuotedPrefix(s)
	if err != nil {
		return nil, fmt.Errorf("parse term %q: %w", s, err)
	}
	value, err := strconv.Unquote(quoted)
	if err != nil {
		return nil, fmt.Errorf("parse term %q: %w", s, err)
	}

	rest := s[len(quoted):]
	switch {
	case rest == "":
		return NewLiteral(value), nil
	case strings.HasPrefix(rest, "@") && len(rest) > 1:
		return NewLangLiteral(value, rest[1:]), nil
	case strings.HasPrefix(rest, "^^"):
		dt, err := ParseTerm(rest[2:])
		if err != nil {
			return nil, err
		}
		iri, ok := dt.(IRI)
		if !ok {
			return nil, fmt.Errorf("parse term %q: datatype must be an IRI", s)
		}
		return NewTypedLiteral(value, iri), nil
	}
	return nil, fmt.Errorf("parse term %q: unexpected %q after lexical form", s, rest)
}

// MustParseTerm is ParseTerm for literals in code. It panics on error.
func MustParseTerm(s string) Term {
	t, err := ParseTerm(s)
	if err != nil {
		panic(err)
	}
	return t
}
