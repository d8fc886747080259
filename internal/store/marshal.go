package store

import (
	"fmt"

	"github.com/roach88/leviathan/internal/rdf"
)

// graphKey is the value of the graph column for a graph name. The unnamed
// graph is stored as ''.
func graphKey(name rdf.Term) (string, error) {
	switch v := name.(type) {
	case nil:
		return "", nil
	case rdf.IRI:
		if v == "" {
			return "", fmt.Errorf("graph name: empty IRI")
		}
		return string(v), nil
	}
	return "", fmt.Errorf("graph name %v: must be an IRI", name)
}

// graphName is the inverse of graphKey.
func graphName(key string) rdf.Term {
	if key == "" {
		return nil
	}
	return rdf.IRI(key)
}

// encodeTerm renders t for a term column.
func encodeTerm(t rdf.Term) (string, error) {
	if t == nil {
		return "", fmt.Errorf("encode term: nil")
	}
	return t.String(), nil
}

func decodeTerm(column, value string) (rdf.Term, error) {
	t, err := rdf.ParseTerm(value)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", column, err)
	}
	return t, nil
}

// tripleHash is the primary key of a triple within its graph.
func tripleHash(t rdf.Triple) string {
	return rdf.HashWithDomain(rdf.DomainTriple, []byte(t.Key()))
}
