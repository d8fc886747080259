package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/leviathan/internal/algebra"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
)

const rdfType = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")

// Prefixes every plan may use without declaring them.
var builtinPrefixes = map[string]string{
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
}

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
)

// newBlankLabel returns a label unique across plans.
func newBlankLabel() string {
	return "b" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// terms resolves term notation against a plan's prefixes.
type terms struct {
	prefixes map[string]string
	label    func() string
	blanks   map[string]rdf.BlankNode
	anon     int
}

func newTerms(prefixes map[string]string, label func() string) *terms {
	all := make(map[string]string, len(builtinPrefixes)+len(prefixes))
	for k, v := range builtinPrefixes {
		all[k] = v
	}
	for k, v := range prefixes {
		all[k] = v
	}
	if label == nil {
		label = newBlankLabel
	}
	return &terms{prefixes: all, label: label, blanks: make(map[string]rdf.BlankNode)}
}

// data resolves a term of a data triple or VALUES row. Blank node labels
// are replaced by fresh ones, the same label mapping to the same node.
func (t *terms) data(s, field string) (rdf.Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "[]":
		return rdf.BlankNode(t.label()), nil
	case strings.HasPrefix(s, "_:"):
		label := s[2:]
		if label == "" {
			return nil, planErrorf(field, "blank node without label")
		}
		b, ok := t.blanks[label]
		if !ok {
			b = rdf.BlankNode(t.label())
			t.blanks[label] = b
		}
		return b, nil
	case strings.HasPrefix(s, "?"):
		return nil, planErrorf(field, "variable %s is not allowed here", s)
	}
	return t.constant(s, field)
}

// node resolves a triple pattern position. Blank nodes become temporary
// variables.
func (t *terms) node(s, field string) (algebra.Node, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "?"):
		if len(s) == 1 {
			return algebra.Node{}, planErrorf(field, "variable without name")
		}
		return algebra.V(s[1:]), nil
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return algebra.Node{}, planErrorf(field, "blank node without label")
		}
		return algebra.V(s), nil
	case s == "[]":
		t.anon++
		return algebra.V(fmt.Sprintf("%sanon%d", multiset.TemporaryPrefix, t.anon)), nil
	}
	c, err := t.constant(s, field)
	if err != nil {
		return algebra.Node{}, err
	}
	return algebra.T(c), nil
}

// iri resolves s and requires an IRI.
func (t *terms) iri(s, field string) (rdf.IRI, error) {
	c, err := t.constant(s, field)
	if err != nil {
		return "", err
	}
	iri, ok := c.(rdf.IRI)
	if !ok {
		return "", planErrorf(field, "%s is not an IRI", s)
	}
	return iri, nil
}

func (t *terms) constant(s, field string) (rdf.Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, planErrorf(field, "empty term")
	case s == "a":
		return rdfType, nil
	case s == "true" || s == "false":
		return rdf.NewBoolean(s == "true"), nil
	case integerPattern.MatchString(s):
		return rdf.NewTypedLiteral(s, rdf.XSDInteger), nil
	case decimalPattern.MatchString(s):
		return rdf.NewTypedLiteral(s, rdf.XSDDecimal), nil
	case strings.HasPrefix(s, "<"):
		term, err := rdf.ParseTerm(s)
		if err != nil {
			return nil, planErrorf(field, "%v", err)
		}
		return term, nil
	case strings.HasPrefix(s, `"`):
		return t.literal(s, field)
	}
	return t.expand(s, field)
}

func (t *terms) literal(s, field string) (rdf.Term, error) {
	quoted, err := strconv.QuotedPrefix(s)
	if err != nil {
		return nil, planErrorf(field, "malformed literal %s", s)
	}
	value, err := strconv.Unquote(quoted)
	if err != nil {
		return nil, planErrorf(field, "malformed literal %s", s)
	}

	rest := s[len(quoted):]
	switch {
	case rest == "":
		return rdf.NewLiteral(value), nil
	case strings.HasPrefix(rest, "@"):
		if len(rest) == 1 {
			return nil, planErrorf(field, "empty language tag in %s", s)
		}
		return rdf.NewLangLiteral(value, rest[1:]), nil
	case strings.HasPrefix(rest, "^^"):
		dt, err := t.iri(rest[2:], field)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(value, dt), nil
	}
	return nil, planErrorf(field, "unexpected %q after literal", rest)
}

// expand turns prefix:local into an IRI. Undeclared prefixes are allowed
// for absolute IRIs such as http://example.org/.
func (t *terms) expand(s, field string) (rdf.Term, error) {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return nil, planErrorf(field, "cannot read term %q", s)
	}
	if ns, ok := t.prefixes[prefix]; ok {
		return rdf.IRI(ns + local), nil
	}
	if strings.HasPrefix(local, "//") {
		return rdf.IRI(s), nil
	}
	return nil, planErrorf(field, "unknown prefix %q", prefix)
}

// Term resolves s in the plan's notation against its prefixes. Blank node
// labels are taken as written, so results can be matched by label.
func (p *Plan) Term(s string) (rdf.Term, error) {
	if label, ok := strings.CutPrefix(strings.TrimSpace(s), "_:"); ok && label != "" {
		return rdf.BlankNode(label), nil
	}
	return newTerms(p.Prefixes, nil).data(s, "term")
}

// varName strips the leading ? of a variable.
func varName(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "?")
}
