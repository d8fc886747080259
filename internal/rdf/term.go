package rdf

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// XSD datatype IRIs used by the engine.
const (
	XSDString     IRI = "http://www.w3.org/2001/XMLSchema#string"
	XSDBoolean    IRI = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDInteger    IRI = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal    IRI = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble     IRI = "http://www.w3.org/2001/XMLSchema#double"
	RDFLangString IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// Term is a sealed interface over the RDF term kinds.
// Only IRI, BlankNode and Literal implement it.
type Term interface {
	term() // Sealed - only these types implement it
	String() string
}

// IRI is an absolute IRI reference.
type IRI string

func (IRI) term() {}

// String renders the IRI in N-Triples form.
func (i IRI) String() string { return "<" + string(i) + ">" }

// BlankNode is a blank node identified by its label (without the "_:" prefix).
type BlankNode string

func (BlankNode) term() {}

// String renders the blank node in N-Triples form.
func (b BlankNode) String() string { return "_:" + string(b) }

// Literal is an RDF literal. Plain literals carry XSDString as datatype,
// language-tagged literals carry RDFLangString.
type Literal struct {
	Value    string
	Language string
	Datatype IRI
}

func (Literal) term() {}

// String renders the literal in N-Triples form.
func (l Literal) String() string {
	quoted := strconv.Quote(l.Value)
	switch {
	case l.Language != "":
		return quoted + "@" + l.Language
	case l.Datatype == "" || l.Datatype == XSDString:
		return quoted
	default:
		return quoted + "^^" + l.Datatype.String()
	}
}

// NewLiteral creates a plain xsd:string literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value, Datatype: XSDString}
}

// NewLangLiteral creates a language-tagged literal. Tags are lower-cased.
func NewLangLiteral(value, lang string) Literal {
	return Literal{Value: value, Language: strings.ToLower(lang), Datatype: RDFLangString}
}

// NewTypedLiteral creates a literal with an explicit datatype.
func NewTypedLiteral(value string, datatype IRI) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Value: value, Datatype: datatype}
}

// NewInteger creates an xsd:integer literal.
func NewInteger(n int64) Literal {
	return Literal{Value: strconv.FormatInt(n, 10), Datatype: XSDInteger}
}

// NewBoolean creates an xsd:boolean literal.
func NewBoolean(b bool) Literal {
	return Literal{Value: strconv.FormatBool(b), Datatype: XSDBoolean}
}

// IsNumeric reports whether the literal carries a numeric XSD datatype.
func (l Literal) IsNumeric() bool {
	switch l.Datatype {
	case XSDInteger, XSDDecimal, XSDDouble:
		return true
	}
	return false
}

// Number returns the numeric value of a numeric literal.
func (l Literal) Number() (float64, error) {
	if !l.IsNumeric() {
		return 0, fmt.Errorf("literal %s is not numeric", l)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(l.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lexical form for %s: %w", l.Datatype, err)
	}
	return f, nil
}

// Key returns the canonical key of a term. Two terms are equal iff their keys
// are equal. Lexical forms are NFC-normalized so that canonically equivalent
// strings compare equal. A nil term yields the empty key.
func Key(t Term) string {
	switch v := t.(type) {
	case nil:
		return ""
	case IRI:
		return "I" + norm.NFC.String(string(v))
	case BlankNode:
		return "B" + string(v)
	case Literal:
		var b strings.Builder
		b.WriteString("L")
		b.WriteString(norm.NFC.String(v.Value))
		b.WriteByte(0)
		if v.Language != "" {
			b.WriteString("@")
			b.WriteString(v.Language)
		} else {
			dt := v.Datatype
			if dt == "" {
				dt = XSDString
			}
			b.WriteString(string(dt))
		}
		return b.String()
	default:
		return fmt.Sprintf("?%v", t)
	}
}

// Equal reports whether two terms are the same RDF term.
// nil equals nil (unbound vs unbound).
func Equal(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Key(a) == Key(b)
}
