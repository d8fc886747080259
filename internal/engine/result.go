package engine

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Result is the shaped outcome of one execution.
type Result struct {
	Token string
	Seq   int64
	Form  eval.Form

	// Variables and Solutions are set for SELECT.
	Variables []string
	Solutions []*solution.Set

	// Ask is set for ASK.
	Ask bool

	Elapsed time.Duration

	// Partial is true when a product stopped at the timeout.
	Partial bool
}

// Len returns the number of solutions.
func (r *Result) Len() int { return len(r.Solutions) }

// Column returns the bindings of v, one per solution, nil where unbound.
func (r *Result) Column(v string) []rdf.Term {
	out := make([]rdf.Term, len(r.Solutions))
	for i, s := range r.Solutions {
		out[i] = s.Get(v)
	}
	return out
}

func shape(q *eval.Query, m *multiset.Multiset, trim bool) *Result {
	res := &Result{Form: q.Form}
	if res.Form == "" {
		res.Form = eval.FormSelect
	}
	if res.Form == eval.FormAsk {
		res.Ask = !m.IsEmpty()
		return res
	}

	if m.Kind() == multiset.KindGrouped {
		m = m.Flatten()
	}
	vars := q.ProjectedVariables()
	if trim {
		kept := vars[:0]
		for _, v := range vars {
			if !strings.HasPrefix(v, multiset.TemporaryPrefix) {
				kept = append(kept, v)
			}
		}
		vars = kept
	}
	res.Variables = vars

	sets := m.Sets()
	res.Solutions = make([]*solution.Set, 0, len(sets))
	for _, s := range sets {
		res.Solutions = append(res.Solutions, s.Project(vars))
	}
	return res
}

// MarshalJSON renders the result in the SPARQL 1.1 JSON results format.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Form == eval.FormAsk {
		return json.Marshal(struct {
			Head    jsonHead `json:"head"`
			Boolean bool     `json:"boolean"`
		}{Boolean: r.Ask})
	}

	bindings := make([]map[string]jsonTerm, 0, len(r.Solutions))
	for _, s := range r.Solutions {
		row := make(map[string]jsonTerm)
		for _, v := range r.Variables {
			if t := s.Get(v); t != nil {
				row[v] = newJSONTerm(t)
			}
		}
		bindings = append(bindings, row)
	}
	vars := r.Variables
	if vars == nil {
		vars = []string{}
	}
	return json.Marshal(jsonSelect{
		Head:    jsonHead{Vars: vars},
		Results: jsonBindings{Bindings: bindings},
	})
}

type jsonHead struct {
	Vars []string `json:"vars,omitempty"`
}

type jsonSelect struct {
	Head    jsonHead     `json:"head"`
	Results jsonBindings `json:"results"`
}

type jsonBindings struct {
	Bindings []map[string]jsonTerm `json:"bindings"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func newJSONTerm(t rdf.Term) jsonTerm {
	switch v := t.(type) {
	case rdf.IRI:
		return jsonTerm{Type: "uri", Value: string(v)}
	case rdf.BlankNode:
		return jsonTerm{Type: "bnode", Value: string(v)}
	case rdf.Literal:
		jt := jsonTerm{Type: "literal", Value: v.Value, Language: v.Language}
		if v.Language == "" && v.Datatype != "" && v.Datatype != rdf.XSDString {
			jt.Datatype = string(v.Datatype)
		}
		return jt
	}
	return jsonTerm{Type: "literal", Value: t.String()}
}
