// Package algebra implements the operators of a query's algebra tree.
//
// Every operator implements eval.Operator. Leaves (BGP, Bindings, Table,
// SubQuery and the two fast paths) produce multisets from the dataset or
// from fixed data; inner nodes evaluate their children through the same
// context and combine the results. Sentinel multisets (Identity, Null) are
// handled at each operator boundary by switching on multiset kind.
package algebra

import (
	"errors"
	"fmt"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/solution"
)

// ErrNotReversible is the cause reported when an operator tree cannot be
// turned back into a query.
var ErrNotReversible = errors.New("operator cannot be converted back to a query")

// Parent is implemented by operators with children.
type Parent interface {
	Children() []eval.Operator
}

// Walk calls fn for op and every descendant, depth first. Returning false
// from fn skips the node's children.
func Walk(op eval.Operator, fn func(eval.Operator) bool) {
	if op == nil || !fn(op) {
		return
	}
	if p, ok := op.(Parent); ok {
		for _, c := range p.Children() {
			Walk(c, fn)
		}
	}
}

// ToQuery wraps op into a SELECT query over its variables. Fails with
// ErrNotReversible if the tree holds a Table or a PropertyFunction.
func ToQuery(op eval.Operator) (*eval.Query, error) {
	if err := checkReversible(op); err != nil {
		return nil, err
	}
	return &eval.Query{Form: eval.FormSelect, Root: op, Variables: op.Variables()}, nil
}

// ToGraphPattern renders op as a graph pattern. Same restrictions as
// ToQuery.
func ToGraphPattern(op eval.Operator) (string, error) {
	if err := checkReversible(op); err != nil {
		return "", err
	}
	return op.String(), nil
}

func checkReversible(op eval.Operator) error {
	var name string
	Walk(op, func(o eval.Operator) bool {
		switch o.(type) {
		case *Table:
			name = "Table"
		case *PropertyFunction:
			name = "PropertyFunction"
		}
		return name == ""
	})
	if name == "" {
		return nil
	}
	return &eval.QueryError{
		Code:     eval.ErrCodeUnsupported,
		Message:  "reverse transform",
		Operator: name,
		Cause:    ErrNotReversible,
	}
}

// mergeVariables concatenates variable lists without duplicates.
func mergeVariables(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, v := range l {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// copyInto builds a General multiset declaring vars that holds copies of
// sets. Copies keep the sources' IDs untouched.
func copyInto(vars []string, sets []*solution.Set) *multiset.Multiset {
	out := multiset.New(vars...)
	for _, s := range sets {
		out.Add(s.Copy())
	}
	return out
}

func unary(name string, args string, inner eval.Operator) string {
	if args == "" {
		return fmt.Sprintf("%s(%s)", name, inner)
	}
	return fmt.Sprintf("%s(%s, %s)", name, args, inner)
}
