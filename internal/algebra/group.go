package algebra

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// AggregateFunc names an aggregate.
type AggregateFunc string

const (
	AggCount  AggregateFunc = "COUNT"
	AggSum    AggregateFunc = "SUM"
	AggMin    AggregateFunc = "MIN"
	AggMax    AggregateFunc = "MAX"
	AggSample AggregateFunc = "SAMPLE"
)

// Aggregate computes one value per group into the variable As. An empty
// Var counts solutions (COUNT(*)).
type Aggregate struct {
	Func AggregateFunc
	Var  string
	As   string
}

func (a Aggregate) String() string {
	arg := "*"
	if a.Var != "" {
		arg = "?" + a.Var
	}
	return fmt.Sprintf("(%s(%s) AS ?%s)", a.Func, arg, a.As)
}

// GroupBy partitions the solutions of Inner by the values of Keys and
// produces a Grouped multiset: one solution per group holding the key
// bindings and the aggregates. An input without solutions yields a single
// empty group when there are no keys, as for an aggregate over nothing.
type GroupBy struct {
	Keys       []string
	Aggregates []Aggregate
	Inner      eval.Operator
}

func (g *GroupBy) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(g.Inner)
	if err != nil {
		return nil, err
	}
	if in.IsNull() {
		if len(g.Keys) > 0 {
			return in, nil
		}
		in = multiset.New()
	}

	out := multiset.NewGrouped(in)
	for _, k := range g.Keys {
		out.AddVariable(k)
	}
	for _, a := range g.Aggregates {
		out.AddVariable(a.As)
	}

	type group struct {
		key     *solution.Set
		members []*solution.Set
	}
	var order []string
	groups := make(map[string]*group)
	for _, s := range in.Sets() {
		key := s.Project(g.Keys)
		k := key.Key()
		grp, ok := groups[k]
		if !ok {
			grp = &group{key: key}
			groups[k] = grp
			order = append(order, k)
		}
		grp.members = append(grp.members, s)
	}
	if len(order) == 0 && len(g.Keys) == 0 {
		order = append(order, "")
		groups[""] = &group{key: solution.New()}
	}

	for _, k := range order {
		grp := groups[k]
		row := grp.key.Copy()
		for _, a := range g.Aggregates {
			v, err := aggregate(a, grp.members)
			if err != nil {
				return nil, err
			}
			if err := row.Add(a.As, v); err != nil {
				return nil, fmt.Errorf("aggregate %s: %w", a, err)
			}
		}
		ids := make([]int, len(grp.members))
		for i, m := range grp.members {
			ids[i] = m.ID()
		}
		out.AddGroup(row, ids)
	}
	return out, nil
}

func aggregate(a Aggregate, members []*solution.Set) (rdf.Term, error) {
	var values []rdf.Term
	for _, m := range members {
		if a.Var == "" {
			values = append(values, rdf.NewBoolean(true))
			continue
		}
		if t := m.Get(a.Var); t != nil {
			values = append(values, t)
		}
	}

	switch a.Func {
	case AggCount:
		return rdf.NewInteger(int64(len(values))), nil
	case AggSample:
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	case AggMin, AggMax:
		if len(values) == 0 {
			return nil, nil
		}
		best := values[0]
		for _, v := range values[1:] {
			c := rdf.Compare(v, best)
			if (a.Func == AggMin && c < 0) || (a.Func == AggMax && c > 0) {
				best = v
			}
		}
		return best, nil
	case AggSum:
		// Integers are summed exactly; any other numeric falls back to
		// float64 and a decimal result.
		exact := new(big.Int)
		var sum float64
		integral := true
		for _, v := range values {
			l, ok := v.(rdf.Literal)
			if !ok || !l.IsNumeric() {
				return nil, nil
			}
			n, err := l.Number()
			if err != nil {
				return nil, nil
			}
			if integral && l.Datatype == rdf.XSDInteger {
				i, ok := new(big.Int).SetString(l.Value, 10)
				if !ok {
					return nil, nil
				}
				exact.Add(exact, i)
			} else {
				integral = false
			}
			sum += n
		}
		if integral {
			return rdf.NewTypedLiteral(exact.String(), rdf.XSDInteger), nil
		}
		return rdf.NewTypedLiteral(strconv.FormatFloat(sum, 'f', -1, 64), rdf.XSDDecimal), nil
	}
	return nil, eval.NewUnsupportedError("GroupBy", "aggregate "+string(a.Func))
}

func (g *GroupBy) Children() []eval.Operator { return []eval.Operator{g.Inner} }

func (g *GroupBy) Variables() []string {
	vars := append([]string{}, g.Keys...)
	for _, a := range g.Aggregates {
		vars = append(vars, a.As)
	}
	return mergeVariables(vars)
}

func (g *GroupBy) String() string {
	parts := make([]string, 0, len(g.Keys)+len(g.Aggregates))
	for _, k := range g.Keys {
		parts = append(parts, "?"+k)
	}
	for _, a := range g.Aggregates {
		parts = append(parts, a.String())
	}
	return unary("GroupBy", strings.Join(parts, " "), g.Inner)
}
