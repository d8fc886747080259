package plan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/algebra"
	"github.com/roach88/leviathan/internal/engine"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/rdf"
)

const ex = "http://example.org/"

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
}

func execute(t *testing.T, p *Plan) *engine.Result {
	t.Helper()
	ds, err := p.BuildDataset()
	require.NoError(t, err)
	q, err := p.Compile()
	require.NoError(t, err)
	res, err := engine.New(ds).Execute(context.Background(), q)
	require.NoError(t, err)
	return res
}

func TestLoad_YAMLAndCUEAgree(t *testing.T) {
	for _, file := range []string{"friends.yaml", "friends.cue"} {
		t.Run(file, func(t *testing.T) {
			p, err := Load(filepath.Join("testdata", file))
			require.NoError(t, err)
			assert.Equal(t, "friends", p.Name)

			res := execute(t, p)
			assert.Equal(t, []string{"name", "age"}, res.Variables)
			assert.Equal(t, []rdf.Term{rdf.NewLiteral("Bob"), rdf.NewLiteral("Carol")}, res.Column("name"))
			assert.Equal(t, []rdf.Term{rdf.NewInteger(25), nil}, res.Column("age"))
		})
	}
}

func TestLoad_NamesPlanAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anonymous.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  where:\n    bgp: []\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", p.Name)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown yaml field", func(t *testing.T) {
		_, err := Load(filepath.Join("testdata", "unknown_field.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "selct")
	})

	t.Run("incomplete cue value", func(t *testing.T) {
		_, err := Load(filepath.Join("testdata", "incomplete.cue"))
		var pe *PlanError
		require.True(t, errors.As(err, &pe), "got %v", err)
		assert.Equal(t, "cue", pe.Field)
		assert.True(t, pe.Pos.IsValid())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		_, err := Load(path)
		var pe *PlanError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "file", pe.Field)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join("testdata", "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestTerms(t *testing.T) {
	terms := newTerms(map[string]string{"ex": ex, "": ex + "default/"}, counter())

	tests := []struct {
		in   string
		want rdf.Term
	}{
		{"<http://example.org/a>", rdf.IRI(ex + "a")},
		{"ex:a", rdf.IRI(ex + "a")},
		{":a", rdf.IRI(ex + "default/a")},
		{"http://other.org/x", rdf.IRI("http://other.org/x")},
		{"a", rdfType},
		{"xsd:integer", rdf.XSDInteger},
		{"42", rdf.NewInteger(42)},
		{"-7", rdf.NewInteger(-7)},
		{"1.5", rdf.NewTypedLiteral("1.5", rdf.XSDDecimal)},
		{"true", rdf.NewBoolean(true)},
		{`"hi"`, rdf.NewLiteral("hi")},
		{`"hi"@EN`, rdf.NewLangLiteral("hi", "en")},
		{`"say \"hi\""`, rdf.NewLiteral(`say "hi"`)},
		{`"5"^^xsd:integer`, rdf.NewInteger(5)},
		{`"x"^^<http://example.org/dt>`, rdf.NewTypedLiteral("x", rdf.IRI(ex+"dt"))},
		{"_:x", rdf.BlankNode("b1")},
		{"_:x", rdf.BlankNode("b1")},
		{"[]", rdf.BlankNode("b2")},
		{"_:y", rdf.BlankNode("b3")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := terms.data(tt.in, "test")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerms_Errors(t *testing.T) {
	terms := newTerms(nil, counter())
	for _, in := range []string{"", "nope:x", "plain", `"unterminated`, `"x"@`, `"x"junk`, "?v", "_:"} {
		t.Run(in, func(t *testing.T) {
			_, err := terms.data(in, "test")
			var pe *PlanError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "test", pe.Field)
		})
	}
}

func TestTerms_PatternNodes(t *testing.T) {
	terms := newTerms(map[string]string{"ex": ex}, counter())

	n, err := terms.node("?who", "test")
	require.NoError(t, err)
	assert.Equal(t, algebra.V("who"), n)

	n, err = terms.node("_:b", "test")
	require.NoError(t, err)
	assert.Equal(t, algebra.V("_:b"), n)

	first, err := terms.node("[]", "test")
	require.NoError(t, err)
	second, err := terms.node("[]", "test")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "each [] is its own variable")

	n, err = terms.node("ex:a", "test")
	require.NoError(t, err)
	assert.Equal(t, algebra.T(rdf.IRI(ex+"a")), n)
}

func TestBuildDataset(t *testing.T) {
	p := &Plan{
		Prefixes: map[string]string{"ex": ex},
		Data: Data{
			Default: [][]string{{"_:n", "ex:p", "ex:o"}},
			Graphs: map[string][][]string{
				"ex:g2": {{"ex:s", "ex:p", "_:n"}},
				"ex:g1": {{"ex:s", "ex:p", `"v"`}},
			},
		},
	}
	ds, err := p.BuildDataset(WithBlankLabels(counter()))
	require.NoError(t, err)

	assert.Equal(t, []rdf.Term{rdf.IRI(ex + "g1"), rdf.IRI(ex + "g2")}, ds.GraphURIs())
	assert.Equal(t, []rdf.Triple{rdf.NewTriple(rdf.BlankNode("b1"), rdf.IRI(ex+"p"), rdf.IRI(ex+"o"))}, ds.Graph(nil).Triples())
	assert.Equal(t, []rdf.Triple{rdf.NewTriple(rdf.IRI(ex+"s"), rdf.IRI(ex+"p"), rdf.BlankNode("b1"))}, ds.Graph(rdf.IRI(ex+"g2")).Triples(),
		"one label names one node across graphs")
}

func TestBuildDataset_Errors(t *testing.T) {
	tests := map[string]Data{
		"short triple":      {Default: [][]string{{"<http://a>", "<http://b>"}}},
		"literal predicate": {Default: [][]string{{"<http://a>", `"p"`, "<http://c>"}}},
		"bad graph name":    {Graphs: map[string][][]string{`"g"`: nil}},
		"variable in data":  {Default: [][]string{{"?s", "<http://b>", "<http://c>"}}},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := (&Plan{Data: data}).BuildDataset()
			var pe *PlanError
			assert.True(t, errors.As(err, &pe), "got %v", err)
		})
	}
}

func TestCompile_ModifierOrder(t *testing.T) {
	p := &Plan{Query: QuerySpec{
		Select:   []string{"?s"},
		Distinct: true,
		OrderBy:  []OrderSpec{{Var: "s", Desc: true}},
		Limit:    2,
		Offset:   1,
		From:     []string{"<http://example.org/g>"},
		Where:    &Node{BGP: [][]string{{"?s", "?p", "?o"}}},
	}}
	q, err := p.Compile()
	require.NoError(t, err)

	assert.Equal(t, eval.FormSelect, q.Form)
	assert.Equal(t, []string{"s"}, q.Variables)
	assert.Equal(t, 2, q.Limit)
	assert.Equal(t, []rdf.Term{rdf.IRI(ex + "g")}, q.DefaultGraphs)
	require.NotNil(t, q.Ordering)

	slice, ok := q.Root.(*algebra.Slice)
	require.True(t, ok, "got %T", q.Root)
	assert.Equal(t, 1, slice.Offset)
	assert.Equal(t, 2, slice.Limit)
	distinct, ok := slice.Inner.(*algebra.Distinct)
	require.True(t, ok, "got %T", slice.Inner)
	project, ok := distinct.Inner.(*algebra.Project)
	require.True(t, ok, "got %T", distinct.Inner)
	_, ok = project.Inner.(*algebra.OrderBy)
	assert.True(t, ok, "got %T", project.Inner)
}

func TestCompile_OffsetWithoutLimit(t *testing.T) {
	p := &Plan{Query: QuerySpec{Offset: 3, Where: &Node{BGP: [][]string{}}}}
	q, err := p.Compile()
	require.NoError(t, err)
	slice := q.Root.(*algebra.Slice)
	assert.Equal(t, -1, slice.Limit)
}

func TestCompile_FoldsLeft(t *testing.T) {
	bgp := func(o string) *Node { return &Node{BGP: [][]string{{"?s", "<http://p>", o}}} }
	p := &Plan{Query: QuerySpec{Where: &Node{Union: []*Node{bgp("?a"), bgp("?b"), bgp("?c")}}}}
	q, err := p.Compile()
	require.NoError(t, err)

	outer := q.Root.(*algebra.Union)
	inner, ok := outer.Left.(*algebra.Union)
	require.True(t, ok, "got %T", outer.Left)
	assert.Equal(t, []string{"s", "a"}, inner.Left.Variables())
	assert.Equal(t, []string{"s", "c"}, outer.Right.Variables())
}

func TestCompile_AskAndExpressions(t *testing.T) {
	p := &Plan{
		Prefixes: map[string]string{"ex": ex},
		Data: Data{Default: [][]string{
			{"ex:a", "ex:age", "30"},
			{"ex:b", "ex:age", "12"},
		}},
		Query: QuerySpec{
			Form: "ask",
			Where: &Node{Filter: &FilterSpec{
				Expr: &Expr{Op: "&&", Args: []*Expr{
					{Op: ">", Args: []*Expr{{Var: "?age"}, {Const: "18"}}},
					{Op: "!", Args: []*Expr{{Call: "isBlank", Args: []*Expr{{Var: "s"}}}}},
				}},
				Inner: &Node{BGP: [][]string{{"?s", "ex:age", "?age"}}},
			}},
		},
	}
	res := execute(t, p)
	assert.Equal(t, eval.FormAsk, res.Form)
	assert.True(t, res.Ask)

	p.Query.Where.Filter.Expr.Args[0].Args[1].Const = "40"
	assert.False(t, execute(t, p).Ask)
}

func TestCompile_OperatorsEndToEnd(t *testing.T) {
	limit := 1
	p := &Plan{
		Prefixes: map[string]string{"ex": ex},
		Data: Data{
			Default: [][]string{
				{"ex:a", "ex:n", "1"},
				{"ex:b", "ex:n", "2"},
				{"ex:c", "ex:n", "2"},
			},
			Graphs: map[string][][]string{
				"ex:g": {{"ex:a", "ex:tag", `"x"`}},
			},
		},
		Query: QuerySpec{
			Select: []string{"n", "count"},
			Where: &Node{SubQuery: &QuerySpec{
				Select:  []string{"n", "count"},
				OrderBy: []OrderSpec{{Var: "n", Desc: true}},
				Where: &Node{Slice: &SliceSpec{
					Limit: &limit,
					Inner: &Node{Group: &GroupSpec{
						Keys:       []string{"n"},
						Aggregates: []AggregateSpec{{Func: "count", As: "count"}},
						Inner: &Node{Minus: []*Node{
							{BGP: [][]string{{"?s", "ex:n", "?n"}}},
							{Graph: &GraphSpec{Name: "?g", Inner: &Node{BGP: [][]string{{"?s", "ex:tag", "[]"}}}}},
						}},
					}},
				}},
			}},
		},
	}
	res := execute(t, p)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, []rdf.Term{rdf.NewInteger(2)}, res.Column("n"))
	assert.Equal(t, []rdf.Term{rdf.NewInteger(2)}, res.Column("count"))
}

func TestCompile_Values(t *testing.T) {
	p := &Plan{
		Prefixes: map[string]string{"ex": ex},
		Query: QuerySpec{Where: &Node{Values: &ValuesSpec{
			Vars: []string{"?x", "y"},
			Rows: [][]string{{"ex:a", "UNDEF"}, {"1", `"b"`}},
		}}},
	}
	res := execute(t, p)
	assert.Equal(t, []rdf.Term{rdf.IRI(ex + "a"), rdf.NewInteger(1)}, res.Column("x"))
	assert.Equal(t, []rdf.Term{nil, rdf.NewLiteral("b")}, res.Column("y"))
}

func TestCompile_Errors(t *testing.T) {
	bgp := &Node{BGP: [][]string{{"?s", "?p", "?o"}}}
	tests := []struct {
		name  string
		query QuerySpec
		field string
	}{
		{"missing where", QuerySpec{}, "query.where"},
		{"bad form", QuerySpec{Form: "CONSTRUCT", Where: bgp}, "query.form"},
		{"negative limit", QuerySpec{Limit: -1, Where: bgp}, "query"},
		{"distinct and reduced", QuerySpec{Distinct: true, Reduced: true, Where: bgp}, "query"},
		{"empty node", QuerySpec{Where: &Node{}}, "query.where"},
		{"two operators", QuerySpec{Where: &Node{BGP: [][]string{}, Distinct: bgp}}, "query.where"},
		{"short pattern", QuerySpec{Where: &Node{BGP: [][]string{{"?s", "?p"}}}}, "query.where.bgp[0]"},
		{"single join operand", QuerySpec{Where: &Node{Join: []*Node{bgp}}}, "query.where.join"},
		{"nested failure", QuerySpec{Where: &Node{Join: []*Node{bgp, {}}}}, "query.where.join[1]"},
		{"filtered product without filter", QuerySpec{Where: &Node{FilteredProduct: &BinarySpec{Left: bgp, Right: bgp}}}, "query.where.filtered_product.filter"},
		{"unknown function", QuerySpec{Where: &Node{Filter: &FilterSpec{Expr: &Expr{Call: "frobnicate"}, Inner: bgp}}}, "query.where.filter.expr.call"},
		{"unknown operator", QuerySpec{Where: &Node{Filter: &FilterSpec{Expr: &Expr{Op: "~"}, Inner: bgp}}}, "query.where.filter.expr.op"},
		{"comparison arity", QuerySpec{Where: &Node{Filter: &FilterSpec{Expr: &Expr{Op: "=", Args: []*Expr{{Var: "s"}}}, Inner: bgp}}}, "query.where.filter.expr"},
		{"ambiguous expression", QuerySpec{Where: &Node{Filter: &FilterSpec{Expr: &Expr{Var: "s", Bound: "s"}, Inner: bgp}}}, "query.where.filter.expr"},
		{"unknown aggregate", QuerySpec{Where: &Node{Group: &GroupSpec{Aggregates: []AggregateSpec{{Func: "median", Var: "o", As: "m"}}, Inner: bgp}}}, "query.where.group.aggregates[0]"},
		{"sum without variable", QuerySpec{Where: &Node{Group: &GroupSpec{Aggregates: []AggregateSpec{{Func: "sum", As: "m"}}, Inner: bgp}}}, "query.where.group.aggregates[0]"},
		{"values row width", QuerySpec{Where: &Node{Values: &ValuesSpec{Vars: []string{"a"}, Rows: [][]string{{"1", "2"}}}}}, "query.where.values.rows[0]"},
		{"order key", QuerySpec{OrderBy: []OrderSpec{{}}, Where: bgp}, "query.order_by[0]"},
		{"literal graph name", QuerySpec{Where: &Node{Graph: &GraphSpec{Name: `"g"`, Inner: bgp}}}, "query.where.graph.name"},
		{"bad from", QuerySpec{From: []string{"_:g"}, Where: bgp}, "query.from[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Plan{Query: tt.query}).Compile()
			var pe *PlanError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestPlan_Term(t *testing.T) {
	p := &Plan{Prefixes: map[string]string{"ex": ex}}

	got, err := p.Term("ex:a")
	require.NoError(t, err)
	assert.Equal(t, rdf.IRI(ex+"a"), got)

	got, err = p.Term("_:b7")
	require.NoError(t, err)
	assert.Equal(t, rdf.BlankNode("b7"), got)

	_, err = p.Term("?x")
	assert.Error(t, err)
}
