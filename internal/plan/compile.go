package plan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/leviathan/internal/algebra"
	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/expr"
	"github.com/roach88/leviathan/internal/rdf"
)

// Option configures BuildDataset and Compile.
type Option func(*options)

type options struct {
	label  func() string
	memory []dataset.MemoryOption
}

// WithBlankLabels replaces the generator of blank node labels, e.g. with a
// counter for reproducible output.
func WithBlankLabels(fn func() string) Option {
	return func(o *options) {
		o.label = fn
	}
}

// WithMemoryOptions passes options to the dataset BuildDataset creates.
func WithMemoryOptions(opts ...dataset.MemoryOption) Option {
	return func(o *options) {
		o.memory = append(o.memory, opts...)
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HasData reports whether the plan carries any triples.
func (p *Plan) HasData() bool {
	return len(p.Data.Default) > 0 || len(p.Data.Graphs) > 0
}

// BuildDataset creates an in-memory dataset from the plan's data section.
// Named graphs are added in name order.
func (p *Plan) BuildDataset(opts ...Option) (*dataset.Memory, error) {
	o := applyOptions(opts)
	t := newTerms(p.Prefixes, o.label)

	unnamed, err := buildGraph(t, nil, p.Data.Default, "data.default")
	if err != nil {
		return nil, err
	}
	graphs := []rdf.Graph{unnamed}

	names := make([]string, 0, len(p.Data.Graphs))
	for name := range p.Data.Graphs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		field := "data.graphs." + name
		uri, err := t.iri(name, field)
		if err != nil {
			return nil, err
		}
		g, err := buildGraph(t, uri, p.Data.Graphs[name], field)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return dataset.NewMemory(graphs, o.memory...), nil
}

func buildGraph(t *terms, name rdf.Term, rows [][]string, field string) (*rdf.MemGraph, error) {
	g := rdf.NewMemGraph(name)
	for i, row := range rows {
		at := fmt.Sprintf("%s[%d]", field, i)
		if len(row) != 3 {
			return nil, planErrorf(at, "triple needs 3 terms, got %d", len(row))
		}
		var parts [3]rdf.Term
		for j, s := range row {
			term, err := t.data(s, at)
			if err != nil {
				return nil, err
			}
			parts[j] = term
		}
		if _, ok := parts[1].(rdf.IRI); !ok {
			return nil, planErrorf(at, "predicate %s is not an IRI", row[1])
		}
		g.Assert(rdf.NewTriple(parts[0], parts[1], parts[2]))
	}
	return g, nil
}

// Compile builds the query object and its algebra tree.
//
// Query-level modifiers wrap the WHERE tree in the order ORDER BY,
// projection, DISTINCT or REDUCED, then OFFSET and LIMIT.
func (p *Plan) Compile(opts ...Option) (*eval.Query, error) {
	o := applyOptions(opts)
	c := &compiler{terms: newTerms(p.Prefixes, o.label)}
	return c.query(&p.Query, "query")
}

type compiler struct {
	terms *terms
}

func (c *compiler) query(spec *QuerySpec, field string) (*eval.Query, error) {
	if spec.Where == nil {
		return nil, planErrorf(field+".where", "where is required")
	}

	q := &eval.Query{Limit: spec.Limit, Offset: spec.Offset}
	switch strings.ToUpper(spec.Form) {
	case "", string(eval.FormSelect):
		q.Form = eval.FormSelect
	case string(eval.FormAsk):
		q.Form = eval.FormAsk
	default:
		return nil, planErrorf(field+".form", "unsupported form %q", spec.Form)
	}
	if spec.Limit < 0 || spec.Offset < 0 {
		return nil, planErrorf(field, "negative limit or offset")
	}
	if spec.Distinct && spec.Reduced {
		return nil, planErrorf(field, "distinct and reduced are exclusive")
	}

	for i, s := range spec.From {
		uri, err := c.terms.iri(s, fmt.Sprintf("%s.from[%d]", field, i))
		if err != nil {
			return nil, err
		}
		q.DefaultGraphs = append(q.DefaultGraphs, uri)
	}
	for i, s := range spec.FromNamed {
		uri, err := c.terms.iri(s, fmt.Sprintf("%s.from_named[%d]", field, i))
		if err != nil {
			return nil, err
		}
		q.NamedGraphs = append(q.NamedGraphs, uri)
	}

	root, err := c.node(spec.Where, field+".where")
	if err != nil {
		return nil, err
	}

	if len(spec.OrderBy) > 0 {
		ordering, err := c.ordering(spec.OrderBy, field+".order_by")
		if err != nil {
			return nil, err
		}
		q.Ordering = ordering
		root = &algebra.OrderBy{Ordering: ordering, Inner: root}
	}
	if len(spec.Select) > 0 {
		q.Variables = varNames(spec.Select)
		root = &algebra.Project{Vars: q.Variables, Inner: root}
	}
	switch {
	case spec.Distinct:
		root = &algebra.Distinct{Inner: root}
	case spec.Reduced:
		root = &algebra.Reduced{Inner: root}
	}
	if spec.Limit > 0 || spec.Offset > 0 {
		limit := -1
		if spec.Limit > 0 {
			limit = spec.Limit
		}
		root = &algebra.Slice{Offset: spec.Offset, Limit: limit, Inner: root}
	}

	q.Root = root
	return q, nil
}

func (c *compiler) node(n *Node, field string) (eval.Operator, error) {
	if n == nil {
		return nil, planErrorf(field, "operator is missing")
	}
	if set := n.fieldsSet(); len(set) != 1 {
		if len(set) == 0 {
			return nil, planErrorf(field, "empty operator")
		}
		return nil, planErrorf(field, "operator sets %s; want exactly one", strings.Join(set, ", "))
	}

	switch {
	case n.BGP != nil:
		return c.bgp(n.BGP, field+".bgp")
	case n.Join != nil:
		return c.fold(n.Join, field+".join", func(l, r eval.Operator) eval.Operator {
			return &algebra.Join{Left: l, Right: r}
		})
	case n.Union != nil:
		return c.fold(n.Union, field+".union", func(l, r eval.Operator) eval.Operator {
			return &algebra.Union{Left: l, Right: r}
		})
	case n.Minus != nil:
		return c.fold(n.Minus, field+".minus", func(l, r eval.Operator) eval.Operator {
			return &algebra.Minus{Left: l, Right: r}
		})
	case n.Product != nil:
		return c.fold(n.Product, field+".product", func(l, r eval.Operator) eval.Operator {
			return &algebra.Product{Left: l, Right: r}
		})
	case n.LeftJoin != nil:
		l, r, e, err := c.binary(n.LeftJoin, field+".left_join")
		if err != nil {
			return nil, err
		}
		return &algebra.LeftJoin{Left: l, Right: r, Expr: e}, nil
	case n.FilteredProduct != nil:
		l, r, e, err := c.binary(n.FilteredProduct, field+".filtered_product")
		if err != nil {
			return nil, err
		}
		if e == nil {
			return nil, planErrorf(field+".filtered_product.filter", "filter is required")
		}
		return &algebra.FilteredProduct{Left: l, Right: r, Expr: e}, nil
	case n.Filter != nil:
		return c.filter(n.Filter, field+".filter")
	case n.Graph != nil:
		return c.graph(n.Graph, field+".graph")
	case n.Distinct != nil:
		inner, err := c.node(n.Distinct, field+".distinct")
		if err != nil {
			return nil, err
		}
		return &algebra.Distinct{Inner: inner}, nil
	case n.Reduced != nil:
		inner, err := c.node(n.Reduced, field+".reduced")
		if err != nil {
			return nil, err
		}
		return &algebra.Reduced{Inner: inner}, nil
	case n.OrderBy != nil:
		ordering, err := c.ordering(n.OrderBy.By, field+".order_by.by")
		if err != nil {
			return nil, err
		}
		inner, err := c.node(n.OrderBy.Inner, field+".order_by.inner")
		if err != nil {
			return nil, err
		}
		return &algebra.OrderBy{Ordering: ordering, Inner: inner}, nil
	case n.Slice != nil:
		return c.slice(n.Slice, field+".slice")
	case n.Project != nil:
		inner, err := c.node(n.Project.Inner, field+".project.inner")
		if err != nil {
			return nil, err
		}
		return &algebra.Project{Vars: varNames(n.Project.Vars), Inner: inner}, nil
	case n.Group != nil:
		return c.group(n.Group, field+".group")
	case n.Values != nil:
		return c.values(n.Values, field+".values")
	case n.SubQuery != nil:
		q, err := c.query(n.SubQuery, field+".subquery")
		if err != nil {
			return nil, err
		}
		return &algebra.SubQuery{Query: q}, nil
	}
	return nil, planErrorf(field, "empty operator")
}

func (n *Node) fieldsSet() []string {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(n.BGP != nil, "bgp")
	add(n.Join != nil, "join")
	add(n.LeftJoin != nil, "left_join")
	add(n.Union != nil, "union")
	add(n.Minus != nil, "minus")
	add(n.Product != nil, "product")
	add(n.FilteredProduct != nil, "filtered_product")
	add(n.Filter != nil, "filter")
	add(n.Graph != nil, "graph")
	add(n.Distinct != nil, "distinct")
	add(n.Reduced != nil, "reduced")
	add(n.OrderBy != nil, "order_by")
	add(n.Slice != nil, "slice")
	add(n.Project != nil, "project")
	add(n.Group != nil, "group")
	add(n.Values != nil, "values")
	add(n.SubQuery != nil, "subquery")
	return set
}

func (c *compiler) bgp(rows [][]string, field string) (eval.Operator, error) {
	b := &algebra.BGP{Patterns: make([]algebra.TriplePattern, 0, len(rows))}
	for i, row := range rows {
		at := fmt.Sprintf("%s[%d]", field, i)
		if len(row) != 3 {
			return nil, planErrorf(at, "pattern needs 3 terms, got %d", len(row))
		}
		var nodes [3]algebra.Node
		for j, s := range row {
			n, err := c.terms.node(s, at)
			if err != nil {
				return nil, err
			}
			nodes[j] = n
		}
		b.Patterns = append(b.Patterns, algebra.Pattern(nodes[0], nodes[1], nodes[2]))
	}
	return b, nil
}

// fold combines two or more operands left to right.
func (c *compiler) fold(nodes []*Node, field string, combine func(l, r eval.Operator) eval.Operator) (eval.Operator, error) {
	if len(nodes) < 2 {
		return nil, planErrorf(field, "needs at least 2 operands, got %d", len(nodes))
	}
	var acc eval.Operator
	for i, n := range nodes {
		op, err := c.node(n, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = op
			continue
		}
		acc = combine(acc, op)
	}
	return acc, nil
}

func (c *compiler) binary(b *BinarySpec, field string) (eval.Operator, eval.Operator, eval.Expression, error) {
	l, err := c.node(b.Left, field+".left")
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := c.node(b.Right, field+".right")
	if err != nil {
		return nil, nil, nil, err
	}
	if b.Filter == nil {
		return l, r, nil, nil
	}
	e, err := c.expr(b.Filter, field+".filter")
	if err != nil {
		return nil, nil, nil, err
	}
	return l, r, e, nil
}

func (c *compiler) filter(f *FilterSpec, field string) (eval.Operator, error) {
	if f.Expr == nil {
		return nil, planErrorf(field+".expr", "expr is required")
	}
	e, err := c.expr(f.Expr, field+".expr")
	if err != nil {
		return nil, err
	}
	inner, err := c.node(f.Inner, field+".inner")
	if err != nil {
		return nil, err
	}
	return &algebra.Filter{Expr: e, Inner: inner}, nil
}

func (c *compiler) graph(g *GraphSpec, field string) (eval.Operator, error) {
	var name algebra.Node
	if strings.HasPrefix(strings.TrimSpace(g.Name), "?") {
		name = algebra.V(varName(g.Name))
	} else {
		uri, err := c.terms.iri(g.Name, field+".name")
		if err != nil {
			return nil, err
		}
		name = algebra.T(uri)
	}
	inner, err := c.node(g.Inner, field+".inner")
	if err != nil {
		return nil, err
	}
	return &algebra.Graph{Name: name, Inner: inner}, nil
}

func (c *compiler) slice(s *SliceSpec, field string) (eval.Operator, error) {
	if s.Offset < 0 || (s.Limit != nil && *s.Limit < 0) {
		return nil, planErrorf(field, "negative limit or offset")
	}
	limit := -1
	if s.Limit != nil {
		limit = *s.Limit
	}
	inner, err := c.node(s.Inner, field+".inner")
	if err != nil {
		return nil, err
	}
	return &algebra.Slice{Offset: s.Offset, Limit: limit, Inner: inner}, nil
}

var aggregates = []algebra.AggregateFunc{
	algebra.AggCount, algebra.AggSum, algebra.AggMin, algebra.AggMax, algebra.AggSample,
}

func (c *compiler) group(g *GroupSpec, field string) (eval.Operator, error) {
	op := &algebra.GroupBy{Keys: varNames(g.Keys)}
	for i, a := range g.Aggregates {
		at := fmt.Sprintf("%s.aggregates[%d]", field, i)
		fn := algebra.AggregateFunc(strings.ToUpper(a.Func))
		if !slices.Contains(aggregates, fn) {
			return nil, planErrorf(at, "unknown aggregate %q", a.Func)
		}
		if a.As == "" {
			return nil, planErrorf(at, "as is required")
		}
		if a.Var == "" && fn != algebra.AggCount {
			return nil, planErrorf(at, "%s needs a variable", fn)
		}
		op.Aggregates = append(op.Aggregates, algebra.Aggregate{Func: fn, Var: varName(a.Var), As: varName(a.As)})
	}
	inner, err := c.node(g.Inner, field+".inner")
	if err != nil {
		return nil, err
	}
	op.Inner = inner
	return op, nil
}

func (c *compiler) values(v *ValuesSpec, field string) (eval.Operator, error) {
	vars := varNames(v.Vars)
	rows := make([][]rdf.Term, 0, len(v.Rows))
	for i, row := range v.Rows {
		at := fmt.Sprintf("%s.rows[%d]", field, i)
		if len(row) != len(vars) {
			return nil, planErrorf(at, "got %d values for %d variables", len(row), len(vars))
		}
		terms := make([]rdf.Term, len(row))
		for j, s := range row {
			if strings.TrimSpace(s) == "UNDEF" {
				continue
			}
			t, err := c.terms.data(s, at)
			if err != nil {
				return nil, err
			}
			terms[j] = t
		}
		rows = append(rows, terms)
	}
	return algebra.NewBindings(vars, rows...), nil
}

func (c *compiler) ordering(specs []OrderSpec, field string) (expr.Ordering, error) {
	conds := make([]expr.Condition, 0, len(specs))
	for i, s := range specs {
		at := fmt.Sprintf("%s[%d]", field, i)
		var e eval.Expression
		switch {
		case s.Var != "" && s.Expr != nil:
			return nil, planErrorf(at, "set var or expr, not both")
		case s.Var != "":
			e = expr.Var(varName(s.Var))
		case s.Expr != nil:
			var err error
			if e, err = c.expr(s.Expr, at+".expr"); err != nil {
				return nil, err
			}
		default:
			return nil, planErrorf(at, "var or expr is required")
		}
		if s.Desc {
			conds = append(conds, expr.Desc(e))
		} else {
			conds = append(conds, expr.Asc(e))
		}
	}
	return expr.OrderBy(conds...), nil
}

var comparisons = map[string]expr.Op{
	"=":  expr.OpEqual,
	"!=": expr.OpNotEqual,
	"<":  expr.OpLess,
	"<=": expr.OpLessOrEqual,
	">":  expr.OpGreater,
	">=": expr.OpGreaterOrEqual,
}

func (c *compiler) expr(e *Expr, field string) (eval.Expression, error) {
	if e == nil {
		return nil, planErrorf(field, "expression is missing")
	}
	set := 0
	for _, s := range []string{e.Var, e.Const, e.Bound, e.Op, e.Call} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, planErrorf(field, "set exactly one of var, const, bound, op or call")
	}

	switch {
	case e.Var != "":
		return expr.Var(varName(e.Var)), nil
	case e.Bound != "":
		return expr.Bound(varName(e.Bound)), nil
	case e.Const != "":
		t, err := c.terms.data(e.Const, field+".const")
		if err != nil {
			return nil, err
		}
		return expr.Const{Term: t}, nil
	}

	args := make([]eval.Expression, len(e.Args))
	for i, a := range e.Args {
		arg, err := c.expr(a, fmt.Sprintf("%s.args[%d]", field, i))
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	if e.Call != "" {
		if !expr.IsBuiltin(e.Call) {
			return nil, planErrorf(field+".call", "unknown function %q", e.Call)
		}
		return expr.Call{Name: e.Call, Args: args}, nil
	}

	if op, ok := comparisons[e.Op]; ok {
		if len(args) != 2 {
			return nil, planErrorf(field, "%s takes 2 arguments, got %d", e.Op, len(args))
		}
		return expr.Compare{Op: op, Left: args[0], Right: args[1]}, nil
	}
	switch e.Op {
	case "&&", "||":
		if len(args) < 2 {
			return nil, planErrorf(field, "%s takes at least 2 arguments, got %d", e.Op, len(args))
		}
		if e.Op == "&&" {
			return expr.And(args), nil
		}
		return expr.Or(args), nil
	case "!":
		if len(args) != 1 {
			return nil, planErrorf(field, "! takes 1 argument, got %d", len(args))
		}
		return expr.Not{Expr: args[0]}, nil
	}
	return nil, planErrorf(field+".op", "unknown operator %q", e.Op)
}

func varNames(vars []string) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = varName(v)
	}
	return out
}
