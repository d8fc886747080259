package plan

// Plan is the decoded form of a plan file.
type Plan struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Prefixes    map[string]string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Data        Data              `yaml:"data,omitempty" json:"data,omitempty"`
	Query       QuerySpec         `yaml:"query" json:"query"`
}

// Data holds triples per graph. Each triple is [subject, predicate, object].
type Data struct {
	Default [][]string            `yaml:"default,omitempty" json:"default,omitempty"`
	Graphs  map[string][][]string `yaml:"graphs,omitempty" json:"graphs,omitempty"`
}

// QuerySpec is a query: solution modifiers around a WHERE tree.
type QuerySpec struct {
	// Form is SELECT (default) or ASK.
	Form string `yaml:"form,omitempty" json:"form,omitempty"`

	// Select is the projection. Empty selects every variable.
	Select   []string    `yaml:"select,omitempty" json:"select,omitempty"`
	Distinct bool        `yaml:"distinct,omitempty" json:"distinct,omitempty"`
	Reduced  bool        `yaml:"reduced,omitempty" json:"reduced,omitempty"`
	OrderBy  []OrderSpec `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	Limit    int         `yaml:"limit,omitempty" json:"limit,omitempty"`
	Offset   int         `yaml:"offset,omitempty" json:"offset,omitempty"`

	From      []string `yaml:"from,omitempty" json:"from,omitempty"`
	FromNamed []string `yaml:"from_named,omitempty" json:"from_named,omitempty"`

	Where *Node `yaml:"where" json:"where"`
}

// OrderSpec is one ORDER BY key: a variable or an expression.
type OrderSpec struct {
	Var  string `yaml:"var,omitempty" json:"var,omitempty"`
	Expr *Expr  `yaml:"expr,omitempty" json:"expr,omitempty"`
	Desc bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Node is one operator of the WHERE tree. Exactly one field is set.
// Join, Union, Minus and Product take two or more operands and fold left.
type Node struct {
	BGP             [][]string   `yaml:"bgp,omitempty" json:"bgp,omitempty"`
	Join            []*Node      `yaml:"join,omitempty" json:"join,omitempty"`
	LeftJoin        *BinarySpec  `yaml:"left_join,omitempty" json:"left_join,omitempty"`
	Union           []*Node      `yaml:"union,omitempty" json:"union,omitempty"`
	Minus           []*Node      `yaml:"minus,omitempty" json:"minus,omitempty"`
	Product         []*Node      `yaml:"product,omitempty" json:"product,omitempty"`
	FilteredProduct *BinarySpec  `yaml:"filtered_product,omitempty" json:"filtered_product,omitempty"`
	Filter          *FilterSpec  `yaml:"filter,omitempty" json:"filter,omitempty"`
	Graph           *GraphSpec   `yaml:"graph,omitempty" json:"graph,omitempty"`
	Distinct        *Node        `yaml:"distinct,omitempty" json:"distinct,omitempty"`
	Reduced         *Node        `yaml:"reduced,omitempty" json:"reduced,omitempty"`
	OrderBy         *OrderBySpec `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	Slice           *SliceSpec   `yaml:"slice,omitempty" json:"slice,omitempty"`
	Project         *ProjectSpec `yaml:"project,omitempty" json:"project,omitempty"`
	Group           *GroupSpec   `yaml:"group,omitempty" json:"group,omitempty"`
	Values          *ValuesSpec  `yaml:"values,omitempty" json:"values,omitempty"`
	SubQuery        *QuerySpec   `yaml:"subquery,omitempty" json:"subquery,omitempty"`
}

// BinarySpec is a two-operand node with an optional filter.
type BinarySpec struct {
	Left   *Node `yaml:"left" json:"left"`
	Right  *Node `yaml:"right" json:"right"`
	Filter *Expr `yaml:"filter,omitempty" json:"filter,omitempty"`
}

type FilterSpec struct {
	Expr  *Expr `yaml:"expr" json:"expr"`
	Inner *Node `yaml:"inner" json:"inner"`
}

// GraphSpec is a GRAPH clause; Name is an IRI term or ?variable.
type GraphSpec struct {
	Name  string `yaml:"name" json:"name"`
	Inner *Node  `yaml:"inner" json:"inner"`
}

type OrderBySpec struct {
	By    []OrderSpec `yaml:"by" json:"by"`
	Inner *Node       `yaml:"inner" json:"inner"`
}

// SliceSpec applies OFFSET and LIMIT. A missing limit means none.
type SliceSpec struct {
	Offset int   `yaml:"offset,omitempty" json:"offset,omitempty"`
	Limit  *int  `yaml:"limit,omitempty" json:"limit,omitempty"`
	Inner  *Node `yaml:"inner" json:"inner"`
}

type ProjectSpec struct {
	Vars  []string `yaml:"vars" json:"vars"`
	Inner *Node    `yaml:"inner" json:"inner"`
}

type GroupSpec struct {
	Keys       []string        `yaml:"keys,omitempty" json:"keys,omitempty"`
	Aggregates []AggregateSpec `yaml:"aggregates,omitempty" json:"aggregates,omitempty"`
	Inner      *Node           `yaml:"inner" json:"inner"`
}

// AggregateSpec is FUNC(?var) AS ?as. An empty Var counts solutions.
type AggregateSpec struct {
	Func string `yaml:"func" json:"func"`
	Var  string `yaml:"var,omitempty" json:"var,omitempty"`
	As   string `yaml:"as" json:"as"`
}

// ValuesSpec is inline data. The cell UNDEF leaves a variable unbound.
type ValuesSpec struct {
	Vars []string   `yaml:"vars" json:"vars"`
	Rows [][]string `yaml:"rows" json:"rows"`
}

// Expr is a FILTER or ORDER BY expression. Exactly one of Var, Const,
// Bound, Op or Call is set; Op and Call take Args.
//
// Op is one of = != < <= > >= && || !.
type Expr struct {
	Var   string  `yaml:"var,omitempty" json:"var,omitempty"`
	Const string  `yaml:"const,omitempty" json:"const,omitempty"`
	Bound string  `yaml:"bound,omitempty" json:"bound,omitempty"`
	Op    string  `yaml:"op,omitempty" json:"op,omitempty"`
	Call  string  `yaml:"call,omitempty" json:"call,omitempty"`
	Args  []*Expr `yaml:"args,omitempty" json:"args,omitempty"`
}
