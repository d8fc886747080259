package expr

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/rdf"
)

// Func is a function implementation over evaluated arguments.
type Func func(args []rdf.Term) (rdf.Term, error)

// Call applies a named function to argument expressions. Built-ins are
// looked up by name; Fn overrides the lookup.
type Call struct {
	Name string
	Args []eval.Expression
	Fn   Func

	// Serial marks a custom Fn as unsafe for concurrent evaluation.
	Serial bool
}

func (c Call) Evaluate(ctx *eval.Context, id int) (rdf.Term, error) {
	fn := c.Fn
	if fn == nil {
		b, ok := builtins[strings.ToLower(c.Name)]
		if !ok {
			return nil, eval.NewExpressionError("unknown function %q", c.Name)
		}
		if b.arity >= 0 && len(c.Args) != b.arity {
			return nil, eval.NewExpressionError("%s expects %d arguments, got %d", c.Name, b.arity, len(c.Args))
		}
		fn = b.fn
	}
	args := make([]rdf.Term, len(c.Args))
	for i, a := range c.Args {
		t, err := a.Evaluate(ctx, id)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return fn(args)
}

func (c Call) CanParallelise() bool { return !c.Serial && allParallel(c.Args...) }
func (c Call) Variables() []string  { return variablesOf(c.Args...) }

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(c.Name), strings.Join(parts, ", "))
}

// IsBuiltin reports whether name is a known built-in function.
func IsBuiltin(name string) bool {
	_, ok := builtins[strings.ToLower(name)]
	return ok
}

type builtin struct {
	arity int // -1 for variadic
	fn    Func
}

var builtins = map[string]builtin{
	"str":       {1, fnStr},
	"lang":      {1, fnLang},
	"datatype":  {1, fnDatatype},
	"isiri":     {1, isKind(isIRI)},
	"isblank":   {1, isKind(isBlank)},
	"isliteral": {1, isKind(isLiteral)},
	"isnumeric": {1, isKind(isNumeric)},
	"strlen":    {1, fnStrlen},
	"ucase":     {1, mapString(strings.ToUpper)},
	"lcase":     {1, mapString(strings.ToLower)},
	"contains":  {2, stringTest(strings.Contains)},
	"strstarts": {2, stringTest(strings.HasPrefix)},
	"strends":   {2, stringTest(strings.HasSuffix)},
	"regex":     {-1, fnRegex},
	"sameterm":  {2, fnSameTerm},
}

func lexical(t rdf.Term) (rdf.Literal, error) {
	l, ok := t.(rdf.Literal)
	if !ok {
		return rdf.Literal{}, eval.NewExpressionError("%s is not a literal", t)
	}
	return l, nil
}

func fnStr(args []rdf.Term) (rdf.Term, error) {
	switch v := args[0].(type) {
	case rdf.IRI:
		return rdf.NewLiteral(string(v)), nil
	case rdf.Literal:
		return rdf.NewLiteral(v.Value), nil
	}
	return nil, eval.NewExpressionError("STR of %s", args[0])
}

func fnLang(args []rdf.Term) (rdf.Term, error) {
	l, err := lexical(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewLiteral(l.Language), nil
}

func fnDatatype(args []rdf.Term) (rdf.Term, error) {
	l, err := lexical(args[0])
	if err != nil {
		return nil, err
	}
	if l.Datatype == "" {
		return rdf.XSDString, nil
	}
	return l.Datatype, nil
}

func fnStrlen(args []rdf.Term) (rdf.Term, error) {
	l, err := lexical(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewInteger(int64(utf8.RuneCountInString(l.Value))), nil
}

func fnSameTerm(args []rdf.Term) (rdf.Term, error) {
	return rdf.NewBoolean(rdf.Equal(args[0], args[1])), nil
}

func fnRegex(args []rdf.Term) (rdf.Term, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, eval.NewExpressionError("REGEX expects 2 or 3 arguments, got %d", len(args))
	}
	text, err := lexical(args[0])
	if err != nil {
		return nil, err
	}
	pattern, err := lexical(args[1])
	if err != nil {
		return nil, err
	}
	expr := pattern.Value
	if len(args) == 3 {
		flags, err := lexical(args[2])
		if err != nil {
			return nil, err
		}
		if strings.Contains(flags.Value, "i") {
			expr = "(?i)" + expr
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, eval.NewExpressionError("invalid regex %q: %v", pattern.Value, err)
	}
	return rdf.NewBoolean(re.MatchString(text.Value)), nil
}

func isIRI(t rdf.Term) bool {
	_, ok := t.(rdf.IRI)
	return ok
}

func isBlank(t rdf.Term) bool {
	_, ok := t.(rdf.BlankNode)
	return ok
}

func isLiteral(t rdf.Term) bool {
	_, ok := t.(rdf.Literal)
	return ok
}

func isNumeric(t rdf.Term) bool {
	l, ok := t.(rdf.Literal)
	return ok && l.IsNumeric()
}

func isKind(pred func(rdf.Term) bool) Func {
	return func(args []rdf.Term) (rdf.Term, error) {
		return rdf.NewBoolean(pred(args[0])), nil
	}
}

func mapString(f func(string) string) Func {
	return func(args []rdf.Term) (rdf.Term, error) {
		l, err := lexical(args[0])
		if err != nil {
			return nil, err
		}
		l.Value = f(l.Value)
		return l, nil
	}
}

func stringTest(f func(s, sub string) bool) Func {
	return func(args []rdf.Term) (rdf.Term, error) {
		a, err := lexical(args[0])
		if err != nil {
			return nil, err
		}
		b, err := lexical(args[1])
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(f(a.Value, b.Value)), nil
	}
}
