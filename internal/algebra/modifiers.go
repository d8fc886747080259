package algebra

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/solution"
)

// Distinct removes duplicate solutions, keeping the first occurrence of
// each. With TrimTemporaryVariables set, "_:" variables are dropped first so
// solutions differing only in them collapse. Sentinels pass through.
type Distinct struct {
	Inner eval.Operator
}

func (d *Distinct) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(d.Inner)
	if err != nil {
		return nil, err
	}
	defer ctx.WithInput(in)()
	if in.IsSentinel() {
		return in, nil
	}
	return distinct(in, ctx.Options.TrimTemporaryVariables), nil
}

func (d *Distinct) Children() []eval.Operator { return []eval.Operator{d.Inner} }
func (d *Distinct) Variables() []string       { return d.Inner.Variables() }
func (d *Distinct) String() string            { return unary("Distinct", "", d.Inner) }

// Reduced may remove duplicates. It deduplicates only when the query
// declares a positive LIMIT and passes its input through otherwise.
type Reduced struct {
	Inner eval.Operator
}

func (r *Reduced) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(r.Inner)
	if err != nil {
		return nil, err
	}
	defer ctx.WithInput(in)()
	if in.IsSentinel() || !ctx.Query.HasLimit() {
		return in, nil
	}
	return distinct(in, ctx.Options.TrimTemporaryVariables), nil
}

func (r *Reduced) Children() []eval.Operator { return []eval.Operator{r.Inner} }
func (r *Reduced) Variables() []string       { return r.Inner.Variables() }
func (r *Reduced) String() string            { return unary("Reduced", "", r.Inner) }

func distinct(in *multiset.Multiset, trim bool) *multiset.Multiset {
	var temp []string
	vars := in.Variables()
	if trim {
		vars = slices.DeleteFunc(vars, func(v string) bool {
			if strings.HasPrefix(v, multiset.TemporaryPrefix) {
				temp = append(temp, v)
				return true
			}
			return false
		})
	}

	out := multiset.New(vars...)
	seen := make(map[string]struct{})
	for _, s := range in.Sets() {
		c := s.Copy()
		for _, v := range temp {
			c.Remove(v)
		}
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Add(c)
	}
	return out
}

// OrderBy sorts the result of Inner in place, stably. The query's ordering,
// when present, takes precedence over Ordering.
type OrderBy struct {
	Ordering eval.Ordering
	Inner    eval.Operator
}

func (o *OrderBy) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(o.Inner)
	if err != nil {
		return nil, err
	}
	defer ctx.WithInput(in)()

	ordering := o.Ordering
	if ctx.Query != nil && ctx.Query.Ordering != nil {
		ordering = ctx.Query.Ordering
	}
	if ordering == nil || in.IsSentinel() {
		return in, nil
	}

	defer ctx.WithBinder(eval.MultisetBinder{Multiset: in})()
	in.Sort(func(a, b *solution.Set) int { return ordering.Compare(ctx, a, b) })
	return in, nil
}

func (o *OrderBy) Children() []eval.Operator { return []eval.Operator{o.Inner} }
func (o *OrderBy) Variables() []string       { return o.Inner.Variables() }

func (o *OrderBy) String() string {
	if o.Ordering == nil {
		return unary("OrderBy", "", o.Inner)
	}
	return unary("OrderBy", o.Ordering.String(), o.Inner)
}

// Slice applies OFFSET and LIMIT. A negative Limit means no limit.
type Slice struct {
	Offset int
	Limit  int
	Inner  eval.Operator
}

func (s *Slice) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(s.Inner)
	if err != nil {
		return nil, err
	}
	if in.IsNull() {
		return in, nil
	}
	sets := in.Sets()
	start := min(max(s.Offset, 0), len(sets))
	end := len(sets)
	if s.Limit >= 0 {
		end = min(start+s.Limit, end)
	}
	if in.IsIdentity() && start == 0 && end == 1 {
		return in, nil
	}
	return copyInto(in.Variables(), sets[start:end]), nil
}

func (s *Slice) Children() []eval.Operator { return []eval.Operator{s.Inner} }
func (s *Slice) Variables() []string       { return s.Inner.Variables() }

func (s *Slice) String() string {
	return unary("Slice", fmt.Sprintf("%d, %d", s.Offset, s.Limit), s.Inner)
}

// Project restricts solutions to Vars, in that order.
type Project struct {
	Vars  []string
	Inner eval.Operator
}

func (p *Project) Evaluate(ctx *eval.Context) (*multiset.Multiset, error) {
	in, err := ctx.Evaluate(p.Inner)
	if err != nil {
		return nil, err
	}
	if in.IsSentinel() {
		return in, nil
	}
	out := multiset.New(p.Vars...)
	for _, s := range in.Sets() {
		out.Add(s.Project(p.Vars))
	}
	return out, nil
}

func (p *Project) Children() []eval.Operator { return []eval.Operator{p.Inner} }
func (p *Project) Variables() []string       { return slices.Clone(p.Vars) }

func (p *Project) String() string {
	vars := make([]string, len(p.Vars))
	for i, v := range p.Vars {
		vars[i] = "?" + v
	}
	return unary("Project", strings.Join(vars, " "), p.Inner)
}
