package algebra

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
)

// Bindings is inline data (VALUES). The rows are turned into a multiset on
// first evaluation; later evaluations return that same multiset. A nil
// cell leaves the variable unbound.
type Bindings struct {
	Vars []string
	Rows [][]rdf.Term

	once  sync.Once
	cache *multiset.Multiset
	err   error
}

// NewBindings creates a Bindings operator.
func NewBindings(vars []string, rows ...[]rdf.Term) *Bindings {
	return &Bindings{Vars: vars, Rows: rows}
}

func (b *Bindings) Evaluate(*eval.Context) (*multiset.Multiset, error) {
	b.once.Do(func() {
		m := multiset.New(b.Vars...)
		for i, row := range b.Rows {
			if len(row) != len(b.Vars) {
				b.err = fmt.Errorf("bindings row %d: got %d values for %d variables", i, len(row), len(b.Vars))
				return
			}
			s := solution.New()
			for j, v := range b.Vars {
				if row[j] == nil {
					continue
				}
				if err := s.Add(v, row[j]); err != nil {
					b.err = fmt.Errorf("bindings row %d: %w", i, err)
					return
				}
			}
			m.Add(s)
		}
		b.cache = m
	})
	return b.cache, b.err
}

func (b *Bindings) Variables() []string { return slices.Clone(b.Vars) }

func (b *Bindings) String() string {
	return fmt.Sprintf("Bindings(%v, %d rows)", b.Vars, len(b.Rows))
}

// Table returns a pre-built multiset verbatim. It has no query form.
type Table struct {
	Multiset *multiset.Multiset
}

func (t *Table) Evaluate(*eval.Context) (*multiset.Multiset, error) { return t.Multiset, nil }
func (t *Table) Variables() []string                                { return t.Multiset.Variables() }
func (t *Table) String() string                                     { return fmt.Sprintf("Table(%d)", t.Multiset.Len()) }
