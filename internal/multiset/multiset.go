// Package multiset implements bags of solutions.
//
// A Multiset is a tagged variant over Kind rather than a type hierarchy:
//
//	KindGeneral      arbitrary add/remove by ID, sort, trim
//	KindIdentity     one implicit empty solution; the unit of join
//	KindNull         zero solutions; the zero of join
//	KindPartitioned  pre-sized partitions written concurrently by the
//	                 parallel product; IDs come from per-partition counters
//	KindGrouped      group keys produced by GROUP BY, flattened before
//	                 leaving a sub-query
//
// Operators switch on Kind at their boundaries instead of type-testing.
package multiset

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roach88/leviathan/internal/solution"
)

// Kind identifies the multiset variant.
type Kind uint8

const (
	KindGeneral Kind = iota
	KindIdentity
	KindNull
	KindPartitioned
	KindGrouped
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindIdentity:
		return "identity"
	case KindNull:
		return "null"
	case KindPartitioned:
		return "partitioned"
	case KindGrouped:
		return "grouped"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// TemporaryPrefix marks variables introduced internally (for example blank
// nodes in patterns). Trim removes them.
const TemporaryPrefix = "_:"

// Multiset is a bag of solutions plus the variables known to it.
//
// Thread-safety: a General multiset is single-writer. A Partitioned multiset
// accepts concurrent AddToPartition calls for different partitions; each
// partition has its own lock. Variable bookkeeping is always locked.
type Multiset struct {
	kind Kind

	varMu  sync.Mutex
	vars   []string
	varSet map[string]struct{}

	// KindGeneral / KindGrouped storage
	main   *store
	nextID int

	// KindPartitioned storage
	parts    []*partition
	partSize int

	// KindGrouped
	base   *Multiset
	groups map[int][]int
}

// New creates an empty General multiset declaring vars.
func New(vars ...string) *Multiset {
	m := &Multiset{kind: KindGeneral, main: newStore(), varSet: make(map[string]struct{})}
	for _, v := range vars {
		m.AddVariable(v)
	}
	return m
}

// NewIdentity creates the Identity sentinel.
func NewIdentity() *Multiset {
	return &Multiset{kind: KindIdentity, varSet: make(map[string]struct{})}
}

// NewNull creates the Null sentinel.
func NewNull() *Multiset {
	return &Multiset{kind: KindNull, varSet: make(map[string]struct{})}
}

// NewPartitioned creates a Partitioned multiset of numPartitions partitions,
// each holding at most partitionSize solutions. Partition i allocates IDs
// from a counter seeded at i*partitionSize, so IDs are unique across
// partitions without a global lock.
func NewPartitioned(numPartitions, partitionSize int) *Multiset {
	if partitionSize < 1 {
		partitionSize = 1
	}
	m := &Multiset{
		kind:     KindPartitioned,
		varSet:   make(map[string]struct{}),
		parts:    make([]*partition, numPartitions),
		partSize: partitionSize,
	}
	for i := range m.parts {
		p := &partition{store: newStore(), limit: int64((i + 1) * partitionSize)}
		p.next.Store(int64(i * partitionSize))
		m.parts[i] = p
	}
	return m
}

// NewGrouped creates a Grouped multiset whose groups index into base.
func NewGrouped(base *Multiset) *Multiset {
	m := New()
	m.kind = KindGrouped
	m.base = base
	m.groups = make(map[int][]int)
	return m
}

// Kind returns the variant.
func (m *Multiset) Kind() Kind { return m.kind }

// IsIdentity reports whether m is the Identity sentinel.
func (m *Multiset) IsIdentity() bool { return m.kind == KindIdentity }

// IsNull reports whether m is the Null sentinel.
func (m *Multiset) IsNull() bool { return m.kind == KindNull }

// IsSentinel reports whether m is Identity or Null.
func (m *Multiset) IsSentinel() bool { return m.IsIdentity() || m.IsNull() }

// Len returns the number of solutions. Identity has one, Null none.
func (m *Multiset) Len() int {
	switch m.kind {
	case KindIdentity:
		return 1
	case KindNull:
		return 0
	case KindPartitioned:
		n := 0
		for _, p := range m.parts {
			p.mu.Lock()
			n += p.store.len()
			p.mu.Unlock()
		}
		return n
	default:
		return m.main.len()
	}
}

// IsEmpty reports whether m has no solutions. Identity is never empty and
// Null is always empty.
func (m *Multiset) IsEmpty() bool {
	switch m.kind {
	case KindIdentity:
		return false
	case KindNull:
		return true
	}
	return m.Len() == 0
}

// Add inserts s, assigns it the next ID and returns that ID. Variables of s
// become known to m.
//
// Panics on Identity and Null (sentinels are immutable) and on Partitioned
// (use AddToPartition).
func (m *Multiset) Add(s *solution.Set) int {
	switch m.kind {
	case KindIdentity, KindNull:
		panic(fmt.Sprintf("multiset: cannot add a solution to the %s multiset", m.kind))
	case KindPartitioned:
		panic("multiset: use AddToPartition on a partitioned multiset")
	}
	id := m.nextID
	m.nextID++
	s.SetID(id)
	m.main.put(id, s)
	m.addVariables(s.Variables())
	return id
}

// AddToPartition inserts s into partition p with an ID from that
// partition's counter. Safe for concurrent use across partitions.
func (m *Multiset) AddToPartition(p int, s *solution.Set) int {
	if m.kind != KindPartitioned {
		panic(fmt.Sprintf("multiset: AddToPartition on a %s multiset", m.kind))
	}
	part := m.parts[p]
	id := part.next.Add(1) - 1
	if id >= part.limit {
		panic(fmt.Sprintf("multiset: partition %d overflow (size %d)", p, m.partSize))
	}
	s.SetID(int(id))
	part.mu.Lock()
	part.store.put(int(id), s)
	part.mu.Unlock()
	m.addVariables(s.Variables())
	return int(id)
}

// Partitions returns the number of partitions (0 unless Partitioned).
func (m *Multiset) Partitions() int { return len(m.parts) }

// Remove deletes the solution with the given ID. No-op if absent.
func (m *Multiset) Remove(id int) {
	switch m.kind {
	case KindIdentity, KindNull:
		panic(fmt.Sprintf("multiset: cannot remove from the %s multiset", m.kind))
	case KindPartitioned:
		part := m.partitionFor(id)
		if part == nil {
			return
		}
		part.mu.Lock()
		part.store.remove(id)
		part.mu.Unlock()
	default:
		m.main.remove(id)
	}
}

// Get returns the solution with the given ID.
func (m *Multiset) Get(id int) (*solution.Set, bool) {
	switch m.kind {
	case KindIdentity:
		if id == 0 {
			return solution.New(), true
		}
		return nil, false
	case KindNull:
		return nil, false
	case KindPartitioned:
		part := m.partitionFor(id)
		if part == nil {
			return nil, false
		}
		part.mu.Lock()
		defer part.mu.Unlock()
		s, ok := part.store.sets[id]
		return s, ok
	default:
		s, ok := m.main.sets[id]
		return s, ok
	}
}

// Sets returns the solutions in order: insertion (or sorted) order for
// General, partition order then insertion order for Partitioned.
func (m *Multiset) Sets() []*solution.Set {
	switch m.kind {
	case KindIdentity:
		return []*solution.Set{solution.New()}
	case KindNull:
		return nil
	case KindPartitioned:
		var out []*solution.Set
		for _, p := range m.parts {
			p.mu.Lock()
			out = append(out, p.store.list()...)
			p.mu.Unlock()
		}
		return out
	default:
		return m.main.list()
	}
}

// IDs returns the solution IDs in the same order as Sets.
func (m *Multiset) IDs() []int {
	sets := m.Sets()
	ids := make([]int, len(sets))
	for i, s := range sets {
		ids[i] = s.ID()
	}
	return ids
}

// Variables returns the known variables in declaration order.
func (m *Multiset) Variables() []string {
	m.varMu.Lock()
	defer m.varMu.Unlock()
	return slices.Clone(m.vars)
}

// AddVariable declares a variable. No-op if already known.
func (m *Multiset) AddVariable(v string) {
	m.addVariables([]string{v})
}

// SetVariableOrder reorders the known variables. Variables not listed keep
// their relative order after the listed ones; unknown listed variables are
// added.
func (m *Multiset) SetVariableOrder(order []string) {
	m.varMu.Lock()
	defer m.varMu.Unlock()
	next := make([]string, 0, len(m.vars)+len(order))
	seen := make(map[string]struct{}, len(order))
	for _, v := range order {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		next = append(next, v)
		m.varSet[v] = struct{}{}
	}
	for _, v := range m.vars {
		if _, listed := seen[v]; !listed {
			next = append(next, v)
		}
	}
	m.vars = next
}

// ContainsVariable reports whether v is known.
func (m *Multiset) ContainsVariable(v string) bool {
	m.varMu.Lock()
	defer m.varMu.Unlock()
	_, ok := m.varSet[v]
	return ok
}

// IsDisjointWith reports whether m and other share no variables.
func (m *Multiset) IsDisjointWith(other *Multiset) bool {
	for _, v := range other.Variables() {
		if m.ContainsVariable(v) {
			return false
		}
	}
	return true
}

// SharedVariables returns the variables known to both, in m's order.
func (m *Multiset) SharedVariables(other *Multiset) []string {
	var shared []string
	for _, v := range m.Variables() {
		if other.ContainsVariable(v) {
			shared = append(shared, v)
		}
	}
	return shared
}

// Sort orders the solutions in place with a stable sort. A Partitioned
// multiset is first collapsed into a General one; IDs are preserved.
// Sentinels are left untouched.
func (m *Multiset) Sort(cmp func(a, b *solution.Set) int) {
	switch m.kind {
	case KindIdentity, KindNull:
		return
	case KindPartitioned:
		m.collapse()
	}
	sets := m.main.list()
	slices.SortStableFunc(sets, cmp)
	order := make([]int, len(sets))
	for i, s := range sets {
		order[i] = s.ID()
	}
	m.main.order = order
	m.main.removed = 0
}

// Trim removes temporary variables (TemporaryPrefix) from m and every
// solution in it.
func (m *Multiset) Trim() {
	var temp []string
	for _, v := range m.Variables() {
		if strings.HasPrefix(v, TemporaryPrefix) {
			temp = append(temp, v)
		}
	}
	m.TrimVariables(temp...)
}

// TrimVariables removes the named variables from m and every solution.
func (m *Multiset) TrimVariables(vars ...string) {
	if len(vars) == 0 || m.kind == KindIdentity || m.kind == KindNull {
		return
	}
	for _, s := range m.Sets() {
		for _, v := range vars {
			s.Remove(v)
		}
	}
	m.varMu.Lock()
	defer m.varMu.Unlock()
	for _, v := range vars {
		delete(m.varSet, v)
		if i := slices.Index(m.vars, v); i >= 0 {
			m.vars = slices.Delete(m.vars, i, i+1)
		}
	}
}

// String renders a short description for logs.
func (m *Multiset) String() string {
	return fmt.Sprintf("%s multiset (%d solutions, vars %v)", m.kind, m.Len(), m.Variables())
}

// collapse turns a Partitioned multiset into a General one holding the same
// solutions under the same IDs.
func (m *Multiset) collapse() {
	main := newStore()
	maxID := -1
	for _, p := range m.parts {
		p.mu.Lock()
		for _, s := range p.store.list() {
			main.put(s.ID(), s)
			if s.ID() > maxID {
				maxID = s.ID()
			}
		}
		p.mu.Unlock()
	}
	m.kind = KindGeneral
	m.main = main
	m.nextID = maxID + 1
	m.parts = nil
}

func (m *Multiset) partitionFor(id int) *partition {
	i := id / m.partSize
	if id < 0 || i >= len(m.parts) {
		return nil
	}
	return m.parts[i]
}

func (m *Multiset) addVariables(vars []string) {
	m.varMu.Lock()
	defer m.varMu.Unlock()
	for _, v := range vars {
		if _, ok := m.varSet[v]; ok {
			continue
		}
		m.varSet[v] = struct{}{}
		m.vars = append(m.vars, v)
	}
}

type partition struct {
	mu    sync.Mutex
	next  atomic.Int64
	limit int64
	store *store
}

// store holds solutions by ID plus their order. Removal is lazy: IDs stay
// in order until enough holes accumulate, then order is compacted.
type store struct {
	sets    map[int]*solution.Set
	order   []int
	removed int
}

func newStore() *store {
	return &store{sets: make(map[int]*solution.Set)}
}

func (s *store) len() int { return len(s.sets) }

func (s *store) put(id int, set *solution.Set) {
	if _, exists := s.sets[id]; !exists {
		s.order = append(s.order, id)
	}
	s.sets[id] = set
}

func (s *store) remove(id int) {
	if _, exists := s.sets[id]; !exists {
		return
	}
	delete(s.sets, id)
	s.removed++
	if s.removed > 32 && s.removed*2 > len(s.order) {
		s.compact()
	}
}

func (s *store) compact() {
	live := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.sets[id]; ok {
			live = append(live, id)
		}
	}
	s.order = live
	s.removed = 0
}

func (s *store) list() []*solution.Set {
	out := make([]*solution.Set, 0, len(s.sets))
	for _, id := range s.order {
		if set, ok := s.sets[id]; ok {
			out = append(out, set)
		}
	}
	return out
}
