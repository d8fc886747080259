package multiset

import (
	"fmt"
	"slices"

	"github.com/roach88/leviathan/internal/solution"
)

// AddGroup records one group: key holds the grouping bindings (plus any
// aggregate values) and members are the IDs of the base solutions in the
// group. Returns the group's ID.
func (m *Multiset) AddGroup(key *solution.Set, members []int) int {
	if m.kind != KindGrouped {
		panic(fmt.Sprintf("multiset: AddGroup on a %s multiset", m.kind))
	}
	id := m.nextID
	m.nextID++
	key.SetID(id)
	m.main.put(id, key)
	m.addVariables(key.Variables())
	m.groups[id] = slices.Clone(members)
	return id
}

// Members returns the base solution IDs of a group.
func (m *Multiset) Members(group int) []int {
	return slices.Clone(m.groups[group])
}

// Base returns the multiset a Grouped multiset indexes into.
func (m *Multiset) Base() *Multiset { return m.base }

// Flatten returns a General multiset holding a copy of every group key.
// Non-grouped multisets are returned unchanged.
func (m *Multiset) Flatten() *Multiset {
	if m.kind != KindGrouped {
		return m
	}
	out := New(m.Variables()...)
	for _, s := range m.main.list() {
		out.Add(s.Copy())
	}
	return out
}
