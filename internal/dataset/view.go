package dataset

import (
	"sync/atomic"

	"github.com/roach88/leviathan/internal/rdf"
)

// view is the buffered graph handed out by ModifiableGraph. It works on a
// private copy of the committed graph; Flush swaps the copy in.
type view struct {
	*rdf.MemGraph
	dirty atomic.Bool
}

func newView(name rdf.Term, base rdf.Graph) *view {
	return &view{MemGraph: copyGraph(name, base)}
}

func (v *view) Assert(ts ...rdf.Triple) int {
	n := v.MemGraph.Assert(ts...)
	if n > 0 {
		v.dirty.Store(true)
	}
	return n
}

func (v *view) Retract(ts ...rdf.Triple) int {
	n := v.MemGraph.Retract(ts...)
	if n > 0 {
		v.dirty.Store(true)
	}
	return n
}

func (v *view) Clear() {
	if !v.MemGraph.IsEmpty() {
		v.dirty.Store(true)
	}
	v.MemGraph.Clear()
}

func (v *view) changed() bool { return v.dirty.Load() }

func (v *view) snapshot() *rdf.MemGraph {
	return copyGraph(v.Name(), v.MemGraph)
}
