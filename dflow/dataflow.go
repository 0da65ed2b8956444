package dflow

import (
	"github.com/benbjohnson/immutable"

	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/location"
)

// Dataflow is the analyzer's output store: three term-keyed mappings
// (values, locations, reaching definitions; a ReachingSnapshot
// intrinsic's snapshot is kept in the definitions map). Terms are
// read-only keys — the store grows monotonically during analysis and
// is pruned only once, at the end of Analyze, when disappeared terms
// are swept out. The underlying maps are benbjohnson/immutable
// persistent maps keyed by term pointer identity; the *Value and
// *ReachingDefinitions they hold are mutated in place, and Dataflow
// offers no snapshot of an intermediate state.
type Dataflow struct {
	term2value       *immutable.Map[ir.Term, *Value]
	term2location    *immutable.Map[ir.Term, location.MemoryLocation]
	term2definitions *immutable.Map[ir.Term, *ReachingDefinitions]
}

// NewDataflow returns an empty store.
func NewDataflow() *Dataflow {
	return &Dataflow{
		term2value:       immutable.NewMap[ir.Term, *Value](pointerHasher[ir.Term]{}),
		term2location:    immutable.NewMap[ir.Term, location.MemoryLocation](pointerHasher[ir.Term]{}),
		term2definitions: immutable.NewMap[ir.Term, *ReachingDefinitions](pointerHasher[ir.Term]{}),
	}
}

// GetValue returns the Value for term, creating a fresh bottom Value on
// first access.
func (d *Dataflow) GetValue(term ir.Term) *Value {
	if v, ok := d.term2value.Get(term); ok {
		return v
	}
	v := NewValue(term.Size())
	d.term2value = d.term2value.Set(term, v)
	return v
}

// GetMemoryLocation returns the location last recorded for term, or the
// empty location if none has been recorded.
func (d *Dataflow) GetMemoryLocation(term ir.Term) location.MemoryLocation {
	if l, ok := d.term2location.Get(term); ok {
		return l
	}
	return location.Empty()
}

// SetMemoryLocation overwrites the stored location for term.
func (d *Dataflow) SetMemoryLocation(term ir.Term, loc location.MemoryLocation) {
	d.term2location = d.term2location.Set(term, loc)
}

// GetDefinitions returns the ReachingDefinitions stored for term,
// creating an empty one on first access.
func (d *Dataflow) GetDefinitions(term ir.Term) *ReachingDefinitions {
	if defs, ok := d.term2definitions.Get(term); ok {
		return defs
	}
	defs := &ReachingDefinitions{}
	d.term2definitions = d.term2definitions.Set(term, defs)
	return defs
}

// SetDefinitions overwrites the stored ReachingDefinitions for term.
func (d *Dataflow) SetDefinitions(term ir.Term, defs *ReachingDefinitions) {
	d.term2definitions = d.term2definitions.Set(term, defs)
}

// ForEachValue calls f for every (term, value) pair currently stored.
func (d *Dataflow) ForEachValue(f func(ir.Term, *Value)) {
	for it := d.term2value.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		f(k, v)
	}
}

// ForEachLocation calls f for every (term, location) pair currently stored.
func (d *Dataflow) ForEachLocation(f func(ir.Term, location.MemoryLocation)) {
	for it := d.term2location.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		f(k, v)
	}
}

// ForEachDefinitions calls f for every (term, definitions) pair
// currently stored.
func (d *Dataflow) ForEachDefinitions(f func(ir.Term, *ReachingDefinitions)) {
	for it := d.term2definitions.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		f(k, v)
	}
}

// pruneDisappeared drops every key for which disappeared(term) is true
// from all three term maps, and removes any (L, term) pair from every
// remaining ReachingDefinitions whose definer has disappeared. This is
// the end-of-analysis cleanup spec.md §4.1 step 3 describes: a term
// disappears when structural mutation (typically a Callback
// deinstrumenting a call) detaches its statement from every basic
// block.
func (d *Dataflow) pruneDisappeared(disappeared func(ir.Term) bool) {
	d.ForEachDefinitions(func(_ ir.Term, defs *ReachingDefinitions) {
		defs.FilterOut(func(_ location.MemoryLocation, t ir.Term) bool { return disappeared(t) })
	})

	var goneValues, goneLocations, goneDefinitions []ir.Term
	d.ForEachValue(func(t ir.Term, _ *Value) {
		if disappeared(t) {
			goneValues = append(goneValues, t)
		}
	})
	d.ForEachLocation(func(t ir.Term, _ location.MemoryLocation) {
		if disappeared(t) {
			goneLocations = append(goneLocations, t)
		}
	})
	d.ForEachDefinitions(func(t ir.Term, _ *ReachingDefinitions) {
		if disappeared(t) {
			goneDefinitions = append(goneDefinitions, t)
		}
	})
	for _, t := range goneValues {
		d.term2value = d.term2value.Delete(t)
	}
	for _, t := range goneLocations {
		d.term2location = d.term2location.Delete(t)
	}
	for _, t := range goneDefinitions {
		d.term2definitions = d.term2definitions.Delete(t)
	}
}
