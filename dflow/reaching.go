package dflow

import (
	"sort"

	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/location"
)

// Chunk is a maximal sub-range of some memory location together with the
// set of terms that may have last written it along some path reaching
// the current program point.
type Chunk struct {
	Loc  location.MemoryLocation
	Defs []ir.Term
}

func containsTerm(defs []ir.Term, t ir.Term) bool {
	for _, d := range defs {
		if d == t {
			return true
		}
	}
	return false
}

func unionTerms(a, b []ir.Term) []ir.Term {
	out := append([]ir.Term(nil), a...)
	for _, t := range b {
		if !containsTerm(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func sameTermSet(a, b []ir.Term) bool {
	if len(a) != len(b) {
		return false
	}
	for _, t := range a {
		if !containsTerm(b, t) {
			return false
		}
	}
	return true
}

// ReachingDefinitions is an ordered, non-overlapping list of Chunks,
// sorted by (domain, address). It is the per-block (and per-term)
// working state the fixpoint driver merges, splits and projects on
// every pass; see spec.md's ReachingDefinitions for the operation
// contracts this file implements.
type ReachingDefinitions struct {
	chunks []Chunk
}

// Chunks returns the ordered chunk list. Callers must not mutate it.
func (r *ReachingDefinitions) Chunks() []Chunk { return r.chunks }

func (r *ReachingDefinitions) Empty() bool { return len(r.chunks) == 0 }

func (r *ReachingDefinitions) Front() Chunk { return r.chunks[0] }
func (r *ReachingDefinitions) Back() Chunk  { return r.chunks[len(r.chunks)-1] }

func (r *ReachingDefinitions) Clear() { r.chunks = nil }

func less(a, b location.MemoryLocation) bool {
	if a.Domain() != b.Domain() {
		return a.Domain() < b.Domain()
	}
	return a.Addr() < b.Addr()
}

func (r *ReachingDefinitions) normalize() {
	sort.Slice(r.chunks, func(i, j int) bool { return less(r.chunks[i].Loc, r.chunks[j].Loc) })
}

// intersect returns the overlap of a and b as a MemoryLocation, or the
// empty location if they don't overlap (including differing domains).
func intersect(a, b location.MemoryLocation) location.MemoryLocation {
	if a.Domain() != b.Domain() {
		return location.Empty()
	}
	start := a.Addr()
	if b.Addr() > start {
		start = b.Addr()
	}
	end := a.EndAddr()
	if b.EndAddr() < end {
		end = b.EndAddr()
	}
	if start >= end {
		return location.Empty()
	}
	return location.New(a.Domain(), start, end-start)
}

// subtractOverlap returns the zero, one or two sub-ranges of c remaining
// once loc's overlap with it is removed.
func subtractOverlap(c, loc location.MemoryLocation) []location.MemoryLocation {
	var out []location.MemoryLocation
	if !c.Overlaps(loc) {
		return []location.MemoryLocation{c}
	}
	if c.Addr() < loc.Addr() {
		out = append(out, location.New(c.Domain(), c.Addr(), loc.Addr()-c.Addr()))
	}
	if c.EndAddr() > loc.EndAddr() {
		out = append(out, location.New(c.Domain(), loc.EndAddr(), c.EndAddr()-loc.EndAddr()))
	}
	return out
}

// replaceWithin rebuilds chunks so that, within loc, defs are exactly
// newDefs (nil meaning "no definitions", i.e. a kill); chunks outside
// loc, and the parts of chunks outside loc, are preserved unchanged.
func replaceWithin(chunks []Chunk, loc location.MemoryLocation, newDefs []ir.Term) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if !c.Loc.Overlaps(loc) {
			out = append(out, c)
			continue
		}
		for _, remainder := range subtractOverlap(c.Loc, loc) {
			out = append(out, Chunk{Loc: remainder, Defs: c.Defs})
		}
	}
	if len(newDefs) > 0 {
		out = append(out, Chunk{Loc: loc, Defs: newDefs})
	}
	return out
}

// AddDefinition records that term is the (sole, within loc) reaching
// definition of loc, splitting or killing whatever chunks previously
// overlapped it.
func (r *ReachingDefinitions) AddDefinition(loc location.MemoryLocation, term ir.Term) {
	r.chunks = replaceWithin(r.chunks, loc, []ir.Term{term})
	r.normalize()
}

// KillDefinitions removes every (L', T') with L' overlapping loc,
// splitting chunks that only partially overlap.
func (r *ReachingDefinitions) KillDefinitions(loc location.MemoryLocation) {
	r.chunks = replaceWithin(r.chunks, loc, nil)
	r.normalize()
}

// FilterOut removes pairs (L, T) for which pred(L, T) is true. A chunk
// whose definer set becomes empty is dropped entirely.
func (r *ReachingDefinitions) FilterOut(pred func(location.MemoryLocation, ir.Term) bool) {
	var out []Chunk
	for _, c := range r.chunks {
		var kept []ir.Term
		for _, t := range c.Defs {
			if !pred(c.Loc, t) {
				kept = append(kept, t)
			}
		}
		if len(kept) > 0 {
			out = append(out, Chunk{Loc: c.Loc, Defs: kept})
		}
	}
	r.chunks = out
}

// breakpoints collects every distinct start/end address, within domain,
// across both chunk lists.
func breakpoints(domain location.Domain, a, b []Chunk) []uint64 {
	seen := map[uint64]bool{}
	var pts []uint64
	add := func(v uint64) {
		if !seen[v] {
			seen[v] = true
			pts = append(pts, v)
		}
	}
	for _, c := range a {
		if c.Loc.Domain() == domain {
			add(c.Loc.Addr())
			add(c.Loc.EndAddr())
		}
	}
	for _, c := range b {
		if c.Loc.Domain() == domain {
			add(c.Loc.Addr())
			add(c.Loc.EndAddr())
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i] < pts[j] })
	return pts
}

func domainsOf(chunkLists ...[]Chunk) []location.Domain {
	seen := map[location.Domain]bool{}
	var out []location.Domain
	for _, list := range chunkLists {
		for _, c := range list {
			if !seen[c.Loc.Domain()] {
				seen[c.Loc.Domain()] = true
				out = append(out, c.Loc.Domain())
			}
		}
	}
	return out
}

func defsCovering(chunks []Chunk, loc location.MemoryLocation) []ir.Term {
	var out []ir.Term
	for _, c := range chunks {
		if c.Loc.Covers(loc) {
			out = unionTerms(out, c.Defs)
		}
	}
	return out
}

// Merge unions other into r: overlapping sub-ranges union their
// defining-term sets; non-overlapping chunks from either side are kept
// as-is. This is the join the fixpoint driver uses to combine
// predecessors' out-definitions.
func (r *ReachingDefinitions) Merge(other *ReachingDefinitions) {
	if other == nil || other.Empty() {
		return
	}
	if r.Empty() {
		r.chunks = append([]Chunk(nil), other.chunks...)
		r.normalize()
		return
	}
	var result []Chunk
	for _, domain := range domainsOf(r.chunks, other.chunks) {
		pts := breakpoints(domain, r.chunks, other.chunks)
		for i := 0; i+1 < len(pts); i++ {
			lo, hi := pts[i], pts[i+1]
			if lo == hi {
				continue
			}
			sub := location.New(domain, lo, hi-lo)
			defs := unionTerms(defsCovering(r.chunks, sub), defsCovering(other.chunks, sub))
			if len(defs) > 0 {
				result = append(result, Chunk{Loc: sub, Defs: defs})
			}
		}
	}
	r.chunks = result
	r.normalize()
	r.coalesce()
}

// coalesce merges adjacent chunks in the same domain that share an
// identical defining-term set, re-establishing the "maximal sub-range"
// chunk invariant after a Merge's breakpoint sweep.
func (r *ReachingDefinitions) coalesce() {
	if len(r.chunks) < 2 {
		return
	}
	out := []Chunk{r.chunks[0]}
	for _, c := range r.chunks[1:] {
		last := &out[len(out)-1]
		if last.Loc.Domain() == c.Loc.Domain() && last.Loc.EndAddr() == c.Loc.Addr() && sameTermSet(last.Defs, c.Defs) {
			last.Loc = location.New(last.Loc.Domain(), last.Loc.Addr(), c.Loc.EndAddr()-last.Loc.Addr())
			continue
		}
		out = append(out, c)
	}
	r.chunks = out
}

// Project extracts into out exactly the portions of r's chunks that lie
// within loc, clipped to loc's bounds; out's previous contents are
// discarded.
func (r *ReachingDefinitions) Project(loc location.MemoryLocation, out *ReachingDefinitions) {
	out.chunks = nil
	for _, c := range r.chunks {
		if ov := intersect(c.Loc, loc); !ov.IsEmpty() {
			out.chunks = append(out.chunks, Chunk{Loc: ov, Defs: c.Defs})
		}
	}
	out.normalize()
	out.coalesce()
}

// Equal reports whether r and other describe the same set of (location,
// definer-set) facts, irrespective of internal chunk splitting.
func (r *ReachingDefinitions) Equal(other *ReachingDefinitions) bool {
	a := append([]Chunk(nil), r.chunks...)
	b := append([]Chunk(nil), other.chunks...)
	ac := &ReachingDefinitions{chunks: a}
	bc := &ReachingDefinitions{chunks: b}
	ac.normalize()
	ac.coalesce()
	bc.normalize()
	bc.coalesce()
	if len(ac.chunks) != len(bc.chunks) {
		return false
	}
	for i := range ac.chunks {
		if !ac.chunks[i].Loc.Equal(bc.chunks[i].Loc) || !sameTermSet(ac.chunks[i].Defs, bc.chunks[i].Defs) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (r *ReachingDefinitions) Clone() *ReachingDefinitions {
	return &ReachingDefinitions{chunks: append([]Chunk(nil), r.chunks...)}
}
