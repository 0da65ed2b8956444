package dflow

import (
	"log"

	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/location"
	"github.com/chubbymaggie/snowman/value"
)

func constAbstractValue(c *ir.IntConst) value.AbstractValue {
	return value.FromConcrete(c.Size(), c.Value)
}

func (a *Analyzer) evaluateIntrinsic(term *ir.Intrinsic, ec *ExecutionContext) {
	v := a.dataflow.GetValue(term)

	switch term.IntrinsicKind {
	case ir.Unknown, ir.Undefined:
		v.SetAbstractValue(value.Nondeterministic(term.Size()))
		v.MakeNotStackOffset()
		v.MakeNotProduct()
	case ir.ZeroStackOffset:
		v.SetAbstractValue(value.Nondeterministic(term.Size()))
		v.MakeStackOffset(0)
		v.MakeNotProduct()
	case ir.ReachingSnapshot:
		a.dataflow.SetDefinitions(term, ec.Definitions().Clone())
	case ir.InstructionAddress:
		if inst := term.Instruction(); inst != nil {
			v.SetAbstractValue(value.FromConcrete(term.Size(), inst.Address))
			v.MakeNotStackOffset()
			v.MakeNotProduct()
		}
	case ir.NextInstructionAddress:
		if inst := term.Instruction(); inst != nil {
			v.SetAbstractValue(value.FromConcrete(term.Size(), inst.NextAddress()))
			v.MakeNotStackOffset()
			v.MakeNotProduct()
		}
	default:
		log.Printf("dflow: unknown intrinsic kind %v", term.IntrinsicKind)
		v.SetAbstractValue(value.Nondeterministic(term.Size()))
		v.MakeNotStackOffset()
		v.MakeNotProduct()
	}
}

func (a *Analyzer) evaluateDereference(deref *ir.Dereference, ec *ExecutionContext) {
	a.evaluate(deref.Address, ec)

	addressValue := a.dataflow.GetValue(deref.Address)
	var loc location.MemoryLocation

	switch {
	case addressValue.AbstractValue().IsConcrete():
		addr := addressValue.AbstractValue().ConcreteValue()
		if deref.Domain == location.Memory {
			loc = location.New(deref.Domain, addr*bitsPerByte, deref.Size())
		} else {
			loc = location.New(deref.Domain, addr, deref.Size())
		}
	case addressValue.IsStackOffset():
		loc = location.New(location.Stack, uint64(addressValue.StackOffset())*bitsPerByte, deref.Size())
	default:
		loc = location.Empty()
	}

	a.setMemoryLocation(deref, loc, ec)
}

// setMemoryLocation is the memory/definition bookkeeper, spec.md §4.4.
func (a *Analyzer) setMemoryLocation(term ir.Term, newLoc location.MemoryLocation, ec *ExecutionContext) {
	oldLoc := a.dataflow.GetMemoryLocation(term)

	if !oldLoc.Equal(newLoc) {
		a.dataflow.SetMemoryLocation(term, newLoc)

		if !oldLoc.IsEmpty() && term.IsWrite() {
			ec.Definitions().FilterOut(func(_ location.MemoryLocation, definer ir.Term) bool {
				return definer == term
			})
		}
	}

	if !newLoc.IsEmpty() && !a.architecture.IsGlobalMemory(newLoc) {
		if term.IsRead() {
			defs := a.dataflow.GetDefinitions(term)
			ec.Definitions().Project(newLoc, defs)
			a.mergeReachingValues(term, newLoc, defs)
		}
		if term.IsWrite() {
			ec.Definitions().AddDefinition(newLoc, term)
		}
		if term.IsKill() {
			ec.Definitions().KillDefinitions(newLoc)
		}
	} else if term.IsRead() && !oldLoc.IsEmpty() {
		a.dataflow.GetDefinitions(term).Clear()
	}
}

// mergeReachingValues merges abstract values and the stack-offset/
// product tags from defs into term's Value, using endian-aware bit
// alignment, per spec.md §4.4.
func (a *Analyzer) mergeReachingValues(term ir.Term, termLoc location.MemoryLocation, defs *ReachingDefinitions) {
	if defs.Empty() {
		return
	}

	littleEndian := a.architecture.ByteOrder() == location.LittleEndian

	termValue := a.dataflow.GetValue(term)

	// Chunks cover disjoint bit ranges of termLoc, so each chunk's value
	// is overlaid onto incoming (all-ones, ANDed with the chunk value
	// padded with ones outside its mask) rather than joined with it.
	incoming := value.FromConcrete(termLoc.Size(), ^uint64(0))
	var covered uint64

	chunks := defs.Chunks()
	for _, chunk := range chunks {
		mask := bitMask(chunk.Loc.Size())
		if littleEndian {
			mask = shiftMask(mask, int64(chunk.Loc.Addr()-termLoc.Addr()))
		} else {
			mask = shiftMask(mask, int64(termLoc.EndAddr()-chunk.Loc.EndAddr()))
		}

		chunkValue := value.Bottom(termLoc.Size())
		for _, definer := range chunk.Defs {
			definerLoc := a.dataflow.GetMemoryLocation(definer)
			definerValue := a.dataflow.GetValue(definer).AbstractValue()

			var shift int64
			if littleEndian {
				shift = int64(definerLoc.Addr()) - int64(termLoc.Addr())
			} else {
				shift = int64(termLoc.EndAddr()) - int64(definerLoc.EndAddr())
			}
			shifted := definerValue.Shift(shift).Project(mask)
			chunkValue = chunkValue.Merge(shifted)
		}
		if chunkValue.IsBot() {
			continue
		}
		incoming = value.And(incoming, value.Or(chunkValue, value.FromConcrete(termLoc.Size(), ^mask)))
		covered |= mask
	}

	accumulator := termValue.AbstractValue()
	if covered != 0 {
		accumulator = accumulator.Merge(incoming.Project(covered))
	}
	termValue.SetAbstractValue(accumulator.Resize(term.Size()))

	var lowerBitsDefs []ir.Term
	if littleEndian {
		if chunks[0].Loc.Addr() == termLoc.Addr() {
			lowerBitsDefs = chunks[0].Defs
		}
	} else {
		if chunks[len(chunks)-1].Loc.EndAddr() == termLoc.EndAddr() {
			lowerBitsDefs = chunks[len(chunks)-1].Defs
		}
	}

	for _, definer := range lowerBitsDefs {
		dv := a.dataflow.GetValue(definer)
		switch {
		case dv.IsNotStackOffset():
			termValue.MakeNotStackOffset()
		case dv.IsStackOffset():
			termValue.MakeStackOffset(dv.StackOffset())
		}
		switch {
		case dv.IsNotProduct():
			termValue.MakeNotProduct()
		case dv.IsProduct():
			termValue.MakeProduct()
		}
	}
}

func bitMask(size uint64) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << size) - 1
}

func shiftMask(mask uint64, shift int64) uint64 {
	switch {
	case shift > 0:
		if shift >= 64 {
			return 0
		}
		return mask << uint(shift)
	case shift < 0:
		n := uint(-shift)
		if n >= 64 {
			return 0
		}
		return mask >> n
	default:
		return mask
	}
}
