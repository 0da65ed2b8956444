// Package value implements AbstractValue, the bit-level lattice the
// dataflow analyzer uses to track partial knowledge of the concrete bit
// pattern a term may hold at runtime. It is a "known bits" lattice: each
// bit of a fixed-width value is either pinned to 0, pinned to 1, or
// unknown. Merge (join) of two non-bottom values only ever drops pinned
// bits, never adds them (bottom is Merge's identity), so
// the sequence of values computed for a term across fixpoint iterations
// is non-decreasing in the lattice order.
package value

import (
	"fmt"
	"math/bits"
)

// maxSize is the largest bit width this package represents. Decompiler
// terms (registers, memory cells, flags) on the architectures this
// analyzer targets never exceed 64 bits; wider terms are out of scope.
const maxSize = 64

func sizeMask(size uint64) uint64 {
	if size >= maxSize {
		return ^uint64(0)
	}
	return (uint64(1) << size) - 1
}

// AbstractValue is a fixed-width partial bit pattern.
//
// known is a mask of bits whose value is pinned; bits holds the pinned
// value for those bits (bits outside known are meaningless and kept
// zeroed). bottom marks the pre-analysis placeholder: merge(bottom, x)
// == x, i.e. bottom is the identity element, strictly below every
// concrete or nondeterministic value of the same size.
type AbstractValue struct {
	size   uint64
	known  uint64
	bits   uint64
	bottom bool
}

// Bottom is the value of a term before any execution has reached it.
func Bottom(size uint64) AbstractValue {
	return AbstractValue{size: size, bottom: true}
}

// Nondeterministic is the fully-unknown value of the given width: no bit
// is pinned. Used for intrinsics UNKNOWN/UNDEFINED and as the safe
// fallback result of unsupported/imprecise operators.
func Nondeterministic(size uint64) AbstractValue {
	return AbstractValue{size: size}
}

// FromConcrete is the fully-pinned value v, truncated to size bits.
func FromConcrete(size, v uint64) AbstractValue {
	m := sizeMask(size)
	return AbstractValue{size: size, known: m, bits: v & m}
}

func (a AbstractValue) Size() uint64 { return a.size }

// IsBot reports whether a is the pre-analysis placeholder.
func (a AbstractValue) IsBot() bool { return a.bottom }

// IsConcrete reports whether every bit of a is pinned.
func (a AbstractValue) IsConcrete() bool {
	return !a.bottom && a.known == sizeMask(a.size)
}

// IsNondeterministic reports whether no bit of a is pinned.
func (a AbstractValue) IsNondeterministic() bool {
	return !a.bottom && a.known == 0
}

// ConcreteValue is the unsigned bit pattern of a concrete AbstractValue.
// Panics if a is not concrete: callers must check IsConcrete first,
// matching the source's "invariant violations in callee primitives...
// may assert".
func (a AbstractValue) ConcreteValue() uint64 {
	if !a.IsConcrete() {
		panic("value: ConcreteValue called on a non-concrete AbstractValue")
	}
	return a.bits
}

// SignedValue is ConcreteValue, sign-extended from a.size to 64 bits.
func (a AbstractValue) SignedValue() int64 {
	v := a.ConcreteValue()
	if a.size == 0 || a.size >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << (a.size - 1)
	if v&signBit != 0 {
		v |= ^sizeMask(a.size)
	}
	return int64(v)
}

// Merge computes the pointwise join: a bit stays pinned only if both
// operands pin it to the same value. This is the widening step the
// fixpoint driver applies on every iteration; it is idempotent,
// commutative, and monotonically increases the unknown-bit set.
func (a AbstractValue) Merge(b AbstractValue) AbstractValue {
	if a.bottom {
		return b
	}
	if b.bottom {
		return a
	}
	size := a.size
	if b.size > size {
		size = b.size
	}
	agree := ^(a.bits ^ b.bits)
	known := a.known & b.known & agree
	return AbstractValue{size: size, known: known, bits: a.bits & known}
}

// Shift moves the pinned bits: positive k shifts left (toward higher bit
// positions), negative k shifts right. The width stays a.size: bits moved
// above it stay pinned, and vacated bits are unknown. Used to align a
// definition's value with the bit position it occupies inside a wider
// read, per the endian-aware rules in mergeReachingValues.
func (a AbstractValue) Shift(k int64) AbstractValue {
	if a.bottom {
		return a
	}
	known, bts := a.known, a.bits
	switch {
	case k > 0:
		if k >= maxSize {
			known, bts = 0, 0
		} else {
			known <<= uint(k)
			bts <<= uint(k)
		}
	case k < 0:
		n := uint(-k)
		if n >= maxSize {
			known, bts = 0, 0
		} else {
			known >>= n
			bts >>= n
		}
	}
	return AbstractValue{size: a.size, known: known, bits: bts}
}

// Project retains only the bits set in mask; all other bits become
// unknown, regardless of whether they were pinned before.
func (a AbstractValue) Project(mask uint64) AbstractValue {
	if a.bottom {
		return a
	}
	return AbstractValue{size: a.size, known: a.known & mask, bits: a.bits & mask}
}

// Resize truncates or grows a to w bits. Growing does not pin the new
// high bits (use ZeroExtend/SignExtend for that); shrinking drops
// knowledge of bits beyond w.
func (a AbstractValue) Resize(w uint64) AbstractValue {
	if a.bottom {
		return Bottom(w)
	}
	m := sizeMask(w)
	return AbstractValue{size: w, known: a.known & m, bits: a.bits & m}
}

// ZeroExtend grows a to w bits, pinning the new high bits to zero.
func (a AbstractValue) ZeroExtend(w uint64) AbstractValue {
	if a.bottom {
		return Bottom(w)
	}
	if w <= a.size {
		return a.Resize(w)
	}
	extMask := sizeMask(w) &^ sizeMask(a.size)
	return AbstractValue{size: w, known: a.known | extMask, bits: a.bits}
}

// SignExtend grows a to w bits, copying the sign bit into the new high
// bits when it is known; if the sign bit is unknown, so are the new bits.
func (a AbstractValue) SignExtend(w uint64) AbstractValue {
	if a.bottom {
		return Bottom(w)
	}
	if w <= a.size || a.size == 0 {
		return a.Resize(w)
	}
	signBit := uint64(1) << (a.size - 1)
	extMask := sizeMask(w) &^ sizeMask(a.size)

	if a.known&signBit == 0 {
		return AbstractValue{size: w, known: a.known, bits: a.bits}
	}
	if a.bits&signBit != 0 {
		return AbstractValue{size: w, known: a.known | extMask, bits: a.bits | extMask}
	}
	return AbstractValue{size: w, known: a.known | extMask, bits: a.bits}
}

func (a AbstractValue) String() string {
	if a.bottom {
		return "⊥"
	}
	if a.IsConcrete() {
		return fmt.Sprintf("0x%x", a.bits)
	}
	if a.IsNondeterministic() {
		return fmt.Sprintf("?%d", a.size)
	}
	return fmt.Sprintf("known=0x%x(mask 0x%x)/%d", a.bits, a.known, a.size)
}

// PopCountKnown is the number of pinned bits, exposed for the
// monotonicity property test: once a term's value is no longer bottom,
// this count is non-increasing across fixpoint iterations.
func (a AbstractValue) PopCountKnown() int {
	return bits.OnesCount64(a.known)
}
