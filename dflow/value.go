package dflow

import (
	"fmt"

	"github.com/chubbymaggie/snowman/value"
)

// triState is the internal representation behind StackOffset/Product:
// bottom (nothing asserted yet), a concrete offset, or an explicit
// disclaimer. A term's Value is the same pointer every iteration
// (dflow.Dataflow.GetValue), and the setters below make tsNo absorbing:
// once a term has been marked No, in this pass or an earlier one, a
// later MakeStackOffset/MakeProduct leaves it No. Per spec.md §3, once
// both predicates have been asserted in contradictory ways, No wins.
type triState uint8

const (
	tsBottom triState = iota
	tsYes
	tsNo
)

// Value is everything the analyzer tracks for a single term: its
// abstract bit value, plus the two tri-state semantic tags (stack
// offset, product) used by addressing-arithmetic recognition.
type Value struct {
	abstract value.AbstractValue

	stackState  triState
	stackOffset int64

	productState triState
}

// NewValue returns the bottom Value for a term of the given bit width.
func NewValue(size uint64) *Value {
	return &Value{abstract: value.Bottom(size)}
}

func (v *Value) AbstractValue() value.AbstractValue { return v.abstract }
func (v *Value) SetAbstractValue(a value.AbstractValue) { v.abstract = a }

func (v *Value) IsStackOffset() bool    { return v.stackState == tsYes }
func (v *Value) IsNotStackOffset() bool { return v.stackState == tsNo }
func (v *Value) StackOffset() int64     { return v.stackOffset }

// MakeStackOffset asserts offset, unless a prior iteration already
// asserted NotStackOffset — that No is absorbing across iterations.
func (v *Value) MakeStackOffset(offset int64) {
	if v.stackState == tsNo {
		return
	}
	v.stackState = tsYes
	v.stackOffset = offset
}

func (v *Value) MakeNotStackOffset() { v.stackState = tsNo }

func (v *Value) IsProduct() bool    { return v.productState == tsYes }
func (v *Value) IsNotProduct() bool { return v.productState == tsNo }

// MakeProduct asserts product-ness, unless a prior iteration already
// asserted NotProduct — that No is absorbing across iterations.
func (v *Value) MakeProduct() {
	if v.productState == tsNo {
		return
	}
	v.productState = tsYes
}

func (v *Value) MakeNotProduct() { v.productState = tsNo }

// Equal reports structural equality. The fixpoint driver's stability
// check does not use it: that check compares reaching definitions only.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.abstract == other.abstract &&
		v.stackState == other.stackState &&
		v.stackOffset == other.stackOffset &&
		v.productState == other.productState
}

func (v *Value) String() string {
	s := v.abstract.String()
	switch v.stackState {
	case tsYes:
		s += fmt.Sprintf(" stack+%d", v.stackOffset)
	case tsNo:
		s += " !stack"
	}
	switch v.productState {
	case tsYes:
		s += " product"
	case tsNo:
		s += " !product"
	}
	return s
}

// Clone returns an independent copy of v.
func (v *Value) Clone() *Value {
	cp := *v
	return &cp
}
