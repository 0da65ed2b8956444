package dflow

import (
	"github.com/chubbymaggie/snowman/dflow/ops"
	"github.com/chubbymaggie/snowman/ir"
)

// executeUnaryOperator evaluates a unary operator term, per spec.md §4.5.
func (a *Analyzer) executeUnaryOperator(unary *ir.UnaryOperator, ec *ExecutionContext) {
	a.evaluate(unary.Operand, ec)

	v := a.dataflow.GetValue(unary)
	operand := a.dataflow.GetValue(unary.Operand)

	applied := ops.ApplyUnary(unary.Op, operand.AbstractValue(), unary.Size())
	v.SetAbstractValue(applied.Merge(v.AbstractValue()))

	switch unary.Op {
	case ir.SignExtend, ir.ZeroExtend, ir.Truncate:
		switch {
		case operand.IsNotStackOffset():
			v.MakeNotStackOffset()
		case operand.IsStackOffset():
			v.MakeStackOffset(operand.StackOffset())
		}
		switch {
		case operand.IsNotProduct():
			v.MakeNotProduct()
		case operand.IsProduct():
			v.MakeProduct()
		}
	default:
		v.MakeNotStackOffset()
		v.MakeNotProduct()
	}
}

// executeBinaryOperator evaluates a binary operator term, per spec.md §4.5.
func (a *Analyzer) executeBinaryOperator(binary *ir.BinaryOperator, ec *ExecutionContext) {
	a.evaluate(binary.Left, ec)
	a.evaluate(binary.Right, ec)

	v := a.dataflow.GetValue(binary)
	left := a.dataflow.GetValue(binary.Left)
	right := a.dataflow.GetValue(binary.Right)

	applied := ops.ApplyBinary(binary.Op, left.AbstractValue(), right.AbstractValue())
	v.SetAbstractValue(applied.Merge(v.AbstractValue()))

	switch binary.Op {
	case ir.Add:
		if left.IsStackOffset() {
			switch {
			case right.AbstractValue().IsConcrete():
				v.MakeStackOffset(left.StackOffset() + right.AbstractValue().SignedValue())
			case right.AbstractValue().IsNondeterministic():
				v.MakeNotStackOffset()
			}
		}
		if right.IsStackOffset() {
			switch {
			case left.AbstractValue().IsConcrete():
				v.MakeStackOffset(right.StackOffset() + left.AbstractValue().SignedValue())
			case left.AbstractValue().IsNondeterministic():
				v.MakeNotStackOffset()
			}
		}
		if left.IsNotStackOffset() && right.IsNotStackOffset() {
			v.MakeNotStackOffset()
		}
	case ir.Sub:
		switch {
		case left.IsStackOffset() && right.AbstractValue().IsConcrete():
			v.MakeStackOffset(left.StackOffset() - right.AbstractValue().SignedValue())
		case left.IsNotStackOffset() || right.AbstractValue().IsNondeterministic():
			v.MakeNotStackOffset()
		}
	case ir.And:
		switch {
		case left.IsStackOffset() && right.AbstractValue().IsConcrete():
			v.MakeStackOffset(left.StackOffset() & int64(right.AbstractValue().ConcreteValue()))
		case right.IsStackOffset() && left.AbstractValue().IsConcrete():
			v.MakeStackOffset(right.StackOffset() & int64(left.AbstractValue().ConcreteValue()))
		case (left.AbstractValue().IsNondeterministic() && left.IsNotStackOffset()) ||
			(right.AbstractValue().IsNondeterministic() && right.IsNotStackOffset()):
			v.MakeNotStackOffset()
		}
	default:
		v.MakeNotStackOffset()
	}

	if ops.IsProductOperator(binary.Op) {
		v.MakeProduct()
	} else {
		v.MakeNotProduct()
	}
}
