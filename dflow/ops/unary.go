// Package ops dispatches the abstract-value transfer functions for the
// IR's unary and binary operators, lifting the concrete bit-level
// semantics in package value through the operator kind recorded on an
// ir.UnaryOperator/ir.BinaryOperator term.
package ops

import (
	"log"

	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/value"
)

// ApplyUnary computes the abstract value of a unary operator application
// given the operand's abstract value and the operator's result size.
func ApplyUnary(kind ir.UnaryOperatorKind, operand value.AbstractValue, resultSize uint64) value.AbstractValue {
	switch kind {
	case ir.Not:
		return operand.Not()
	case ir.Negation:
		return operand.Negate()
	case ir.SignExtend:
		return operand.SignExtend(resultSize)
	case ir.ZeroExtend:
		return operand.ZeroExtend(resultSize)
	case ir.Truncate:
		return operand.Resize(resultSize)
	default:
		log.Printf("dflow/ops: unknown unary operator kind %v", kind)
		return value.Nondeterministic(resultSize)
	}
}
