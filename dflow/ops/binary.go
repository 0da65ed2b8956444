package ops

import (
	"log"

	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/value"
)

// ApplyBinary computes the abstract value of a binary operator
// application given both operands' abstract values.
func ApplyBinary(kind ir.BinaryOperatorKind, left, right value.AbstractValue) value.AbstractValue {
	switch kind {
	case ir.And:
		return value.And(left, right)
	case ir.Or:
		return value.Or(left, right)
	case ir.Xor:
		return value.Xor(left, right)
	case ir.Shl:
		return value.Shl(left, right)
	case ir.Shr:
		return value.ShrUnsigned(left, right)
	case ir.Sar:
		return value.ShrSigned(left, right)
	case ir.Add:
		return value.Add(left, right)
	case ir.Sub:
		return value.Sub(left, right)
	case ir.Mul:
		return value.Mul(left, right)
	case ir.SignedDiv:
		return value.DivSigned(left, right)
	case ir.SignedRem:
		return value.RemSigned(left, right)
	case ir.UnsignedDiv:
		return value.DivUnsigned(left, right)
	case ir.UnsignedRem:
		return value.RemUnsigned(left, right)
	case ir.Equal:
		return value.Equal(left, right)
	case ir.SignedLess:
		return value.LessSigned(left, right)
	case ir.SignedLessOrEqual:
		return value.LessOrEqualSigned(left, right)
	case ir.UnsignedLess:
		return value.LessUnsigned(left, right)
	case ir.UnsignedLessOrEqual:
		return value.LessOrEqualUnsigned(left, right)
	default:
		log.Printf("dflow/ops: unknown binary operator kind %v", kind)
		size := left.Size()
		if right.Size() > size {
			size = right.Size()
		}
		return value.Nondeterministic(size)
	}
}

// IsProductOperator reports whether kind is one of the operators the
// addressing-arithmetic recognizer treats as producing a "product"
// (multiplication or left shift — the two ways a scaled-index
// expression shows up in lifted IR).
func IsProductOperator(kind ir.BinaryOperatorKind) bool {
	return kind == ir.Mul || kind == ir.Shl
}
