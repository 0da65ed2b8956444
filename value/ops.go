package value

// Bitwise operators decompose per-bit, so they get bit-precise transfer
// functions even when an operand isn't fully concrete: a bit of an AND is
// known-zero if either operand pins it to zero, known-one only if both
// operands pin it to one, and so on. Arithmetic/comparison operators
// don't decompose as cleanly, so they use the "obvious best-effort"
// precision spec.md asks for: exact when both operands are concrete,
// nondeterministic otherwise.

// Not is bitwise complement.
func (a AbstractValue) Not() AbstractValue {
	if a.bottom {
		return a
	}
	return AbstractValue{size: a.size, known: a.known, bits: ^a.bits & a.known}
}

// Negate is two's-complement negation.
func (a AbstractValue) Negate() AbstractValue {
	if a.bottom {
		return a
	}
	if a.IsConcrete() {
		return FromConcrete(a.size, uint64(-int64(a.bits)))
	}
	return Nondeterministic(a.size)
}

// And is bitwise AND with bit-precise propagation.
func And(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(max(a.size, b.size))
	}
	size := max(a.size, b.size)
	knownZero := (a.known &^ a.bits) | (b.known &^ b.bits)
	knownOne := (a.known & a.bits) & (b.known & b.bits)
	known := knownZero | knownOne
	return AbstractValue{size: size, known: known, bits: knownOne}
}

// Or is bitwise OR with bit-precise propagation.
func Or(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(max(a.size, b.size))
	}
	size := max(a.size, b.size)
	knownOne := (a.known & a.bits) | (b.known & b.bits)
	knownZero := (a.known &^ a.bits) & (b.known &^ b.bits)
	known := knownOne | knownZero
	return AbstractValue{size: size, known: known, bits: knownOne}
}

// Xor is bitwise XOR; a bit is known iff both operands' bits are known.
func Xor(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(max(a.size, b.size))
	}
	size := max(a.size, b.size)
	known := a.known & b.known
	bts := (a.bits ^ b.bits) & known
	return AbstractValue{size: size, known: known, bits: bts}
}

// concreteBinOp is the fallback shape for operators without bit-precise
// rules: exact on two concrete operands, nondeterministic otherwise.
func concreteBinOp(a, b AbstractValue, resultSize uint64, f func(x, y uint64) uint64) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(resultSize)
	}
	if a.IsConcrete() && b.IsConcrete() {
		return FromConcrete(resultSize, f(a.bits, b.bits))
	}
	return Nondeterministic(resultSize)
}

func boolValue(size uint64, cond bool) AbstractValue {
	if cond {
		return FromConcrete(size, 1)
	}
	return FromConcrete(size, 0)
}

func Add(a, b AbstractValue) AbstractValue {
	size := max(a.size, b.size)
	return concreteBinOp(a, b, size, func(x, y uint64) uint64 { return x + y })
}

func Sub(a, b AbstractValue) AbstractValue {
	size := max(a.size, b.size)
	return concreteBinOp(a, b, size, func(x, y uint64) uint64 { return x - y })
}

func Mul(a, b AbstractValue) AbstractValue {
	size := max(a.size, b.size)
	return concreteBinOp(a, b, size, func(x, y uint64) uint64 { return x * y })
}

// Shl/ShrUnsigned/ShrSigned implement the << / unsigned >> / signed >>
// operators. They're distinct from AbstractValue.Shift, which is an
// internal alignment primitive used by mergeReachingValues.
func Shl(a, b AbstractValue) AbstractValue {
	return concreteBinOp(a, b, a.size, func(x, y uint64) uint64 {
		if y >= maxSize {
			return 0
		}
		return x << y
	})
}

func ShrUnsigned(a, b AbstractValue) AbstractValue {
	return concreteBinOp(a, b, a.size, func(x, y uint64) uint64 {
		if y >= maxSize {
			return 0
		}
		return x >> y
	})
}

func ShrSigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(a.size)
	}
	if a.IsConcrete() && b.IsConcrete() {
		signed := a.SignedValue()
		shift := b.ConcreteValue()
		if shift >= maxSize {
			if signed < 0 {
				return FromConcrete(a.size, ^uint64(0))
			}
			return FromConcrete(a.size, 0)
		}
		return FromConcrete(a.size, uint64(signed>>shift))
	}
	return Nondeterministic(a.size)
}

func DivUnsigned(a, b AbstractValue) AbstractValue {
	if b.IsConcrete() && b.ConcreteValue() == 0 {
		return Nondeterministic(a.size)
	}
	return concreteBinOp(a, b, a.size, func(x, y uint64) uint64 { return x / y })
}

func RemUnsigned(a, b AbstractValue) AbstractValue {
	if b.IsConcrete() && b.ConcreteValue() == 0 {
		return Nondeterministic(a.size)
	}
	return concreteBinOp(a, b, a.size, func(x, y uint64) uint64 { return x % y })
}

func DivSigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(a.size)
	}
	if a.IsConcrete() && b.IsConcrete() && b.SignedValue() != 0 {
		return FromConcrete(a.size, uint64(a.SignedValue()/b.SignedValue()))
	}
	return Nondeterministic(a.size)
}

func RemSigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(a.size)
	}
	if a.IsConcrete() && b.IsConcrete() && b.SignedValue() != 0 {
		return FromConcrete(a.size, uint64(a.SignedValue()%b.SignedValue()))
	}
	return Nondeterministic(a.size)
}

func Equal(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(1)
	}
	if a.IsConcrete() && b.IsConcrete() {
		return boolValue(1, a.bits == b.bits)
	}
	return Nondeterministic(1)
}

func LessSigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(1)
	}
	if a.IsConcrete() && b.IsConcrete() {
		return boolValue(1, a.SignedValue() < b.SignedValue())
	}
	return Nondeterministic(1)
}

func LessOrEqualSigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(1)
	}
	if a.IsConcrete() && b.IsConcrete() {
		return boolValue(1, a.SignedValue() <= b.SignedValue())
	}
	return Nondeterministic(1)
}

func LessUnsigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(1)
	}
	if a.IsConcrete() && b.IsConcrete() {
		return boolValue(1, a.ConcreteValue() < b.ConcreteValue())
	}
	return Nondeterministic(1)
}

func LessOrEqualUnsigned(a, b AbstractValue) AbstractValue {
	if a.bottom || b.bottom {
		return Bottom(1)
	}
	if a.IsConcrete() && b.IsConcrete() {
		return boolValue(1, a.ConcreteValue() <= b.ConcreteValue())
	}
	return Nondeterministic(1)
}

func max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
