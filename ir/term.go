// Package ir defines the minimal intermediate-representation types the
// dataflow analyzer walks: terms (the expression forest), statements,
// basic blocks, functions. Building this IR from a real instruction
// stream, and constructing the control-flow graph proper, are out of
// this module's scope (spec.md §1 names the IR builder and CFG
// construction as external collaborators) — what's here is just enough
// structure for the analyzer to operate on and for tests to build
// fixtures with.
package ir

import (
	"fmt"

	"github.com/chubbymaggie/snowman/location"
)

// TermKind tags the variant of a Term.
type TermKind uint8

const (
	KindIntConst TermKind = iota
	KindIntrinsic
	KindMemoryLocationAccess
	KindDereference
	KindUnaryOperator
	KindBinaryOperator
	KindChoice
)

func (k TermKind) String() string {
	switch k {
	case KindIntConst:
		return "IntConst"
	case KindIntrinsic:
		return "Intrinsic"
	case KindMemoryLocationAccess:
		return "MemoryLocationAccess"
	case KindDereference:
		return "Dereference"
	case KindUnaryOperator:
		return "UnaryOperator"
	case KindBinaryOperator:
		return "BinaryOperator"
	case KindChoice:
		return "Choice"
	default:
		return fmt.Sprintf("TermKind(%d)", uint8(k))
	}
}

// IntrinsicKind enumerates the intrinsic terms the term evaluator knows
// how to interpret (spec.md §3, §4.3). Unlisted kinds are handled as
// Unknown and logged.
type IntrinsicKind uint8

const (
	Unknown IntrinsicKind = iota
	Undefined
	ZeroStackOffset
	ReachingSnapshot
	InstructionAddress
	NextInstructionAddress
)

// Term is a node in a function's expression forest. Every concrete term
// type embeds termBase, which carries the read/write/kill flags and the
// back-pointer to the enclosing statement spec.md §3 requires. Term
// identity is pointer identity: two terms are the same term iff they are
// the same Go pointer, which is what lets Dataflow key its stores by
// Term directly.
type Term interface {
	Kind() TermKind
	Size() uint64
	IsRead() bool
	IsWrite() bool
	IsKill() bool
	Statement() Statement
	Instruction() *Instruction
	fmt.Stringer

	// bindStatement sets the term's owning statement. It is called by
	// the statement constructors (NewAssignment, NewJump, ...) once the
	// statement wrapping a freshly-built term tree exists — term
	// construction necessarily happens before the statement that will
	// own the terms does, so the back-pointer can't be supplied
	// up front.
	bindStatement(Statement)
}

// Flags bundles the three non-exclusive read/write/kill bits a term may
// carry (e.g. a single dereference term can be both a read and a write
// in some encodings of read-modify-write instructions).
type Flags struct {
	Read, Write, Kill bool
}

type termBase struct {
	size  uint64
	flags Flags
	stmt  Statement
}

func (t *termBase) Size() uint64         { return t.size }
func (t *termBase) IsRead() bool         { return t.flags.Read }
func (t *termBase) IsWrite() bool        { return t.flags.Write }
func (t *termBase) IsKill() bool         { return t.flags.Kill }
func (t *termBase) Statement() Statement { return t.stmt }
func (t *termBase) bindStatement(s Statement) { t.stmt = s }

func (t *termBase) Instruction() *Instruction {
	if t.stmt == nil {
		return nil
	}
	return t.stmt.Instruction()
}

// bindTerm recursively attaches stmt as the owning statement of t and
// every subterm reachable from it (a dereference's address, an
// operator's operands, a choice's branches). Statement constructors
// call this once for each top-level term they hold.
func bindTerm(stmt Statement, t Term) {
	if t == nil {
		return
	}
	t.bindStatement(stmt)
	switch v := t.(type) {
	case *Dereference:
		bindTerm(stmt, v.Address)
	case *UnaryOperator:
		bindTerm(stmt, v.Operand)
	case *BinaryOperator:
		bindTerm(stmt, v.Left)
		bindTerm(stmt, v.Right)
	case *Choice:
		bindTerm(stmt, v.Preferred)
		bindTerm(stmt, v.Default)
	}
}

// IntConst is a literal bit pattern of width Size.
type IntConst struct {
	termBase
	Value uint64
}

func NewIntConst(size, value uint64, flags Flags) *IntConst {
	return &IntConst{termBase{size: size, flags: flags}, value}
}

func (c *IntConst) Kind() TermKind { return KindIntConst }
func (c *IntConst) String() string { return fmt.Sprintf("0x%x:%d", c.Value, c.size) }

// Intrinsic is a term whose value is produced by the analyzer itself
// rather than computed from operands — the current instruction's
// address, an architecturally-zero stack pointer, an explicitly unknown
// value, or (ReachingSnapshot) a debugging hook that records the current
// reaching-definition set.
type Intrinsic struct {
	termBase
	IntrinsicKind IntrinsicKind
}

func NewIntrinsic(size uint64, kind IntrinsicKind, flags Flags) *Intrinsic {
	return &Intrinsic{termBase{size: size, flags: flags}, kind}
}

func (i *Intrinsic) Kind() TermKind { return KindIntrinsic }
func (i *Intrinsic) String() string { return fmt.Sprintf("intrinsic(%d):%d", i.IntrinsicKind, i.size) }

// MemoryLocationAccess is a direct reference to a known architectural
// location — typically a register.
type MemoryLocationAccess struct {
	termBase
	Loc location.MemoryLocation
}

func NewMemoryLocationAccess(size uint64, loc location.MemoryLocation, flags Flags) *MemoryLocationAccess {
	return &MemoryLocationAccess{termBase{size: size, flags: flags}, loc}
}

func (m *MemoryLocationAccess) Kind() TermKind { return KindMemoryLocationAccess }
func (m *MemoryLocationAccess) String() string { return fmt.Sprintf("[%v]:%d", m.Loc, m.size) }

// Dereference reads or writes memory at an address computed by
// evaluating Address, in the given Domain.
type Dereference struct {
	termBase
	Address Term
	Domain  location.Domain
}

func NewDereference(size uint64, addr Term, domain location.Domain, flags Flags) *Dereference {
	return &Dereference{termBase{size: size, flags: flags}, addr, domain}
}

func (d *Dereference) Kind() TermKind { return KindDereference }
func (d *Dereference) String() string { return fmt.Sprintf("*(%v):%d", d.Address, d.size) }

// UnaryOperatorKind enumerates the supported unary transfer functions
// (spec.md §4.5).
type UnaryOperatorKind uint8

const (
	Not UnaryOperatorKind = iota
	Negation
	SignExtend
	ZeroExtend
	Truncate
)

type UnaryOperator struct {
	termBase
	Op      UnaryOperatorKind
	Operand Term
}

func NewUnaryOperator(size uint64, op UnaryOperatorKind, operand Term, flags Flags) *UnaryOperator {
	return &UnaryOperator{termBase{size: size, flags: flags}, op, operand}
}

func (u *UnaryOperator) Kind() TermKind { return KindUnaryOperator }
func (u *UnaryOperator) String() string { return fmt.Sprintf("op%d(%v):%d", u.Op, u.Operand, u.size) }

// BinaryOperatorKind enumerates the supported binary transfer functions
// (spec.md §4.5).
type BinaryOperatorKind uint8

const (
	And BinaryOperatorKind = iota
	Or
	Xor
	Shl
	Shr
	Sar
	Add
	Sub
	Mul
	SignedDiv
	SignedRem
	UnsignedDiv
	UnsignedRem
	Equal
	SignedLess
	SignedLessOrEqual
	UnsignedLess
	UnsignedLessOrEqual
)

type BinaryOperator struct {
	termBase
	Op          BinaryOperatorKind
	Left, Right Term
}

func NewBinaryOperator(size uint64, op BinaryOperatorKind, left, right Term, flags Flags) *BinaryOperator {
	return &BinaryOperator{termBase{size: size, flags: flags}, op, left, right}
}

func (b *BinaryOperator) Kind() TermKind { return KindBinaryOperator }
func (b *BinaryOperator) String() string {
	return fmt.Sprintf("(%v op%d %v):%d", b.Left, b.Op, b.Right, b.size)
}

// Choice selects Preferred when it has a non-empty reaching-definition
// set, else Default. Used to encode "this register, unless a more
// specific sub-register write reached here" style disambiguation.
type Choice struct {
	termBase
	Preferred, Default Term
}

func NewChoice(size uint64, preferred, deflt Term, flags Flags) *Choice {
	return &Choice{termBase{size: size, flags: flags}, preferred, deflt}
}

func (c *Choice) Kind() TermKind { return KindChoice }
func (c *Choice) String() string { return fmt.Sprintf("choice(%v, %v):%d", c.Preferred, c.Default, c.size) }
