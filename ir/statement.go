package ir

import "fmt"

// StatementKind tags the variant of a Statement.
type StatementKind uint8

const (
	KindAssignment StatementKind = iota
	KindJump
	KindCall
	KindReturn
	KindTouch
	KindCallback
	KindInlineAssembly
)

func (k StatementKind) String() string {
	switch k {
	case KindAssignment:
		return "Assignment"
	case KindJump:
		return "Jump"
	case KindCall:
		return "Call"
	case KindReturn:
		return "Return"
	case KindTouch:
		return "Touch"
	case KindCallback:
		return "Callback"
	case KindInlineAssembly:
		return "InlineAssembly"
	default:
		return fmt.Sprintf("StatementKind(%d)", uint8(k))
	}
}

// Statement is a single effect within an Instruction's body. Every
// concrete statement embeds statementBase, which back-links to the
// owning Instruction the way every term back-links to its owning
// Statement.
type Statement interface {
	Kind() StatementKind
	Instruction() *Instruction
	fmt.Stringer
}

type statementBase struct {
	inst *Instruction
}

func (s *statementBase) Instruction() *Instruction { return s.inst }

// Target names the successor a Jump or Call may transfer control to:
// either a direct basic block within the same function, or an indirect
// transfer whose destination is computed by evaluating Address.
type Target struct {
	Block   *BasicBlock
	Address Term
}

func (t Target) IsDirect() bool { return t.Block != nil }

func (t Target) String() string {
	if t.Block != nil {
		return t.Block.Label
	}
	return fmt.Sprintf("*(%v)", t.Address)
}

// Assignment evaluates Value and writes it into Dest (§4.2: the
// left-hand side is evaluated for its memory location, the right-hand
// side for its value, and the right-hand side evaluates first).
type Assignment struct {
	statementBase
	Dest  Term
	Value Term
}

func NewAssignment(inst *Instruction, dest, value Term) *Assignment {
	a := &Assignment{statementBase{inst}, dest, value}
	bindTerm(a, dest)
	bindTerm(a, value)
	return a
}

func (a *Assignment) Kind() StatementKind { return KindAssignment }
func (a *Assignment) String() string      { return fmt.Sprintf("%v := %v", a.Dest, a.Value) }

// Jump unconditionally (Condition == nil) or conditionally transfers
// control to Then, or to Else when Condition evaluates to zero.
type Jump struct {
	statementBase
	Condition  Term
	Then, Else Target
}

func NewJump(inst *Instruction, cond Term, then, els Target) *Jump {
	j := &Jump{statementBase{inst}, cond, then, els}
	bindTerm(j, cond)
	bindTerm(j, then.Address)
	bindTerm(j, els.Address)
	return j
}

func (j *Jump) Kind() StatementKind { return KindJump }
func (j *Jump) String() string {
	if j.Condition == nil {
		return fmt.Sprintf("jmp %v", j.Then)
	}
	return fmt.Sprintf("jmp %v ? %v : %v", j.Condition, j.Then, j.Else)
}

// Call transfers control to Target. Per spec.md's Non-goals (no modelling
// of external calls beyond the analyzer simply not touching anything a
// callee might clobber), Call has no havoc semantics: the analyzer
// evaluates only Target.Address and otherwise leaves the reaching-
// definitions store untouched, matching a real call's unknown effect on
// callee-owned state being out of scope rather than conservatively
// widened.
type Call struct {
	statementBase
	Target Target
}

func NewCall(inst *Instruction, target Target) *Call {
	c := &Call{statementBase{inst}, target}
	bindTerm(c, target.Address)
	return c
}

func (c *Call) Kind() StatementKind { return KindCall }
func (c *Call) String() string      { return fmt.Sprintf("call %v", c.Target) }

// Return transfers control out of the enclosing function.
type Return struct {
	statementBase
}

func NewReturn(inst *Instruction) *Return { return &Return{statementBase{inst}} }

func (r *Return) Kind() StatementKind { return KindReturn }
func (r *Return) String() string      { return "ret" }

// Touch evaluates Value purely for its dataflow effects (establishing a
// reaching definition, e.g. for a calling convention's argument-passing
// registers) without assigning it anywhere.
type Touch struct {
	statementBase
	Value Term
}

func NewTouch(inst *Instruction, value Term) *Touch {
	t := &Touch{statementBase{inst}, value}
	bindTerm(t, value)
	return t
}

func (t *Touch) Kind() StatementKind { return KindTouch }
func (t *Touch) String() string      { return fmt.Sprintf("touch %v", t.Value) }

// Callback invokes an external hook during execution, passing it the
// current ExecutionContext; used by test fixtures that want to observe
// analyzer state between statements. The hook itself is opaque to this
// package — dflow supplies the concrete signature.
type Callback struct {
	statementBase
	Name string
}

func NewCallback(inst *Instruction, name string) *Callback { return &Callback{statementBase{inst}, name} }

func (c *Callback) Kind() StatementKind { return KindCallback }
func (c *Callback) String() string      { return fmt.Sprintf("callback %s", c.Name) }

// InlineAssembly marks a block of instructions the IR builder could not
// or chose not to lift; per spec.md it is a deliberate no-op for the
// dataflow analyzer; it exists here so the statement dispatch model
// matches the original one-to-one.
type InlineAssembly struct {
	statementBase
	Text string
}

func NewInlineAssembly(inst *Instruction, text string) *InlineAssembly {
	return &InlineAssembly{statementBase{inst}, text}
}

func (i *InlineAssembly) Kind() StatementKind { return KindInlineAssembly }
func (i *InlineAssembly) String() string      { return fmt.Sprintf("asm %q", i.Text) }
