package dflow_test

import (
	"context"
	"testing"

	"github.com/chubbymaggie/snowman/arch"
	"github.com/chubbymaggie/snowman/dflow"
	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/location"
	"github.com/chubbymaggie/snowman/value"
)

func littleEndianArch() arch.Architecture {
	return arch.Simple{Order: location.LittleEndian}
}

func bigEndianArch() arch.Architecture {
	return arch.Simple{Order: location.BigEndian}
}

func mustAnalyze(t *testing.T, a *dflow.Analyzer, fn *ir.Function) {
	t.Helper()
	if err := a.Analyze(context.Background(), fn); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
}

// S1: constant propagation through a register.
// r1 := 5; r2 := r1 + 3;
func TestS1ConstantPropagationThroughRegister(t *testing.T) {
	r1 := reg(0, 32)
	r2 := reg(32, 32)

	flags := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, r1, flags(false, true)), ir.NewIntConst(32, 5, ir.Flags{}))

	r2Write := ir.NewMemoryLocationAccess(32, r2, flags(false, true))
	add := ir.NewBinaryOperator(32, ir.Add, ir.NewMemoryLocationAccess(32, r1, flags(true, false)), ir.NewIntConst(32, 3, ir.Flags{}), ir.Flags{})
	s2 := ir.NewAssignment(mkInst(), r2Write, add)

	fn := buildFunction("s1", 0x1000, [][]ir.Statement{{s1, s2}}, nil)

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)
	v := a.Dataflow().GetValue(r2Write)
	if !v.AbstractValue().IsConcrete() || v.AbstractValue().ConcreteValue() != 8 {
		t.Fatalf("r2 = %v, want concrete 8", v)
	}
}

// S2: stack frame. sp := ZeroStackOffset; sp := sp - 16; [sp+4] := 7; x := [sp+4];
func TestS2StackFrame(t *testing.T) {
	sp := reg(0, 64)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	s1 := ir.NewAssignment(mkInst(),
		ir.NewMemoryLocationAccess(64, sp, f(false, true)),
		ir.NewIntrinsic(64, ir.ZeroStackOffset, ir.Flags{}))

	s2 := ir.NewAssignment(mkInst(),
		ir.NewMemoryLocationAccess(64, sp, f(false, true)),
		ir.NewBinaryOperator(64, ir.Sub, ir.NewMemoryLocationAccess(64, sp, f(true, false)), ir.NewIntConst(64, 16, ir.Flags{}), ir.Flags{}))

	writeAddr := ir.NewBinaryOperator(64, ir.Add, ir.NewMemoryLocationAccess(64, sp, f(true, false)), ir.NewIntConst(64, 4, ir.Flags{}), ir.Flags{})
	s3 := ir.NewAssignment(mkInst(),
		ir.NewDereference(32, writeAddr, location.Stack, f(false, true)),
		ir.NewIntConst(32, 7, ir.Flags{}))

	readAddr := ir.NewBinaryOperator(64, ir.Add, ir.NewMemoryLocationAccess(64, sp, f(true, false)), ir.NewIntConst(64, 4, ir.Flags{}), ir.Flags{})
	readDeref := ir.NewDereference(32, readAddr, location.Stack, f(true, false))
	s4 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(128, 32), f(false, true)), readDeref)

	fn := buildFunction("s2", 0x2000, [][]ir.Statement{{s1, s2, s3, s4}}, nil)

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)

	v := a.Dataflow().GetValue(readDeref)
	if !v.AbstractValue().IsConcrete() || v.AbstractValue().ConcreteValue() != 7 {
		t.Fatalf("x = %v, want concrete 7", v)
	}

	loc := a.Dataflow().GetMemoryLocation(readDeref)
	offset := int64(-12) * 8
	want := location.New(location.Stack, uint64(offset), 32)
	if !loc.Equal(want) {
		t.Fatalf("x location = %v, want %v", loc, want)
	}
}

// S3: loop widening. Block A: i := 0. Block B (self-loop): i := i + 1.
func TestS3LoopWidening(t *testing.T) {
	i := reg(0, 32)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	sA := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, i, f(false, true)), ir.NewIntConst(32, 0, ir.Flags{}))

	add := ir.NewBinaryOperator(32, ir.Add, ir.NewMemoryLocationAccess(32, i, f(true, false)), ir.NewIntConst(32, 1, ir.Flags{}), ir.Flags{})
	sB := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, i, f(false, true)), add)

	fn := buildFunction("s3", 0x3000, [][]ir.Statement{{sA}, {sB}}, func(blocks []*ir.BasicBlock) {
		blocks[0].Successors = []*ir.BasicBlock{blocks[1]}
		blocks[1].Successors = []*ir.BasicBlock{blocks[1]}
	})

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)

	v := a.Dataflow().GetValue(add)
	if !v.AbstractValue().IsNondeterministic() {
		t.Fatalf("i = %v, want nondeterministic", v)
	}
	if !v.IsNotStackOffset() {
		t.Fatalf("i stack-offset state = %v, want NotStackOffset", v)
	}
	if !v.IsNotProduct() {
		t.Fatalf("i product state = %v, want NotProduct", v)
	}
}

// S4: kill on wider write. [addr] := 0xDEADBEEF (32-bit); read 16-bit [addr].
func TestS4KillOnWiderWrite(t *testing.T) {
	run := func(t *testing.T, a arch.Architecture, want uint64) {
		addrReg := reg(0, 64)
		f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

		s1 := ir.NewAssignment(mkInst(),
			ir.NewMemoryLocationAccess(64, addrReg, f(false, true)),
			ir.NewIntConst(64, 0x1000, ir.Flags{}))

		wideAddr := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		s2 := ir.NewAssignment(mkInst(),
			ir.NewDereference(32, wideAddr, location.Memory, f(false, true)),
			ir.NewIntConst(32, 0xDEADBEEF, ir.Flags{}))

		narrowAddr := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		narrowDeref := ir.NewDereference(16, narrowAddr, location.Memory, f(true, false))
		s3 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(16, reg(256, 16), f(false, true)), narrowDeref)

		fn := buildFunction("s4", 0x4000, [][]ir.Statement{{s1, s2, s3}}, nil)
		az := dflow.NewAnalyzer(a)
		mustAnalyze(t, az, fn)

		v := az.Dataflow().GetValue(narrowDeref)
		if !v.AbstractValue().IsConcrete() || v.AbstractValue().ConcreteValue() != want {
			t.Fatalf("narrow read = %v, want concrete %#x", v, want)
		}
	}

	t.Run("little-endian", func(t *testing.T) { run(t, littleEndianArch(), 0xBEEF) })
	t.Run("big-endian", func(t *testing.T) { run(t, bigEndianArch(), 0xDEAD) })
}

// S5: unresolved dereference.
func TestS5UnresolvedDereference(t *testing.T) {
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	unknown := ir.NewIntrinsic(64, ir.Unknown, ir.Flags{})
	deref := ir.NewDereference(32, unknown, location.Memory, f(true, false))
	s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(0, 32), f(false, true)), deref)

	fn := buildFunction("s5", 0x5000, [][]ir.Statement{{s1}}, nil)

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)

	loc := a.Dataflow().GetMemoryLocation(deref)
	if !loc.IsEmpty() {
		t.Fatalf("location = %v, want empty", loc)
	}
	if !a.Dataflow().GetDefinitions(deref).Empty() {
		t.Fatalf("expected no reaching definitions for an unresolved dereference")
	}
}

// S6: cancellation.
func TestS6Cancellation(t *testing.T) {
	i := reg(0, 32)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	sA := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, i, f(false, true)), ir.NewIntConst(32, 0, ir.Flags{}))
	add := ir.NewBinaryOperator(32, ir.Add, ir.NewMemoryLocationAccess(32, i, f(true, false)), ir.NewIntConst(32, 1, ir.Flags{}), ir.Flags{})
	sB := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, i, f(false, true)), add)

	fn := buildFunction("s6", 0x6000, [][]ir.Statement{{sA}, {sB}}, func(blocks []*ir.BasicBlock) {
		blocks[0].Successors = []*ir.BasicBlock{blocks[1]}
		blocks[1].Successors = []*ir.BasicBlock{blocks[1]}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := dflow.NewAnalyzer(littleEndianArch())
	if err := a.Analyze(ctx, fn); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

// Property 3: endian symmetry. A 32-bit read overlaps two 16-bit writes
// at the same offsets; LittleEndian and BigEndian merges disagree by a
// byte-swap, not by precision.
func TestEndianSymmetry(t *testing.T) {
	build := func(a arch.Architecture) (*dflow.Analyzer, ir.Term) {
		addrReg := reg(0, 64)
		f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

		s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, addrReg, f(false, true)), ir.NewIntConst(64, 0x2000, ir.Flags{}))
		loAddr := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		s2 := ir.NewAssignment(mkInst(), ir.NewDereference(16, loAddr, location.Memory, f(false, true)), ir.NewIntConst(16, 0x1111, ir.Flags{}))

		hiAddrBase := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		hiAddr := ir.NewBinaryOperator(64, ir.Add, hiAddrBase, ir.NewIntConst(64, 2, ir.Flags{}), ir.Flags{})
		s3 := ir.NewAssignment(mkInst(), ir.NewDereference(16, hiAddr, location.Memory, f(false, true)), ir.NewIntConst(16, 0x2222, ir.Flags{}))

		readAddr := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		readDeref := ir.NewDereference(32, readAddr, location.Memory, f(true, false))
		s4 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(512, 32), f(false, true)), readDeref)

		fn := buildFunction("endian", 0x7000, [][]ir.Statement{{s1, s2, s3, s4}}, nil)
		az := dflow.NewAnalyzer(a)
		mustAnalyze(t, az, fn)
		return az, readDeref
	}

	leAnalyzer, leTerm := build(littleEndianArch())
	beAnalyzer, beTerm := build(bigEndianArch())

	le := leAnalyzer.Dataflow().GetValue(leTerm).AbstractValue()
	be := beAnalyzer.Dataflow().GetValue(beTerm).AbstractValue()

	if !le.IsConcrete() || le.ConcreteValue() != 0x22221111 {
		t.Fatalf("little-endian merge = %v, want concrete 0x22221111", le)
	}
	if !be.IsConcrete() || be.ConcreteValue() != 0x11112222 {
		t.Fatalf("big-endian merge = %v, want concrete 0x11112222", be)
	}
}

// Property 4: stack-offset arithmetic.
func TestStackOffsetArithmetic(t *testing.T) {
	sp := reg(0, 64)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, sp, f(false, true)), ir.NewIntrinsic(64, ir.ZeroStackOffset, ir.Flags{}))
	sub := ir.NewBinaryOperator(64, ir.Sub, ir.NewMemoryLocationAccess(64, sp, f(true, false)), ir.NewIntConst(64, 4, ir.Flags{}), ir.Flags{})
	s2 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, sp, f(false, true)), sub)

	and := ir.NewBinaryOperator(64, ir.And, ir.NewMemoryLocationAccess(64, sp, f(true, false)), ir.NewIntConst(64, ^uint64(15), ir.Flags{}), ir.Flags{})
	s3 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, sp, f(false, true)), and)

	nondet := ir.NewIntrinsic(64, ir.Unknown, ir.Flags{})
	addX := ir.NewBinaryOperator(64, ir.Add, ir.NewMemoryLocationAccess(64, sp, f(true, false)), nondet, ir.Flags{})
	s4 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, reg(256, 64), f(false, true)), addX)

	fn := buildFunction("stackoffset", 0x8000, [][]ir.Statement{{s1, s2, s3, s4}}, nil)

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)

	subV := a.Dataflow().GetValue(sub)
	if !subV.IsStackOffset() || subV.StackOffset() != -4 {
		t.Fatalf("sp-4 = %v, want StackOffset(-4)", subV)
	}

	andV := a.Dataflow().GetValue(and)
	want := int64(-4) & ^int64(15)
	if !andV.IsStackOffset() || andV.StackOffset() != want {
		t.Fatalf("(sp-4)&~15 = %v, want StackOffset(%d)", andV, want)
	}

	addV := a.Dataflow().GetValue(addX)
	if !addV.IsNotStackOffset() {
		t.Fatalf("(sp-4)+x = %v, want NotStackOffset", addV)
	}
}

// Property 5: dereference resolution.
func TestDereferenceResolution(t *testing.T) {
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	t.Run("concrete memory", func(t *testing.T) {
		addr := ir.NewIntConst(64, 0x3000, ir.Flags{})
		deref := ir.NewDereference(8, addr, location.Memory, f(true, false))
		s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(8, reg(0, 8), f(false, true)), deref)
		fn := buildFunction("derefmem", 0x9000, [][]ir.Statement{{s1}}, nil)
		a := dflow.NewAnalyzer(littleEndianArch())
		mustAnalyze(t, a, fn)

		loc := a.Dataflow().GetMemoryLocation(deref)
		want := location.New(location.Memory, 0x3000*8, 8)
		if !loc.Equal(want) {
			t.Fatalf("location = %v, want %v", loc, want)
		}
	})

	t.Run("stack offset", func(t *testing.T) {
		sp := reg(0, 64)
		s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, sp, f(false, true)), ir.NewIntrinsic(64, ir.ZeroStackOffset, ir.Flags{}))
		addr := ir.NewMemoryLocationAccess(64, sp, f(true, false))
		deref := ir.NewDereference(32, addr, location.Stack, f(true, false))
		s2 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(128, 32), f(false, true)), deref)
		fn := buildFunction("derefstack", 0xA000, [][]ir.Statement{{s1, s2}}, nil)
		a := dflow.NewAnalyzer(littleEndianArch())
		mustAnalyze(t, a, fn)

		loc := a.Dataflow().GetMemoryLocation(deref)
		want := location.New(location.Stack, 0, 32)
		if !loc.Equal(want) {
			t.Fatalf("location = %v, want %v", loc, want)
		}
	})

	t.Run("unresolved", func(t *testing.T) {
		unknown := ir.NewIntrinsic(64, ir.Unknown, ir.Flags{})
		deref := ir.NewDereference(32, unknown, location.Memory, f(true, false))
		s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(0, 32), f(false, true)), deref)
		fn := buildFunction("derefunres", 0xB000, [][]ir.Statement{{s1}}, nil)
		a := dflow.NewAnalyzer(littleEndianArch())
		mustAnalyze(t, a, fn)

		if !a.Dataflow().GetMemoryLocation(deref).IsEmpty() {
			t.Fatalf("expected empty location for an unresolved dereference")
		}
	})
}

// Property 6: choice selection.
func TestChoiceSelection(t *testing.T) {
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	t.Run("preferred has definitions", func(t *testing.T) {
		addrReg := reg(0, 64)
		s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, addrReg, f(false, true)), ir.NewIntConst(64, 0x4000, ir.Flags{}))
		writeAddr := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		s2 := ir.NewAssignment(mkInst(), ir.NewDereference(32, writeAddr, location.Memory, f(false, true)), ir.NewIntConst(32, 9, ir.Flags{}))

		preferredAddr := ir.NewMemoryLocationAccess(64, addrReg, f(true, false))
		preferred := ir.NewDereference(32, preferredAddr, location.Memory, f(true, false))
		deflt := ir.NewIntConst(32, 123, ir.Flags{})
		choice := ir.NewChoice(32, preferred, deflt, ir.Flags{})
		s3 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(512, 32), f(false, true)), choice)

		fn := buildFunction("choice1", 0xC000, [][]ir.Statement{{s1, s2, s3}}, nil)
		a := dflow.NewAnalyzer(littleEndianArch())
		mustAnalyze(t, a, fn)

		got := a.Dataflow().GetValue(choice)
		want := a.Dataflow().GetValue(preferred)
		if !got.Equal(want) {
			t.Fatalf("choice = %v, want preferred's value %v", got, want)
		}
	})

	t.Run("preferred has no definitions", func(t *testing.T) {
		unknownAddr := ir.NewIntrinsic(64, ir.Unknown, ir.Flags{})
		preferred := ir.NewDereference(32, unknownAddr, location.Memory, f(true, false))
		deflt := ir.NewIntConst(32, 123, ir.Flags{})
		choice := ir.NewChoice(32, preferred, deflt, ir.Flags{})
		s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, reg(0, 32), f(false, true)), choice)

		fn := buildFunction("choice2", 0xD000, [][]ir.Statement{{s1}}, nil)
		a := dflow.NewAnalyzer(littleEndianArch())
		mustAnalyze(t, a, fn)

		got := a.Dataflow().GetValue(choice)
		want := a.Dataflow().GetValue(deflt)
		if !got.Equal(want) {
			t.Fatalf("choice = %v, want default's value %v", got, want)
		}
	})
}

// Property 2: three-pass convergence — a fourth pass over an already
// stable function changes nothing.
func TestThreePassConvergenceIsStable(t *testing.T) {
	r1 := reg(0, 32)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }
	s1 := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, r1, f(false, true)), ir.NewIntConst(32, 5, ir.Flags{}))
	fn := buildFunction("converge", 0xE000, [][]ir.Statement{{s1}}, nil)

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)

	before := map[ir.Term]string{}
	a.Dataflow().ForEachValue(func(t ir.Term, v *dflow.Value) { before[t] = v.String() })

	if err := a.Analyze(context.Background(), fn); err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	after := map[ir.Term]string{}
	a.Dataflow().ForEachValue(func(t ir.Term, v *dflow.Value) { after[t] = v.String() })

	if len(before) != len(after) {
		t.Fatalf("term count changed across a stable re-analysis: %d != %d", len(before), len(after))
	}
	for term, want := range before {
		if got := after[term]; got != want {
			t.Fatalf("value for %v changed on a stable re-analysis: %q -> %q", term, want, got)
		}
	}
}

// Property 1 (cross-iteration stickiness): once a term's Value has been
// asserted NotStackOffset, a later fixpoint pass must not flip it back
// to StackOffset, even when that pass's reaching definitions include a
// stack-offset-tagged writer alongside the earlier non-offset one.
//
// Block A writes r := 5 (NotStackOffset). Block B (self-loop) reads r,
// then writes r := ZeroStackOffset (StackOffset). From the second pass
// onward, the read's merged reaching definitions include BOTH writers —
// the entry path's "r := 5" and the back-edge's "r := ZeroStackOffset" —
// with the non-offset writer ordered first. Without an absorbing No,
// iterating that definer list would set NotStackOffset and then
// immediately overwrite it back to StackOffset.
func TestStackOffsetNoIsSticky(t *testing.T) {
	r := reg(0, 64)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	sA := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, r, f(false, true)), ir.NewIntConst(64, 5, ir.Flags{}))

	readR := ir.NewMemoryLocationAccess(64, r, f(true, false))
	touch := ir.NewTouch(mkInst(), readR)
	sB := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(64, r, f(false, true)), ir.NewIntrinsic(64, ir.ZeroStackOffset, ir.Flags{}))

	fn := buildFunction("stickyno", 0x10000, [][]ir.Statement{{sA}, {touch, sB}}, func(blocks []*ir.BasicBlock) {
		blocks[0].Successors = []*ir.BasicBlock{blocks[1]}
		blocks[1].Successors = []*ir.BasicBlock{blocks[1]}
	})

	a := dflow.NewAnalyzer(littleEndianArch())
	mustAnalyze(t, a, fn)

	v := a.Dataflow().GetValue(readR)
	if !v.IsNotStackOffset() {
		t.Fatalf("r read = %v, want sticky NotStackOffset", v)
	}
	if v.IsStackOffset() {
		t.Fatalf("r read = %v, want NOT StackOffset (No must win over a later Yes)", v)
	}
}

// Property 1: monotonicity of Merge itself — the lattice operation every
// fixpoint pass rests on never pins a bit that a non-bottom operand left
// unknown. Bottom is Merge's identity, so it is not compared against.
func TestMergeIsMonotonic(t *testing.T) {
	cases := []struct {
		a, b value.AbstractValue
	}{
		{value.FromConcrete(8, 0x0F), value.FromConcrete(8, 0x0F)},
		{value.FromConcrete(8, 0x0F), value.FromConcrete(8, 0xF0)},
		{value.FromConcrete(8, 0x3C), value.Nondeterministic(8)},
		{value.Bottom(8), value.FromConcrete(8, 0x3C)},
		{value.FromConcrete(16, 0xBEEF), value.FromConcrete(16, 0xBEE0)},
	}
	for _, c := range cases {
		merged := c.a.Merge(c.b)
		if (!c.a.IsBot() && merged.PopCountKnown() > c.a.PopCountKnown()) ||
			(!c.b.IsBot() && merged.PopCountKnown() > c.b.PopCountKnown()) {
			t.Fatalf("Merge(%v, %v) = %v: known-bit count increased", c.a, c.b, merged)
		}
	}
}

// Property 1: monotonicity across fixpoint iterations — the widening
// register in a self-looping block only ever loses known bits from one
// pass to the next, never gains them.
func TestMonotonicity(t *testing.T) {
	i := reg(0, 32)
	f := func(read, write bool) ir.Flags { return ir.Flags{Read: read, Write: write} }

	sA := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, i, f(false, true)), ir.NewIntConst(32, 0, ir.Flags{}))

	add := ir.NewBinaryOperator(32, ir.Add, ir.NewMemoryLocationAccess(32, i, f(true, false)), ir.NewIntConst(32, 1, ir.Flags{}), ir.Flags{})
	sB := ir.NewAssignment(mkInst(), ir.NewMemoryLocationAccess(32, i, f(false, true)), add)
	snapshot := ir.NewCallback(mkInst(), "snapshot")

	fn := buildFunction("monotonicity", 0xF000, [][]ir.Statement{{sA}, {sB, snapshot}}, func(blocks []*ir.BasicBlock) {
		blocks[0].Successors = []*ir.BasicBlock{blocks[1]}
		blocks[1].Successors = []*ir.BasicBlock{blocks[1]}
	})

	a := dflow.NewAnalyzer(littleEndianArch())
	var popcounts []int
	a.RegisterCallback("snapshot", func(ec *dflow.ExecutionContext) {
		popcounts = append(popcounts, ec.Dataflow().GetValue(add).AbstractValue().PopCountKnown())
	})
	mustAnalyze(t, a, fn)

	if len(popcounts) < 2 {
		t.Fatalf("expected at least 2 passes through the loop body, got %d", len(popcounts))
	}
	for i := 1; i < len(popcounts); i++ {
		if popcounts[i] > popcounts[i-1] {
			t.Fatalf("known-bit count increased across a pass: %v", popcounts)
		}
	}
}
