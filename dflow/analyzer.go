// Package dflow implements the fixpoint dataflow analyzer: given a
// function's control-flow graph, it computes, for every term in every
// instruction, an abstract value, a resolved memory location (when
// knowable), and the set of reaching definitions that feed it.
package dflow

import (
	"context"
	"log"

	"github.com/chubbymaggie/snowman/arch"
	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/location"
)

const (
	maxIterations = 30
	stableStreak3 = 3
	bitsPerByte   = 8
)

// Analyzer runs the fixpoint dataflow analysis over a function and
// accumulates its findings into a Dataflow store. An Analyzer may be
// reused across multiple Analyze calls (e.g. one per function in a
// program); the store it owns keeps growing across calls unless the
// caller constructs a fresh Analyzer for each.
type Analyzer struct {
	dataflow     *Dataflow
	architecture arch.Architecture
	callbacks    map[string]func(*ExecutionContext)
}

// NewAnalyzer returns an Analyzer backed by a fresh Dataflow store.
func NewAnalyzer(architecture arch.Architecture) *Analyzer {
	return &Analyzer{dataflow: NewDataflow(), architecture: architecture}
}

// Dataflow returns the store this analyzer populates.
func (a *Analyzer) Dataflow() *Dataflow { return a.dataflow }

// Analyze runs the whole-CFG fixpoint loop over fn, per spec.md §4.1.
// It returns ctx.Err() if the context is cancelled between passes, and
// nil otherwise — including when the iteration cap is hit, which is
// logged but not treated as an error (the analyzer always leaves the
// store in a usable, if imprecise, state).
func (a *Analyzer) Analyze(ctx context.Context, fn *ir.Function) error {
	predecessors := make(map[*ir.BasicBlock][]*ir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		for _, succ := range b.Successors {
			predecessors[succ] = append(predecessors[succ], b)
		}
	}

	outDefinitions := make(map[*ir.BasicBlock]*ReachingDefinitions, len(fn.Blocks))
	for _, b := range fn.Blocks {
		outDefinitions[b] = &ReachingDefinitions{}
	}

	notCovered := func(mloc location.MemoryLocation, term ir.Term) bool {
		return !a.dataflow.GetMemoryLocation(term).Covers(mloc)
	}

	iterations := 0
	stableStreak := 0
	for {
		changed := false
		for _, b := range fn.Blocks {
			ec := newExecutionContext(a)
			for _, pred := range predecessors[b] {
				ec.Definitions().Merge(outDefinitions[pred])
			}
			ec.Definitions().FilterOut(notCovered)

			for i := range b.Instructions {
				for _, stmt := range b.Instructions[i].Statements {
					a.execute(stmt, ec)
				}
			}

			if !outDefinitions[b].Equal(ec.Definitions()) {
				outDefinitions[b] = ec.Definitions().Clone()
				changed = true
			}
		}

		a.dataflow.ForEachDefinitions(func(_ ir.Term, defs *ReachingDefinitions) {
			defs.FilterOut(notCovered)
		})

		iterations++
		if iterations >= maxIterations {
			log.Printf("dflow: fixpoint not reached after %d iterations analyzing %s, giving up", iterations, fn.Name)
			break
		}

		if changed {
			stableStreak = 0
		}
		stableStreak++
		if stableStreak == stableStreak3 {
			break
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	a.cleanup()
	return nil
}

// cleanup implements spec.md §4.1 step 3: a term has disappeared if its
// statement is no longer reachable from any basic block of the function
// it was built for (the IR builder detached it, e.g. by deinstrumenting
// a call mid-analysis via a Callback statement).
func (a *Analyzer) cleanup() {
	disappeared := func(t ir.Term) bool {
		stmt := t.Statement()
		if stmt == nil {
			return false
		}
		inst := stmt.Instruction()
		return inst == nil || inst.Block == nil
	}
	a.dataflow.pruneDisappeared(disappeared)
}

// execute dispatches a single statement, per spec.md §4.2.
func (a *Analyzer) execute(stmt ir.Statement, ec *ExecutionContext) {
	switch stmt.Kind() {
	case ir.KindInlineAssembly:
		// Deliberate no-op: conservative correctness would clear
		// reaching definitions here, but in practice that degrades
		// downstream code quality more than it helps.
	case ir.KindAssignment:
		as := stmt.(*ir.Assignment)
		a.evaluate(as.Value, ec)
		a.evaluate(as.Dest, ec)
		if as.Dest.IsWrite() {
			// The term evaluator never stores a written value anywhere
			// on its own — MemoryLocationAccess and Dereference only
			// record the location and the reaching-definition edge, per
			// §4.3/§4.4. Assignment is the one place that has both the
			// computed rhs value and the write-flagged lhs term in hand,
			// so it is the one that makes the lhs Value equal to what
			// was actually written; mergeReachingValues reads this
			// Value back out of the store when a later term's read
			// resolves to this definition.
			*a.dataflow.GetValue(as.Dest) = *a.dataflow.GetValue(as.Value)
		}
	case ir.KindJump:
		j := stmt.(*ir.Jump)
		if j.Condition != nil {
			a.evaluate(j.Condition, ec)
		}
		if j.Then.Address != nil {
			a.evaluate(j.Then.Address, ec)
		}
		if j.Else.Address != nil {
			a.evaluate(j.Else.Address, ec)
		}
	case ir.KindCall:
		c := stmt.(*ir.Call)
		if c.Target.Address != nil {
			a.evaluate(c.Target.Address, ec)
		}
	case ir.KindReturn:
		// no-op
	case ir.KindTouch:
		t := stmt.(*ir.Touch)
		a.evaluate(t.Value, ec)
	case ir.KindCallback:
		// The hook itself lives outside this package (dflow has no
		// business knowing what a deinstrumentation callback does);
		// callers register it via RegisterCallback and we look it up
		// by name here.
		if fn, ok := a.callbacks[stmt.(*ir.Callback).Name]; ok {
			fn(ec)
		}
	default:
		log.Printf("dflow: unknown statement kind %v", stmt.Kind())
	}
}

// RegisterCallback installs the hook a Callback statement named name
// will invoke when executed. Re-registering a name overwrites the
// previous hook.
func (a *Analyzer) RegisterCallback(name string, fn func(*ExecutionContext)) {
	if a.callbacks == nil {
		a.callbacks = map[string]func(*ExecutionContext){}
	}
	a.callbacks[name] = fn
}

// evaluate dispatches a single term, per spec.md §4.3.
func (a *Analyzer) evaluate(term ir.Term, ec *ExecutionContext) {
	switch term.Kind() {
	case ir.KindIntConst:
		c := term.(*ir.IntConst)
		v := a.dataflow.GetValue(term)
		v.SetAbstractValue(constAbstractValue(c))
		v.MakeNotStackOffset()
		v.MakeNotProduct()
	case ir.KindIntrinsic:
		a.evaluateIntrinsic(term.(*ir.Intrinsic), ec)
	case ir.KindMemoryLocationAccess:
		m := term.(*ir.MemoryLocationAccess)
		a.setMemoryLocation(term, m.Loc, ec)
	case ir.KindDereference:
		a.evaluateDereference(term.(*ir.Dereference), ec)
	case ir.KindUnaryOperator:
		a.executeUnaryOperator(term.(*ir.UnaryOperator), ec)
	case ir.KindBinaryOperator:
		a.executeBinaryOperator(term.(*ir.BinaryOperator), ec)
	case ir.KindChoice:
		a.evaluateChoice(term.(*ir.Choice), ec)
	default:
		log.Printf("dflow: unknown term kind %v", term.Kind())
	}
}

func (a *Analyzer) evaluateChoice(choice *ir.Choice, ec *ExecutionContext) {
	a.evaluate(choice.Preferred, ec)
	a.evaluate(choice.Default, ec)

	v := a.dataflow.GetValue(choice)
	if !a.dataflow.GetDefinitions(choice.Preferred).Empty() {
		*v = *a.dataflow.GetValue(choice.Preferred)
	} else {
		*v = *a.dataflow.GetValue(choice.Default)
	}
}
