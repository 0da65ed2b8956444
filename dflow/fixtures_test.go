package dflow_test

import (
	"github.com/chubbymaggie/snowman/ir"
	"github.com/chubbymaggie/snowman/location"
)

// buildFunction assembles an ir.Function with one block per entry of
// stmtsPerBlock, out of already-built statements; wire, when non-nil,
// sets the blocks' successor edges. Each statement becomes its own
// single-statement Instruction at consecutive addresses starting at base.
func buildFunction(name string, base uint64, stmtsPerBlock [][]ir.Statement, wire func([]*ir.BasicBlock)) *ir.Function {
	fn := &ir.Function{Name: name}
	blocks := make([]*ir.BasicBlock, len(stmtsPerBlock))
	addr := base
	for i, stmts := range stmtsPerBlock {
		b := &ir.BasicBlock{Label: blockLabel(i)}
		for _, s := range stmts {
			inst := s.Instruction()
			inst.Address = addr
			inst.Size = 1
			inst.Statements = []ir.Statement{s}
			b.Instructions = append(b.Instructions, inst)
			addr++
		}
		blocks[i] = b
	}
	if wire != nil {
		wire(blocks)
	}
	for _, b := range blocks {
		fn.AddBlock(b)
	}
	return fn
}

func blockLabel(i int) string {
	return string(rune('A' + i))
}

// reg returns a register-domain MemoryLocation, addr and size in bits.
func reg(addr, size uint64) location.MemoryLocation {
	return location.New(location.Register, addr, size)
}

// mkInst builds a fresh *ir.Instruction for a statement constructor to
// bind to; the caller fills in Address/Size via buildFunction.
func mkInst() *ir.Instruction { return &ir.Instruction{} }
