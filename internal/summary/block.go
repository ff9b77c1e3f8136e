// Package summary computes, per function, the register-liveness dataflow
// over its control-flow graph and the resulting per-call-site summaries.
// This is the analytical core: everything in internal/disasm, internal/elfx,
// and internal/dwarfx exists to feed this package concrete blocks,
// instructions, symbols, and parameter locations.
package summary

import "regcall/internal/abi"

// BlockSummary holds the per-block state of the liveness dataflow: the
// registers the block itself references (usedRegs), the registers live
// on entry to the block once propagation converges (startRegs), and
// whatever call/syscall classification the block carries.
type BlockSummary struct {
	Addr uint64

	IsCallBlock    bool
	CallInsnAddr   uint64
	CallTarget     uint64
	CallIndirect   bool
	IsSysCallBlock bool

	UsedRegs  abi.RegisterSet
	StartRegs abi.RegisterSet

	preds []uint64
	succs []uint64
}

// OutRegs is the liveness view at the block's exit: usedRegs ∪ startRegs,
// masked through the call-site transfer function when the block ends in
// a call — only not-killed registers survive the call, plus whatever the
// callee returns.
func (b *BlockSummary) OutRegs(notKilled, returnRegs abi.RegisterSet) abi.RegisterSet {
	out := b.UsedRegs.Union(b.StartRegs)
	if b.IsCallBlock {
		out = out.Intersect(notKilled).Union(returnRegs)
	}
	return out
}

// CallSiteRegs is the liveness view at the call instruction itself,
// before the call's clobber is applied: usedRegs ∪ startRegs.
func (b *BlockSummary) CallSiteRegs() abi.RegisterSet {
	return b.UsedRegs.Union(b.StartRegs)
}

// Predecessors returns the addresses of blocks with an intraprocedural
// edge into this block.
func (b *BlockSummary) Predecessors() []uint64 { return b.preds }

// Successors returns the addresses of blocks this block has an
// intraprocedural edge to.
func (b *BlockSummary) Successors() []uint64 { return b.succs }
