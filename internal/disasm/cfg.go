package disasm

import "sort"

// BasicBlock is a maximal straight-line instruction run within a single
// function. A CALL instruction ends its block the same way a RET or jump
// does — the call transfers control to another function entirely, so
// nothing past it can be assumed live without going through the call's
// transfer function.
type BasicBlock struct {
	ID      int
	Start   int // index into FuncCFG.Insts (inclusive)
	End     int // index into FuncCFG.Insts (exclusive)
	IsEntry bool

	// Succs holds intraprocedural successor block ids: the fallthrough
	// block after a call or conditional jump, the taken target of a
	// jump, or both for a conditional jump. A block ending in RET,
	// an unconditional jump out of the function, or an unresolved
	// indirect jump has no successors.
	Succs []int

	IsCallBlock    bool
	CallInsnAddr   uint64
	CallTarget     uint64
	CallIndirect   bool
	IsSysCallBlock bool
}

// FuncCFG is a function's control flow graph over its decoded instructions.
type FuncCFG struct {
	Name   string
	Insts  []Inst
	Blocks []BasicBlock
}

// BuildCFG partitions a function's linear instruction stream into basic
// blocks and computes their intraprocedural successor edges, following
// the standard leader algorithm: the entry instruction, every branch
// target inside the function, and every instruction immediately after
// a block-ending instruction (RET, unconditional jump, conditional jump,
// CALL, SYSCALL or SYSENTER) are leaders; blocks run from one leader up
// to the next.
func BuildCFG(name string, insts []Inst) FuncCFG {
	if len(insts) == 0 {
		return FuncCFG{Name: name, Insts: insts}
	}

	funcStart := insts[0].Addr
	funcEnd := insts[len(insts)-1].Addr + uint64(insts[len(insts)-1].Len)

	addrToIdx := make(map[uint64]int, len(insts))
	for i, inst := range insts {
		addrToIdx[inst.Addr] = i
	}
	inFunc := func(addr uint64) (int, bool) {
		if addr < funcStart || addr >= funcEnd {
			return 0, false
		}
		idx, ok := addrToIdx[addr]
		return idx, ok
	}

	leaders := map[int]bool{0: true}
	for i, inst := range insts {
		bi := DecodeBranch(inst)
		if bi == nil {
			continue
		}
		if i+1 < len(insts) {
			leaders[i+1] = true
		}
		if !bi.IsCall && !bi.IsRet && !bi.Indirect {
			if idx, ok := inFunc(bi.Target); ok {
				leaders[idx] = true
			}
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	blocks := make([]BasicBlock, len(sorted))
	leaderToBlock := make(map[int]int, len(sorted))
	for i, start := range sorted {
		end := len(insts)
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		blocks[i] = BasicBlock{ID: i, Start: start, End: end, IsEntry: start == 0}
		leaderToBlock[start] = i
	}

	for i := range blocks {
		blk := &blocks[i]
		if blk.End <= blk.Start {
			continue
		}

		for idx := blk.Start; idx < blk.End; idx++ {
			bi := DecodeBranch(insts[idx])
			if bi != nil && (bi.IsSyscall || bi.IsSysenter) {
				blk.IsSysCallBlock = true
			}
		}

		last := insts[blk.End-1]
		bi := DecodeBranch(last)

		nextBlockID := func() (int, bool) {
			id, ok := leaderToBlock[blk.End]
			return id, ok
		}

		switch {
		case bi == nil:
			if next, ok := nextBlockID(); ok {
				blk.Succs = append(blk.Succs, next)
			}

		case bi.IsRet, bi.IsSyscall, bi.IsSysenter:
			// RET is terminal. SYSCALL/SYSENTER end their block (the
			// leader pass splits after them), are recorded above, and
			// fall through to the next block.
			if bi.IsRet {
				continue
			}
			if next, ok := nextBlockID(); ok {
				blk.Succs = append(blk.Succs, next)
			}

		case bi.IsCall:
			blk.IsCallBlock = true
			blk.CallInsnAddr = last.Addr
			if bi.Indirect {
				blk.CallIndirect = true
			} else {
				blk.CallTarget = bi.Target
			}
			if next, ok := nextBlockID(); ok {
				blk.Succs = append(blk.Succs, next)
			}

		case bi.Cond:
			if !bi.Indirect {
				if idx, ok := inFunc(bi.Target); ok {
					if tgt, ok := leaderToBlock[idx]; ok {
						blk.Succs = append(blk.Succs, tgt)
					}
				}
			}
			if next, ok := nextBlockID(); ok {
				blk.Succs = append(blk.Succs, next)
			}

		default: // unconditional jump
			if bi.Indirect {
				continue
			}
			if idx, ok := inFunc(bi.Target); ok {
				if tgt, ok := leaderToBlock[idx]; ok {
					blk.Succs = append(blk.Succs, tgt)
				}
			}
			// jump outside the function: terminal, no successor.
		}
	}

	return FuncCFG{Name: name, Insts: insts, Blocks: blocks}
}
