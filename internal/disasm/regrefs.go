package disasm

import (
	"golang.org/x/arch/x86/x86asm"

	"regcall/internal/abi"
)

// implicitStackEffect reports the extra registers an instruction touches
// beyond its explicit operands. x86asm's Args never surfaces the
// implicit rsp/rbp effects of stack instructions, but spec.md §4.2 needs
// every register an instruction reads or writes, so this table supplies
// them — the closest this decoder gets to Dyninst's InstructionAPI
// semantic read/write sets.
func implicitStackEffect(op x86asm.Op) []x86asm.Reg {
	switch op {
	case x86asm.PUSH, x86asm.POP, x86asm.CALL, x86asm.LCALL, x86asm.RET, x86asm.LRET:
		return []x86asm.Reg{x86asm.RSP}
	case x86asm.LEAVE:
		return []x86asm.Reg{x86asm.RSP, x86asm.RBP}
	case x86asm.ENTER:
		return []x86asm.Reg{x86asm.RSP, x86asm.RBP}
	}
	return nil
}

// UsedRegs returns the union of registers an instruction references —
// every explicit register operand, every memory operand's base/index
// register, and any implicit stack-pointer/frame-pointer effect —
// promoted to their canonical ABI ids. This is spec.md §4.2's
// "compute read-set ∪ write-set, promote each register" rule, collapsed
// into a single union because the core only ever needs the union.
func UsedRegs(in x86asm.Inst) abi.RegisterSet {
	set := abi.NewRegisterSet()

	add := func(r x86asm.Reg) {
		if r == 0 {
			return
		}
		if id, ok := abi.Promote(r); ok {
			set = set.With(id)
		}
	}

	for _, arg := range in.Args {
		if arg == nil {
			continue
		}
		switch a := arg.(type) {
		case x86asm.Reg:
			add(a)
		case x86asm.Mem:
			add(a.Base)
			add(a.Index)
		}
	}

	for _, r := range implicitStackEffect(in.Op) {
		add(r)
	}

	return set
}
