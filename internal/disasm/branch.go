package disasm

import "golang.org/x/arch/x86/x86asm"

// BranchInfo classifies a single instruction's control-flow effect.
type BranchInfo struct {
	IsCall     bool
	IsRet      bool
	IsSyscall  bool
	IsSysenter bool
	Cond       bool   // conditional jump (Jcc, JCXZ family, LOOP family)
	Indirect   bool   // target is a register or memory operand, not known statically
	Target     uint64 // valid iff !Indirect
}

// jccOps are the conditional-jump and loop mnemonics x86asm decodes to
// distinct Op values, all of which behave the same way for CFG purposes:
// taken-or-fallthrough.
var jccOps = map[x86asm.Op]bool{
	x86asm.JA: true, x86asm.JAE: true, x86asm.JB: true, x86asm.JBE: true,
	x86asm.JE: true, x86asm.JG: true, x86asm.JGE: true, x86asm.JL: true,
	x86asm.JLE: true, x86asm.JNE: true, x86asm.JNO: true, x86asm.JNP: true,
	x86asm.JNS: true, x86asm.JO: true, x86asm.JP: true, x86asm.JS: true,
	x86asm.JCXZ: true, x86asm.JECXZ: true, x86asm.JRCXZ: true,
	x86asm.LOOP: true, x86asm.LOOPE: true, x86asm.LOOPNE: true,
}

// DecodeBranch classifies inst's control-flow effect, or returns nil if
// inst is an ordinary sequential instruction.
func DecodeBranch(inst Inst) *BranchInfo {
	op := inst.Decoded.Op

	switch op {
	case x86asm.RET, x86asm.LRET:
		return &BranchInfo{IsRet: true}
	case x86asm.SYSCALL:
		return &BranchInfo{IsSyscall: true}
	case x86asm.SYSENTER:
		return &BranchInfo{IsSysenter: true}
	}

	isCall := op == x86asm.CALL || op == x86asm.LCALL
	isJmp := op == x86asm.JMP || op == x86asm.LJMP
	isCond := jccOps[op]

	if !isCall && !isJmp && !isCond {
		return nil
	}

	bi := &BranchInfo{IsCall: isCall, Cond: isCond}

	target, ok := branchTarget(inst)
	if !ok {
		bi.Indirect = true
		return bi
	}
	bi.Target = target
	return bi
}

// branchTarget resolves a call/jump's statically-known target address
// from its first operand. x86-64 relative branches encode their
// displacement relative to the address of the *next* instruction.
func branchTarget(inst Inst) (uint64, bool) {
	for _, arg := range inst.Decoded.Args {
		if arg == nil {
			continue
		}
		switch a := arg.(type) {
		case x86asm.Rel:
			return uint64(int64(inst.Addr) + int64(inst.Len) + int64(a)), true
		}
	}
	return 0, false
}
