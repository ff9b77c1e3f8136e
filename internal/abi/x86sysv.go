package abi

import "strconv"

// SystemVAMD64 is the ABI descriptor for the x86-64 System V calling
// convention used by Linux, macOS, and the BSDs. Its register classes are
// grounded on original_source/call_analyzer.cpp's FunctionSummary static
// initializer (the rdi/rsi/rdx/rcx/r8/r9/xmm0-7 param set, the
// rax/rdx/xmm0/xmm1 return set, the rcx/rsp/rbp not-killed adjustment).
type SystemVAMD64 struct{}

func (SystemVAMD64) Name() string   { return "x86-64-sysv" }
func (SystemVAMD64) AddrWidth() int { return 64 }

var x86SysvNames = map[int]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx",
	RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

func (SystemVAMD64) RegisterName(id int) string {
	if id >= XMM0 && id < XMM0+16 {
		n := id - XMM0
		return "xmm" + strconv.Itoa(n)
	}
	if name, ok := x86SysvNames[id]; ok {
		return name
	}
	return "?"
}

// CallReadRegisters is the six integer argument registers plus the eight
// vector argument registers of the System V AMD64 ABI.
func (SystemVAMD64) CallReadRegisters() RegisterSet {
	s := NewRegisterSet().With(RDI).With(RSI).With(RDX).With(RCX).With(R8).With(R9)
	for n := 0; n < 8; n++ {
		s = s.With(XMM(n))
	}
	return s
}

// ReturnRegisters is the integer return-value registers; the vector
// return slots (xmm0, xmm1) are added separately by ReturnRegs, per
// spec.md §3's "first two vector return slots at fixed indices."
func (SystemVAMD64) ReturnRegisters() RegisterSet {
	return NewRegisterSet().With(RAX).With(RDX)
}

// ReturnReadRegisters is the generic "survives a call" baseline before
// the rcx/rsp/rbp adjustment NotKilledRegs applies: return-value
// registers, the callee-saved integer registers, and the first two
// vector registers — the same baseline original_source's Dyninst ABI
// object reports before the program's own adjustment in main().
func (SystemVAMD64) ReturnReadRegisters() RegisterSet {
	return NewRegisterSet().
		With(RAX).With(RCX).With(RBX).With(RDX).
		With(R12).With(R13).With(R14).With(R15).
		With(XMM(0)).With(XMM(1))
}
