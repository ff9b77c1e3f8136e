package abi

import (
	"strconv"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// x86asm exposes registers at sub-register granularity (al/ah/ax/eax/rax
// are distinct x86asm.Reg values for the same physical register).
// gprCanonicalID maps every GPR alias's display name, by its 64-bit form,
// to its ABI register id. Segment registers, flags, and control/debug
// registers have no entry and are therefore outside the tracked universe.
var gprCanonicalID = map[string]int{
	"rax": RAX, "rcx": RCX, "rdx": RDX, "rbx": RBX,
	"rsp": RSP, "rbp": RBP, "rsi": RSI, "rdi": RDI,
	"r8": R8, "r9": R9, "r10": R10, "r11": R11,
	"r12": R12, "r13": R13, "r14": R14, "r15": R15,
}

// gprAliasOf64 maps every sub-register alias name to the name of its
// widest (64-bit) ABI-visible form, i.e. the "promotion" of spec.md
// §4.1: "ask the register to promote itself to its widest ABI-visible
// alias."
var gprAliasOf64 = map[string]string{
	"al": "rax", "ah": "rax", "ax": "rax", "eax": "rax", "rax": "rax",
	"cl": "rcx", "ch": "rcx", "cx": "rcx", "ecx": "rcx", "rcx": "rcx",
	"dl": "rdx", "dh": "rdx", "dx": "rdx", "edx": "rdx", "rdx": "rdx",
	"bl": "rbx", "bh": "rbx", "bx": "rbx", "ebx": "rbx", "rbx": "rbx",
	"spb": "rsp", "sp": "rsp", "esp": "rsp", "rsp": "rsp",
	"bpb": "rbp", "bp": "rbp", "ebp": "rbp", "rbp": "rbp",
	"sib": "rsi", "si": "rsi", "esi": "rsi", "rsi": "rsi",
	"dib": "rdi", "di": "rdi", "edi": "rdi", "rdi": "rdi",
}

func init() {
	for n := 8; n <= 15; n++ {
		name := "r" + strconv.Itoa(n)
		gprAliasOf64[name+"b"] = name
		gprAliasOf64[name+"w"] = name
		gprAliasOf64[name+"l"] = name // 32-bit alias, e.g. "r8l" == r8d
		gprAliasOf64[name+"d"] = name
		gprAliasOf64[name] = name
	}
}

// Promote maps reg to its canonical ABI-indexed form and reports its
// register id in the universe this package tracks, following spec.md
// §4.1's "promote then index, fall back to raw" rule:
//
//  1. Ask the register to promote itself to its widest ABI-visible alias.
//  2. If the promoted form has a valid ABI index, use it.
//  3. Otherwise, fall back to the unpromoted register's ABI index.
//
// A register with no ABI index at either step is reported as (0, false)
// and is silently ignored by callers, exactly as spec.md specifies.
func Promote(reg x86asm.Reg) (id int, ok bool) {
	name := strings.ToLower(reg.String())

	if canonName, isGPR := gprAliasOf64[name]; isGPR {
		if id, ok := gprCanonicalID[canonName]; ok {
			return id, true
		}
	}
	if id, ok := gprCanonicalID[name]; ok {
		return id, true
	}

	if n, isXMM := xmmIndex(name); isXMM {
		return XMM(n), true
	}

	return 0, false
}

// xmmIndex parses x86asm's vector register display name, "x<n>" (X0..X15
// in x86asm.Reg.String(), lowercased by the caller). x86asm's vector
// registers have no narrower sub-register aliases the way GPRs do, so
// there is nothing to promote — the raw form is already canonical.
func xmmIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "x") {
		return 0, false
	}
	digits := name[1:]
	if digits == "" {
		return 0, false
	}
	n := 0
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n < 0 || n > 15 {
		return 0, false
	}
	return n, true
}
