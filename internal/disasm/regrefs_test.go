package disasm

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"regcall/internal/abi"
)

func TestUsedRegsExplicitOperands(t *testing.T) {
	inst := mkInst(0x1000, 3, x86asm.MOV, x86asm.Reg(x86asm.RBX), x86asm.Reg(x86asm.EAX))
	set := UsedRegs(inst.Decoded)
	if !set.Has(abi.RBX) {
		t.Error("missing rbx")
	}
	if !set.Has(abi.RAX) {
		t.Error("eax should promote to rax")
	}
}

func TestUsedRegsMemoryOperand(t *testing.T) {
	inst := mkInst(0x1000, 4, x86asm.MOV, x86asm.Reg(x86asm.RAX),
		x86asm.Mem{Base: x86asm.RDI, Index: x86asm.RCX})
	set := UsedRegs(inst.Decoded)
	for _, id := range []int{abi.RAX, abi.RDI, abi.RCX} {
		if !set.Has(id) {
			t.Errorf("missing register id %d", id)
		}
	}
}

func TestUsedRegsImplicitCallPushesStack(t *testing.T) {
	inst := mkInst(0x1000, 5, x86asm.CALL, x86asm.Rel(0x10))
	set := UsedRegs(inst.Decoded)
	if !set.Has(abi.RSP) {
		t.Error("CALL should implicitly reference rsp")
	}
}

func TestUsedRegsLeaveTouchesFrame(t *testing.T) {
	inst := mkInst(0x1000, 1, x86asm.LEAVE)
	set := UsedRegs(inst.Decoded)
	if !set.Has(abi.RSP) || !set.Has(abi.RBP) {
		t.Error("LEAVE should reference both rsp and rbp")
	}
}
