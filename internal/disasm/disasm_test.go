package disasm

import "testing"

func TestDisassembleLinearSweep(t *testing.T) {
	// nop; ret
	data := []byte{0x90, 0xc3}
	insts := Disassemble(data, Options{BaseAddr: 0x1000})
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}
	if insts[0].Addr != 0x1000 || insts[1].Addr != 0x1001 {
		t.Errorf("addrs = %x, %x", insts[0].Addr, insts[1].Addr)
	}
	if bi := DecodeBranch(insts[1]); bi == nil || !bi.IsRet {
		t.Errorf("second instruction should decode as RET")
	}
}

func TestDisassembleStopsOnBadBytes(t *testing.T) {
	data := []byte{0x90, 0xe8, 0x01, 0x90} // nop; call rel32 cut short (truncated); nop
	insts := Disassemble(data, Options{})
	if len(insts) != 1 {
		t.Fatalf("got %d instructions, want only the leading nop before the undecodable bytes", len(insts))
	}
}

func TestDisassembleMaxSteps(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = 0x90 // nop
	}
	insts := Disassemble(data, Options{MaxSteps: 3})
	if len(insts) != 3 {
		t.Fatalf("got %d instructions, want 3", len(insts))
	}
}
