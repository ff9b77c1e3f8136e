package dwarfx

import (
	"encoding/binary"
	"testing"

	"regcall/internal/abi"
)

func TestRegFromExprDirect(t *testing.T) {
	// DW_OP_reg5 (rdi in the DWARF numbering, index 5)
	reg, ok := regFromExpr([]byte{opReg0 + 5})
	if !ok || reg != 5 {
		t.Fatalf("reg=%d ok=%v, want 5,true", reg, ok)
	}
}

func TestRegFromExprBreg(t *testing.T) {
	// DW_OP_breg6 (rbp), offset -16 (sleb128, not decoded, just present)
	reg, ok := regFromExpr([]byte{opBreg0 + 6, 0x70})
	if !ok || reg != 6 {
		t.Fatalf("reg=%d ok=%v, want 6,true", reg, ok)
	}
}

func TestRegFromExprRegx(t *testing.T) {
	reg, ok := regFromExpr([]byte{opRegx, 0x0a}) // uleb128(10)
	if !ok || reg != 10 {
		t.Fatalf("reg=%d ok=%v, want 10,true", reg, ok)
	}
}

func TestRegFromExprUnsupportedOp(t *testing.T) {
	if _, ok := regFromExpr([]byte{0x03, 0, 0, 0, 0, 0, 0, 0, 0}); ok { // DW_OP_addr
		t.Error("DW_OP_addr should not decode as a register location")
	}
}

func TestMapDwarfRegGPRAndXMM(t *testing.T) {
	if id, ok := mapDwarfReg(5); !ok || id != abi.RDI {
		t.Errorf("dwarf reg 5 -> %d,%v, want rdi", id, ok)
	}
	if id, ok := mapDwarfReg(17); !ok || id != abi.XMM(0) {
		t.Errorf("dwarf reg 17 -> %d,%v, want xmm0", id, ok)
	}
	if _, ok := mapDwarfReg(16); ok {
		t.Error("dwarf reg 16 (rip) should be unmapped")
	}
}

func TestDecodeLegacyLocList(t *testing.T) {
	order := binary.LittleEndian
	buf := make([]byte, 0)

	appendEntry := func(low, high uint64, expr []byte) {
		var tmp [8]byte
		order.PutUint64(tmp[:], low)
		buf = append(buf, tmp[:]...)
		order.PutUint64(tmp[:], high)
		buf = append(buf, tmp[:]...)
		var l [2]byte
		order.PutUint16(l[:], uint16(len(expr)))
		buf = append(buf, l[:]...)
		buf = append(buf, expr...)
	}
	appendEntry(0x1000, 0x1010, []byte{opReg0 + 5}) // rdi (DWARF register 5)
	appendEntry(0x1010, 0x1020, []byte{opReg0 + 4}) // rsi (DWARF register 4)
	// terminator
	buf = append(buf, make([]byte, 16)...)

	locs := decodeLegacyLocList(buf, order, 0)
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}
	if locs[0].LowPC != 0x1000 || locs[0].HiPC != 0x1010 {
		t.Errorf("locs[0] = %+v", locs[0])
	}
	if locs[0].RegID != abi.RDI {
		t.Errorf("locs[0].RegID = %d, want rdi", locs[0].RegID)
	}
}

func TestDecodeLegacyLocListStopsAtTerminator(t *testing.T) {
	buf := make([]byte, 16) // all-zero terminator immediately
	locs := decodeLegacyLocList(buf, binary.LittleEndian, 0)
	if len(locs) != 0 {
		t.Errorf("expected no locations before a zero pair, got %d", len(locs))
	}
}
