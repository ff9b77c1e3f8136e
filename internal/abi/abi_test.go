package abi

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

func TestSystemVAMD64Sets(t *testing.T) {
	d := SystemVAMD64{}

	params := ParamRegs(d)
	for _, id := range []int{RDI, RSI, RDX, RCX, R8, R9, XMM(0), XMM(7)} {
		if !params.Has(id) {
			t.Errorf("ParamRegs missing id %d", id)
		}
	}
	if params.Has(RAX) {
		t.Error("ParamRegs should not contain rax")
	}

	ret := ReturnRegs(d)
	for _, id := range []int{RAX, RDX, XMM(0), XMM(1)} {
		if !ret.Has(id) {
			t.Errorf("ReturnRegs missing id %d", id)
		}
	}

	nk := NotKilledRegs(d)
	if nk.Has(RCX) {
		t.Error("NotKilledRegs should not contain rcx (caller-save, not in the adjusted set)")
	}
	for _, id := range []int{RSP, RBP, RAX, RBX, RDX, R12, R13, R14, R15, XMM(0), XMM(1)} {
		if !nk.Has(id) {
			t.Errorf("NotKilledRegs missing id %d", id)
		}
	}
}

func TestForAddrWidth(t *testing.T) {
	d, err := ForAddrWidth(64)
	if err != nil {
		t.Fatalf("ForAddrWidth(64) error: %v", err)
	}
	if d.Name() != "x86-64-sysv" {
		t.Errorf("Name() = %q", d.Name())
	}

	if _, err := ForAddrWidth(32); err == nil {
		t.Error("ForAddrWidth(32) should be rejected explicitly")
	}
}

func TestPromote(t *testing.T) {
	cases := []struct {
		name   string
		reg    x86asm.Reg
		wantID int
		wantOK bool
	}{
		{"al promotes to rax", x86asm.AL, RAX, true},
		{"eax promotes to rax", x86asm.EAX, RAX, true},
		{"rax is already canonical", x86asm.RAX, RAX, true},
		{"r8b promotes to r8", x86asm.R8B, R8, true},
		{"xmm0 has no narrower alias", x86asm.X0, XMM(0), true},
		{"xmm15 has no narrower alias", x86asm.X15, XMM(15), true},
		{"spb promotes to rsp", x86asm.SPB, RSP, true},
		{"bpb promotes to rbp", x86asm.BPB, RBP, true},
		{"sib promotes to rsi", x86asm.SIB, RSI, true},
		{"dib promotes to rdi", x86asm.DIB, RDI, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id, ok := Promote(c.reg)
			if ok != c.wantOK {
				t.Fatalf("ok = %v, want %v", ok, c.wantOK)
			}
			if ok && id != c.wantID {
				t.Errorf("id = %d, want %d", id, c.wantID)
			}
		})
	}
}

func TestPromoteOutsideUniverse(t *testing.T) {
	// Segment registers are outside the tracked universe at both the
	// promoted and the raw step, per spec.md §4.1.
	if _, ok := Promote(x86asm.ES); ok {
		t.Error("ES should be outside the tracked universe")
	}
}

func TestRegisterSetNames(t *testing.T) {
	d := SystemVAMD64{}
	s := NewRegisterSet().With(RDI).With(RSI)
	names := s.Names(d)
	// Names follows ascending register id: rsi (6) before rdi (7).
	if len(names) != 2 || names[0] != "rsi" || names[1] != "rdi" {
		t.Errorf("Names() = %v", names)
	}
}

func TestRegisterSetComplement(t *testing.T) {
	s := NewRegisterSet().With(RAX)
	c := s.Complement()
	if c.Has(RAX) {
		t.Error("complement should not contain rax")
	}
	if !c.Has(RCX) || !c.Has(XMM(0)) {
		t.Error("complement should contain every other tracked id")
	}
	if !c.Complement().Equal(s) {
		t.Error("complement should be its own inverse")
	}
}

func TestRegisterSetUnionIntersect(t *testing.T) {
	a := NewRegisterSet().With(RAX).With(RCX)
	b := NewRegisterSet().With(RCX).With(RDX)

	u := a.Union(b)
	for _, id := range []int{RAX, RCX, RDX} {
		if !u.Has(id) {
			t.Errorf("union missing %d", id)
		}
	}

	i := a.Intersect(b)
	if !i.Equal(NewRegisterSet().With(RCX)) {
		t.Errorf("intersect = %v, want {rcx}", i.Bits())
	}
}
