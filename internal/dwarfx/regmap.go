package dwarfx

import "regcall/internal/abi"

// dwarfToABI maps a System V x86-64 psABI DWARF register number (as used
// in DW_OP_reg*/DW_OP_breg* operands) to this package's ABI register id.
// Registers outside this table (rip, flags, segment bases, x87/MMX,
// debug/control registers) have no location-seeding role and are
// reported as unmapped.
var dwarfToABI = map[int]int{
	0: abi.RAX, 1: abi.RDX, 2: abi.RCX, 3: abi.RBX,
	4: abi.RSI, 5: abi.RDI, 6: abi.RBP, 7: abi.RSP,
	8: abi.R8, 9: abi.R9, 10: abi.R10, 11: abi.R11,
	12: abi.R12, 13: abi.R13, 14: abi.R14, 15: abi.R15,
}

func init() {
	for n := 0; n <= 15; n++ {
		dwarfToABI[17+n] = abi.XMM(n)
	}
}

// mapDwarfReg translates a DWARF register number to this package's ABI
// register id, or reports it as unmapped.
func mapDwarfReg(n int) (int, bool) {
	id, ok := dwarfToABI[n]
	return id, ok
}
