// Package disasm decodes x86-64 instruction streams and builds the
// per-function control-flow graph the rest of this system analyzes. It
// plays the role spec.md assigns to "the external
// parsing/disassembly/CFG reconstruction library" — kept as its own
// package, separate from the register-liveness core in internal/summary,
// so that core never reaches past Inst/BasicBlock/FuncCFG into raw bytes.
package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Inst is a decoded x86-64 instruction with its address and raw bytes.
type Inst struct {
	Addr    uint64
	Raw     []byte
	Len     int
	Decoded x86asm.Inst
	Text    string
}

// SymbolLookup resolves an address to a symbolic name. Returns ("", false)
// if unknown.
type SymbolLookup func(addr uint64) (name string, ok bool)

// Options controls disassembly behavior.
type Options struct {
	BaseAddr uint64 // VA of the first byte of the data passed to Disassemble
	MaxSteps int    // maximum instructions to decode; 0 = no explicit cap
}

const defaultMaxSteps = 10_000_000

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return defaultMaxSteps
}

// Disassemble linearly decodes x86-64 instructions from a byte region
// until the data is exhausted, a byte sequence fails to decode (the
// remainder is dropped — this is a best-effort linear sweep, not a
// recursive disassembler), or MaxSteps is reached.
func Disassemble(data []byte, opts Options) []Inst {
	maxSteps := opts.effectiveMax()

	var result []Inst
	off := 0
	for off < len(data) && len(result) < maxSteps {
		in, err := x86asm.Decode(data[off:], 64)
		if err != nil || in.Len == 0 {
			break
		}
		addr := opts.BaseAddr + uint64(off)
		result = append(result, Inst{
			Addr:    addr,
			Raw:     data[off : off+in.Len],
			Len:     in.Len,
			Decoded: in,
			Text:    x86asm.GNUSyntax(in, addr, nil),
		})
		off += in.Len
	}
	return result
}

// Format renders a sequence of instructions as one line per instruction:
// address, mnemonic/operands, and a symbolic annotation of the branch
// target when the symbol lookup resolves it.
func Format(insts []Inst, lookup SymbolLookup) string {
	var out []byte
	for _, in := range insts {
		line := fmt.Sprintf("%x:  %s", in.Addr, in.Text)
		if lookup != nil {
			if bi := DecodeBranch(in); bi != nil && !bi.Indirect {
				if name, ok := lookup(bi.Target); ok {
					line += "  ; " + name
				}
			}
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return string(out)
}
