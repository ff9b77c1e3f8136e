// Package dwarfx extracts formal-parameter register locations from DWARF
// debug information, for the parameter-register seeding step of
// spec.md §4.3.2.
package dwarfx

import (
	"debug/dwarf"
	"encoding/binary"
	"errors"
)

// ParamLocation is one (lowPC, hiPC, register) tuple from a formal
// parameter's location list, already mapped to this system's ABI
// register id.
type ParamLocation struct {
	LowPC, HiPC uint64
	RegID       int
}

// ErrFuncNotFound reports that no DW_TAG_subprogram DIE has the
// requested entry address.
var ErrFuncNotFound = errors.New("dwarfx: no subprogram DIE at entry address")

// Params returns every register or register+offset location record
// attached to the formal parameters of the subprogram DIE whose
// DW_AT_low_pc equals entryPC. locData is the raw .debug_loc section
// bytes, used to resolve location records that are loclist pointers
// rather than inline expressions; a nil section is treated as empty.
func Params(data *dwarf.Data, locData []byte, byteOrder binary.ByteOrder, entryPC uint64) ([]ParamLocation, error) {
	r := data.Reader()

	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, ErrFuncNotFound
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}
		low, ok := entry.Val(dwarf.AttrLowpc).(uint64)
		if !ok || low != entryPC {
			continue
		}
		if !entry.Children {
			return nil, nil
		}
		return paramsOfSubprogram(r, locData, byteOrder)
	}
}

func paramsOfSubprogram(r *dwarf.Reader, locData []byte, byteOrder binary.ByteOrder) ([]ParamLocation, error) {
	var out []ParamLocation
	for {
		child, err := r.Next()
		if err != nil {
			return nil, err
		}
		if child == nil || child.Tag == 0 {
			return out, nil
		}
		if child.Tag != dwarf.TagFormalParameter {
			if child.Children {
				r.SkipChildren()
			}
			continue
		}

		switch v := child.Val(dwarf.AttrLocation).(type) {
		case []byte:
			if reg, ok := regFromExpr(v); ok {
				if id, ok := mapDwarfReg(reg); ok {
					out = append(out, ParamLocation{LowPC: 0, HiPC: ^uint64(0), RegID: id})
				}
			}
		case int64:
			out = append(out, decodeLegacyLocList(locData, byteOrder, uint64(v))...)
		}

		if child.Children {
			r.SkipChildren()
		}
	}
}

// decodeLegacyLocList parses a DWARF<=4 .debug_loc location list
// starting at the given byte offset: a sequence of (low, high) 8-byte
// address pairs, each followed by a 2-byte expression length and the
// expression bytes, terminated by an all-zero address pair. This
// package does not decode the DWARF5 .debug_loclists LLE-opcode
// encoding; a loclist in that format yields no records.
func decodeLegacyLocList(data []byte, byteOrder binary.ByteOrder, off uint64) []ParamLocation {
	var out []ParamLocation
	pos := int(off)
	for pos+16 <= len(data) {
		low := byteOrder.Uint64(data[pos : pos+8])
		high := byteOrder.Uint64(data[pos+8 : pos+16])
		pos += 16
		if low == 0 && high == 0 {
			break
		}
		if pos+2 > len(data) {
			break
		}
		length := int(byteOrder.Uint16(data[pos : pos+2]))
		pos += 2
		if pos+length > len(data) {
			break
		}
		expr := data[pos : pos+length]
		pos += length

		if reg, ok := regFromExpr(expr); ok {
			if id, ok := mapDwarfReg(reg); ok {
				out = append(out, ParamLocation{LowPC: low, HiPC: high, RegID: id})
			}
		}
	}
	return out
}
