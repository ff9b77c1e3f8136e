// Package elfx provides ELF loading helpers for x86-64 binaries: symbol
// table enumeration, section resolution, and PLT stub name recovery.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ianlancetaylor/demangle"
)

var (
	ErrNotELF    = errors.New("elfx: not an ELF file")
	ErrNotX86_64 = errors.New("elfx: not x86-64 (EM_X86_64)")
	ErrBadType   = errors.New("elfx: not an executable or shared object")
	ErrNot64Bit  = errors.New("elfx: not 64-bit ELF")
	ErrNoSymbol  = errors.New("elfx: symbol not found")
	ErrNoSegment = errors.New("elfx: no PT_LOAD segment covers address")
)

// File wraps a debug/elf.File with convenience methods for function and
// PLT analysis.
type File struct {
	ELF  *elf.File
	raw  io.ReaderAt
	size int64
}

// Open opens an ELF file and validates it is a 64-bit x86-64 executable
// or shared object.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("elfx: stat: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	if ef.Class != elf.ELFCLASS64 {
		ef.Close()
		return nil, ErrNot64Bit
	}
	if ef.Machine != elf.EM_X86_64 {
		ef.Close()
		return nil, ErrNotX86_64
	}
	if ef.Type != elf.ET_EXEC && ef.Type != elf.ET_DYN {
		ef.Close()
		return nil, ErrBadType
	}

	return &File{ELF: ef, raw: f, size: info.Size()}, nil
}

// Close releases resources.
func (f *File) Close() error {
	return f.ELF.Close()
}

// FileSize returns the size of the underlying file.
func (f *File) FileSize() int64 { return f.size }

// ByteOrder returns the ELF byte order.
func (f *File) ByteOrder() binary.ByteOrder {
	return f.ELF.ByteOrder
}

// FuncSymbol is a defined, sized function symbol.
type FuncSymbol struct {
	Name    string
	Addr    uint64
	Size    uint64
	Section string // containing section name, "" if unresolved
}

// Functions returns every STT_FUNC symbol with a non-zero size and a
// defined section, from both the symbol table and the dynamic symbol
// table, sorted by address and deduplicated by address (the static
// symbol table wins when both define the same address).
func (f *File) Functions() ([]FuncSymbol, error) {
	byAddr := make(map[uint64]FuncSymbol)

	add := func(syms []elf.Symbol, preferExisting bool) {
		for _, s := range syms {
			if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Size == 0 {
				continue
			}
			if s.Section == elf.SHN_UNDEF {
				continue
			}
			if preferExisting {
				if _, ok := byAddr[s.Value]; ok {
					continue
				}
			}
			byAddr[s.Value] = FuncSymbol{
				Name:    demangle.Filter(s.Name),
				Addr:    s.Value,
				Size:    s.Size,
				Section: f.sectionName(s.Section),
			}
		}
	}

	syms, err := f.ELF.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("elfx: symtab: %w", err)
	}
	add(syms, false)

	dynsyms, err := f.ELF.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("elfx: dynsym: %w", err)
	}
	add(dynsyms, true)

	out := make([]FuncSymbol, 0, len(byAddr))
	for _, fn := range byAddr {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out, nil
}

func (f *File) sectionName(idx elf.SectionIndex) string {
	if int(idx) <= 0 || int(idx) >= len(f.ELF.Sections) {
		return ""
	}
	return f.ELF.Sections[idx].Name
}

// SectionForAddr returns the name of the section containing va, if any.
func (f *File) SectionForAddr(va uint64) (string, bool) {
	for _, s := range f.ELF.Sections {
		if s.Addr == 0 || s.Size == 0 {
			continue
		}
		if va >= s.Addr && va < s.Addr+s.Size {
			return s.Name, true
		}
	}
	return "", false
}

// Symbol looks up a symbol by exact name across both symbol tables.
func (f *File) Symbol(name string) (addr, size uint64, err error) {
	for _, lookup := range []func() ([]elf.Symbol, error){f.ELF.Symbols, f.ELF.DynamicSymbols} {
		syms, lerr := lookup()
		if lerr != nil {
			continue
		}
		for _, s := range syms {
			if s.Name == name {
				return s.Value, s.Size, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrNoSymbol, name)
}

// VAToFileOffset converts a virtual address to a file offset using
// PT_LOAD segments.
func (f *File) VAToFileOffset(va uint64) (uint64, error) {
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if va >= p.Vaddr && va < p.Vaddr+p.Memsz {
			offset := va - p.Vaddr + p.Off
			if offset >= uint64(f.size) {
				return 0, fmt.Errorf("elfx: VA 0x%x maps to offset 0x%x beyond file size 0x%x", va, offset, f.size)
			}
			return offset, nil
		}
	}
	return 0, fmt.Errorf("%w: VA 0x%x", ErrNoSegment, va)
}

// ReadAt reads bytes from the underlying file at the given file offset.
func (f *File) ReadAt(buf []byte, off int64) (int, error) {
	return f.raw.ReadAt(buf, off)
}

// ReadBytesAtVA reads up to n bytes starting at the given virtual address,
// clamped to the end of the file.
func (f *File) ReadBytesAtVA(va uint64, n int) ([]byte, error) {
	off, err := f.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	avail := f.size - int64(off)
	if avail <= 0 {
		return nil, fmt.Errorf("elfx: offset 0x%x at or past end of file", off)
	}
	if int64(n) > avail {
		n = int(avail)
	}
	buf := make([]byte, n)
	_, err = f.raw.ReadAt(buf, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("elfx: read at 0x%x: %w", off, err)
	}
	return buf, nil
}

// SegmentInfo describes a PT_LOAD segment.
type SegmentInfo struct {
	Vaddr  uint64
	Memsz  uint64
	Filesz uint64
	Offset uint64
	Flags  elf.ProgFlag
}

// LoadSegments returns all PT_LOAD segments.
func (f *File) LoadSegments() []SegmentInfo {
	var segs []SegmentInfo
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		segs = append(segs, SegmentInfo{
			Vaddr:  p.Vaddr,
			Memsz:  p.Memsz,
			Filesz: p.Filesz,
			Offset: p.Off,
			Flags:  p.Flags,
		})
	}
	return segs
}

// PLTStubs resolves every ".rela.plt"-relocated PLT stub to the demangled
// name of the dynamic symbol it resolves at runtime. x86-64 lazy-binding
// PLTs reserve a 16-byte PLT0 stub followed by one 16-byte stub per
// R_X86_64_JUMP_SLOT relocation, in the same order the relocations appear
// in .rela.plt — there is no other static link between a PLT stub address
// and the symbol it calls.
func (f *File) PLTStubs() (map[uint64]string, error) {
	pltSec := f.ELF.Section(".plt")
	relSec := f.ELF.Section(".rela.plt")
	if pltSec == nil || relSec == nil {
		return map[uint64]string{}, nil
	}

	dynsyms, err := f.ELF.DynamicSymbols()
	if err != nil {
		return nil, fmt.Errorf("elfx: dynsym: %w", err)
	}

	data, err := relSec.Data()
	if err != nil {
		return nil, fmt.Errorf("elfx: .rela.plt: %w", err)
	}

	return resolvePLTStubNames(data, pltSec.Addr, f.ELF.ByteOrder, dynsyms), nil
}

const relaEntSize = 24 // Elf64_Rela: Offset, Info, Addend, each 8 bytes
const pltStubSize = 16

// relocSymbolName resolves a raw .rela.plt relocation's symbol-table index
// to its demangled name. debug/elf's DynamicSymbols strips the null symbol
// at index 0 (see its doc comment: "an externally supplied index x
// corresponds to symtab[x-1], not symtab[x]"), so symIdx 0 never refers to
// a real symbol and symIdx n>=1 refers to dynsyms[n-1].
func relocSymbolName(dynsyms []elf.Symbol, symIdx uint64) string {
	if symIdx < 1 || int(symIdx-1) >= len(dynsyms) {
		return ""
	}
	return demangle.Filter(dynsyms[symIdx-1].Name)
}

// resolvePLTStubNames walks raw .rela.plt bytes and maps each PLT stub's
// address to the name of the dynamic symbol its R_X86_64_JUMP_SLOT
// relocation resolves, in relocation order, starting immediately after the
// reserved 16-byte PLT0 stub.
func resolvePLTStubNames(relaData []byte, pltAddr uint64, order binary.ByteOrder, dynsyms []elf.Symbol) map[uint64]string {
	out := make(map[uint64]string)
	stubAddr := pltAddr + pltStubSize // skip the reserved PLT0 stub
	for off := 0; off+relaEntSize <= len(relaData); off += relaEntSize {
		info := order.Uint64(relaData[off+8 : off+16])
		symIdx := info >> 32
		if name := relocSymbolName(dynsyms, symIdx); name != "" {
			out[stubAddr] = name
		}
		stubAddr += pltStubSize
	}
	return out
}
