package main

import (
	"fmt"
	"strings"

	"regcall/internal/elfx"
)

// calleeResolver implements summary.CalleeInfo over a single opened ELF
// file's merged function-symbol and PLT-stub tables, with the fallback
// naming rule of SPEC_FULL.md's symbol-resolution module: an address with
// no symbol gets a synthesized "sub_<addr>" name rather than being left
// empty.
type calleeResolver struct {
	names    map[uint64]string
	pltAddrs map[uint64]bool
	ef       *elfx.File
}

func newCalleeResolver(funcs []elfx.FuncSymbol, pltStubs map[uint64]string, ef *elfx.File) *calleeResolver {
	names := make(map[uint64]string, len(funcs)+len(pltStubs))
	for _, f := range funcs {
		names[f.Addr] = f.Name
	}
	pltAddrs := make(map[uint64]bool, len(pltStubs))
	for addr, name := range pltStubs {
		names[addr] = name
		pltAddrs[addr] = true
	}
	return &calleeResolver{names: names, pltAddrs: pltAddrs, ef: ef}
}

func (r *calleeResolver) CalleeNames(addr uint64) []string {
	if name, ok := r.names[addr]; ok && name != "" {
		return []string{name}
	}
	return []string{fmt.Sprintf("sub_%x", addr)}
}

func (r *calleeResolver) IsPLT(addr uint64) bool {
	if r.pltAddrs[addr] {
		return true
	}
	sec, ok := r.ef.SectionForAddr(addr)
	return ok && strings.Contains(sec, ".plt")
}
