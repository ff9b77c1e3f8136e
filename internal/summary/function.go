package summary

import (
	"fmt"
	"sort"

	"regcall/internal/abi"
	"regcall/internal/disasm"
)

// ParamSeed is a single (lowPC, hiPC, register) location record from
// debug information, already resolved to this system's ABI register id.
// It is the summary package's view of internal/dwarfx's ParamLocation,
// kept as a distinct type so this package does not depend on how debug
// info is decoded.
type ParamSeed struct {
	LowPC, HiPC uint64
	RegID       int
}

// CalleeInfo resolves a call target address to the names attributed to
// it and whether that target lies in a PLT region, mirroring spec.md
// §4.3.4's external-CFG call-edge attribution contract.
type CalleeInfo interface {
	CalleeNames(addr uint64) []string
	IsPLT(addr uint64) bool
}

// CallRecord is one emitted call-site entry.
type CallRecord struct {
	CallInsnAddr  uint64
	CalledAddr    uint64
	HasCalledAddr bool
	CallToPlt     bool
	LiveRegisters []string
	FuncNames     []string
}

// FunctionSummary is the per-function analysis result: its block
// summaries, derived call-block set, and the ABI-derived register sets
// used throughout propagation and emission.
type FunctionSummary struct {
	Name        string
	Addr        uint64
	SectionName string
	IsInPlt     bool

	abiDesc       abi.Descriptor
	paramRegs     abi.RegisterSet
	returnRegs    abi.RegisterSet
	notKilledRegs abi.RegisterSet

	blocks     map[uint64]*BlockSummary
	order      []uint64 // block addresses, ascending
	callBlocks []uint64 // ascending

	// Warnings accumulates non-fatal construction diagnostics (e.g. a
	// duplicate block address reported by the external parser), per
	// spec.md §7's "internal invariant failure: log, continue" rule.
	Warnings []string
}

// New builds a FunctionSummary from a decoded function CFG. addr is the
// function's symbol-table entry address; sectionName/isInPlt are the
// function's own containing-section attribution (independent of any
// individual call's target attribution). d is the ABI descriptor for
// this binary, and params are the debug-info parameter location records
// for this function, if any were found.
func New(name string, addr uint64, sectionName string, isInPlt bool, cfg disasm.FuncCFG, d abi.Descriptor, params []ParamSeed) *FunctionSummary {
	fs := &FunctionSummary{
		Name:          name,
		Addr:          addr,
		SectionName:   sectionName,
		IsInPlt:       isInPlt,
		abiDesc:       d,
		paramRegs:     abi.ParamRegs(d),
		returnRegs:    abi.ReturnRegs(d),
		notKilledRegs: abi.NotKilledRegs(d),
		blocks:        make(map[uint64]*BlockSummary, len(cfg.Blocks)),
	}

	fs.buildBlocks(cfg)
	fs.seedParams(cfg, params)
	fs.propagate()

	return fs
}

func (fs *FunctionSummary) buildBlocks(cfg disasm.FuncCFG) {
	blockAddr := func(b disasm.BasicBlock) uint64 { return cfg.Insts[b.Start].Addr }

	for _, b := range cfg.Blocks {
		addr := blockAddr(b)
		if _, exists := fs.blocks[addr]; exists {
			fs.Warnings = append(fs.Warnings, fmt.Sprintf("duplicate block address 0x%x in function %q", addr, fs.Name))
			continue
		}

		used := abi.NewRegisterSet()
		for i := b.Start; i < b.End; i++ {
			used = used.Union(disasm.UsedRegs(cfg.Insts[i].Decoded))
		}

		bs := &BlockSummary{
			Addr:           addr,
			IsCallBlock:    b.IsCallBlock,
			CallInsnAddr:   b.CallInsnAddr,
			CallTarget:     b.CallTarget,
			CallIndirect:   b.CallIndirect,
			IsSysCallBlock: b.IsSysCallBlock,
			UsedRegs:       used,
			StartRegs:      abi.NewRegisterSet(),
		}
		fs.blocks[addr] = bs
		fs.order = append(fs.order, addr)
		if bs.IsCallBlock {
			fs.callBlocks = append(fs.callBlocks, addr)
		}
	}
	sort.Slice(fs.order, func(i, j int) bool { return fs.order[i] < fs.order[j] })
	sort.Slice(fs.callBlocks, func(i, j int) bool { return fs.callBlocks[i] < fs.callBlocks[j] })

	for _, b := range cfg.Blocks {
		addr := blockAddr(b)
		bs, ok := fs.blocks[addr]
		if !ok {
			continue
		}
		for _, succID := range b.Succs {
			succAddr := blockAddr(cfg.Blocks[succID])
			bs.succs = append(bs.succs, succAddr)
			if succBS, ok := fs.blocks[succAddr]; ok {
				succBS.preds = append(succBS.preds, addr)
			}
		}
	}
}

// seedParams marks registers used in the entry block per spec.md §4.3.2:
// any parameter location whose [lowPC, hiPC) interval overlaps the entry
// block's own address range is folded into that block's usedRegs.
func (fs *FunctionSummary) seedParams(cfg disasm.FuncCFG, params []ParamSeed) {
	if len(cfg.Blocks) == 0 || len(params) == 0 {
		return
	}
	entry := cfg.Blocks[0]
	entryStart := cfg.Insts[entry.Start].Addr
	last := cfg.Insts[entry.End-1]
	entryEnd := last.Addr + uint64(last.Len)

	entryBS := fs.blocks[entryStart]
	if entryBS == nil {
		return
	}

	for _, p := range params {
		if entryEnd > p.LowPC && entryStart < p.HiPC {
			entryBS.UsedRegs = entryBS.UsedRegs.With(p.RegID)
		}
	}
}

// propagate runs the work-list fixed-point computation of spec.md §4.3.3,
// removing the smallest pending address each iteration so that
// convergence is deterministic and output is byte-reproducible.
func (fs *FunctionSummary) propagate() {
	pending := make(map[uint64]bool, len(fs.order))
	for _, a := range fs.order {
		pending[a] = true
	}

	for len(pending) > 0 {
		addr := smallestPending(pending)
		delete(pending, addr)
		blk := fs.blocks[addr]

		newStart := abi.NewRegisterSet()
		for _, p := range blk.preds {
			newStart = newStart.Union(fs.blocks[p].OutRegs(fs.notKilledRegs, fs.returnRegs))
		}

		if !newStart.Equal(blk.StartRegs) {
			blk.StartRegs = newStart
			for _, s := range blk.succs {
				pending[s] = true
			}
		}
	}
}

func smallestPending(pending map[uint64]bool) uint64 {
	var min uint64
	first := true
	for a := range pending {
		if first || a < min {
			min = a
			first = false
		}
	}
	return min
}

// Calls enumerates this function's call-site records in ascending
// call-block address order, applying spec.md §4.3.4's liveParams rule
// (usedRegs ∩ ParamRegs, not CallSiteRegs — see DESIGN.md's open-question
// decision) and the onlyToPlt filter.
func (fs *FunctionSummary) Calls(info CalleeInfo, onlyToPlt bool) []CallRecord {
	var out []CallRecord
	for _, addr := range fs.callBlocks {
		blk := fs.blocks[addr]

		liveParams := blk.UsedRegs.Intersect(fs.paramRegs)
		regNames := liveParams.Names(fs.abiDesc)

		var rec CallRecord
		rec.CallInsnAddr = blk.CallInsnAddr
		rec.LiveRegisters = regNames

		if blk.CallIndirect {
			rec.HasCalledAddr = false
			rec.CallToPlt = false
			rec.FuncNames = nil
		} else {
			rec.HasCalledAddr = true
			rec.CalledAddr = blk.CallTarget
			if info != nil {
				rec.FuncNames = info.CalleeNames(blk.CallTarget)
				rec.CallToPlt = info.IsPLT(blk.CallTarget)
			}
		}

		if onlyToPlt && !rec.CallToPlt {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Blocks exposes the function's block summaries for inspection and
// testing, keyed by start address.
func (fs *FunctionSummary) Blocks() map[uint64]*BlockSummary { return fs.blocks }
