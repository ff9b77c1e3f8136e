// Command regcall analyzes every function in an x86-64 ELF binary and
// reports, for each call site, which System V AMD64 argument-passing
// registers are live — the register-liveness call-site analysis of
// original_source/call_analyzer.cpp, re-expressed over Go's ELF/DWARF
// and disassembly tooling.
package main

import (
	"debug/dwarf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"regcall/internal/abi"
	"regcall/internal/disasm"
	"regcall/internal/dwarfx"
	"regcall/internal/elfx"
	"regcall/internal/jsonw"
	"regcall/internal/summary"
	"regcall/internal/tracelog"

	"github.com/charmbracelet/log"
)

func main() {
	progName := filepath.Base(os.Args[0])
	opts, err := processOptions(progName, os.Args[1:])
	switch err {
	case errHelp:
		fmt.Fprint(os.Stderr, usage(progName))
		os.Exit(0)
	case errVersion:
		fmt.Fprintf(os.Stderr, "%s version %s\n", progName, programVersion)
		os.Exit(0)
	}
	if err != nil {
		fail(progName, err)
	}

	logger := tracelog.New(progName, opts.debug)

	out := io.Writer(os.Stdout)
	if opts.outputFile != "" {
		f, ferr := os.Create(opts.outputFile)
		if ferr != nil {
			fail(progName, fmt.Errorf("opening output file %q: %w", opts.outputFile, ferr))
		}
		defer f.Close()
		out = f
	}

	if err := run(opts, logger, out); err != nil {
		fail(progName, err)
	}
}

func fail(progName string, err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n%s\n", progName, err)
	os.Exit(1)
}

func run(opts *options, logger *log.Logger, out io.Writer) error {
	ef, err := elfx.Open(opts.inputFile)
	if err != nil {
		return err
	}
	defer ef.Close()

	// Open already validated ELFCLASS64 + EM_X86_64; the only ABI this
	// driver can target is therefore System V AMD64.
	desc, err := abi.ForAddrWidth(64)
	if err != nil {
		return err
	}

	funcs, err := ef.Functions()
	if err != nil {
		return fmt.Errorf("enumerating functions: %w", err)
	}
	if len(funcs) == 0 {
		logger.Warn("no function symbols found in binary")
	}

	pltStubs, err := ef.PLTStubs()
	if err != nil {
		return fmt.Errorf("resolving PLT stubs: %w", err)
	}

	dwarfData, derr := ef.ELF.DWARF()
	if derr != nil {
		logger.Debug("no usable DWARF debug info, parameter seeding disabled", "err", derr)
		dwarfData = nil
	}
	var locData []byte
	if sec := ef.ELF.Section(".debug_loc"); sec != nil {
		if data, lerr := sec.Data(); lerr == nil {
			locData = data
		}
	}

	resolver := newCalleeResolver(funcs, pltStubs, ef)

	w := jsonw.New(out, opts.indent)
	w.OpenObject()
	w.AddMemberKey("functions")
	w.OpenArray()

	for _, fn := range funcs {
		code, rerr := ef.ReadBytesAtVA(fn.Addr, int(fn.Size))
		if rerr != nil {
			logger.Warn("skipping function: could not read code bytes", "func", fn.Name, "err", rerr)
			continue
		}

		insts := disasm.Disassemble(code, disasm.Options{BaseAddr: fn.Addr})
		cfg := disasm.BuildCFG(fn.Name, insts)

		seeds := paramSeeds(dwarfData, locData, ef.ByteOrder(), fn.Addr, logger)

		isInPlt := strings.Contains(fn.Section, ".plt")
		fs := summary.New(fn.Name, fn.Addr, fn.Section, isInPlt, cfg, desc, seeds)
		for _, warning := range fs.Warnings {
			logger.Warn(warning)
		}

		writeFunction(w, fs, resolver, opts.onlyToPltCalls)
	}

	w.CloseArray()
	w.CloseObject()
	return w.End()
}

// paramSeeds resolves the formal-parameter register locations attached to
// the subprogram DIE at entry address addr, if debug info is present.
// Absence of debug info, or of a matching DIE, is not an error: it simply
// means no parameters are seeded, per spec.md §4.3.2's "best effort" rule.
func paramSeeds(data *dwarf.Data, locData []byte, byteOrder binary.ByteOrder, addr uint64, logger *log.Logger) []summary.ParamSeed {
	if data == nil {
		return nil
	}
	locs, err := dwarfx.Params(data, locData, byteOrder, addr)
	if err != nil {
		if !errors.Is(err, dwarfx.ErrFuncNotFound) {
			logger.Debug("param location lookup failed", "addr", fmt.Sprintf("0x%x", addr), "err", err)
		}
		return nil
	}
	seeds := make([]summary.ParamSeed, len(locs))
	for i, l := range locs {
		seeds[i] = summary.ParamSeed{LowPC: l.LowPC, HiPC: l.HiPC, RegID: l.RegID}
	}
	return seeds
}
