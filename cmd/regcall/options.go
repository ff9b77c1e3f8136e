package main

import (
	"errors"
	"fmt"
	"strings"
)

const programVersion = "0.9.0"

var (
	errHelp    = errors.New("help requested")
	errVersion = errors.New("version requested")
)

// options holds the parsed CLI surface of spec.md §6.
type options struct {
	help           bool
	version        bool
	debug          bool
	onlyToPltCalls bool
	indent         int
	programName    string
	inputFile      string
	outputFile     string
}

// processOptions scans args the way original_source/call_analyzer.cpp's
// Options::ProcessOptions does: a manual left-to-right scan, "--" ends
// option recognition, every remaining leading-dash argument before that
// point is fatal, and one to two positional arguments are required.
// Multiple failures are accumulated and reported together.
func processOptions(programName string, args []string) (*options, error) {
	opts := &options{onlyToPltCalls: true, indent: 2, programName: programName}

	var positional []string
	var failures []string
	lookingForOptions := true

	for _, arg := range args {
		if lookingForOptions && strings.HasPrefix(arg, "-") {
			switch arg {
			case "--help", "-h":
				opts.help = true
			case "--version", "-v":
				opts.version = true
			case "--debug":
				opts.debug = true
			case "--":
				lookingForOptions = false
			case "--compact-json":
				opts.indent = 0
			case "--all-calls":
				opts.onlyToPltCalls = false
			default:
				failures = append(failures, "Unknown option "+arg)
			}
		} else {
			lookingForOptions = false
			positional = append(positional, arg)
		}
	}

	if opts.help {
		return opts, errHelp
	}
	if opts.version {
		return opts, errVersion
	}

	if len(positional) < 1 {
		failures = append(failures, "binary input argument not specified")
	}
	if len(positional) > 2 {
		failures = append(failures, "Only two arguments are allowed")
	}

	if len(failures) > 0 {
		return opts, errors.New(strings.Join(failures, "\n"))
	}

	opts.inputFile = positional[0]
	if len(positional) == 2 {
		opts.outputFile = positional[1]
	}
	return opts, nil
}

func usage(programName string) string {
	return fmt.Sprintf(`Usage: %s [options] infile [outfile]
  --compact-json   minify json output
  --all-calls      include all calls to non-external functions
  --help           print this message and exit
  --version        print version and exit
`, programName)
}
