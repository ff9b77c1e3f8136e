// Package jsonw is a minimal streaming JSON emitter with explicit
// open/close discipline and nesting correctness checks, in place of
// encoding/json's whole-value marshaling: the driver streams one
// function at a time without ever materializing the full document.
package jsonw

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
)

type itemType int

const (
	typeAny itemType = iota
	typeArrayElem
	typeObjectMember
)

type speciality int

const (
	specOrdinary speciality = iota
	specClosing
	specKey
)

type itemState struct {
	typ         itemType
	numElements int
	level       int
}

// Writer streams JSON tokens to an underlying io.Writer, tracking a
// stack of open containers to enforce correct nesting and to decide
// indentation and comma placement.
type Writer struct {
	w      *bufio.Writer
	indent int
	stack  []itemState
}

// New creates a Writer. indentSpaces of 0 selects compact output
// (spec.md §4.5); any positive value is the number of spaces per
// nesting level in pretty mode.
func New(w io.Writer, indentSpaces int) *Writer {
	wr := &Writer{w: bufio.NewWriter(w), indent: indentSpaces}
	wr.pushItem(typeAny)
	return wr
}

func (wr *Writer) cur() *itemState { return &wr.stack[len(wr.stack)-1] }

func (wr *Writer) pushItem(t itemType) {
	level := 0
	if len(wr.stack) > 0 {
		level = wr.cur().level + 1
	}
	wr.stack = append(wr.stack, itemState{typ: t, level: level})
}

func (wr *Writer) popItem(t itemType) {
	cur := wr.cur()
	if cur.typ != t {
		wr.fatal(fmt.Sprintf("mismatched close: have %d need %d", cur.typ, t))
	}
	if len(wr.stack) > 1 {
		wr.stack = wr.stack[:len(wr.stack)-1]
	}
}

func (wr *Writer) incElements() { wr.cur().numElements++ }

func (wr *Writer) requiresAllowsAnyType() {
	cur := wr.cur()
	if cur.typ == typeAny && cur.numElements != 0 {
		wr.fatal("only one top-level value is allowed")
	}
	if cur.typ == typeObjectMember && cur.numElements%2 == 0 {
		wr.fatal("expected AddMemberKey before a value")
	}
}

// writePreitemPunctuation emits the comma/newline/indentation/space that
// must precede the next token, then records the token. numElements is
// captured before any increment so the comma/space decision reflects
// how many siblings preceded this token, not including it.
func (wr *Writer) writePreitemPunctuation(sp speciality) {
	cur := wr.cur()
	typ := cur.typ
	numElements := cur.numElements
	isClosing := sp == specClosing

	if sp != specClosing {
		if sp == specOrdinary {
			wr.requiresAllowsAnyType()
		}
		wr.incElements()
	}

	if typ == typeArrayElem || typ == typeObjectMember {
		if numElements == 0 && isClosing {
			return
		}
		if typ == typeObjectMember && numElements%2 == 1 {
			if wr.indent != 0 {
				wr.w.WriteByte(' ')
			}
			return
		}
		if numElements > 0 && !isClosing {
			wr.w.WriteByte(',')
		}
	}

	if wr.indent != 0 && typ != typeAny {
		wr.w.WriteByte('\n')
	}

	level := cur.level
	if isClosing && level > 0 {
		level--
	}
	if wr.indent != 0 {
		wr.w.WriteString(strings.Repeat(" ", level*wr.indent))
	}
}

func (wr *Writer) writeDelim(delim byte, sp speciality) {
	wr.writePreitemPunctuation(sp)
	wr.w.WriteByte(delim)
}

func (wr *Writer) openItem(t itemType, delim byte) {
	wr.writeDelim(delim, specOrdinary)
	wr.pushItem(t)
}

func (wr *Writer) closeItem(t itemType, delim byte) {
	wr.writeDelim(delim, specClosing)
	wr.popItem(t)
}

// OpenArray starts a new array container.
func (wr *Writer) OpenArray() { wr.openItem(typeArrayElem, '[') }

// CloseArray ends the innermost array container.
func (wr *Writer) CloseArray() { wr.closeItem(typeArrayElem, ']') }

// OpenObject starts a new object container.
func (wr *Writer) OpenObject() { wr.openItem(typeObjectMember, '{') }

// CloseObject ends the innermost object container. Closing with a
// dangling key (an odd number of tokens written since OpenObject) is a
// programmer error.
func (wr *Writer) CloseObject() {
	if wr.cur().numElements%2 == 1 {
		wr.fatal("expected a value before CloseObject")
	}
	wr.closeItem(typeObjectMember, '}')
}

// AddMemberKey writes an object member's key. It must be followed by
// exactly one value token.
func (wr *Writer) AddMemberKey(s string) {
	wr.writePreitemPunctuation(specKey)
	wr.w.WriteString(jsonString(s))
	wr.w.WriteByte(':')
}

// AddString writes a string scalar.
func (wr *Writer) AddString(s string) {
	wr.writePreitemPunctuation(specOrdinary)
	wr.w.WriteString(jsonString(s))
}

// AddInt writes a signed integer scalar.
func (wr *Writer) AddInt(i int64) {
	wr.writePreitemPunctuation(specOrdinary)
	wr.w.WriteString(strconv.FormatInt(i, 10))
}

// AddUint writes an unsigned integer scalar.
func (wr *Writer) AddUint(u uint64) {
	wr.writePreitemPunctuation(specOrdinary)
	wr.w.WriteString(strconv.FormatUint(u, 10))
}

// AddBool writes a boolean scalar.
func (wr *Writer) AddBool(b bool) {
	wr.writePreitemPunctuation(specOrdinary)
	if b {
		wr.w.WriteString("true")
	} else {
		wr.w.WriteString("false")
	}
}

// AddNull writes the JSON null literal.
func (wr *Writer) AddNull() {
	wr.writePreitemPunctuation(specOrdinary)
	wr.w.WriteString("null")
}

// End asserts that every container has been closed and exactly one
// top-level value was written, then flushes the underlying writer.
func (wr *Writer) End() error {
	if wr.indent > 0 {
		wr.w.WriteByte('\n')
	}
	if len(wr.stack) > 1 {
		wr.fatal(fmt.Sprintf("missing %d close array(s)/object(s)", len(wr.stack)-1))
	}
	if len(wr.stack) != 1 {
		wr.fatal(fmt.Sprintf("invalid writer stack depth %d", len(wr.stack)))
	}
	if wr.cur().typ != typeAny {
		wr.fatal(fmt.Sprintf("invalid top-level item type %d", wr.cur().typ))
	}
	if wr.cur().numElements == 0 {
		wr.fatal("no value was written")
	}
	return wr.w.Flush()
}

// Reset discards all open containers and returns the writer to its
// initial state, so it can be reused for a fresh document.
func (wr *Writer) Reset() {
	wr.stack = wr.stack[:0]
	wr.pushItem(typeAny)
}

func jsonString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// fatal reports a programmer error in writer usage: unbalanced
// open/close, a dangling object key, or more than one top-level value.
// These cannot be triggered by binary input, so they are unrecoverable
// panics tagged with the caller's file:line, not swallowed errors.
func (wr *Writer) fatal(msg string) {
	// Skip this file's own frames: the internal call depth to fatal
	// differs by entry point.
	for skip := 2; ; skip++ {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			panic("jsonw: " + msg)
		}
		if !strings.HasSuffix(file, "/jsonw.go") {
			panic(fmt.Sprintf("%s:%d: jsonw: %s", file, line, msg))
		}
	}
}
