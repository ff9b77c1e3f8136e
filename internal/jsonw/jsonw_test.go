package jsonw

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestCompactObjectRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.OpenObject()
	w.AddMemberKey("funcName")
	w.AddString("main")
	w.AddMemberKey("funcAddr")
	w.AddInt(4096)
	w.AddMemberKey("isInPlt")
	w.AddBool(false)
	w.AddMemberKey("calledAddr")
	w.AddNull()
	w.CloseObject()
	if err := w.End(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(buf.String(), "\n") {
		t.Errorf("compact mode should emit no newlines, got %q", buf.String())
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded["funcName"] != "main" {
		t.Errorf("funcName = %v", decoded["funcName"])
	}
}

func TestPrettyModeIndents(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, 2)
	w.OpenObject()
	w.AddMemberKey("calls")
	w.OpenArray()
	w.CloseArray()
	w.CloseObject()
	if err := w.End(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n") {
		t.Error("pretty mode should emit newlines")
	}
}

func TestArrayOfObjects(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.OpenArray()
	for i := 0; i < 3; i++ {
		w.OpenObject()
		w.AddMemberKey("i")
		w.AddInt(int64(i))
		w.CloseObject()
	}
	w.CloseArray()
	if err := w.End(); err != nil {
		t.Fatal(err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("got %d elements, want 3", len(decoded))
	}
}

func TestStringEscaping(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.AddString("quote\"backslash\\newline\nend")
	if err := w.End(); err != nil {
		t.Fatal(err)
	}
	var s string
	if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if s != "quote\"backslash\\newline\nend" {
		t.Errorf("round-tripped string = %q", s)
	}
}

func TestCloseObjectWithDanglingKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a dangling object key")
		}
	}()
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.OpenObject()
	w.AddMemberKey("key")
	w.CloseObject()
}

func TestMultipleTopLevelValuesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a second top-level value")
		}
	}()
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.AddInt(1)
	w.AddInt(2)
}

func TestEndWithUnclosedContainerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unclosed array")
		}
	}()
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.OpenArray()
	w.End()
}

func TestReset(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, 0)
	w.OpenArray()
	w.OpenObject()
	w.Reset()
	w.AddInt(1) // should succeed: Reset cleared the stack back to top-level
	if err := w.End(); err != nil {
		t.Fatal(err)
	}
}
