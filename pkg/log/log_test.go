package log

import (
	"bytes"
	"strings"
	"testing"
)

// helper resets output and returns buffer and logger
func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForService(name), buf
}

func TestPrefixInfo(t *testing.T) {
	SetGlobalDebug(false)

	const name = "prefix_service_test"
	l, buf := newTestLogger(t, name)

	l.Infof("demande enregistrée")
	out := buf.String()

	if !strings.Contains(out, "["+name+">]") {
		t.Fatalf("expected prefix [%s>] in output, got: %q", name, out)
	}
	if !strings.Contains(out, "demande enregistrée") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestDebugPerService(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_specific"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug message should be suppressed, got: %q", buf.String())
	}

	EnableDebugFor(name)
	l.Debugf("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug message should be printed after EnableDebugFor, got: %q", buf.String())
	}

	DisableDebugFor(name)
	buf.Reset()
	l.Debugf("hidden again")
	if strings.Contains(buf.String(), "hidden again") {
		t.Fatalf("debug message should be suppressed after DisableDebugFor, got: %q", buf.String())
	}
}

func TestGlobalDebug(t *testing.T) {
	const name = "debug_service_global"
	l, buf := newTestLogger(t, name)

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	l.Debugf("global debug line")
	if !strings.Contains(buf.String(), "global debug line") {
		t.Fatalf("expected debug output with global debug enabled, got: %q", buf.String())
	}
	if !GlobalDebug() {
		t.Fatal("GlobalDebug should report true")
	}
}

func TestForServiceMemoizes(t *testing.T) {
	a := ForService("memo_test")
	b := ForService("memo_test")
	if a != b {
		t.Fatal("ForService should return the same logger for the same name")
	}
}

func TestForServiceEmptyName(t *testing.T) {
	l := ForService("")
	if l == nil {
		t.Fatal("ForService(\"\") should return a logger")
	}
	if l.name != "unknown" {
		t.Fatalf("expected fallback name %q, got %q", "unknown", l.name)
	}
}
