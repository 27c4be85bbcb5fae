package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetOutputFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, WARN)
	defer SetOutput(nil, DEBUG)

	Debug(AreaProgram, "hidden %d", 1)
	Info(AreaProgram, "hidden %d", 2)
	Warn(AreaProgram, "poke ignored at %d", 4718)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("entries below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[PROGRAM] poke ignored at 4718") {
		t.Errorf("warning missing from output: %q", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Errorf("level name missing: %q", out)
	}
}

func TestAreaSwitches(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, DEBUG)
	defer SetOutput(nil, DEBUG)

	DisableArea(AreaTokenizer)
	if GetAreaStatus(AreaTokenizer) {
		t.Fatalf("tokenizer area still enabled")
	}
	Debug(AreaTokenizer, "silent")
	if buf.Len() != 0 {
		t.Errorf("disabled area produced output: %q", buf.String())
	}

	EnableArea(AreaTokenizer)
	Debug(AreaTokenizer, "loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("enabled area produced no output")
	}
}

func TestUninitializedIsSilent(t *testing.T) {
	SetOutput(nil, DEBUG)
	// must not panic
	Error(AreaGeneral, "nobody listens")
	if GetAreaStatus(AreaGeneral) {
		t.Errorf("area reported enabled without a logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"WARNING": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
