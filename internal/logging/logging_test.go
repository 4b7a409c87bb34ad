package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{"", LevelInfo, false},
		{" info ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"chatty", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHasFmtVerb(t *testing.T) {
	tests := map[string]bool{
		"loaded %d models": true,
		"100%% done":       false,
		"plain message":    false,
		"value %v":         true,
		"trailing %":       false,
	}
	for in, want := range tests {
		if got := hasFmtVerb(in); got != want {
			t.Errorf("hasFmtVerb(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStructuredJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(&LogConfig{Level: LevelInfo, Format: "json", Output: &buf})
	defer Init(nil)

	L_info("pipeline: done", "request", "abc", "bytes", 42)
	L_debug("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "pipeline: done" || entry["request"] != "abc" {
		t.Errorf("entry = %v", entry)
	}
}

func TestPrintfAndElapsed(t *testing.T) {
	var buf bytes.Buffer
	Init(&LogConfig{Level: LevelDebug, Format: "logfmt", Output: &buf})
	defer Init(nil)

	L_warn("retrying %d times", 3)
	L_elapsed(time.Now().Add(-time.Second), "stt: transcribed")

	out := buf.String()
	if !strings.Contains(out, "retrying 3 times") {
		t.Errorf("printf form not expanded: %q", out)
	}
	if !strings.Contains(out, "elapsed=") {
		t.Errorf("elapsed key missing: %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(&LogConfig{Level: LevelError, Format: "text", Output: &buf})
	defer Init(nil)

	L_info("before")
	SetLevel(LevelInfo)
	L_info("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("info logged at error level: %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("info missing after SetLevel: %q", out)
	}
}
