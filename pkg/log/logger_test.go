package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(&buf))), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelGating(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{DisableTimestamp: true})
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN  shown") {
		t.Fatalf("missing warn entry: %q", out)
	}
}

func TestTextFormatterFields(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &TextFormatter{DisableTimestamp: true})
	l.With(Component("dispatch")).Info("done", Int("sent", 3), Str("note", "two words"))
	got := buf.String()
	want := "INFO  done component=dispatch note=\"two words\" sent=3\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	l.WithError(errors.New("boom")).Error("failed", Bool("retry", false))
	var obj map[string]any
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["level"] != "error" || obj["msg"] != "failed" || obj["error"] != "boom" || obj["retry"] != false {
		t.Fatalf("unexpected entry: %v", obj)
	}
}

func TestChildSharesLevel(t *testing.T) {
	l, buf := newBufferLogger(ErrorLevel, &TextFormatter{DisableTimestamp: true})
	child := l.With(Str("k", "v"))
	l.SetLevel(DebugLevel)
	child.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("child should observe parent level change: %q", buf.String())
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ApplyConfig(&Config{Level: "debug", Format: "json", Output: "null"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
}
