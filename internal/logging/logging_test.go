package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{" error ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(LevelWarn, &buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if strings.Count(out, "shown") != 2 {
		t.Errorf("expected 2 lines, got %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") {
		t.Errorf("missing warn line: %q", out)
	}
}

func TestLogger_NamedSharesSink(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithOutput(LevelDebug, &buf)
	root.sink.now = func() time.Time { return time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC) }

	child := root.Named("timeline").Named("arc")
	child.Info("started %s", "BEL")

	want := "12:30:00.000 [INFO] timeline.arc: started BEL\n"
	if buf.String() != want {
		t.Errorf("line = %q, want %q", buf.String(), want)
	}

	// Level changes on the parent apply to children
	root.SetLevel(LevelError)
	child.Info("dropped")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("child should follow parent level")
	}
	if child.Enabled(LevelInfo) {
		t.Error("Enabled(LevelInfo) should be false at LevelError")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing %s", "here")
	if l.Enabled(LevelError) {
		t.Error("Discard logger should not be enabled at any level")
	}
}
