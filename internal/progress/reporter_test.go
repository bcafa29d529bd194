package progress

import (
	"bytes"
	"testing"
	"time"
)

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	var buf bytes.Buffer
	r := NewReporter(&buf)
	if _, ok := r.(*CIReporter); !ok {
		t.Fatalf("NewReporter() = %T, want *CIReporter", r)
	}
	r.Start("Checking session")
	r.Finish()
	if got := buf.String(); got != "Checking session...\n" {
		t.Errorf("output = %q", got)
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter(&bytes.Buffer{}).(*TerminalReporter); !ok {
		t.Error("expected *TerminalReporter outside CI")
	}
}

func TestTerminalReporterStartFinish(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{w: &buf}
	r.Start("Checking session")
	time.Sleep(250 * time.Millisecond)
	r.Finish()
	r.Finish()

	if buf.Len() == 0 {
		t.Error("spinner wrote nothing")
	}
}

func TestTerminalReporterFinishWithoutStart(t *testing.T) {
	r := &TerminalReporter{w: &bytes.Buffer{}}
	r.Finish()
}
