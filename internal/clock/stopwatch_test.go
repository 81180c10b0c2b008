package clock

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 2, 1, 20, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestStopwatch_Elapsed(t *testing.T) {
	s := Start(t0)
	if got := s.Elapsed(at(250)); got != 250*time.Millisecond {
		t.Errorf("Elapsed = %v, want 250ms", got)
	}
	// Clock going backwards never yields negative elapsed time
	if got := s.Elapsed(at(-10)); got != 0 {
		t.Errorf("Elapsed before start = %v, want 0", got)
	}
}

func TestStopwatch_PauseExcludesPausedTime(t *testing.T) {
	s := Start(t0)

	s.Pause(at(400))
	if !s.Paused() {
		t.Fatal("Paused() should be true")
	}
	if got := s.Elapsed(at(5000)); got != 400*time.Millisecond {
		t.Errorf("Elapsed while paused = %v, want frozen at 400ms", got)
	}

	// Second pause keeps the first instant
	s.Pause(at(900))
	s.Resume(at(3000))

	if got := s.Elapsed(at(3000)); got != 400*time.Millisecond {
		t.Errorf("Elapsed right after resume = %v, want 400ms", got)
	}
	if got := s.Elapsed(at(3100)); got != 500*time.Millisecond {
		t.Errorf("Elapsed after resume = %v, want 500ms", got)
	}

	// Resume without pause is a no-op
	s.Resume(at(4000))
	if got := s.Elapsed(at(4000)); got != 1400*time.Millisecond {
		t.Errorf("Elapsed = %v, want 1400ms", got)
	}
}

func TestStopwatch_MultiplePauses(t *testing.T) {
	s := Start(t0)
	s.Pause(at(100))
	s.Resume(at(300))
	s.Pause(at(500))
	s.Resume(at(1500))

	// running segments: 0-100, 300-500, 1500-1600
	if got := s.Elapsed(at(1600)); got != 400*time.Millisecond {
		t.Errorf("Elapsed = %v, want 400ms", got)
	}
}

func TestTimer(t *testing.T) {
	tm := NewTimer(t0, 2*time.Second)

	if tm.Due(at(1999)) {
		t.Error("timer should not be due before 2s")
	}
	if got := tm.Remaining(at(500)); got != 1500*time.Millisecond {
		t.Errorf("Remaining = %v, want 1.5s", got)
	}

	tm.Pause(at(1000))
	if tm.Due(at(10000)) {
		t.Error("paused timer must not expire")
	}
	tm.Resume(at(10000))

	if tm.Due(at(10999)) {
		t.Error("timer should not be due 999ms after resume")
	}
	if !tm.Due(at(11000)) {
		t.Error("timer should be due 1s after resume")
	}
	if got := tm.Remaining(at(12000)); got != 0 {
		t.Errorf("Remaining after expiry = %v, want 0", got)
	}
}
