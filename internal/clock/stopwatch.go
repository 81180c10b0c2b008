// Package clock provides the pausable stopwatch behind every timed step of playback.
package clock

import "time"

// Stopwatch measures elapsed time from a start instant, excluding time spent paused.
// It never reads the wall clock itself; every method takes the current time.
type Stopwatch struct {
	start       time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	paused      bool
}

// Start returns a running stopwatch that started at now.
func Start(now time.Time) Stopwatch {
	return Stopwatch{start: now}
}

// Elapsed returns the running time at now. While paused it stays frozen.
func (s Stopwatch) Elapsed(now time.Time) time.Duration {
	end := now
	if s.paused {
		end = s.pausedAt
	}
	d := end.Sub(s.start) - s.pausedTotal
	if d < 0 {
		return 0
	}
	return d
}

// Paused reports whether the stopwatch is frozen.
func (s Stopwatch) Paused() bool {
	return s.paused
}

// Pause freezes the stopwatch at now. Pausing twice keeps the first instant.
func (s *Stopwatch) Pause(now time.Time) {
	if s.paused {
		return
	}
	s.paused = true
	s.pausedAt = now
}

// Resume continues counting from the frozen value.
func (s *Stopwatch) Resume(now time.Time) {
	if !s.paused {
		return
	}
	if now.After(s.pausedAt) {
		s.pausedTotal += now.Sub(s.pausedAt)
	}
	s.paused = false
	s.pausedAt = time.Time{}
}

// Timer is a one-shot deadline on top of a Stopwatch, so it also freezes while paused.
type Timer struct {
	watch Stopwatch
	wait  time.Duration
}

// NewTimer returns a timer that expires wait after now.
func NewTimer(now time.Time, wait time.Duration) Timer {
	return Timer{watch: Start(now), wait: wait}
}

// Due reports whether the timer has expired at now.
func (t Timer) Due(now time.Time) bool {
	return t.watch.Elapsed(now) >= t.wait
}

// Remaining returns the time left at now.
func (t Timer) Remaining(now time.Time) time.Duration {
	left := t.wait - t.watch.Elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// Pause freezes the timer.
func (t *Timer) Pause(now time.Time) { t.watch.Pause(now) }

// Resume unfreezes the timer.
func (t *Timer) Resume(now time.Time) { t.watch.Resume(now) }
