package arc

import (
	"math"
	"time"

	"github.com/litescript/ls-awaydays/internal/clock"
	"github.com/litescript/ls-awaydays/internal/geo"
)

// DefaultDuration is how long a progressive reveal takes.
const DefaultDuration = 1200 * time.Millisecond

// Frame is the result of one animation step.
type Frame struct {
	Progress float64
	// Visible is the index of the frontier point; points [0, Visible] are drawn.
	Visible     int
	Frontier    geo.Vec3
	HasFrontier bool
	// Completed is true on the single step that reaches the end.
	Completed bool
}

// Animation reveals an arc over a fixed duration of unpaused time.
type Animation struct {
	arc      *Arc
	watch    clock.Stopwatch
	duration time.Duration
	done     bool
}

// Animate starts revealing a from now. The arc starts empty.
func Animate(a *Arc, now time.Time, duration time.Duration) *Animation {
	if duration <= 0 {
		duration = DefaultDuration
	}
	a.Visible = 0
	return &Animation{arc: a, watch: clock.Start(now), duration: duration}
}

// Arc returns the arc being revealed.
func (an *Animation) Arc() *Arc { return an.arc }

// Done reports whether completion has already been signalled.
func (an *Animation) Done() bool { return an.done }

// Paused reports whether the reveal is frozen.
func (an *Animation) Paused() bool { return an.watch.Paused() }

// Pause freezes progress at now.
func (an *Animation) Pause(now time.Time) { an.watch.Pause(now) }

// Resume continues from the frozen progress.
func (an *Animation) Resume(now time.Time) { an.watch.Resume(now) }

// Progress returns the clamped progress at now.
func (an *Animation) Progress(now time.Time) float64 {
	if an.done {
		return 1
	}
	p := float64(an.watch.Elapsed(now)) / float64(an.duration)
	return math.Max(0, math.Min(p, 1))
}

// Step advances the reveal to now and updates the arc's drawn range.
func (an *Animation) Step(now time.Time) Frame {
	p := an.Progress(now)
	visible := int(math.Floor(p * Segments))
	if visible >= len(an.arc.Points) {
		visible = len(an.arc.Points) - 1
	}

	an.arc.Visible = visible + 1

	f := Frame{Progress: p, Visible: visible}
	if visible > 0 && visible < len(an.arc.Points) && p < 1 {
		f.Frontier = an.arc.Points[visible]
		f.HasFrontier = true
	}

	if p >= 1 && !an.done {
		an.done = true
		f.Completed = true
	}
	return f
}
