// Package timeline sequences a team's itinerary: auto-play with progressive arcs,
// pause, and seeking with a full rebuild from the first event.
package timeline

import (
	"fmt"
	"time"

	"github.com/litescript/ls-awaydays/internal/arc"
	"github.com/litescript/ls-awaydays/internal/clock"
	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/scene"
	"github.com/litescript/ls-awaydays/internal/stats"
)

// State is the controller's playback state.
type State int

const (
	StateIdle State = iota
	StateAutoPlaying
	StatePaused
	// StateSeeking only exists while a seek rebuilds the scene.
	StateSeeking
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAutoPlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSeeking:
		return "seeking"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateIdle; st <= StateCompleted; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown playback state %q", b)
}

// Config holds playback timings.
type Config struct {
	WarmUp          time.Duration
	ArcDuration     time.Duration
	InterEventDelay time.Duration
	HomeDwell       time.Duration
	// FrameInterval is how often hosts should call Tick.
	FrameInterval time.Duration
}

// DefaultConfig returns the standard playback timings.
func DefaultConfig() Config {
	return Config{
		WarmUp:          1500 * time.Millisecond,
		ArcDuration:     arc.DefaultDuration,
		InterEventDelay: 200 * time.Millisecond,
		HomeDwell:       2 * time.Second,
		FrameInterval:   30 * time.Millisecond,
	}
}

type action int

const (
	// actionBegin ends the warm-up and starts auto-play.
	actionBegin action = iota
	// actionAdvance moves the cursor to the next event.
	actionAdvance
)

type pending struct {
	timer  clock.Timer
	action action
}

// Flight is the in-progress arc and its vehicle token.
type Flight struct {
	Leg       fixture.Leg
	Animation *arc.Animation
	Vehicle   *scene.Vehicle
}

// Controller owns the cursor and drives the scene, the aggregator and the bridge.
// It must only be used from one goroutine.
type Controller struct {
	cfg      Config
	it       *fixture.Itinerary
	stadiums stats.StadiumLookup
	scene    *scene.Scene
	agg      *stats.Aggregator
	bridge   Bridge
	log      *logging.Logger

	state  State
	cursor int
	paused bool
	info   Info

	// At most one flight and one pending transition exist at any time.
	flight *Flight
	delay  *pending
}

// New creates an idle controller at cursor 0.
func New(it *fixture.Itinerary, stadiums stats.StadiumLookup, sc *scene.Scene, bridge Bridge, cfg Config, log *logging.Logger) *Controller {
	if bridge == nil {
		bridge = NopBridge{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{
		cfg:      cfg,
		it:       it,
		stadiums: stadiums,
		scene:    sc,
		agg:      stats.New(it.Index, stadiums, log),
		bridge:   bridge,
		log:      log,
	}
}

// Start schedules auto-play after the warm-up. Only valid while idle.
func (c *Controller) Start(now time.Time) {
	if c.state != StateIdle || c.delay != nil {
		return
	}
	c.log.Debug("warm-up %v before %d events", c.cfg.WarmUp, c.it.Len())
	c.schedule(now, c.cfg.WarmUp, actionBegin)
}

// Tick advances the in-flight animation and fires a due transition.
// Nothing moves while paused.
func (c *Controller) Tick(now time.Time) {
	if c.paused {
		return
	}

	if c.flight != nil {
		f := c.flight.Animation.Step(now)
		if f.HasFrontier {
			c.scene.MoveVehicle(f.Frontier)
		}
		if f.Completed {
			c.land(now)
		}
	}

	if c.delay != nil && c.delay.timer.Due(now) {
		d := c.delay
		c.delay = nil
		c.fire(d.action, now)
	}
}

// TogglePause freezes or unfreezes playback. Resuming with nothing in flight,
// as after a seek, continues auto-play from the cursor.
func (c *Controller) TogglePause(now time.Time) {
	if !c.paused {
		c.paused = true
		if c.flight != nil {
			c.flight.Animation.Pause(now)
		}
		if c.delay != nil {
			c.delay.timer.Pause(now)
		}
		if c.state == StateAutoPlaying {
			c.state = StatePaused
		}
		return
	}

	c.paused = false
	if c.flight != nil {
		c.flight.Animation.Resume(now)
	}
	if c.delay != nil {
		c.delay.timer.Resume(now)
		if c.delay.action == actionBegin {
			return
		}
	}

	if c.state == StateCompleted {
		return
	}
	c.state = StateAutoPlaying
	if c.flight == nil && c.delay == nil {
		c.playCurrent(now)
	}
}

// Seek cancels any work, clears the scene and table, and replays events[0:target]
// statically. Playback is left paused.
func (c *Controller) Seek(target int) {
	if target < 0 {
		target = 0
	}
	if target > c.it.Len() {
		target = c.it.Len()
	}

	c.state = StateSeeking
	c.reset()

	for _, ev := range c.it.Events[:target] {
		if leg, ok := ev.(fixture.Leg); ok {
			c.scene.AddArc(arc.Static(leg, c.stadiums.Stadium(leg.From), c.stadiums.Stadium(leg.To)))
		}
		if row, ok := c.agg.Apply(ev); ok {
			c.bridge.AppendRow(row)
		}
	}
	c.publishStats()

	c.cursor = target
	c.paused = true
	if c.cursor >= c.it.Len() {
		c.state = StateCompleted
		c.setInfo(completedInfo())
	} else {
		c.state = StatePaused
		c.setInfo(InfoFor(c.it.Events[c.cursor], c.stadiums))
	}
	c.log.Debug("seek to %d/%d", c.cursor, c.it.Len())
}

// StepForward seeks one event ahead. No-op at the end.
func (c *Controller) StepForward() {
	if c.cursor >= c.it.Len() {
		return
	}
	c.Seek(c.cursor + 1)
}

// StepBackward seeks one event back. No-op at the start.
func (c *Controller) StepBackward() {
	if c.cursor <= 0 {
		return
	}
	c.Seek(c.cursor - 1)
}

// JumpToStart seeks to the first event.
func (c *Controller) JumpToStart() { c.Seek(0) }

// JumpToEnd seeks past the last event.
func (c *Controller) JumpToEnd() { c.Seek(c.it.Len()) }

// Restart clears everything and auto-plays from the first event without warm-up.
func (c *Controller) Restart(now time.Time) {
	c.reset()
	c.publishStats()
	c.cursor = 0
	c.paused = false
	c.state = StateAutoPlaying
	c.log.Debug("restart")
	c.playCurrent(now)
}

// State returns the playback state.
func (c *Controller) State() State { return c.state }

// Cursor returns the index of the next event to play.
func (c *Controller) Cursor() int { return c.cursor }

// Len returns the number of events.
func (c *Controller) Len() int { return c.it.Len() }

// Paused reports whether playback is frozen.
func (c *Controller) Paused() bool { return c.paused }

// Flight returns the in-progress arc, or nil.
func (c *Controller) Flight() *Flight { return c.flight }

// Info returns the last info panel text.
func (c *Controller) Info() Info { return c.info }

// Config returns the playback timings.
func (c *Controller) Config() Config { return c.cfg }

// Busy reports whether Tick has work to do.
func (c *Controller) Busy() bool {
	return !c.paused && (c.flight != nil || c.delay != nil)
}

// NextIn returns the time left before the pending warm-up or delay fires, and
// false when nothing is scheduled.
func (c *Controller) NextIn(now time.Time) (time.Duration, bool) {
	if c.delay == nil {
		return 0, false
	}
	return c.delay.timer.Remaining(now), true
}

func (c *Controller) schedule(now time.Time, wait time.Duration, a action) {
	c.delay = &pending{timer: clock.NewTimer(now, wait), action: a}
}

func (c *Controller) fire(a action, now time.Time) {
	switch a {
	case actionBegin:
		c.state = StateAutoPlaying
	case actionAdvance:
		c.cursor++
	}
	c.playCurrent(now)
}

// playCurrent starts the event at the cursor.
func (c *Controller) playCurrent(now time.Time) {
	if c.cursor >= c.it.Len() {
		c.state = StateCompleted
		c.setInfo(completedInfo())
		c.log.Info("playback completed after %d events", c.it.Len())
		return
	}

	ev := c.it.Events[c.cursor]
	c.setInfo(InfoFor(ev, c.stadiums))

	switch e := ev.(type) {
	case fixture.HomeMatch:
		c.materialize(e)
		c.schedule(now, c.cfg.HomeDwell, actionAdvance)
	case fixture.Leg:
		c.launch(e, now)
	}
}

func (c *Controller) launch(leg fixture.Leg, now time.Time) {
	a := arc.New(leg, c.stadiums.Stadium(leg.From), c.stadiums.Stadium(leg.To))
	c.scene.AddArc(a)

	v := scene.NewVehicle(leg, a.Color)
	v.Pos = a.Points[0]
	c.scene.SetVehicle(v)

	c.flight = &Flight{
		Leg:       leg,
		Animation: arc.Animate(a, now, c.cfg.ArcDuration),
		Vehicle:   v,
	}
	c.log.Debug("event %d: %s %s -> %s (%v km, %s)", c.cursor, leg.Kind(), leg.From, leg.To, leg.Distance, leg.Transport())
}

// land finishes the flight: the vehicle goes, outbound legs materialise their row.
func (c *Controller) land(now time.Time) {
	leg := c.flight.Leg
	c.flight = nil
	c.scene.RemoveVehicle()

	if leg.Direction == fixture.Outbound {
		c.materialize(leg)
	}
	c.schedule(now, c.cfg.InterEventDelay, actionAdvance)
}

func (c *Controller) materialize(ev fixture.Event) {
	row, ok := c.agg.Apply(ev)
	if !ok {
		return
	}
	c.bridge.AppendRow(row)
	c.publishStats()
}

func (c *Controller) publishStats() {
	for _, cell := range c.agg.Cells() {
		c.bridge.SetStat(cell)
	}
}

func (c *Controller) setInfo(info Info) {
	c.info = info
	c.bridge.SetInfo(info)
}

// reset cancels the flight and any pending transition, then clears arcs, rows and stats.
func (c *Controller) reset() {
	c.flight = nil
	c.delay = nil
	c.scene.ClearArcs()
	c.bridge.ClearRows()
	c.agg.Reset()
}
