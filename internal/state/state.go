// Package state provides thread-safe playback state for concurrent readers.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

// EventType represents the type of playback change.
type EventType string

const (
	EventStateChanged EventType = "STATE_CHANGED"
	EventLaunch       EventType = "LAUNCH"
	EventLanding      EventType = "LANDING"
	EventAdvance      EventType = "ADVANCE"
	EventSeek         EventType = "SEEK"
	EventCompleted    EventType = "COMPLETED"
)

// Event represents a change between two consecutive playback snapshots.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Team      string    `json:"team"`
	Cursor    int       `json:"cursor"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	OldState  string    `json:"old_state,omitempty"`
	NewState  string    `json:"new_state,omitempty"`
}

// Manager holds the latest playback snapshot and an event log.
// The controller goroutine writes; any goroutine may read.
type Manager struct {
	mu sync.RWMutex

	current    timeline.Snapshot
	hasData    bool
	lastUpdate time.Time
	lastError  error

	log eventLog
}

// DefaultMaxEvents bounds the event log when Config leaves it unset.
const DefaultMaxEvents = 100

// Config sizes the manager.
type Config struct {
	MaxEvents int
}

// DefaultConfig keeps the last DefaultMaxEvents events.
func DefaultConfig() Config {
	return Config{MaxEvents: DefaultMaxEvents}
}

// NewManager creates an empty manager.
func NewManager(cfg Config) *Manager {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultMaxEvents
	}
	return &Manager{log: eventLog{buf: make([]Event, cfg.MaxEvents)}}
}

// eventLog keeps the newest len(buf) events. head is the slot the next push writes.
type eventLog struct {
	buf   []Event
	head  int
	count int
}

func (l *eventLog) push(e Event) {
	l.buf[l.head] = e
	l.head = (l.head + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

func (l *eventLog) size() int { return l.count }

// last copies the newest n events, oldest first. It returns nil when empty.
func (l *eventLog) last(n int) []Event {
	if n > l.count {
		n = l.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]Event, n)
	start := l.head - n
	if start < 0 {
		start += len(l.buf)
	}
	for i := range out {
		out[i] = l.buf[(start+i)%len(l.buf)]
	}
	return out
}

// Update stores a new snapshot and logs what changed since the previous one.
func (m *Manager) Update(snap timeline.Snapshot, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasData {
		m.detectEvents(m.current, snap, now)
	}
	m.current = snap
	m.hasData = true
	m.lastUpdate = now
}

// SetError records a terminal session error such as an unknown team.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err
}

// detectEvents compares two snapshots and generates events.
func (m *Manager) detectEvents(prev, next timeline.Snapshot, now time.Time) {
	ev := func(t EventType) Event {
		return Event{Type: t, Timestamp: now, Team: next.Team, Cursor: next.Cursor}
	}

	if prev.State != next.State {
		e := ev(EventStateChanged)
		e.OldState = prev.State.String()
		e.NewState = next.State.String()
		m.addEvent(e)
	}

	switch delta := next.Cursor - prev.Cursor; {
	case delta == 1 && !next.Paused:
		m.addEvent(ev(EventAdvance))
	case delta != 0:
		m.addEvent(ev(EventSeek))
	}

	pf, nf := prev.Flight, next.Flight
	if pf != nil && (nf == nil || pf.From != nf.From || pf.To != nf.To) {
		e := ev(EventLanding)
		e.From, e.To = pf.From, pf.To
		m.addEvent(e)
	}
	if nf != nil && (pf == nil || pf.From != nf.From || pf.To != nf.To) {
		e := ev(EventLaunch)
		e.From, e.To = nf.From, nf.To
		m.addEvent(e)
	}

	if next.State == timeline.StateCompleted && prev.State != timeline.StateCompleted {
		m.addEvent(ev(EventCompleted))
	}
}

func (m *Manager) addEvent(e Event) {
	m.log.push(e)
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Playback   timeline.Snapshot
	HasData    bool
	LastUpdate time.Time
	LastError  error
	Events     []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Playback:   copyPlayback(m.current),
		HasData:    m.hasData,
		LastUpdate: m.lastUpdate,
		LastError:  m.lastError,
		Events:     m.log.last(m.log.size()),
	}
}

// Playback returns a copy of the latest playback snapshot.
func (m *Manager) Playback() timeline.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPlayback(m.current)
}

func copyPlayback(s timeline.Snapshot) timeline.Snapshot {
	rows := make([]stats.Row, len(s.Rows))
	copy(rows, s.Rows)
	s.Rows = rows

	arcs := make([]timeline.ArcSnapshot, len(s.Arcs))
	copy(arcs, s.Arcs)
	s.Arcs = arcs

	if s.Flight != nil {
		f := *s.Flight
		s.Flight = &f
	}
	return s
}

// RecentEvents returns up to n of the newest events, oldest first.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.log.last(n)
}

// HasData returns true once a snapshot has been stored.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasData
}
