// Package stats derives the results table and per-mode tallies from a prefix of the itinerary.
package stats

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/logging"
)

// Mode is the table category of a materialised row.
type Mode int

const (
	ModeHome Mode = iota
	ModeBus
	ModeAir
)

func (m Mode) String() string {
	switch m {
	case ModeHome:
		return "Home"
	case ModeBus:
		return "Bus"
	case ModeAir:
		return "Air"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) key() string {
	switch m {
	case ModeBus:
		return "bus"
	case ModeAir:
		return "air"
	default:
		return "home"
	}
}

// Tally counts results in one category. DistanceKm is round-trip distance.
type Tally struct {
	Wins       int     `json:"wins"`
	Draws      int     `json:"draws"`
	Losses     int     `json:"losses"`
	DistanceKm float64 `json:"distance_km"`
}

func (t *Tally) count(o fixture.Outcome) {
	switch o {
	case fixture.OutcomeWin:
		t.Wins++
	case fixture.OutcomeDraw:
		t.Draws++
	case fixture.OutcomeLoss:
		t.Losses++
	}
}

// Totals is the aggregate over every materialised row.
type Totals struct {
	Home Tally `json:"home"`
	Bus  Tally `json:"bus"`
	Air  Tally `json:"air"`
}

// Row is one line of the results table.
type Row struct {
	Date        string          `json:"date"`
	Competition string          `json:"competition"`
	Round       int             `json:"round"`
	Rival       string          `json:"rival"`
	Outcome     fixture.Outcome `json:"-"`
	Letter      string          `json:"result"`
	Mode        Mode            `json:"-"`
	ModeName    string          `json:"mode"`
	// Inferred marks a row without a recorded result. Away rows default to a draw,
	// home rows to a loss.
	Inferred bool `json:"inferred,omitempty"`
}

// Cell is one value of the statistics panel, e.g. {"air.km", "5.040"}.
type Cell struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// StadiumLookup resolves stadium codes to display names.
type StadiumLookup interface {
	Stadium(code string) fixture.Stadium
}

// Aggregator builds rows and totals as events are applied.
type Aggregator struct {
	index    fixture.OutcomeIndex
	stadiums StadiumLookup
	log      *logging.Logger

	totals Totals
	rows   []Row
}

// New creates an aggregator for one itinerary.
func New(index fixture.OutcomeIndex, stadiums StadiumLookup, log *logging.Logger) *Aggregator {
	if log == nil {
		log = logging.Discard()
	}
	return &Aggregator{index: index, stadiums: stadiums, log: log}
}

// Reset zeroes the tallies and clears the table.
func (a *Aggregator) Reset() {
	a.totals = Totals{}
	a.rows = nil
}

// Apply updates tallies for ev. It returns the materialised row, or false for
// return legs, which add nothing.
func (a *Aggregator) Apply(ev fixture.Event) (Row, bool) {
	switch e := ev.(type) {
	case fixture.HomeMatch:
		outcome := e.Outcome
		if outcome == fixture.OutcomeUnknown {
			outcome = fixture.OutcomeLoss
			a.log.Warn("round %d (%s) at home has no result; counting as loss", e.Round, e.Competition)
		}
		a.totals.Home.count(outcome)
		row := a.row(e.Match, e.Rival, outcome, ModeHome)
		row.Inferred = outcome != e.Outcome
		a.rows = append(a.rows, row)
		return row, true

	case fixture.Leg:
		if e.Direction == fixture.Return {
			return Row{}, false
		}

		outcome, ok := a.index.Lookup(e.Round, e.Competition)
		if !ok {
			outcome = fixture.OutcomeDraw
			a.log.Warn("round %d (%s) to %s has no return leg result; counting as draw", e.Round, e.Competition, e.To)
		}

		mode, tally := ModeAir, &a.totals.Air
		if e.Transport() == fixture.Bus {
			mode, tally = ModeBus, &a.totals.Bus
		}
		tally.count(outcome)
		tally.DistanceKm += e.Distance * 2

		row := a.row(e.Match, e.To, outcome, mode)
		row.Inferred = !ok
		a.rows = append(a.rows, row)
		return row, true

	default:
		a.log.Error("unhandled event type %T", ev)
		return Row{}, false
	}
}

// RebuildUpTo resets and applies events[0:n] in order.
func (a *Aggregator) RebuildUpTo(events []fixture.Event, n int) {
	a.Reset()
	if n > len(events) {
		n = len(events)
	}
	for _, ev := range events[:n] {
		a.Apply(ev)
	}
}

// Totals returns the current tallies.
func (a *Aggregator) Totals() Totals {
	return a.totals
}

// Rows returns a copy of the current table.
func (a *Aggregator) Rows() []Row {
	out := make([]Row, len(a.rows))
	copy(out, a.rows)
	return out
}

// Cells returns every statistics panel value.
func (a *Aggregator) Cells() []Cell {
	return a.totals.Cells()
}

// Cells flattens the totals into panel cells.
func (t Totals) Cells() []Cell {
	cells := make([]Cell, 0, 11)
	for _, c := range []struct {
		mode  Mode
		tally Tally
	}{{ModeHome, t.Home}, {ModeBus, t.Bus}, {ModeAir, t.Air}} {
		k := c.mode.key()
		cells = append(cells,
			Cell{ID: k + ".w", Value: fmt.Sprint(c.tally.Wins)},
			Cell{ID: k + ".d", Value: fmt.Sprint(c.tally.Draws)},
			Cell{ID: k + ".l", Value: fmt.Sprint(c.tally.Losses)},
		)
		if c.mode != ModeHome {
			cells = append(cells, Cell{ID: k + ".km", Value: FormatKm(c.tally.DistanceKm)})
		}
	}
	return cells
}

func (a *Aggregator) row(m fixture.Match, rival string, outcome fixture.Outcome, mode Mode) Row {
	return Row{
		Date:        m.RoundLabel,
		Competition: m.Competition,
		Round:       m.Round,
		Rival:       a.stadiums.Stadium(rival).ShortName,
		Outcome:     outcome,
		Letter:      outcome.Letter(),
		Mode:        mode,
		ModeName:    mode.String(),
	}
}

// FormatKm renders a distance with '.' as the thousands separator, e.g. 5040 → "5.040".
func FormatKm(km float64) string {
	return humanize.FormatInteger("#.###,", int(math.Round(km)))
}
