package timeline

import (
	"time"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/geo"
	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/scene"
	"github.com/litescript/ls-awaydays/internal/stats"
)

// FlightSnapshot describes the in-progress arc.
type FlightSnapshot struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Color     string  `json:"color"`
	Transport string  `json:"transport"`
	Progress  float64 `json:"progress"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// ArcSnapshot describes a rendered arc.
type ArcSnapshot struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Color    string `json:"color"`
	Complete bool   `json:"complete"`
}

// Snapshot is an immutable view of the playback state.
type Snapshot struct {
	Team           string          `json:"team"`
	State          State           `json:"state"`
	Cursor         int             `json:"cursor"`
	Total          int             `json:"total"`
	Paused         bool            `json:"paused"`
	Info           Info            `json:"info"`
	Rows           []stats.Row     `json:"rows"`
	Totals         stats.Totals    `json:"totals"`
	Arcs           []ArcSnapshot   `json:"arcs"`
	Flight         *FlightSnapshot `json:"flight,omitempty"`
	CanStepBack    bool            `json:"can_step_back"`
	CanStepForward bool            `json:"can_step_forward"`
}

// Snapshot captures the current state. now is used to report flight progress.
func (c *Controller) Snapshot(now time.Time) Snapshot {
	arcs := c.scene.Arcs()
	snap := Snapshot{
		Team:           c.it.Team,
		State:          c.state,
		Cursor:         c.cursor,
		Total:          c.it.Len(),
		Paused:         c.paused,
		Info:           c.info,
		Rows:           c.agg.Rows(),
		Totals:         c.agg.Totals(),
		Arcs:           make([]ArcSnapshot, 0, len(arcs)),
		CanStepBack:    c.cursor > 0,
		CanStepForward: c.cursor < c.it.Len(),
	}
	for _, a := range arcs {
		snap.Arcs = append(snap.Arcs, ArcSnapshot{From: a.From, To: a.To, Color: a.Color, Complete: a.Complete()})
	}

	if f := c.flight; f != nil {
		fs := &FlightSnapshot{
			From:      f.Leg.From,
			To:        f.Leg.To,
			Color:     f.Vehicle.Color,
			Transport: f.Vehicle.Transport.String(),
			Progress:  f.Animation.Progress(now),
		}
		fs.Lat, fs.Lon = geo.Vec3ToLatLon(f.Vehicle.Pos)
		snap.Flight = fs
	}
	return snap
}

// Replay seeks a fresh controller to cursor and returns its snapshot.
func Replay(it *fixture.Itinerary, ds *fixture.Dataset, cursor int, log *logging.Logger) Snapshot {
	sc := scene.New(ds.Stadiums, it.Team, nil)
	c := New(it, ds, sc, nil, DefaultConfig(), log)
	c.Seek(cursor)
	return c.Snapshot(time.Now())
}
