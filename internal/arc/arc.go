// Package arc builds the curved path of a leg and animates its reveal.
package arc

import (
	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/geo"
)

// Curve geometry in globe units.
const (
	GlobeRadius = 1.0
	ArcHeight   = 0.15
	PinHeight   = 0.012
	Segments    = 100
)

// Colours as #RRGGBB.
const (
	ColorOutbound = "#888888"
	ColorWin      = "#00CC66"
	ColorDraw     = "#FFCC00"
	ColorLoss     = "#FF3333"
)

// Arc is a sampled curve between two stadiums. Visible counts how many points are drawn.
type Arc struct {
	From    string
	To      string
	Points  []geo.Vec3
	Color   string
	Visible int
}

// Curve samples the quadratic Bézier between two surface points into Segments pieces.
// The control point sits above the chord midpoint and rises with the chord length.
func Curve(from, to fixture.Stadium) []geo.Vec3 {
	start := geo.LatLonToVec3(from.Lat, from.Lon, GlobeRadius+PinHeight)
	end := geo.LatLonToVec3(to.Lat, to.Lon, GlobeRadius+PinHeight)

	chord := start.DistanceTo(end)
	lift := GlobeRadius + ArcHeight + ArcHeight*chord*0.5
	control := start.Midpoint(end).Normalized().Scale(lift)

	points := make([]geo.Vec3, Segments+1)
	for i := range points {
		t := float64(i) / Segments
		u := 1 - t
		points[i] = start.Scale(u * u).
			Add(control.Scale(2 * u * t)).
			Add(end.Scale(t * t))
	}
	return points
}

// ColorFor returns the arc colour of a leg. Outbound legs are neutral; return legs
// are coloured by outcome, and one without an outcome is drawn as a loss.
func ColorFor(leg fixture.Leg) string {
	if leg.Direction == fixture.Outbound {
		return ColorOutbound
	}
	switch leg.Outcome {
	case fixture.OutcomeWin:
		return ColorWin
	case fixture.OutcomeDraw:
		return ColorDraw
	default:
		return ColorLoss
	}
}

// New builds an undrawn arc for a leg.
func New(leg fixture.Leg, from, to fixture.Stadium) *Arc {
	return &Arc{
		From:   leg.From,
		To:     leg.To,
		Points: Curve(from, to),
		Color:  ColorFor(leg),
	}
}

// Static builds a fully drawn arc.
func Static(leg fixture.Leg, from, to fixture.Stadium) *Arc {
	a := New(leg, from, to)
	a.Visible = len(a.Points)
	return a
}

// Drawn returns the visible prefix of the polyline.
func (a *Arc) Drawn() []geo.Vec3 {
	return a.Points[:a.Visible]
}

// Complete reports whether every point is drawn.
func (a *Arc) Complete() bool {
	return a.Visible >= len(a.Points)
}
