// Package scene holds everything drawn on the globe: texture, stadium pins, camera,
// rendered arcs and the vehicle token.
package scene

import (
	"sort"

	"github.com/litescript/ls-awaydays/internal/arc"
	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/geo"
)

// Default camera target, the centre of Argentina.
const (
	CenterLat = -34.5
	CenterLon = -64.0
)

// Pin colours.
const (
	ColorHomePin  = "#00FF99"
	ColorOtherPin = "#666666"
)

// Pin marks a stadium on the globe.
type Pin struct {
	Code  string
	Label string
	Pos   geo.Vec3
	Color string
	Home  bool
}

// Vehicle is the token travelling along the in-flight arc.
type Vehicle struct {
	Transport fixture.Transport
	Color     string
	Pos       geo.Vec3
}

// NewVehicle picks the token for a leg and tints it with the arc colour.
func NewVehicle(leg fixture.Leg, color string) *Vehicle {
	return &Vehicle{Transport: leg.Transport(), Color: color}
}

// Glyph returns the terminal symbol of the token.
func (v *Vehicle) Glyph() string {
	if v.Transport == fixture.Bus {
		return "B"
	}
	return "✈"
}

// Scene is owned by a single goroutine; it has no locking.
type Scene struct {
	Texture Texture
	Pins    []Pin
	Camera  geo.Camera

	arcs    []*arc.Arc
	vehicle *Vehicle
}

// New builds a scene with one pin per stadium, the home stadium highlighted.
func New(stadiums map[string]fixture.Stadium, home string, tex Texture) *Scene {
	if tex == nil {
		tex = NewSolidTexture(FallbackColor)
	}

	codes := make([]string, 0, len(stadiums))
	for code := range stadiums {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	pins := make([]Pin, 0, len(codes))
	for _, code := range codes {
		s := stadiums[code]
		p := Pin{
			Code:  code,
			Label: s.ShortName,
			Pos:   geo.LatLonToVec3(s.Lat, s.Lon, arc.GlobeRadius+arc.PinHeight/2),
			Color: ColorOtherPin,
		}
		if code == home {
			p.Color = ColorHomePin
			p.Home = true
		}
		pins = append(pins, p)
	}

	return &Scene{
		Texture: tex,
		Pins:    pins,
		Camera:  geo.NewCamera(CenterLat, CenterLon),
	}
}

// AddArc adds an arc to the rendered set.
func (s *Scene) AddArc(a *arc.Arc) {
	s.arcs = append(s.arcs, a)
}

// Arcs returns the rendered arcs, oldest first.
func (s *Scene) Arcs() []*arc.Arc {
	return s.arcs
}

// ClearArcs removes every arc and the vehicle.
func (s *Scene) ClearArcs() {
	s.arcs = nil
	s.vehicle = nil
}

// SetVehicle places the token, replacing any previous one.
func (s *Scene) SetVehicle(v *Vehicle) {
	s.vehicle = v
}

// MoveVehicle repositions the token, if any.
func (s *Scene) MoveVehicle(pos geo.Vec3) {
	if s.vehicle != nil {
		s.vehicle.Pos = pos
	}
}

// RemoveVehicle drops the token.
func (s *Scene) RemoveVehicle() {
	s.vehicle = nil
}

// Vehicle returns the token, or nil.
func (s *Scene) Vehicle() *Vehicle {
	return s.vehicle
}
