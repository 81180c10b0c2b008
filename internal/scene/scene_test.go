package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/litescript/ls-awaydays/internal/arc"
	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/geo"
	"github.com/litescript/ls-awaydays/internal/logging"
)

var stadiums = map[string]fixture.Stadium{
	"BEL": {Code: "BEL", ShortName: "Belgrano", Lat: -31.4, Lon: -64.2},
	"RIV": {Code: "RIV", ShortName: "River", Lat: -34.545, Lon: -58.449},
	"TAL": {Code: "TAL", ShortName: "Talleres", Lat: -31.37, Lon: -64.24},
}

func TestNew_Pins(t *testing.T) {
	s := New(stadiums, "BEL", nil)

	if len(s.Pins) != 3 {
		t.Fatalf("got %d pins, want 3", len(s.Pins))
	}
	for _, p := range s.Pins {
		wantColor := ColorOtherPin
		if p.Code == "BEL" {
			wantColor = ColorHomePin
		}
		if p.Color != wantColor || p.Home != (p.Code == "BEL") {
			t.Errorf("pin %s = %+v", p.Code, p)
		}
	}

	if s.Camera.LatDeg != CenterLat || s.Camera.LonDeg != CenterLon {
		t.Errorf("camera at (%v, %v), want (%v, %v)", s.Camera.LatDeg, s.Camera.LonDeg, CenterLat, CenterLon)
	}
	// The home stadium is on the visible face
	if _, _, visible := s.Camera.Project(s.Pins[0].Pos); !visible {
		t.Error("home pin should face the camera")
	}
}

func TestScene_ArcsAndVehicle(t *testing.T) {
	s := New(stadiums, "BEL", nil)
	leg := fixture.Leg{Direction: fixture.Outbound, From: "BEL", To: "RIV", Distance: 640}

	a := arc.Static(leg, stadiums["BEL"], stadiums["RIV"])
	b := arc.Static(leg, stadiums["BEL"], stadiums["TAL"])
	s.AddArc(a)
	s.AddArc(b)
	s.SetVehicle(NewVehicle(leg, a.Color))
	s.MoveVehicle(geo.Vec3{X: 1})

	if len(s.Arcs()) != 2 {
		t.Errorf("Arcs() len = %d, want 2", len(s.Arcs()))
	}
	if v := s.Vehicle(); v == nil || v.Pos != (geo.Vec3{X: 1}) || v.Color != arc.ColorOutbound {
		t.Errorf("vehicle = %+v", v)
	}

	s.ClearArcs()
	if len(s.Arcs()) != 0 || s.Vehicle() != nil {
		t.Error("ClearArcs should remove arcs and vehicle")
	}
}

func TestVehicle_Transport(t *testing.T) {
	tests := []struct {
		km    float64
		want  fixture.Transport
		glyph string
	}{
		{199.999, fixture.Bus, "B"},
		{200, fixture.Air, "✈"},
	}

	for _, tt := range tests {
		v := NewVehicle(fixture.Leg{Distance: tt.km}, arc.ColorWin)
		if v.Transport != tt.want || v.Glyph() != tt.glyph {
			t.Errorf("NewVehicle(%v km) = %v %q, want %v %q", tt.km, v.Transport, v.Glyph(), tt.want, tt.glyph)
		}
	}
}

func TestLoadTexture_Fallback(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(logging.LevelWarn, &buf)

	tex := LoadTexture(filepath.Join(t.TempDir(), "missing.jpg"), log)

	solid, ok := tex.(SolidTexture)
	if !ok {
		t.Fatalf("LoadTexture returned %T, want SolidTexture", tex)
	}
	if solid.Color.Hex() != strings.ToLower(FallbackColor) {
		t.Errorf("fallback colour = %s, want %s", solid.Color.Hex(), FallbackColor)
	}
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Errorf("expected a warning, got %q", buf.String())
	}

	_, err := LoadImageTexture(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrTextureUnavailable) {
		t.Errorf("error = %v, want ErrTextureUnavailable", err)
	}
}

func TestLoadTexture_Image(t *testing.T) {
	// 4x2 equirectangular image: west half red, east half blue
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "earth.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tex := LoadTexture(path, logging.Discard())
	if _, ok := tex.(*ImageTexture); !ok {
		t.Fatalf("LoadTexture returned %T, want *ImageTexture", tex)
	}

	if got := tex.Sample(-34.5, -64).Hex(); got != "#ff0000" {
		t.Errorf("west sample = %s, want #ff0000", got)
	}
	if got := tex.Sample(10, 120).Hex(); got != "#0000ff" {
		t.Errorf("east sample = %s, want #0000ff", got)
	}
	// Edges clamp instead of indexing out of range
	tex.Sample(-90, 180)
}
