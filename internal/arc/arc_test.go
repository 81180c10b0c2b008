package arc

import (
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-awaydays/internal/fixture"
)

var (
	belgrano = fixture.Stadium{Code: "BEL", Lat: -31.4, Lon: -64.2}
	river    = fixture.Stadium{Code: "RIV", Lat: -34.545, Lon: -58.449}
	talleres = fixture.Stadium{Code: "TAL", Lat: -31.37, Lon: -64.24}
)

var t0 = time.Date(2025, 1, 26, 21, 0, 0, 0, time.UTC)

func ms(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

func TestCurve_Shape(t *testing.T) {
	pts := Curve(belgrano, river)
	if len(pts) != Segments+1 {
		t.Fatalf("len = %d, want %d", len(pts), Segments+1)
	}

	for _, i := range []int{0, Segments} {
		if r := pts[i].Norm(); math.Abs(r-(GlobeRadius+PinHeight)) > 1e-9 {
			t.Errorf("endpoint %d radius = %v, want %v", i, r, GlobeRadius+PinHeight)
		}
	}

	mid := pts[Segments/2].Norm()
	if mid <= GlobeRadius+PinHeight {
		t.Errorf("midpoint radius %v should rise above the pins", mid)
	}

	// Longer hops arc higher
	short := Curve(belgrano, talleres)[Segments/2].Norm()
	if short >= mid {
		t.Errorf("short hop apex %v should be lower than long hop apex %v", short, mid)
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		name string
		leg  fixture.Leg
		want string
	}{
		{"outbound ignores outcome", fixture.Leg{Direction: fixture.Outbound, Match: fixture.Match{Outcome: fixture.OutcomeWin}}, ColorOutbound},
		{"return win", fixture.Leg{Direction: fixture.Return, Match: fixture.Match{Outcome: fixture.OutcomeWin}}, ColorWin},
		{"return draw", fixture.Leg{Direction: fixture.Return, Match: fixture.Match{Outcome: fixture.OutcomeDraw}}, ColorDraw},
		{"return loss", fixture.Leg{Direction: fixture.Return, Match: fixture.Match{Outcome: fixture.OutcomeLoss}}, ColorLoss},
		{"return without outcome", fixture.Leg{Direction: fixture.Return}, ColorLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorFor(tt.leg); got != tt.want {
				t.Errorf("ColorFor = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatic(t *testing.T) {
	a := Static(fixture.Leg{From: "BEL", To: "RIV"}, belgrano, river)
	if !a.Complete() || len(a.Drawn()) != Segments+1 {
		t.Errorf("static arc drew %d of %d points", len(a.Drawn()), len(a.Points))
	}
}

func TestAnimation_Step(t *testing.T) {
	a := New(fixture.Leg{From: "BEL", To: "RIV"}, belgrano, river)
	an := Animate(a, t0, DefaultDuration)

	f := an.Step(t0)
	if f.Visible != 0 || f.HasFrontier || f.Completed {
		t.Errorf("first frame = %+v", f)
	}

	f = an.Step(ms(600))
	if f.Visible != 50 || !f.HasFrontier || f.Frontier != a.Points[50] {
		t.Errorf("half frame = %+v", f)
	}
	if len(a.Drawn()) != 51 {
		t.Errorf("drawn = %d, want 51", len(a.Drawn()))
	}

	f = an.Step(ms(1200))
	if !f.Completed || f.HasFrontier || f.Progress != 1 {
		t.Errorf("final frame = %+v", f)
	}
	if !a.Complete() {
		t.Error("arc should be fully drawn after completion")
	}

	// Completion is reported exactly once
	for _, n := range []int{1300, 5000} {
		if f := an.Step(ms(n)); f.Completed {
			t.Errorf("Step(%dms) reported completion again", n)
		}
	}
}

func TestAnimation_PauseKeepsProgress(t *testing.T) {
	a := New(fixture.Leg{}, belgrano, river)
	an := Animate(a, t0, DefaultDuration)

	before := an.Step(ms(300)).Progress
	an.Pause(ms(300))

	// Frames while paused stay frozen and never complete
	for _, n := range []int{400, 2000, 9000} {
		f := an.Step(ms(n))
		if f.Progress != before || f.Completed {
			t.Errorf("paused Step(%dms) = %+v, want progress %v", n, f, before)
		}
	}

	an.Resume(ms(9000))
	after := an.Step(ms(9030)).Progress
	if after < before {
		t.Errorf("progress jumped backwards: %v -> %v", before, after)
	}
	if maxStep := 30.0 / 1200.0; after-before > maxStep+1e-9 {
		t.Errorf("progress skipped %v, more than one tick", after-before)
	}

	f := an.Step(ms(9000 + 900))
	if !f.Completed {
		t.Errorf("expected completion 900ms after resume, got %+v", f)
	}
}
