package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/scene"
	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

var t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func newModel(t *testing.T, team string) Model {
	t.Helper()
	ds, err := fixture.Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	m := New(ds, team, Options{Timings: timeline.DefaultConfig()})
	m.now = func() time.Time { return t0 }
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_FrameLoopNeverRunsTwice(t *testing.T) {
	m := newModel(t, "BEL")
	if m.Init() == nil {
		t.Fatal("Init should start the frame loop")
	}
	if m.loopID != 1 || !m.looping {
		t.Fatalf("loop = %d running %v, want 1 true", m.loopID, m.looping)
	}

	// A second start while the loop runs is a no-op
	if _, cmd := m.ensureLoop(); cmd != nil {
		t.Error("ensureLoop started a second loop")
	}

	// Frames from an unknown loop are dropped
	m, cmd := update(t, m, frameMsg{id: 7, t: t0.Add(time.Hour)})
	if cmd != nil || m.ctrl.State() != timeline.StateIdle {
		t.Fatalf("stale frame ran: state %v", m.ctrl.State())
	}

	// Pause: the running loop stops at its next frame
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.ctrl.Paused() {
		t.Fatal("space should pause")
	}
	m, cmd = update(t, m, frameMsg{id: 1, t: t0.Add(time.Second)})
	if cmd != nil || m.looping {
		t.Fatalf("paused loop should stop, cmd %v looping %v", cmd != nil, m.looping)
	}

	// Resume starts exactly one new loop
	m, cmd = update(t, m, runes("p"))
	if cmd == nil || m.loopID != 2 || !m.looping {
		t.Fatalf("resume: cmd %v loop %d looping %v", cmd != nil, m.loopID, m.looping)
	}
	m, cmd = update(t, m, runes("p"))
	m, cmd = update(t, m, runes("p"))
	if cmd != nil || m.loopID != 2 {
		t.Errorf("toggling again must reuse loop 2, got %d", m.loopID)
	}

	// The old loop's frames no longer count
	if _, cmd := update(t, m, frameMsg{id: 1, t: t0.Add(2 * time.Second)}); cmd != nil {
		t.Error("frame from loop 1 should be dropped")
	}
	if _, cmd := update(t, m, frameMsg{id: 2, t: t0.Add(2 * time.Second)}); cmd == nil {
		t.Error("frame from loop 2 should continue the loop")
	}
}

func TestModel_NavigationKeys(t *testing.T) {
	m := newModel(t, "BEL")
	m.Init()

	tests := []struct {
		key        tea.KeyMsg
		wantCursor int
		wantState  timeline.State
	}{
		{runes("e"), 18, timeline.StateCompleted},
		{tea.KeyMsg{Type: tea.KeyLeft}, 17, timeline.StatePaused},
		{runes("g"), 0, timeline.StatePaused},
		{runes("l"), 1, timeline.StatePaused},
		{tea.KeyMsg{Type: tea.KeyRight}, 2, timeline.StatePaused},
		{runes("h"), 1, timeline.StatePaused},
		{tea.KeyMsg{Type: tea.KeyEnd}, 18, timeline.StateCompleted},
		{tea.KeyMsg{Type: tea.KeyHome}, 0, timeline.StatePaused},
		{runes("r"), 0, timeline.StateAutoPlaying},
	}

	for _, tt := range tests {
		m, _ = update(t, m, tt.key)
		if m.ctrl.Cursor() != tt.wantCursor || m.ctrl.State() != tt.wantState {
			t.Errorf("after %q: cursor %d state %v, want %d %v",
				tt.key.String(), m.ctrl.Cursor(), m.ctrl.State(), tt.wantCursor, tt.wantState)
		}
	}
}

func TestModel_CameraKeys(t *testing.T) {
	m := newModel(t, "BEL")
	start := m.scene.Camera

	m, _ = update(t, m, runes("+"))
	if m.scene.Camera.ZoomLevel != start.ZoomLevel+1 {
		t.Errorf("zoom in: level %d", m.scene.Camera.ZoomLevel)
	}
	m, _ = update(t, m, runes("-"))
	m, _ = update(t, m, runes("-"))
	if m.scene.Camera.ZoomLevel != start.ZoomLevel-1 {
		t.Errorf("zoom out: level %d", m.scene.Camera.ZoomLevel)
	}

	m, _ = update(t, m, runes("d"))
	if got := m.scene.Camera.LonDeg - start.LonDeg; got != orbitStep {
		t.Errorf("orbit east moved %v", got)
	}
	m, _ = update(t, m, runes("w"))
	if got := m.scene.Camera.LatDeg - start.LatDeg; got != orbitStep {
		t.Errorf("orbit north moved %v", got)
	}
}

func TestModel_View(t *testing.T) {
	m := newModel(t, "BEL")
	m.Init()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, runes("e"))

	view := m.View()
	for _, want := range []string{"Belgrano", "18 events", "5.058 km", timeline.CompletedMessage, "Totals", "Results"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_FooterCountdown(t *testing.T) {
	m := newModel(t, "BEL")
	m.Init()

	if footer := m.renderFooter(); !strings.Contains(footer, "next in 1.5s") {
		t.Errorf("warm-up footer = %q", footer)
	}

	m, _ = update(t, m, runes("p"))
	if footer := m.renderFooter(); strings.Contains(footer, "next in") {
		t.Errorf("paused footer shows a countdown: %q", footer)
	}
}

func TestModel_ErrorViews(t *testing.T) {
	m := newModel(t, "XXX")
	if m.Init() != nil {
		t.Error("error model should not start a loop")
	}
	if view := m.View(); !strings.Contains(view, "Team not found") {
		t.Errorf("unknown team view = %q", view)
	}
	if _, cmd := update(t, m, runes("e")); cmd != nil {
		t.Error("keys should be ignored in the error view")
	}
	if !errors.Is(m.state.Snapshot().LastError, fixture.ErrUnknownTeam) {
		t.Error("state should record the unknown team")
	}

	e := NewError(fmt.Errorf("trips.json: %w", fixture.ErrDatasetMissing))
	if view := e.View(); !strings.Contains(view, "Error loading data") {
		t.Errorf("load error view = %q", view)
	}
}

func TestPanels_TableShowsLatestRows(t *testing.T) {
	p := NewPanels()
	for i := 1; i <= 10; i++ {
		p.AppendRow(stats.Row{Date: fmt.Sprintf("R%02d", i), Rival: fmt.Sprintf("Rival %02d", i), Letter: "W", ModeName: "Bus"})
	}
	out := p.renderTable(38, 4)
	if strings.Contains(out, "Rival 01") || !strings.Contains(out, "Rival 10") {
		t.Errorf("table should scroll to the latest rows:\n%s", out)
	}

	p.ClearRows()
	if !strings.Contains(p.renderTable(38, 4), "No matches yet") {
		t.Error("cleared table should be empty")
	}
}

func TestPanels_Stats(t *testing.T) {
	p := NewPanels()
	if p.Stat("air.km") != "0" {
		t.Errorf("unset stat = %q", p.Stat("air.km"))
	}
	p.SetStat(stats.Cell{ID: "air.km", Value: "5.040"})
	if out := p.renderStats(38); !strings.Contains(out, "5.040") {
		t.Errorf("stats panel missing km:\n%s", out)
	}
}

func TestRenderGlobe_Dimensions(t *testing.T) {
	ds, err := fixture.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	sc := scene.New(ds.Stadiums, "BEL", nil)

	out := renderGlobe(sc, 60, 20)
	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("lines = %d, want 20", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 60 {
			t.Errorf("line %d width = %d, want 60", i, w)
		}
	}
	if !strings.ContainsRune(out, glyphHomePin) {
		t.Error("home pin should be visible from the default camera")
	}
}

func TestCanvas_ScreenRoundTrip(t *testing.T) {
	c := newCanvas(80, 24)
	for _, pt := range [][2]int{{0, 0}, {40, 12}, {79, 23}, {10, 5}} {
		x, y := c.screen(pt[0], pt[1])
		col, row, ok := c.cellAt(x, y)
		if !ok || col != pt[0] || row != pt[1] {
			t.Errorf("cell %v -> (%v, %v) -> %d,%d ok=%v", pt, x, y, col, row, ok)
		}
	}
}
