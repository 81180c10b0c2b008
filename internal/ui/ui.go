// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/scene"
	"github.com/litescript/ls-awaydays/internal/state"
	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
	"github.com/litescript/ls-awaydays/internal/version"
)

const (
	sidebarWidth = 42

	// Orbit step in degrees
	orbitStep = 5.0

	spinnerInterval = 80 * time.Millisecond
)

// Msg types for Bubble Tea
type (
	// frameMsg drives the controller. Only the loop with the current id continues.
	frameMsg struct {
		id int
		t  time.Time
	}

	// spinnerMsg animates the footer spinner.
	spinnerMsg time.Time
)

// Options configures the model.
type Options struct {
	Timings timeline.Config
	Texture scene.Texture
	// Extra receives the same presentation updates as the panels.
	Extra timeline.Bridge
	State *state.Manager
	Log   *logging.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	it     *fixture.Itinerary
	scene  *scene.Scene
	ctrl   *timeline.Controller
	panels *Panels
	state  *state.Manager
	log    *logging.Logger
	now    func() time.Time

	// Terminal errors replace the whole view
	err error

	width  int
	height int
	ready  bool

	// Frame loop
	loopID  int
	looping bool
	spin    int
}

// New creates the model for one team. An unknown team yields the "Team not found" view.
func New(ds *fixture.Dataset, team string, opts Options) Model {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.State == nil {
		opts.State = state.NewManager(state.DefaultConfig())
	}

	m := Model{state: opts.State, log: opts.Log, now: time.Now}
	it, err := ds.Team(team)
	if err != nil {
		m.err = err
		opts.State.SetError(err)
		return m
	}

	m.it = it
	m.scene = scene.New(ds.Stadiums, it.Team, opts.Texture)
	m.panels = NewPanels()

	var bridge timeline.Bridge = m.panels
	if opts.Extra != nil {
		bridge = timeline.MultiBridge{m.panels, opts.Extra}
	}
	m.ctrl = timeline.New(it, ds, m.scene, bridge, opts.Timings, opts.Log.Named("timeline"))

	// Init starts loop 1
	m.loopID = 1
	m.looping = true
	return m
}

// NewError creates a model that only shows a dataset loading failure.
func NewError(err error) Model {
	return Model{err: err, now: time.Now, log: logging.Discard()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	m.ctrl.Start(m.now())
	return tea.Batch(spinnerCmd(), frameCmd(1, m.ctrl.Config().FrameInterval))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.ctrl == nil {
			return m, nil
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case frameMsg:
		return m.handleFrame(msg)

	case spinnerMsg:
		m.spin++
		return m, spinnerCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := m.now()
	cam := m.scene.Camera

	switch msg.String() {
	case "r":
		m.ctrl.Restart(now)
	case "left", "h":
		m.ctrl.StepBackward()
	case " ", "space", "p":
		m.ctrl.TogglePause(now)
	case "right", "l":
		m.ctrl.StepForward()
	case "e", "end":
		m.ctrl.JumpToEnd()
	case "g", "home":
		m.ctrl.JumpToStart()

	case "w", "shift+up":
		m.scene.Camera = cam.Pan(orbitStep, 0)
	case "s", "shift+down":
		m.scene.Camera = cam.Pan(-orbitStep, 0)
	case "a", "shift+left":
		m.scene.Camera = cam.Pan(0, -orbitStep)
	case "d", "shift+right":
		m.scene.Camera = cam.Pan(0, orbitStep)
	case "+", "=":
		m.scene.Camera = cam.ZoomIn()
	case "-", "_":
		m.scene.Camera = cam.ZoomOut()

	default:
		return m, nil
	}

	m.record(now)
	var cmd tea.Cmd
	m, cmd = m.ensureLoop()
	return m, cmd
}

// handleFrame ticks the controller. Frames from a superseded loop are dropped.
func (m Model) handleFrame(msg frameMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil || msg.id != m.loopID {
		return m, nil
	}

	m.ctrl.Tick(msg.t)
	m.record(msg.t)

	if !m.ctrl.Busy() {
		m.looping = false
		return m, nil
	}
	return m, frameCmd(m.loopID, m.ctrl.Config().FrameInterval)
}

// ensureLoop starts the frame loop if the controller has work and no loop is running.
func (m Model) ensureLoop() (Model, tea.Cmd) {
	if m.looping || m.ctrl == nil || !m.ctrl.Busy() {
		return m, nil
	}
	m.loopID++
	m.looping = true
	return m, frameCmd(m.loopID, m.ctrl.Config().FrameInterval)
}

func (m Model) record(now time.Time) {
	m.state.Update(m.ctrl.Snapshot(now), now)
}

func frameCmd(id int, interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = timeline.DefaultConfig().FrameInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg{id: id, t: t}
	})
}

func spinnerCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerMsg(t)
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.err != nil {
		return m.renderError()
	}
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	globeWidth := m.width - sidebarWidth - 1
	if globeWidth < 10 {
		globeWidth = 10
	}
	globe := renderGlobe(m.scene, globeWidth, bodyHeight)

	info := m.panels.renderInfo(sidebarWidth - 4)
	totals := m.panels.renderStats(sidebarWidth - 4)
	tableHeight := bodyHeight - lipgloss.Height(info) - lipgloss.Height(totals) - 2
	table := m.panels.renderTable(sidebarWidth-4, tableHeight)
	sidebar := lipgloss.JoinVertical(lipgloss.Left, info, totals, table)

	body := lipgloss.JoinHorizontal(lipgloss.Top, globe, " ", sidebar)
	return header + "\n" + body + "\n" + footer
}

func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(scene.ColorHomePin))
	return "  " + titleStyle.Render(m.it.Home.ShortName) + dimStyle.Render(fmt.Sprintf(
		"  %d events · %s km  ·  ls-awaydays v%s",
		m.it.Len(), stats.FormatKm(m.it.TotalDistanceKm()), version.Version))
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Model) renderFooter() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	snap := m.ctrl.Snapshot(m.now())

	status := dimStyle.Render("■")
	if m.ctrl.Busy() {
		status = accentStyle.Render(spinnerFrames[m.spin%len(spinnerFrames)])
	}
	status += dimStyle.Render(fmt.Sprintf(" %s %d/%d", snap.State, snap.Cursor, snap.Total))
	if left, ok := m.ctrl.NextIn(m.now()); ok && !snap.Paused {
		status += dimStyle.Render(fmt.Sprintf(" next in %.1fs", left.Seconds()))
	}

	control := func(label string, enabled bool) string {
		if enabled {
			return onStyle.Render(label)
		}
		return dimStyle.Render(label)
	}
	pause := "space: pause"
	if snap.Paused {
		pause = "space: play"
	}
	controls := strings.Join([]string{
		control("r: restart", true),
		control("←: back", snap.CanStepBack),
		control(pause, snap.State != timeline.StateCompleted),
		control("→: next", snap.CanStepForward),
		control("e: end", snap.CanStepForward),
		control("g: start", snap.CanStepBack),
	}, dimStyle.Render(" | "))

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + controls
	footer += "\n  " + dimStyle.Render("wasd: orbit | +/-: zoom | q: quit")
	if ev := m.state.RecentEvents(1); len(ev) == 1 {
		footer += dimStyle.Render("  ·  " + describeEvent(ev[0]))
	}
	return footer
}

func describeEvent(e state.Event) string {
	switch e.Type {
	case state.EventLaunch, state.EventLanding:
		return fmt.Sprintf("%s %s→%s", strings.ToLower(string(e.Type)), e.From, e.To)
	case state.EventStateChanged:
		return e.OldState + " → " + e.NewState
	default:
		return fmt.Sprintf("%s @%d", strings.ToLower(string(e.Type)), e.Cursor)
	}
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString("\n  ")
	if errors.Is(m.err, fixture.ErrUnknownTeam) {
		b.WriteString(errorStyle.Bold(true).Render("Team not found"))
	} else {
		b.WriteString(errorStyle.Bold(true).Render("Error loading data"))
	}
	b.WriteString("\n\n  ")
	b.WriteString(dimStyle.Render(m.err.Error()))
	b.WriteString("\n\n  ")
	b.WriteString(dimStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}
