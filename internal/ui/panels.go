package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

// Styles for the side panels
var (
	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1)

	headlineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	rowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var letterColors = map[string]lipgloss.Color{
	fixture.OutcomeWin.Letter():  lipgloss.Color("#00CC66"),
	fixture.OutcomeDraw.Letter(): lipgloss.Color("#FFCC00"),
	fixture.OutcomeLoss.Letter(): lipgloss.Color("#FF3333"),
}

// Panels holds the text the controller pushes for the info, stats and table panels.
type Panels struct {
	info  timeline.Info
	rows  []stats.Row
	cells map[string]string
}

// NewPanels creates empty panels.
func NewPanels() *Panels {
	return &Panels{cells: make(map[string]string)}
}

func (p *Panels) SetInfo(info timeline.Info) { p.info = info }

func (p *Panels) AppendRow(row stats.Row) { p.rows = append(p.rows, row) }

func (p *Panels) ClearRows() { p.rows = nil }

func (p *Panels) SetStat(cell stats.Cell) { p.cells[cell.ID] = cell.Value }

// Stat returns a statistics cell value, "0" when never set.
func (p *Panels) Stat(id string) string {
	if v, ok := p.cells[id]; ok {
		return v
	}
	return "0"
}

// Rows returns the table rows.
func (p *Panels) Rows() []stats.Row { return p.rows }

// Info returns the info panel text.
func (p *Panels) Info() timeline.Info { return p.info }

func (p *Panels) renderInfo(width int) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Match"))
	b.WriteString("\n")

	if p.info.Headline == "" {
		b.WriteString(dimStyle.Render("Get ready..."))
		return panelStyle.Width(width).Render(b.String())
	}

	b.WriteString(headlineStyle.Render(p.info.Headline))
	if p.info.Distance != "" {
		b.WriteString("\n" + rowStyle.Render(p.info.Distance))
	}
	if p.info.Round != "" {
		b.WriteString("\n" + dimStyle.Render(p.info.Round))
	}
	return panelStyle.Width(width).Render(b.String())
}

func (p *Panels) renderStats(width int) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Totals"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%-5s %3s %3s %3s %9s", "", "W", "D", "L", "km")))

	for _, m := range []struct {
		label, key string
		km         bool
	}{
		{"Home", "home", false},
		{"Bus", "bus", true},
		{"Air", "air", true},
	} {
		km := ""
		if m.km {
			km = p.Stat(m.key + ".km")
		}
		b.WriteString("\n")
		b.WriteString(rowStyle.Render(fmt.Sprintf("%-5s %3s %3s %3s %9s",
			m.label, p.Stat(m.key+".w"), p.Stat(m.key+".d"), p.Stat(m.key+".l"), km)))
	}
	return panelStyle.Width(width).Render(b.String())
}

// renderTable shows the most recent rows that fit in height lines.
func (p *Panels) renderTable(width, height int) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Results"))

	visible := height - 1
	if visible < 1 {
		visible = 1
	}
	rows := p.rows
	if len(rows) > visible {
		rows = rows[len(rows)-visible:]
	}

	if len(rows) == 0 {
		b.WriteString("\n" + dimStyle.Render("No matches yet"))
	}
	for _, r := range rows {
		letter := r.Letter
		if r.Inferred {
			letter += "*"
		}
		style := lipgloss.NewStyle().Foreground(letterColors[r.Letter]).Bold(true)
		line := fmt.Sprintf("%-10s %-16s %-4s ", truncate(r.Date, 10), truncate(r.Rival, 16), truncate(r.ModeName, 4))
		b.WriteString("\n" + rowStyle.Render(line) + style.Render(letter))
	}
	return panelStyle.Width(width).Render(b.String())
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
