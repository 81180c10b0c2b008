// Package export renders playback state for headless use: a JSON snapshot and text tables.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

// SnapshotExport is the JSON-serializable representation of a playback position.
type SnapshotExport struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	Team            string            `json:"team"`
	TeamName        string            `json:"team_name"`
	TotalEvents     int               `json:"total_events"`
	TotalDistanceKm float64           `json:"total_distance_km"`
	Playback        timeline.Snapshot `json:"playback"`
}

// ExportSnapshot wraps a playback snapshot with itinerary totals.
func ExportSnapshot(it *fixture.Itinerary, snap timeline.Snapshot, generatedAt time.Time) *SnapshotExport {
	return &SnapshotExport{
		GeneratedAt:     generatedAt,
		Team:            it.Team,
		TeamName:        it.Home.ShortName,
		TotalEvents:     it.Len(),
		TotalDistanceKm: it.TotalDistanceKm(),
		Playback:        snap,
	}
}

// WriteJSON writes the snapshot as JSON to the given writer.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteSummaryTable writes the header, the results table and the statistics panel as text.
func WriteSummaryTable(w io.Writer, it *fixture.Itinerary, snap timeline.Snapshot) {
	fmt.Fprintf(w, "%s: %d events, %s km\n", it.Home.ShortName, it.Len(), stats.FormatKm(it.TotalDistanceKm()))
	fmt.Fprintf(w, "Position %d/%d (%s)\n", snap.Cursor, snap.Total, snap.State)
	fmt.Fprintln(w, strings.Repeat("─", 72))

	info := snap.Info.Headline
	if !snap.Info.Completed && snap.Info.Round != "" {
		info = fmt.Sprintf("%s · %s · %s", snap.Info.Headline, snap.Info.Distance, snap.Info.Round)
	}
	fmt.Fprintf(w, "Next: %s\n", info)
	fmt.Fprintln(w, strings.Repeat("─", 72))

	if len(snap.Rows) == 0 {
		fmt.Fprintln(w, "No matches played")
	} else {
		fmt.Fprintf(w, "%-6s %-5s %-24s %-20s %-4s %-3s\n", "Date", "Round", "Competition", "Rival", "Mode", "Res")
		fmt.Fprintln(w, strings.Repeat("─", 72))
		for _, r := range snap.Rows {
			res := r.Letter
			if r.Inferred {
				res += "*"
			}
			fmt.Fprintf(w, "%-6s %5d %-24s %-20s %-4s %-3s\n",
				truncateStr(r.Date, 6),
				r.Round,
				truncateStr(r.Competition, 24),
				truncateStr(r.Rival, 20),
				r.Mode,
				res,
			)
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-6s %3s %3s %3s %10s\n", "", "W", "D", "L", "km")
	writeTally(w, "Home", snap.Totals.Home, false)
	writeTally(w, "Bus", snap.Totals.Bus, true)
	writeTally(w, "Air", snap.Totals.Air, true)
}

func writeTally(w io.Writer, label string, t stats.Tally, withKm bool) {
	km := ""
	if withKm {
		km = stats.FormatKm(t.DistanceKm)
	}
	fmt.Fprintf(w, "%-6s %3d %3d %3d %10s\n", label, t.Wins, t.Draws, t.Losses, km)
}

// TeamSummary is one entry of the team list.
type TeamSummary struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	ShortName  string  `json:"short_name"`
	City       string  `json:"city"`
	Events     int     `json:"events"`
	DistanceKm float64 `json:"distance_km"`
}

// TeamSummaries lists every team with an itinerary, sorted by code.
func TeamSummaries(ds *fixture.Dataset) []TeamSummary {
	var out []TeamSummary
	for _, code := range ds.Teams() {
		it, err := ds.Team(code)
		if err != nil {
			continue
		}
		out = append(out, TeamSummary{
			Code:       code,
			Name:       it.Home.Name,
			ShortName:  it.Home.ShortName,
			City:       it.Home.City,
			Events:     it.Len(),
			DistanceKm: it.TotalDistanceKm(),
		})
	}
	return out
}

// WriteTeamList writes the team list as a text table.
func WriteTeamList(w io.Writer, ds *fixture.Dataset) {
	teams := TeamSummaries(ds)
	if len(teams) == 0 {
		fmt.Fprintln(w, "No teams")
		return
	}

	fmt.Fprintf(w, "%-5s %-22s %-18s %6s %10s\n", "Code", "Team", "City", "Events", "km")
	fmt.Fprintln(w, strings.Repeat("─", 65))
	for _, t := range teams {
		fmt.Fprintf(w, "%-5s %-22s %-18s %6d %10s\n",
			t.Code, truncateStr(t.ShortName, 22), truncateStr(t.City, 18), t.Events, stats.FormatKm(t.DistanceKm))
	}
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-2]) + ".."
}
