package timeline

import (
	"fmt"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/stats"
)

// CompletedMessage is shown once the cursor reaches the end of the itinerary.
const CompletedMessage = "Matches completed"

// Info is the text of the info panel.
type Info struct {
	Headline  string `json:"headline"`
	Distance  string `json:"distance,omitempty"`
	Round     string `json:"round,omitempty"`
	Completed bool   `json:"completed"`
}

// Bridge receives presentation updates from the controller. It never feeds data back.
type Bridge interface {
	SetInfo(Info)
	AppendRow(stats.Row)
	ClearRows()
	SetStat(stats.Cell)
}

// NopBridge discards every update.
type NopBridge struct{}

func (NopBridge) SetInfo(Info) {}

func (NopBridge) AppendRow(stats.Row) {}

func (NopBridge) ClearRows() {}

func (NopBridge) SetStat(stats.Cell) {}

// MultiBridge fans updates out to several bridges in order.
type MultiBridge []Bridge

func (m MultiBridge) SetInfo(info Info) {
	for _, b := range m {
		b.SetInfo(info)
	}
}

func (m MultiBridge) AppendRow(row stats.Row) {
	for _, b := range m {
		b.AppendRow(row)
	}
}

func (m MultiBridge) ClearRows() {
	for _, b := range m {
		b.ClearRows()
	}
}

func (m MultiBridge) SetStat(cell stats.Cell) {
	for _, b := range m {
		b.SetStat(cell)
	}
}

func completedInfo() Info {
	return Info{Headline: CompletedMessage, Completed: true}
}

// InfoFor describes an event for the info panel.
func InfoFor(ev fixture.Event, stadiums stats.StadiumLookup) Info {
	d := ev.Details()
	rival := stadiums.Stadium(ev.Opponent()).ShortName
	info := Info{
		Distance: stats.FormatKm(ev.DistanceKm()) + " km",
		Round:    fmt.Sprintf("Round %d - %s", d.Round, d.RoundLabel),
	}

	switch ev.(type) {
	case fixture.HomeMatch:
		info.Headline = "Home vs " + rival
	case fixture.Leg:
		info.Headline = "Trip to " + rival
	}
	return info
}
