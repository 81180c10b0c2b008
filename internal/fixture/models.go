// Package fixture holds a team's travel itinerary and the stadium reference table.
package fixture

import (
	"fmt"
	"sort"
)

// BusThresholdKm is the distance below which a leg is travelled by bus.
const BusThresholdKm = 200.0

// Stadium is a row of the read-only stadium table.
type Stadium struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	City      string  `json:"city"`
	Venue     string  `json:"venue"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// Outcome is the result of a match from the team's point of view.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeWin
	OutcomeDraw
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeDraw:
		return "draw"
	case OutcomeLoss:
		return "loss"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter table code.
func (o Outcome) Letter() string {
	switch o {
	case OutcomeWin:
		return "W"
	case OutcomeDraw:
		return "D"
	case OutcomeLoss:
		return "L"
	default:
		return "-"
	}
}

// Kind discriminates the three event variants.
type Kind int

const (
	KindOutbound Kind = iota
	KindReturn
	KindHome
)

func (k Kind) String() string {
	switch k {
	case KindOutbound:
		return "outbound"
	case KindReturn:
		return "return"
	case KindHome:
		return "home"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Direction of an away leg.
type Direction int

const (
	Outbound Direction = iota
	Return
)

// Transport is the vehicle used on a leg.
type Transport int

const (
	Bus Transport = iota
	Air
)

func (t Transport) String() string {
	if t == Bus {
		return "bus"
	}
	return "air"
}

// TransportFor picks the vehicle for a leg of km kilometres.
func TransportFor(km float64) Transport {
	if km < BusThresholdKm {
		return Bus
	}
	return Air
}

// Match carries the fields shared by every event.
type Match struct {
	Round       int
	RoundLabel  string
	Competition string
	Outcome     Outcome
}

// Details returns the shared match fields.
func (m Match) Details() Match { return m }

// Event is one entry of a team's itinerary. The concrete type is either Leg or HomeMatch.
type Event interface {
	Kind() Kind
	Details() Match
	// Opponent returns the rival's stadium code.
	Opponent() string
	DistanceKm() float64
	sealed()
}

// Leg is one direction of an away trip.
type Leg struct {
	Match
	Direction Direction
	From      string
	To        string
	Distance  float64
}

func (l Leg) Kind() Kind {
	if l.Direction == Return {
		return KindReturn
	}
	return KindOutbound
}

func (l Leg) Opponent() string {
	if l.Direction == Return {
		return l.From
	}
	return l.To
}

func (l Leg) DistanceKm() float64 { return l.Distance }

// Transport returns the vehicle used for this leg.
func (l Leg) Transport() Transport { return TransportFor(l.Distance) }

func (Leg) sealed() {}

// HomeMatch is a match played at the team's own venue.
type HomeMatch struct {
	Match
	Rival string
}

func (HomeMatch) Kind() Kind { return KindHome }

func (h HomeMatch) Opponent() string { return h.Rival }

func (HomeMatch) DistanceKm() float64 { return 0 }

func (HomeMatch) sealed() {}

// Itinerary is a team's ordered timeline of events.
type Itinerary struct {
	Team   string
	Home   Stadium
	Events []Event
	Index  OutcomeIndex
}

// Len returns the number of events.
func (it *Itinerary) Len() int { return len(it.Events) }

// TotalDistanceKm sums the distance of every event.
func (it *Itinerary) TotalDistanceKm() float64 {
	var total float64
	for _, ev := range it.Events {
		total += ev.DistanceKm()
	}
	return total
}

// Dataset is the decoded stadium table plus every team's itinerary.
type Dataset struct {
	Stadiums    map[string]Stadium
	itineraries map[string][]Event
}

// NewDataset builds a dataset from already decoded parts.
func NewDataset(stadiums map[string]Stadium, trips map[string][]Event) *Dataset {
	if stadiums == nil {
		stadiums = make(map[string]Stadium)
	}
	if trips == nil {
		trips = make(map[string][]Event)
	}
	return &Dataset{Stadiums: stadiums, itineraries: trips}
}

// Teams returns the team codes with an itinerary, sorted.
func (d *Dataset) Teams() []string {
	codes := make([]string, 0, len(d.itineraries))
	for code := range d.itineraries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Stadium looks up a stadium. Unknown codes yield a placeholder named after the code.
func (d *Dataset) Stadium(code string) Stadium {
	if s, ok := d.Stadiums[code]; ok {
		return s
	}
	return Stadium{Code: code, Name: code, ShortName: code}
}

// Team returns the itinerary for code.
func (d *Dataset) Team(code string) (*Itinerary, error) {
	events, ok := d.itineraries[code]
	if !ok {
		return nil, fmt.Errorf("team %q: %w", code, ErrUnknownTeam)
	}
	return &Itinerary{
		Team:   code,
		Home:   d.Stadium(code),
		Events: events,
		Index:  NewOutcomeIndex(events),
	}, nil
}
