package fixture

import (
	"encoding/json"
	"fmt"
	"io"
)

// Wire names used by the static trips resource.
const (
	wireOutbound = "ida"
	wireReturn   = "vuelta"
	wireHome     = "local"

	wireWin  = "victoria"
	wireDraw = "empate"
	wireLoss = "derrota"
)

type wireTrip struct {
	Tipo        string  `json:"tipo"`
	Desde       string  `json:"desde,omitempty"`
	Hacia       string  `json:"hacia,omitempty"`
	Rival       string  `json:"rival,omitempty"`
	FechaNum    int     `json:"fechaNum"`
	Fecha       string  `json:"fecha"`
	Torneo      string  `json:"torneo"`
	DistanciaKm float64 `json:"distanciaKm,omitempty"`
	Resultado   string  `json:"resultado,omitempty"`
}

type wireStadium struct {
	Nombre      string  `json:"nombre"`
	NombreCorto string  `json:"nombreCorto"`
	Ciudad      string  `json:"ciudad"`
	Estadio     string  `json:"estadio"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// parseWireOutcome maps a wire result. An empty string is a legal unknown.
func parseWireOutcome(s string) (Outcome, error) {
	switch s {
	case "":
		return OutcomeUnknown, nil
	case wireWin:
		return OutcomeWin, nil
	case wireDraw:
		return OutcomeDraw, nil
	case wireLoss:
		return OutcomeLoss, nil
	default:
		return OutcomeUnknown, fmt.Errorf("unknown resultado %q", s)
	}
}

func wireOutcome(o Outcome) string {
	switch o {
	case OutcomeWin:
		return wireWin
	case OutcomeDraw:
		return wireDraw
	case OutcomeLoss:
		return wireLoss
	default:
		return ""
	}
}

func wireKind(k Kind) string {
	switch k {
	case KindOutbound:
		return wireOutbound
	case KindReturn:
		return wireReturn
	default:
		return wireHome
	}
}

// eventFromRecord builds an event from the flat record shape shared by JSON and SQL.
func eventFromRecord(r wireTrip) (Event, error) {
	outcome, err := parseWireOutcome(r.Resultado)
	if err != nil {
		return nil, err
	}
	m := Match{
		Round:       r.FechaNum,
		RoundLabel:  r.Fecha,
		Competition: r.Torneo,
		Outcome:     outcome,
	}

	switch r.Tipo {
	case wireOutbound:
		return Leg{Match: m, Direction: Outbound, From: r.Desde, To: r.Hacia, Distance: r.DistanciaKm}, nil
	case wireReturn:
		return Leg{Match: m, Direction: Return, From: r.Desde, To: r.Hacia, Distance: r.DistanciaKm}, nil
	case wireHome:
		return HomeMatch{Match: m, Rival: r.Rival}, nil
	default:
		return nil, fmt.Errorf("unknown tipo %q", r.Tipo)
	}
}

func recordFromEvent(ev Event) wireTrip {
	d := ev.Details()
	r := wireTrip{
		Tipo:      wireKind(ev.Kind()),
		FechaNum:  d.Round,
		Fecha:     d.RoundLabel,
		Torneo:    d.Competition,
		Resultado: wireOutcome(d.Outcome),
	}
	switch e := ev.(type) {
	case Leg:
		r.Desde = e.From
		r.Hacia = e.To
		r.DistanciaKm = e.Distance
	case HomeMatch:
		r.Rival = e.Rival
	}
	return r
}

// DecodeTrips decodes the team → itinerary resource.
func DecodeTrips(r io.Reader) (map[string][]Event, error) {
	var raw map[string][]wireTrip
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode trips: %v: %w", err, ErrDatasetMalformed)
	}

	trips := make(map[string][]Event, len(raw))
	for team, records := range raw {
		events := make([]Event, 0, len(records))
		for i, rec := range records {
			ev, err := eventFromRecord(rec)
			if err != nil {
				return nil, fmt.Errorf("team %s event %d: %v: %w", team, i, err, ErrDatasetMalformed)
			}
			events = append(events, ev)
		}
		trips[team] = events
	}
	return trips, nil
}

// DecodeStadiums decodes the code → stadium resource.
func DecodeStadiums(r io.Reader) (map[string]Stadium, error) {
	var raw map[string]wireStadium
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode stadiums: %v: %w", err, ErrDatasetMalformed)
	}

	stadiums := make(map[string]Stadium, len(raw))
	for code, w := range raw {
		stadiums[code] = Stadium{
			Code:      code,
			Name:      w.Nombre,
			ShortName: w.NombreCorto,
			City:      w.Ciudad,
			Venue:     w.Estadio,
			Lat:       w.Lat,
			Lon:       w.Lon,
		}
	}
	return stadiums, nil
}
