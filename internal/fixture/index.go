package fixture

type roundKey struct {
	round       int
	competition string
}

// OutcomeIndex maps (round, competition) to the outcome recorded on the return leg.
type OutcomeIndex struct {
	byRound map[roundKey]Outcome
}

// NewOutcomeIndex scans events once and records the first return leg of every
// (round, competition). Later return legs with the same key are ignored, even
// when the first one carries no outcome.
func NewOutcomeIndex(events []Event) OutcomeIndex {
	idx := OutcomeIndex{byRound: make(map[roundKey]Outcome)}
	for _, ev := range events {
		leg, ok := ev.(Leg)
		if !ok || leg.Direction != Return {
			continue
		}
		k := roundKey{leg.Round, leg.Competition}
		if _, seen := idx.byRound[k]; !seen {
			idx.byRound[k] = leg.Outcome
		}
	}
	return idx
}

// Lookup returns the outcome for a round, and whether its return leg carried one.
func (idx OutcomeIndex) Lookup(round int, competition string) (Outcome, bool) {
	o := idx.byRound[roundKey{round, competition}]
	return o, o != OutcomeUnknown
}

// Len returns the number of indexed rounds.
func (idx OutcomeIndex) Len() int { return len(idx.byRound) }
