package fixture

import "errors"

var (
	// ErrDatasetMissing means the trips or stadiums resource could not be found.
	ErrDatasetMissing = errors.New("dataset missing")

	// ErrDatasetMalformed means the resource was found but could not be decoded.
	ErrDatasetMalformed = errors.New("dataset malformed")

	// ErrUnknownTeam means the dataset has no itinerary for the requested team.
	ErrUnknownTeam = errors.New("team not found")
)
