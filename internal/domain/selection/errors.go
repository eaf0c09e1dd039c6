package selection

import "github.com/cockroachdb/errors"

// Sentinel kinds for rejected selection events.
var (
	ErrUnknownStage    = errors.New("unknown selection stage")
	ErrUnknownSport    = errors.New("unknown sport")
	ErrUnknownLeague   = errors.New("unknown league")
	ErrUnknownSeason   = errors.New("unknown season")
	ErrSportNotChosen  = errors.New("sport not chosen")
	ErrLeagueNotChosen = errors.New("league not chosen")
)
