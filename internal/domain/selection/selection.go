// Package selection holds the sport, league and season a user has picked
// and the transitions between them. Changing an upstream choice clears
// every downstream choice.
package selection

import "slices"

// Stage is how far down the sport -> league -> season chain a Selection is.
type Stage int

const (
	Unset Stage = iota
	SportChosen
	LeagueChosen
	SeasonChosen
)

func (s Stage) String() string {
	switch s {
	case SportChosen:
		return "sport"
	case LeagueChosen:
		return "league"
	case SeasonChosen:
		return "season"
	default:
		return "unset"
	}
}

// Selection is one session's choice. The zero value is Unset.
type Selection struct {
	Sport  string `json:"sport,omitempty"`
	League string `json:"league,omitempty"`
	Season string `json:"season,omitempty"`

	// Seasons is the league's season list, loaded lazily once a league is
	// chosen. nil means not loaded yet.
	Seasons []string `json:"-"`
}

// Stage derives the state from which fields are set.
func (s Selection) Stage() Stage {
	switch {
	case s.Sport == "":
		return Unset
	case s.League == "":
		return SportChosen
	case s.Season == "":
		return LeagueChosen
	default:
		return SeasonChosen
	}
}

// SeasonsLoaded reports whether the season list has been attached.
func (s Selection) SeasonsLoaded() bool { return s.Seasons != nil }

// ChooseSport commits sport. A different sport clears league, season and
// the season list.
func ChooseSport(s Selection, sport string) Selection {
	if sport == s.Sport {
		return s
	}
	return Selection{Sport: sport}
}

// ChooseLeague commits league. A different league clears season and the
// season list.
func ChooseLeague(s Selection, league string) Selection {
	if league == s.League {
		return s
	}
	return Selection{Sport: s.Sport, League: league}
}

// ChooseSeason commits season. Nothing upstream is touched.
func ChooseSeason(s Selection, season string) Selection {
	s.Season = season
	return s
}

// WithSeasons attaches a league's season list. A committed season that is
// not in the list is dropped.
func WithSeasons(s Selection, seasons []string) Selection {
	if seasons == nil {
		seasons = []string{}
	}
	s.Seasons = slices.Clone(seasons)
	if s.Season != "" && !slices.Contains(s.Seasons, s.Season) {
		s.Season = ""
	}
	return s
}
