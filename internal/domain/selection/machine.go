package selection

import (
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
)

// Catalog is the static sport -> leagues enumeration.
type Catalog map[string][]string

// Sports returns the sports in name order.
func (c Catalog) Sports() []string {
	out := make([]string, 0, len(c))
	for sport := range c {
		out = append(out, sport)
	}
	sort.Strings(out)
	return out
}

// Leagues returns the leagues of sport in configured order.
func (c Catalog) Leagues(sport string) ([]string, bool) {
	leagues, ok := c[sport]
	if !ok {
		return nil, false
	}
	return slices.Clone(leagues), true
}

// Choice is one user selection event.
type Choice struct {
	Stage Stage
	Value string
}

// ParseStage maps the wire name of a stage.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "sport":
		return SportChosen, nil
	case "league":
		return LeagueChosen, nil
	case "season":
		return SeasonChosen, nil
	}
	return Unset, errors.Wrapf(ErrUnknownStage, "stage %q", name)
}

// Machine validates choices against a Catalog before applying the pure
// transitions.
type Machine struct {
	catalog Catalog
}

// NewMachine creates a Machine over catalog.
func NewMachine(catalog Catalog) *Machine {
	return &Machine{catalog: catalog}
}

// Catalog returns the machine's catalog.
func (m *Machine) Catalog() Catalog { return m.catalog }

// Apply returns the selection after choice, or s unchanged and an error
// when the choice is not valid for s. Season choices need s.Seasons loaded.
func (m *Machine) Apply(s Selection, c Choice) (Selection, error) {
	switch c.Stage {
	case SportChosen:
		if _, ok := m.catalog[c.Value]; !ok {
			return s, errors.Wrapf(ErrUnknownSport, "sport %q", c.Value)
		}
		return ChooseSport(s, c.Value), nil

	case LeagueChosen:
		if s.Sport == "" {
			return s, ErrSportNotChosen
		}
		if !slices.Contains(m.catalog[s.Sport], c.Value) {
			return s, errors.Wrapf(ErrUnknownLeague, "league %q for sport %q", c.Value, s.Sport)
		}
		return ChooseLeague(s, c.Value), nil

	case SeasonChosen:
		if s.Sport == "" {
			return s, ErrSportNotChosen
		}
		if s.League == "" {
			return s, ErrLeagueNotChosen
		}
		if !slices.Contains(s.Seasons, c.Value) {
			return s, errors.Wrapf(ErrUnknownSeason, "season %q for %s/%s", c.Value, s.Sport, s.League)
		}
		return ChooseSeason(s, c.Value), nil
	}
	return s, errors.Wrapf(ErrUnknownStage, "stage %d", int(c.Stage))
}
