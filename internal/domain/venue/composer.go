package venue

import (
	"strings"

	"github.com/okian/venuemap/internal/domain/model"
)

// DefaultIcon is used for sports without a configured icon.
const DefaultIcon = "map-marker"

// View is the fallback map view used when no marker is placed.
type View struct {
	Center model.LatLon
	Zoom   int
}

// Style controls marker appearance.
type Style struct {
	DefaultColor string
	Icons        map[string]string
}

// Icon returns the marker icon for sport.
func (s Style) Icon(sport string) string {
	if icon, ok := s.Icons[sport]; ok && icon != "" {
		return icon
	}
	return DefaultIcon
}

// Color returns "#"+color for a team colour, or the default.
func (s Style) Color(color *string) string {
	if color != nil {
		if c := strings.TrimPrefix(strings.TrimSpace(*color), "#"); c != "" {
			return "#" + c
		}
	}
	return s.DefaultColor
}

// Composition is a rendered map plus what was left off it.
type Composition struct {
	View    model.MapView
	Skipped map[Miss]int
}

// Composer turns a season's membership into markers centred on their mean.
type Composer struct {
	fallback View
	style    Style
}

// NewComposer creates a Composer.
func NewComposer(fallback View, style Style) *Composer {
	return &Composer{fallback: fallback, style: style}
}

// Fallback returns the map view shown before anything is placed.
func (c *Composer) Fallback() model.MapView {
	return model.MapView{
		Center:  c.fallback.Center,
		Zoom:    c.fallback.Zoom,
		Markers: []model.Marker{},
	}
}

// Compose places one marker per season team whose venue resolves. Teams
// missing from the roster or without a location are skipped.
func (c *Composer) Compose(sport string, season []model.SeasonTeam, teams []model.Team, joiner *Joiner) Composition {
	out := Composition{
		View:    c.Fallback(),
		Skipped: map[Miss]int{},
	}
	icon := c.style.Icon(sport)

	var sumLat, sumLon float64
	for _, st := range season {
		team, ok := findTeam(teams, st.TeamID)
		if !ok {
			out.Skipped[MissTeam]++
			continue
		}
		loc, miss := joiner.ResolveDetailed(team.VenueID)
		if miss != MissNone {
			out.Skipped[miss]++
			continue
		}
		out.View.Markers = append(out.View.Markers, model.Marker{
			TeamID:       team.ID,
			TeamName:     team.DisplayName,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			Address:      loc.Address,
			LocationName: loc.Name,
			Color:        c.style.Color(team.Color),
			Icon:         icon,
		})
		sumLat += loc.Latitude
		sumLon += loc.Longitude
	}

	if n := len(out.View.Markers); n > 0 {
		out.View.Center = model.LatLon{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
		out.View.Recentered = true
	}
	return out
}

// Rosters are small, a linear scan is enough.
func findTeam(teams []model.Team, id model.ID) (model.Team, bool) {
	if id.Empty() {
		return model.Team{}, false
	}
	for _, t := range teams {
		if t.ID == id {
			return t, true
		}
	}
	return model.Team{}, false
}
