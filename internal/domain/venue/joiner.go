// Package venue joins teams to geocoded venues and composes the map view.
package venue

import "github.com/okian/venuemap/internal/domain/model"

// Miss names the hop at which a venue lookup failed.
type Miss string

const (
	MissNone      Miss = ""
	MissTeam      Miss = "team"
	MissVenue     Miss = "venue"
	MissGeocoding Miss = "geocoding"
)

// Joiner resolves a venue id to a Location through the venue and
// geocoding datasets. It never errors; dangling ids resolve to nothing.
type Joiner struct {
	venues    model.Venues
	geocoding model.Geocoding
}

// NewJoiner creates a Joiner. Nil maps behave as empty ones.
func NewJoiner(venues model.Venues, geocoding model.Geocoding) *Joiner {
	return &Joiner{venues: venues, geocoding: geocoding}
}

// Resolve returns the venue's location, or false when any hop is missing.
func (j *Joiner) Resolve(venueID model.ID) (model.Location, bool) {
	loc, miss := j.ResolveDetailed(venueID)
	return loc, miss == MissNone
}

// ResolveDetailed is Resolve that also reports which hop missed.
func (j *Joiner) ResolveDetailed(venueID model.ID) (model.Location, Miss) {
	v, ok := j.venues[venueID.String()]
	if !ok || venueID.Empty() {
		return model.Location{}, MissVenue
	}
	rec, ok := j.geocoding[v.GeocodingID.String()]
	if !ok || v.GeocodingID.Empty() {
		return model.Location{}, MissGeocoding
	}
	loc, ok := rec.Location(v.GeocodingID)
	if !ok {
		return model.Location{}, MissGeocoding
	}
	return loc, MissNone
}
