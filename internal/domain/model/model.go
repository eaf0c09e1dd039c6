// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"strconv"
	"strings"
)

// ID is an upstream identifier. Datasets publish ids as JSON strings or
// numbers; both decode to the same textual form so 12 and "12" are equal.
type ID string

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*id = ""
	case data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return &strconv.NumError{Func: "ID", Num: string(data), Err: strconv.ErrSyntax}
		}
		*id = ID(data)
	}
	return nil
}

// String returns the id text.
func (id ID) String() string { return string(id) }

// Empty reports whether the id is missing.
func (id ID) Empty() bool { return id == "" }

// GeocodedRecord is one entry of the geocoding dataset as published.
// Every field is optional upstream.
type GeocodedRecord struct {
	Name         *string  `json:"name"`
	CodedAddress *string  `json:"codedAddress"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Location is a fully populated geocoded record.
type Location struct {
	ID        ID      `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Location converts the record, reporting false when any field is null.
// Empty strings are kept as given.
func (r GeocodedRecord) Location(id ID) (Location, bool) {
	if r.Name == nil || r.CodedAddress == nil || r.Latitude == nil || r.Longitude == nil {
		return Location{}, false
	}
	return Location{
		ID:        id,
		Name:      *r.Name,
		Address:   *r.CodedAddress,
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
	}, true
}

// Venue is one entry of a league's venue dataset.
type Venue struct {
	GeocodingID ID `json:"geocodingId"`
}

// Team is one entry of a league roster.
type Team struct {
	ID          ID      `json:"id"`
	DisplayName string  `json:"displayName"`
	VenueID     ID      `json:"venueId"`
	Color       *string `json:"color"`
}

// SeasonTeam marks a team as active in a season.
type SeasonTeam struct {
	TeamID ID `json:"teamId"`
}

// Geocoding maps geocoding id to record.
type Geocoding map[string]GeocodedRecord

// Venues maps venue id to venue.
type Venues map[string]Venue

// LatLon is a map coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Marker is one team pin on the map. It only lives for a render pass.
type Marker struct {
	TeamID       ID      `json:"teamId"`
	TeamName     string  `json:"team"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lon"`
	Address      string  `json:"address"`
	LocationName string  `json:"location"`
	Color        string  `json:"color"`
	Icon         string  `json:"icon"`
}

// MapView is what the page draws.
type MapView struct {
	Center     LatLon   `json:"center"`
	Zoom       int      `json:"zoom"`
	Recentered bool     `json:"recentered"`
	Markers    []Marker `json:"markers"`
}
