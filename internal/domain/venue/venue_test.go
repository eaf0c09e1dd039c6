package venue_test

import (
	"testing"

	"github.com/bytedance/sonic"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/venuemap/internal/domain/model"
	"github.com/okian/venuemap/internal/domain/venue"
)

func ptr[T any](v T) *T { return &v }

func record(name, addr string, lat, lon float64) model.GeocodedRecord {
	return model.GeocodedRecord{Name: ptr(name), CodedAddress: ptr(addr), Latitude: ptr(lat), Longitude: ptr(lon)}
}

var (
	fallback = venue.View{Center: model.LatLon{Lat: 37.0902, Lon: -95.7129}, Zoom: 4}
	style    = venue.Style{DefaultColor: "black", Icons: map[string]string{"football": "football"}}
)

func TestJoiner(t *testing.T) {
	Convey("Given venues and geocoding with dangling references", t, func() {
		venues := model.Venues{
			"1": {GeocodingID: "g1"},
			"2": {GeocodingID: "g-missing"},
			"3": {GeocodingID: "g3"},
			"4": {GeocodingID: ""},
		}
		geocoding := model.Geocoding{
			"g1": record("Arrowhead", "1 Arrowhead Dr", 39.04, -94.48),
			"g3": {Name: ptr("No coords"), CodedAddress: ptr("somewhere")},
		}
		j := venue.NewJoiner(venues, geocoding)

		Convey("When resolving a complete chain", func() {
			loc, ok := j.Resolve("1")

			Convey("Then the full location should be returned", func() {
				So(ok, ShouldBeTrue)
				So(loc.ID, ShouldEqual, model.ID("g1"))
				So(loc.Name, ShouldEqual, "Arrowhead")
				So(loc.Address, ShouldEqual, "1 Arrowhead Dr")
				So(loc.Latitude, ShouldEqual, 39.04)
				So(loc.Longitude, ShouldEqual, -94.48)
			})
		})

		Convey("When resolving broken chains", func() {
			Convey("Then each should report the missing hop", func() {
				_, miss := j.ResolveDetailed("99")
				So(miss, ShouldEqual, venue.MissVenue)
				_, miss = j.ResolveDetailed("")
				So(miss, ShouldEqual, venue.MissVenue)
				_, miss = j.ResolveDetailed("2")
				So(miss, ShouldEqual, venue.MissGeocoding)
				_, miss = j.ResolveDetailed("3")
				So(miss, ShouldEqual, venue.MissGeocoding)
				_, miss = j.ResolveDetailed("4")
				So(miss, ShouldEqual, venue.MissGeocoding)
			})
		})

		Convey("When every venue id is resolved", func() {
			Convey("Then results should be all or nothing", func() {
				for _, id := range []model.ID{"1", "2", "3", "4", "99", ""} {
					loc, ok := j.Resolve(id)
					if ok {
						So(loc.Name, ShouldNotBeEmpty)
						So(loc.Address, ShouldNotBeEmpty)
					} else {
						So(loc, ShouldResemble, model.Location{})
					}
				}
			})
		})

		Convey("When the datasets are nil", func() {
			_, ok := venue.NewJoiner(nil, nil).Resolve("1")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given ids published as numbers", t, func() {
		var venues model.Venues
		So(sonic.Unmarshal([]byte(`{"12":{"geocodingId":7}}`), &venues), ShouldBeNil)
		geocoding := model.Geocoding{"7": record("Lambeau", "1265 Lombardi Ave", 44.5, -88.06)}
		var team model.Team
		So(sonic.Unmarshal([]byte(`{"id":9,"displayName":"Packers","venueId":12}`), &team), ShouldBeNil)

		Convey("Then they should join like strings", func() {
			loc, ok := venue.NewJoiner(venues, geocoding).Resolve(team.VenueID)
			So(ok, ShouldBeTrue)
			So(loc.Name, ShouldEqual, "Lambeau")
		})
	})
}

func TestComposer(t *testing.T) {
	Convey("Given two geolocated teams", t, func() {
		venues := model.Venues{"v1": {GeocodingID: "g1"}, "v2": {GeocodingID: "g2"}}
		geocoding := model.Geocoding{
			"g1": record("North", "1 North St", 10, 20),
			"g2": record("South", "2 South St", 30, 40),
		}
		teams := []model.Team{
			{ID: "1", DisplayName: "Chiefs", VenueID: "v1", Color: ptr("e31837")},
			{ID: "2", DisplayName: "Packers", VenueID: "v2"},
		}
		season := []model.SeasonTeam{{TeamID: "1"}, {TeamID: "2"}}
		c := venue.NewComposer(fallback, style)

		Convey("When composing the map", func() {
			out := c.Compose("football", season, teams, venue.NewJoiner(venues, geocoding))

			Convey("Then the centre should be the exact mean", func() {
				So(out.View.Recentered, ShouldBeTrue)
				So(out.View.Center, ShouldResemble, model.LatLon{Lat: 20, Lon: 30})
				So(out.View.Zoom, ShouldEqual, 4)
			})

			Convey("Then each team should get a styled marker", func() {
				So(out.View.Markers, ShouldHaveLength, 2)
				So(out.View.Markers[0], ShouldResemble, model.Marker{
					TeamID: "1", TeamName: "Chiefs", Latitude: 10, Longitude: 20,
					Address: "1 North St", LocationName: "North", Color: "#e31837", Icon: "football",
				})
				So(out.View.Markers[1].Color, ShouldEqual, "black")
				So(out.Skipped, ShouldBeEmpty)
			})
		})

		Convey("When the sport has no icon", func() {
			out := c.Compose("hockey", season, teams, venue.NewJoiner(venues, geocoding))
			So(out.View.Markers[0].Icon, ShouldEqual, venue.DefaultIcon)
		})

		Convey("When one team cannot be found and one cannot be located", func() {
			season = append(season, model.SeasonTeam{TeamID: "404"})
			teams = append(teams, model.Team{ID: "3", DisplayName: "Nowhere", VenueID: "v-missing"})
			season = append(season, model.SeasonTeam{TeamID: "3"})
			out := c.Compose("football", season, teams, venue.NewJoiner(venues, geocoding))

			Convey("Then both should be skipped without moving the centre", func() {
				So(out.View.Markers, ShouldHaveLength, 2)
				So(out.View.Center, ShouldResemble, model.LatLon{Lat: 20, Lon: 30})
				So(out.Skipped[venue.MissTeam], ShouldEqual, 1)
				So(out.Skipped[venue.MissVenue], ShouldEqual, 1)
			})
		})

		Convey("When the geocoding dataset is empty", func() {
			out := c.Compose("football", season, teams, venue.NewJoiner(venues, model.Geocoding{}))

			Convey("Then the default view should be kept with no markers", func() {
				So(out.View.Markers, ShouldBeEmpty)
				So(out.View.Markers, ShouldNotBeNil)
				So(out.View.Recentered, ShouldBeFalse)
				So(out.View.Center, ShouldResemble, fallback.Center)
				So(out.View.Zoom, ShouldEqual, 4)
				So(out.Skipped[venue.MissGeocoding], ShouldEqual, 2)
			})
		})

		Convey("When a location sits at zero coordinates", func() {
			geocoding["g1"] = record("Null Island", "0,0", 0, 0)
			out := c.Compose("football", season[:1], teams, venue.NewJoiner(venues, geocoding))

			Convey("Then it should still be placed", func() {
				So(out.View.Markers, ShouldHaveLength, 1)
				So(out.View.Center, ShouldResemble, model.LatLon{Lat: 0, Lon: 0})
				So(out.View.Recentered, ShouldBeTrue)
			})
		})
	})
}

func TestStyle(t *testing.T) {
	Convey("Given marker colours", t, func() {
		So(style.Color(nil), ShouldEqual, "black")
		So(style.Color(ptr("")), ShouldEqual, "black")
		So(style.Color(ptr("  ")), ShouldEqual, "black")
		So(style.Color(ptr("003366")), ShouldEqual, "#003366")
		So(style.Color(ptr("#003366")), ShouldEqual, "#003366")
	})
}
