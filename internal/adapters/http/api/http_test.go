package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/venuemap/internal/adapters/http/api"
	"github.com/okian/venuemap/internal/domain/selection"
)

// mockDependencies records calls and returns canned views.
type mockDependencies struct {
	chooseErr error
	sessions  []string
	choices   [][2]string
}

func (m *mockDependencies) Sports() []string { return []string{"football"} }

func (m *mockDependencies) Leagues(sport string) ([]string, error) {
	if sport != "football" {
		return nil, errors.Wrapf(selection.ErrUnknownSport, "sport %q", sport)
	}
	return []string{"nfl", "college-football"}, nil
}

func (m *mockDependencies) View(_ context.Context, sessionID string) api.View {
	m.sessions = append(m.sessions, sessionID)
	return api.View{Stage: "unset", Sports: m.Sports()}
}

func (m *mockDependencies) Choose(_ context.Context, sessionID, stage, value string) (api.View, error) {
	m.sessions = append(m.sessions, sessionID)
	if m.chooseErr != nil {
		return api.View{}, m.chooseErr
	}
	m.choices = append(m.choices, [2]string{stage, value})
	return api.View{Stage: stage, Selection: selection.Selection{Sport: value}}, nil
}

func (m *mockDependencies) Reset(_ context.Context, sessionID string) api.View {
	m.sessions = append(m.sessions, sessionID)
	return api.View{Stage: "unset"}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"sessions": 3}}).Register(context.Background(), mux)
	return mux
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(sonic.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("When requesting the health endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should serve Prometheus metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "venuemap_dashboard_")
			})
		})

		Convey("When requesting stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the provider's stats should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["sessions"], ShouldEqual, 3.0)
			})
		})

		Convey("When posting to stats", func() {
			req := httptest.NewRequest(http.MethodPost, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCatalogHandler(t *testing.T) {
	Convey("Given the catalog endpoints", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("When listing sports", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sports", nil))

			Convey("Then the catalog sports should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["sports"], ShouldResemble, []any{"football"})
			})
		})

		Convey("When listing leagues of a known sport", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leagues/football", nil))

			Convey("Then its leagues should be returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["leagues"], ShouldResemble, []any{"nfl", "college-football"})
			})
		})

		Convey("When listing leagues of an unknown sport", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leagues/curling", nil))

			Convey("Then it should return 404 unknown_sport", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "unknown_sport")
			})
		})

		Convey("When the sport is missing from the path", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leagues/", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSelectionHandler(t *testing.T) {
	Convey("Given the selection endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a new browser asks for its view", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/selection", nil))

			Convey("Then a session cookie should be issued", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				cookies := w.Result().Cookies()
				So(cookies, ShouldHaveLength, 1)
				So(cookies[0].Name, ShouldEqual, api.SessionCookie)
				So(cookies[0].HttpOnly, ShouldBeTrue)
				So(deps.sessions, ShouldResemble, []string{cookies[0].Value})
				So(decode(w)["stage"], ShouldEqual, "unset")
			})
		})

		Convey("When a browser sends its cookie back", func() {
			first := httptest.NewRecorder()
			mux.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/selection", nil))
			cookie := first.Result().Cookies()[0]

			req := httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{"stage":"sport","value":"football"}`))
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the same session should be used and no new cookie set", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Result().Cookies(), ShouldBeEmpty)
				So(deps.sessions, ShouldResemble, []string{cookie.Value, cookie.Value})
				So(deps.choices, ShouldResemble, [][2]string{{"sport", "football"}})
			})
		})

		Convey("When a season is posted as a number", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{"stage":"season","value":2023}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be passed on as text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.choices, ShouldResemble, [][2]string{{"season", "2023"}})
			})
		})

		Convey("When the body is invalid", func() {
			for _, body := range []string{`{`, `{"stage":"team","value":"x"}`, `{"stage":"sport"}`, `{"value":"nfl"}`} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(body)))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			}
			So(deps.choices, ShouldBeEmpty)
		})

		Convey("When the service rejects the event", func() {
			cases := map[error]string{
				selection.ErrUnknownSport:    "unknown_sport",
				selection.ErrUnknownLeague:   "unknown_league",
				selection.ErrUnknownSeason:   "unknown_season",
				selection.ErrSportNotChosen:  "sport_not_chosen",
				selection.ErrLeagueNotChosen: "league_not_chosen",
			}
			for cause, code := range cases {
				deps.chooseErr = errors.Wrap(cause, "rejected")
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{"stage":"league","value":"nfl"}`)))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, code)
			}
		})

		Convey("When the service fails unexpectedly", func() {
			deps.chooseErr = errors.New("boom")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{"stage":"sport","value":"football"}`)))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the session is reset", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/selection", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["stage"], ShouldEqual, "unset")
		})

		Convey("When an unsupported method is used", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/selection", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, POST, DELETE")
		})
	})
}
