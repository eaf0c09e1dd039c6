package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every series should register on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.fetchRequests.WithLabelValues(FetchHit).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "venuemap_dashboard_")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names should use the namespace and carry the labels", func() {
				manager.cacheEntries.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_dashboard_cache_entries")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.customLabels, ShouldResemble, map[string]string{"env": "test"})
			})
		})

		Convey("When empty option values are passed", func() {
			manager := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, DefaultNamespace)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured process-wide manager", t, func() {
		previous := active.Load()
		Reset(func() { active.Store(previous) })

		Convey("When metrics are disabled", func() {
			m := Configure(WithMetricsEnabled(false))
			RecordFetch(FetchHit)
			RecordJoinMisses("venue", 2)
			UpdateCacheEntries(9)
			RecordHTTPRequest("selection", "GET", "200")

			Convey("Then no recorder should touch a series", func() {
				So(testutil.ToFloat64(m.fetchRequests.WithLabelValues(FetchHit)), ShouldEqual, 0)
				So(testutil.ToFloat64(m.joinMisses.WithLabelValues("venue")), ShouldEqual, 0)
				So(testutil.ToFloat64(m.cacheEntries), ShouldEqual, 0)
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("selection", "GET", "200")), ShouldEqual, 0)
			})
		})

		Convey("When a namespace and labels are configured", func() {
			m := Configure(WithNamespace("league"), WithCustomLabels(map[string]string{"env": "ci"}))
			UpdateActiveSessions(2)

			Convey("Then GetRegistry should expose the new series", func() {
				So(GetRegistry(), ShouldNotEqual, previous.registry)
				So(testutil.ToFloat64(m.activeSessions), ShouldEqual, 2)
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "league_dashboard_active_sessions" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "ci")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording fetch outcomes", func() {
			before := testutil.ToFloat64(current().fetchRequests.WithLabelValues(FetchMiss))
			RecordFetch(FetchMiss)
			RecordFetch(FetchMiss)

			Convey("Then the labelled counter should advance", func() {
				after := testutil.ToFloat64(current().fetchRequests.WithLabelValues(FetchMiss))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording join misses", func() {
			before := testutil.ToFloat64(current().joinMisses.WithLabelValues("venue"))
			RecordJoinMisses("venue", 3)
			RecordJoinMisses("venue", 0)

			Convey("Then only positive counts should be added", func() {
				after := testutil.ToFloat64(current().joinMisses.WithLabelValues("venue"))
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When updating gauges", func() {
			UpdateCacheEntries(7)
			UpdateActiveSessions(4)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(current().cacheEntries), ShouldEqual, 7)
				So(testutil.ToFloat64(current().activeSessions), ShouldEqual, 4)
			})
		})

		Convey("When recording the rest of the series", func() {
			So(func() {
				RecordFetchLatency(12.5)
				RecordCacheEvicted(2)
				RecordDecodeError("venues")
				RecordRender("season", 2, 30)
				RecordSessionEvicted()
				RecordSelectionChange("sport")
				RecordHTTPRequest("selection", "POST", "200")
				RecordHTTPRequestDuration("selection", "POST", "200", 5)
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("selection", "POST", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})
	})
}

func TestValidOutcome(t *testing.T) {
	Convey("Given fetch outcome labels", t, func() {
		for _, o := range []string{FetchHit, FetchMiss, FetchError, FetchStatus} {
			So(ValidOutcome(o), ShouldBeTrue)
		}
		So(ValidOutcome("other"), ShouldBeFalse)
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordFetch(FetchHit)
					RecordRender("league", j%5, 1)
				}
			}()
		}
		wg.Wait()
		So(GetRegistry(), ShouldNotBeNil)
	})
}
