// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - External errors are marked with this package's sentinels.
package config

import (
	"strings"
	"time"
)

// DataBaseURL is the default root of the upstream dataset repositories.
const DataBaseURL = "https://raw.githubusercontent.com/theedgepredictor"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// CacheTTL bounds how long a fetched dataset is served from memory.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gt=0"`

	// CachePurgeInterval sets how often expired cache entries are dropped.
	CachePurgeInterval time.Duration `koanf:"cache_purge_interval" validate:"gt=0"`

	// FetchTimeout bounds a single upstream request.
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"gt=0"`

	// FetchMaxBodyBytes caps an upstream response body.
	FetchMaxBodyBytes int64 `koanf:"fetch_max_body_bytes" validate:"gt=0"`

	// Dataset URL templates. {base}, {sport}, {league} and {season} are expanded.
	DataBaseURL  string `koanf:"data_base_url" validate:"required,url"`
	GeocodingURL string `koanf:"geocoding_url" validate:"required"`
	VenuesURL    string `koanf:"venues_url" validate:"required"`
	TeamsURL     string `koanf:"teams_url" validate:"required"`
	SeasonURL    string `koanf:"season_url" validate:"required"`

	// ESPNBaseURL is the root of the league metadata API.
	ESPNBaseURL string `koanf:"espn_base_url" validate:"required,url"`

	// MinSeason is the earliest season offered for selection.
	MinSeason int `koanf:"min_season" validate:"gte=1900"`

	// Sports maps a sport to its selectable leagues, in display order.
	Sports map[string][]string `koanf:"sports" validate:"required,min=1,dive,keys,required,endkeys,min=1,dive,required"`

	// SportIcons maps a sport to the marker icon name.
	SportIcons map[string]string `koanf:"sport_icons"`

	// DefaultColor is used for teams without a colour.
	DefaultColor string `koanf:"default_color" validate:"required"`

	// Default map view when nothing is geolocated.
	DefaultCenterLat float64 `koanf:"default_center_lat" validate:"gte=-90,lte=90"`
	DefaultCenterLon float64 `koanf:"default_center_lon" validate:"gte=-180,lte=180"`
	DefaultZoom      int     `koanf:"default_zoom" validate:"gte=0,lte=20"`

	// MaxSessions bounds the in-memory session store.
	MaxSessions int `koanf:"max_sessions" validate:"gt=0"`

	// SessionTTL expires idle sessions.
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace prefixes every series name.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required"`

	// MetricsLatencyBuckets overrides the latency histogram buckets (ms).
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets" validate:"omitempty,dive,gt=0"`

	// MetricsLabels are constant labels added to every series.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		CacheTTL:           time.Hour,
		CachePurgeInterval: 5 * time.Minute,
		FetchTimeout:       20 * time.Second,
		FetchMaxBodyBytes:  32 << 20,
		DataBaseURL:        DataBaseURL,
		GeocodingURL:       "{base}/venue-data-pump/main/data/geocoding.json",
		VenuesURL:          "{base}/venue-data-pump/main/data/{sport}/{league}/venues.json",
		TeamsURL:           "{base}/team-data-pump/main/data/{sport}/{league}/teams.json",
		SeasonURL:          "{base}/team-data-pump/main/data/{sport}/{league}/{season}/teams.json",
		ESPNBaseURL:        "https://sports.core.api.espn.com/v2",
		MinSeason:          2002,
		Sports: map[string][]string{
			"football": {"nfl", "college-football"},
		},
		SportIcons: map[string]string{
			"football": "football",
		},
		DefaultColor:     "black",
		DefaultCenterLat: 37.0902,
		DefaultCenterLon: -95.7129,
		DefaultZoom:      4,
		MaxSessions:      10_000,
		SessionTTL:       12 * time.Hour,
		MetricsEnabled:   true,
		MetricsNamespace: "venuemap",
	}
}

// Expand resolves the {base} placeholder of a dataset URL template.
func (c *Config) Expand(template string) string {
	return strings.ReplaceAll(template, "{base}", strings.TrimRight(c.DataBaseURL, "/"))
}
