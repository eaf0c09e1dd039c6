// Package service runs the render pipeline behind the HTTP API: one
// selection event in, one View out.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/venuemap/internal/adapters/datasets"
	"github.com/okian/venuemap/internal/adapters/espn"
	"github.com/okian/venuemap/internal/adapters/fetch"
	"github.com/okian/venuemap/internal/config"
	"github.com/okian/venuemap/internal/domain/model"
	"github.com/okian/venuemap/internal/domain/selection"
	"github.com/okian/venuemap/internal/domain/session"
	"github.com/okian/venuemap/internal/domain/venue"
	"github.com/okian/venuemap/pkg/logger"
	"github.com/okian/venuemap/pkg/metrics"
)

// View is everything the page needs after a selection event.
type View struct {
	Selection selection.Selection `json:"selection"`
	Stage     string              `json:"stage"`
	Sports    []string            `json:"sports"`
	Leagues   []string            `json:"leagues"`
	Seasons   []string            `json:"seasons"`
	Map       model.MapView       `json:"map"`
}

// Service implements the API dependencies for the venue map.
type Service struct {
	mu sync.RWMutex

	// Core components
	fetcher  *fetch.HTTPFetcher
	seasons  espn.SeasonProvider
	resolver *datasets.Resolver
	machine  *selection.Machine
	sessions session.Store
	composer *venue.Composer

	cfg *config.Config

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the components are built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithFetcher replaces the dataset fetcher.
func WithFetcher(f *fetch.HTTPFetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithSeasonProvider replaces the league-metadata provider.
func WithSeasonProvider(p espn.SeasonProvider) Option {
	return func(s *Service) {
		s.seasons = p
	}
}

// WithSessionStore replaces the session store.
func WithSessionStore(store session.Store) Option {
	return func(s *Service) {
		s.sessions = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components not supplied by options are built
// from the configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cfg := s.cfg

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.fetcher == nil {
		s.fetcher = fetch.New(
			fetch.WithTTL(cfg.CacheTTL),
			fetch.WithTimeout(cfg.FetchTimeout),
			fetch.WithMaxBodyBytes(cfg.FetchMaxBodyBytes),
		)
	}
	if s.seasons == nil {
		s.seasons = espn.NewClient(s.fetcher, cfg.ESPNBaseURL, cfg.MinSeason)
	}
	if s.sessions == nil {
		s.sessions = session.NewInMemoryStore(
			session.WithMaxSize(cfg.MaxSessions),
			session.WithTTL(cfg.SessionTTL),
		)
	}
	s.resolver = datasets.NewResolver(s.fetcher, datasets.Templates{
		Geocoding: cfg.Expand(cfg.GeocodingURL),
		Venues:    cfg.Expand(cfg.VenuesURL),
		Teams:     cfg.Expand(cfg.TeamsURL),
		Season:    cfg.Expand(cfg.SeasonURL),
	})
	s.machine = selection.NewMachine(selection.Catalog(cfg.Sports))
	s.composer = venue.NewComposer(
		venue.View{
			Center: model.LatLon{Lat: cfg.DefaultCenterLat, Lon: cfg.DefaultCenterLon},
			Zoom:   cfg.DefaultZoom,
		},
		venue.Style{DefaultColor: cfg.DefaultColor, Icons: cfg.SportIcons},
	)
	return s
}

// Start launches the janitor that purges expired cache entries and sessions.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.janitor(ctx, s.stopCh, s.cfg.CachePurgeInterval)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "venue map service started",
		logger.Int("sports", len(s.cfg.Sports)),
		logger.Duration("cacheTTL", s.cfg.CacheTTL),
		logger.Int("maxSessions", s.cfg.MaxSessions),
	)
	return nil
}

// Stop stops the janitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info(context.Background(), "venue map service stopped")
}

func (s *Service) janitor(ctx context.Context, stop <-chan struct{}, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.Purge(ctx)
		}
	}
}

// Purge drops expired cache entries and idle sessions.
func (s *Service) Purge(ctx context.Context) {
	docs := s.fetcher.Purge(ctx)
	sessions := s.sessions.Purge(ctx)
	if docs > 0 || sessions > 0 {
		s.logger.Debug(ctx, "purged expired state",
			logger.Int("documents", docs), logger.Int("sessions", sessions))
	}
}

// Sports lists the selectable sports.
func (s *Service) Sports() []string {
	return s.machine.Catalog().Sports()
}

// Leagues lists the leagues of sport.
func (s *Service) Leagues(sport string) ([]string, error) {
	leagues, ok := s.machine.Catalog().Leagues(sport)
	if !ok {
		return nil, errors.Wrapf(selection.ErrUnknownSport, "sport %q", sport)
	}
	return leagues, nil
}

// View renders the session's current selection.
func (s *Service) View(ctx context.Context, sessionID string) View {
	sel, _ := s.sessions.Get(ctx, sessionID)
	sel = s.ensureSeasons(ctx, sel)
	s.sessions.Put(ctx, sessionID, sel)
	return s.Render(ctx, sel)
}

// Choose applies one selection event to the session and renders the result.
// A rejected event leaves the session untouched.
func (s *Service) Choose(ctx context.Context, sessionID, stage, value string) (View, error) {
	st, err := selection.ParseStage(stage)
	if err != nil {
		return View{}, err
	}

	sel, _ := s.sessions.Get(ctx, sessionID)
	sel = s.ensureSeasons(ctx, sel)

	next, err := s.machine.Apply(sel, selection.Choice{Stage: st, Value: value})
	if err != nil {
		s.logger.Debug(ctx, "selection rejected",
			logger.String("stage", stage), logger.String("value", value), logger.Error(err))
		return View{}, err
	}
	next = s.ensureSeasons(ctx, next)
	s.sessions.Put(ctx, sessionID, next)
	metrics.RecordSelectionChange(st.String())

	return s.Render(ctx, next), nil
}

// Reset returns the session to an empty selection.
func (s *Service) Reset(ctx context.Context, sessionID string) View {
	s.sessions.Delete(ctx, sessionID)
	return s.Render(ctx, selection.Selection{})
}

// ensureSeasons loads the league's seasons once a league is chosen. A failed
// load leaves the list unattached so the next event retries it.
func (s *Service) ensureSeasons(ctx context.Context, sel selection.Selection) selection.Selection {
	if sel.Sport == "" || sel.League == "" || sel.SeasonsLoaded() {
		return sel
	}
	seasons, ok := s.seasons.Seasons(ctx, sel.Sport, sel.League)
	if !ok {
		return sel
	}
	return selection.WithSeasons(sel, seasons)
}

// Render builds the View for sel. The map is only populated once a season
// is chosen; degraded datasets yield fewer markers, never an error.
func (s *Service) Render(ctx context.Context, sel selection.Selection) View {
	start := time.Now()
	v := View{
		Selection: sel,
		Stage:     sel.Stage().String(),
		Sports:    s.Sports(),
		Leagues:   []string{},
		Seasons:   []string{},
		Map:       s.composer.Fallback(),
	}
	if sel.Sport != "" {
		if leagues, ok := s.machine.Catalog().Leagues(sel.Sport); ok {
			v.Leagues = leagues
		}
	}
	if sel.Seasons != nil {
		v.Seasons = append(v.Seasons, sel.Seasons...)
	}

	if sel.Stage() == selection.SeasonChosen {
		ds := s.resolver.Resolve(ctx, sel)
		joiner := venue.NewJoiner(ds.Venues.Items, ds.Geocoding.Items)
		out := s.composer.Compose(sel.Sport, ds.Season.Items, ds.Teams.Items, joiner)
		v.Map = out.View

		for reason, n := range out.Skipped {
			metrics.RecordJoinMisses(string(reason), n)
		}
		if len(out.Skipped) > 0 {
			s.logger.Debug(ctx, "teams left off the map",
				logger.String("sport", sel.Sport),
				logger.String("league", sel.League),
				logger.String("season", sel.Season),
				logger.Any("skipped", out.Skipped),
			)
		}
	}

	metrics.RecordRender(v.Stage, len(v.Map.Markers), float64(time.Since(start).Microseconds())/1000)
	return v
}

// GetStats returns runtime statistics for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started, startedAt := s.started, s.startedAt
	s.mu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := map[string]interface{}{
		"started":        started,
		"cache_entries":  s.fetcher.Len(),
		"sessions":       s.sessions.Size(),
		"sports":         len(s.cfg.Sports),
		"cache_ttl":      s.cfg.CacheTTL.String(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_alloc":   m.Alloc,
		"memory_sys":     m.Sys,
		"gc_cycles":      m.NumGC,
		"uptime_seconds": 0.0,
	}
	if started {
		stats["uptime_seconds"] = time.Since(startedAt).Seconds()
	}
	return stats
}
