// Package datasets turns a selection into upstream dataset URLs and
// decodes what the Fetcher returns.
package datasets

import (
	"context"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/okian/venuemap/internal/adapters/fetch"
	"github.com/okian/venuemap/internal/domain/model"
	"github.com/okian/venuemap/internal/domain/selection"
	"github.com/okian/venuemap/pkg/logger"
	"github.com/okian/venuemap/pkg/metrics"
)

// Dataset names, used in logs and metric labels.
const (
	Geocoding = "geocoding"
	Venues    = "venues"
	Teams     = "teams"
	Season    = "season"
)

// Templates are dataset URL templates with {sport}, {league} and {season}
// placeholders.
type Templates struct {
	Geocoding string
	Venues    string
	Teams     string
	Season    string
}

// URLs are the dataset locations for one selection. Empty means the
// selection is not deep enough for that dataset.
type URLs struct {
	Geocoding string
	Venues    string
	Teams     string
	Season    string
}

// Resolver fetches and decodes the datasets a selection needs. It does not
// cache; the Fetcher does.
type Resolver struct {
	fetcher   fetch.Fetcher
	templates Templates
	logger    logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(fetcher fetch.Fetcher, templates Templates) *Resolver {
	return &Resolver{
		fetcher:   fetcher,
		templates: templates,
		logger:    logger.Get().Named("datasets"),
	}
}

// URLs expands the templates for sel.
func (r *Resolver) URLs(sel selection.Selection) URLs {
	out := URLs{Geocoding: r.templates.Geocoding}
	if sel.Sport == "" || sel.League == "" {
		return out
	}
	rep := strings.NewReplacer(
		"{sport}", url.PathEscape(sel.Sport),
		"{league}", url.PathEscape(sel.League),
		"{season}", url.PathEscape(sel.Season),
	)
	out.Venues = rep.Replace(r.templates.Venues)
	out.Teams = rep.Replace(r.templates.Teams)
	if sel.Season != "" {
		out.Season = rep.Replace(r.templates.Season)
	}
	return out
}

// Resolve fetches every dataset sel reaches. Datasets outside the
// selection, unavailable upstream, or undecodable come back absent.
func (r *Resolver) Resolve(ctx context.Context, sel selection.Selection) model.Datasets {
	u := r.URLs(sel)
	var out model.Datasets
	out.Geocoding = load[model.Geocoding](ctx, r, Geocoding, u.Geocoding)
	out.Venues = load[model.Venues](ctx, r, Venues, u.Venues)
	out.Teams = load[[]model.Team](ctx, r, Teams, u.Teams)
	out.Season = load[[]model.SeasonTeam](ctx, r, Season, u.Season)
	return out
}

func load[T any](ctx context.Context, r *Resolver, name, target string) model.Dataset[T] {
	if target == "" {
		return model.Missing[T]()
	}
	doc := r.fetcher.Fetch(ctx, target)
	if !doc.OK() {
		return model.Missing[T]()
	}
	var items T
	if err := sonic.Unmarshal(doc.Body, &items); err != nil {
		metrics.RecordDecodeError(name)
		r.logger.Warn(ctx, "decode dataset",
			logger.String("dataset", name), logger.String("url", target), logger.Error(err))
		return model.Missing[T]()
	}
	return model.Loaded(items)
}
