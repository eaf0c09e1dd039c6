// Package espn reads league metadata from the ESPN core API.
package espn

import (
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/okian/venuemap/internal/adapters/fetch"
	"github.com/okian/venuemap/pkg/logger"
	"github.com/okian/venuemap/pkg/metrics"
)

// DefaultBaseURL is the ESPN core API root.
const DefaultBaseURL = "https://sports.core.api.espn.com/v2"

// seasonsLimit asks for every season in one page.
const seasonsLimit = 1000

// SeasonProvider lists the seasons a league has played. ok is false when the
// provider could not be read, so callers can retry later.
type SeasonProvider interface {
	Seasons(ctx context.Context, sport, league string) (seasons []string, ok bool)
}

type seasonsPage struct {
	Items []struct {
		Ref string `json:"$ref"`
	} `json:"items"`
}

// Client implements SeasonProvider on top of a Fetcher, so responses share
// the fetch cache.
type Client struct {
	fetcher   fetch.Fetcher
	baseURL   string
	minSeason int
	logger    logger.Logger
}

// NewClient creates a Client. Seasons before minSeason are never returned.
func NewClient(fetcher fetch.Fetcher, baseURL string, minSeason int) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher:   fetcher,
		baseURL:   baseURL,
		minSeason: minSeason,
		logger:    logger.Get().Named("espn"),
	}
}

// SeasonsURL returns the seasons endpoint for sport and league.
func (c *Client) SeasonsURL(sport, league string) string {
	return c.baseURL + "/sports/" + url.PathEscape(sport) + "/leagues/" + url.PathEscape(league) +
		"/seasons?limit=" + strconv.Itoa(seasonsLimit)
}

// Seasons returns season years newest first as ESPN orders them, filtered
// to the minimum season. An unavailable or unreadable response yields an
// empty, non-nil list and false.
func (c *Client) Seasons(ctx context.Context, sport, league string) ([]string, bool) {
	out := []string{}
	doc := c.fetcher.Fetch(ctx, c.SeasonsURL(sport, league))
	if !doc.OK() {
		return out, false
	}

	var page seasonsPage
	if err := sonic.Unmarshal(doc.Body, &page); err != nil {
		metrics.RecordDecodeError("seasons")
		c.logger.Warn(ctx, "decode seasons",
			logger.String("sport", sport), logger.String("league", league), logger.Error(err))
		return out, false
	}

	seen := make(map[int]struct{}, len(page.Items))
	for _, item := range page.Items {
		year, ok := yearFromRef(item.Ref)
		if !ok || year < c.minSeason {
			continue
		}
		if _, dup := seen[year]; dup {
			continue
		}
		seen[year] = struct{}{}
		out = append(out, strconv.Itoa(year))
	}
	return out, true
}

// yearFromRef reads the year from ".../seasons/2023?lang=en".
func yearFromRef(ref string) (int, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Path == "" {
		return 0, false
	}
	year, err := strconv.Atoi(path.Base(u.Path))
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
