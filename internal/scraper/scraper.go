// Package scraper collects raw betting quotes from bookmakers and odds
// aggregators. Each implementation fetches one source's view of the requested
// sports and maps it to raw quotes; normalization and matching happen
// downstream.
package scraper

import (
	"context"

	"github.com/dmarleau/arbscan/internal/domain"
)

// Scraper fetches raw quotes from a single odds source. Implementations must
// honor ctx cancellation; the collector applies per-attempt timeouts through
// it.
type Scraper interface {
	// Name returns the stable source ID, e.g. "odds_api".
	Name() string
	// Fetch returns all quotes the source currently offers for the given
	// sport keys. A partial result with a nil error is valid.
	Fetch(ctx context.Context, sportKeys []string) ([]domain.RawQuote, error)
}

// sportLabels maps Odds-API-style sport keys to the display labels the
// original Canadian books use.
var sportLabels = map[string]string{
	"icehockey_nhl":        "NHL",
	"basketball_nba":       "NBA",
	"americanfootball_nfl": "NFL",
	"baseball_mlb":         "MLB",
	"soccer_usa_mls":       "MLS",
	"americanfootball_cfl": "CFL",
}

// labelFor returns the display label for a sport key, falling back to the key
// itself for sports without a known label.
func labelFor(sportKey string) string {
	if label, ok := sportLabels[sportKey]; ok {
		return label
	}
	return sportKey
}
