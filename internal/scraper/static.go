package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// Static serves quotes from a local JSON fixture file. It backs dry runs and
// tests, where hitting live bookmakers is either impossible or unwanted.
type Static struct {
	path string
}

// NewStatic creates a fixture scraper reading from path.
func NewStatic(path string) *Static {
	return &Static{path: path}
}

// Name implements Scraper.
func (s *Static) Name() string { return "static" }

// Fetch loads the fixture file and returns its quotes for the requested
// sports. The file is re-read each call so watch mode picks up edits.
func (s *Static) Fetch(ctx context.Context, sportKeys []string) ([]domain.RawQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("scraper/static: reading %s: %w", s.path, err)
	}

	var fixtures []fixtureQuote
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("scraper/static: decoding %s: %v: %w", s.path, err, domain.ErrMalformedData)
	}

	wanted := make(map[string]bool, len(sportKeys))
	for _, k := range sportKeys {
		wanted[k] = true
	}

	observed := time.Now().UTC()
	var quotes []domain.RawQuote
	for _, f := range fixtures {
		if len(wanted) > 0 && !wanted[f.SportKey] {
			continue
		}
		quotes = append(quotes, domain.RawQuote{
			SourceID:     firstNonEmpty(f.SourceID, "static"),
			SourceName:   firstNonEmpty(f.SourceName, "Static Fixtures"),
			SportKey:     f.SportKey,
			SportLabel:   labelFor(f.SportKey),
			EventID:      f.EventID,
			HomeTeam:     f.HomeTeam,
			AwayTeam:     f.AwayTeam,
			CommenceTime: f.CommenceTime,
			MarketType:   domain.MarketType(firstNonEmpty(f.Market, string(domain.MarketMoneyline))),
			Line:         f.Line,
			Outcome:      f.Outcome,
			Price:        f.Price,
			URL:          f.URL,
			ObservedAt:   observed,
		})
	}
	return quotes, nil
}

// fixtureQuote is the on-disk fixture format, one object per quoted outcome.
type fixtureQuote struct {
	SourceID     string    `json:"source_id"`
	SourceName   string    `json:"source_name"`
	SportKey     string    `json:"sport_key"`
	EventID      string    `json:"event_id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Market       string    `json:"market"`
	Line         float64   `json:"line"`
	Outcome      string    `json:"outcome"`
	Price        float64   `json:"price"`
	URL          string    `json:"url"`
}
