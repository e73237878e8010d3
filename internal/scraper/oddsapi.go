package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// OddsAPI is the client for The Odds API (https://the-odds-api.com), an
// aggregator that returns one payload covering many bookmakers. The free tier
// is quota-limited per month; quota exhaustion surfaces as
// domain.ErrQuotaExceeded so the collector can degrade the source instead of
// retrying it.
type OddsAPI struct {
	baseURL    string
	apiKey     string
	regions    string
	bookmakers []string
	httpClient *http.Client
}

// NewOddsAPI creates a new Odds API client.
//
// baseURL is the API root, e.g. "https://api.the-odds-api.com/v4".
func NewOddsAPI(baseURL, apiKey, regions string, bookmakers []string) *OddsAPI {
	return &OddsAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		regions:    regions,
		bookmakers: bookmakers,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Scraper.
func (o *OddsAPI) Name() string { return "odds_api" }

// Fetch retrieves moneyline, spread, and total odds for each requested sport.
// One request per sport; an event's bookmakers each contribute quotes under
// their own bookmaker key so downstream sees them as distinct sources.
func (o *OddsAPI) Fetch(ctx context.Context, sportKeys []string) ([]domain.RawQuote, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("scraper/oddsapi: api key not configured")
	}

	var quotes []domain.RawQuote
	for _, sportKey := range sportKeys {
		events, err := o.fetchSport(ctx, sportKey)
		if err != nil {
			return quotes, fmt.Errorf("scraper/oddsapi: sport %s: %w", sportKey, err)
		}
		observed := time.Now().UTC()
		for i := range events {
			quotes = append(quotes, o.parseEvent(&events[i], observed)...)
		}
	}
	return quotes, nil
}

func (o *OddsAPI) fetchSport(ctx context.Context, sportKey string) ([]apiEvent, error) {
	params := url.Values{}
	params.Set("apiKey", o.apiKey)
	params.Set("regions", o.regions)
	params.Set("markets", "h2h,spreads,totals")
	params.Set("oddsFormat", "decimal")
	if len(o.bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(o.bookmakers, ","))
	}

	endpoint := fmt.Sprintf("%s/sports/%s/odds/?%s", o.baseURL, url.PathEscape(sportKey), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrQuotaExceeded)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var events []apiEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decoding events: %v: %w", err, domain.ErrMalformedData)
	}
	return events, nil
}

// parseEvent flattens one aggregator event into raw quotes, one per outcome
// per market per bookmaker.
func (o *OddsAPI) parseEvent(ev *apiEvent, observed time.Time) []domain.RawQuote {
	var quotes []domain.RawQuote
	for _, bm := range ev.Bookmakers {
		sourceURL := bookmakerURL(bm.Key)
		for _, market := range bm.Markets {
			marketType, ok := marketTypeFor(market.Key)
			if !ok {
				continue
			}
			for _, outcome := range market.Outcomes {
				quotes = append(quotes, domain.RawQuote{
					SourceID:     bm.Key,
					SourceName:   bm.Title,
					SportKey:     ev.SportKey,
					SportLabel:   labelFor(ev.SportKey),
					EventID:      ev.ID,
					HomeTeam:     ev.HomeTeam,
					AwayTeam:     ev.AwayTeam,
					CommenceTime: ev.CommenceTime,
					MarketType:   marketType,
					Line:         outcome.Point,
					Outcome:      outcome.Name,
					Price:        outcome.Price,
					URL:          sourceURL,
					ObservedAt:   observed,
				})
			}
		}
	}
	return quotes
}

// marketTypeFor maps the aggregator's market keys onto the canonical set.
func marketTypeFor(key string) (domain.MarketType, bool) {
	switch key {
	case "h2h":
		return domain.MarketMoneyline, true
	case "spreads":
		return domain.MarketSpread, true
	case "totals":
		return domain.MarketTotal, true
	}
	return "", false
}

// bookmakerURL returns the public sportsbook URL for an aggregator bookmaker
// key, for the placement instructions shown alongside an opportunity.
func bookmakerURL(key string) string {
	switch {
	case strings.Contains(key, "draftkings"):
		return "https://sportsbook.draftkings.com/sports"
	case strings.Contains(key, "fanduel"):
		return "https://www.fanduel.com/sports"
	case strings.Contains(key, "betmgm"):
		return "https://sports.on.betmgm.ca"
	case strings.Contains(key, "pointsbet"):
		return "https://ca.pointsbet.com"
	case strings.Contains(key, "betrivers"):
		return "https://on.betrivers.com"
	}
	return "https://the-odds-api.com"
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// apiEvent mirrors The Odds API's /sports/{key}/odds response shape.
type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Point float64 `json:"point"`
}
