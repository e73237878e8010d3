package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// siSportIDs maps sport keys to Sports Interaction's internal sport codes.
var siSportIDs = map[string]string{
	"icehockey_nhl":        "IH",
	"basketball_nba":       "BB",
	"americanfootball_nfl": "AF",
	"baseball_mlb":         "BS",
	"soccer_usa_mls":       "SO",
	"americanfootball_cfl": "CF",
}

// SportsInteraction scrapes the JSON API behind sportsinteraction.com's web
// client. The API wants browser-looking headers plus X-Platform and X-Brand.
type SportsInteraction struct {
	baseURL    string
	httpClient *http.Client
}

// NewSportsInteraction creates a Sports Interaction client.
//
// baseURL is the site root, e.g. "https://www.sportsinteraction.com".
func NewSportsInteraction(baseURL string) *SportsInteraction {
	return &SportsInteraction{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Scraper.
func (s *SportsInteraction) Name() string { return "sports_interaction" }

// Fetch retrieves moneyline markets for each requested sport. Sports the book
// does not carry are skipped silently.
func (s *SportsInteraction) Fetch(ctx context.Context, sportKeys []string) ([]domain.RawQuote, error) {
	var quotes []domain.RawQuote
	for _, sportKey := range sportKeys {
		sid, ok := siSportIDs[sportKey]
		if !ok {
			continue
		}
		events, err := s.fetchSport(ctx, sid)
		if err != nil {
			return quotes, fmt.Errorf("scraper/sportsinteraction: sport %s: %w", sportKey, err)
		}
		observed := time.Now().UTC()
		for i := range events {
			quotes = append(quotes, s.parseEvent(&events[i], sportKey, observed)...)
		}
	}
	return quotes, nil
}

func (s *SportsInteraction) fetchSport(ctx context.Context, sportID string) ([]siEvent, error) {
	endpoint := fmt.Sprintf("%s/api/sport-events/?sport=%s&market=ML&format=json", s.baseURL, sportID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-CA,en;q=0.9")
	req.Header.Set("Referer", s.baseURL+"/")
	req.Header.Set("X-Platform", "WEB")
	req.Header.Set("X-Brand", "si")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	// The endpoint returns either a bare array or an envelope with an
	// "events" (sometimes "data") key.
	var events []siEvent
	if err := json.Unmarshal(body, &events); err == nil {
		return events, nil
	}
	var envelope struct {
		Events []siEvent `json:"events"`
		Data   []siEvent `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding events: %v: %w", err, domain.ErrMalformedData)
	}
	if len(envelope.Events) > 0 {
		return envelope.Events, nil
	}
	return envelope.Data, nil
}

func (s *SportsInteraction) parseEvent(ev *siEvent, sportKey string, observed time.Time) []domain.RawQuote {
	home := firstNonEmpty(ev.HomeTeam, ev.Home)
	away := firstNonEmpty(ev.AwayTeam, ev.Away)
	if home == "" || away == "" {
		return nil
	}
	commence := parseFlexibleTime(firstNonEmpty(ev.StartTime, ev.Date))

	var quotes []domain.RawQuote
	for _, market := range ev.Markets {
		mt := strings.ToUpper(firstNonEmpty(market.Type, market.MarketType))
		switch mt {
		case "ML", "MONEYLINE", "H2H", "WINNER":
		default:
			continue
		}
		for _, sel := range market.Selections {
			name := firstNonEmpty(sel.Name, sel.Team)
			price := sel.price()
			if name == "" || price <= 1.0 {
				continue
			}
			quotes = append(quotes, domain.RawQuote{
				SourceID:     "sports_interaction",
				SourceName:   "Sports Interaction",
				SportKey:     sportKey,
				SportLabel:   labelFor(sportKey),
				EventID:      ev.id(),
				HomeTeam:     home,
				AwayTeam:     away,
				CommenceTime: commence,
				MarketType:   domain.MarketMoneyline,
				Outcome:      name,
				Price:        price,
				URL:          s.baseURL,
				ObservedAt:   observed,
			})
		}
	}
	return quotes
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// siEvent tolerates the field-name variance the Sports Interaction API shows
// across sports.
type siEvent struct {
	ID        json.Number `json:"id"`
	EventID   json.Number `json:"eventId"`
	HomeTeam  string      `json:"homeTeam"`
	Home      string      `json:"home"`
	AwayTeam  string      `json:"awayTeam"`
	Away      string      `json:"away"`
	StartTime string      `json:"startTime"`
	Date      string      `json:"date"`
	Markets   []siMarket  `json:"markets"`
}

func (e *siEvent) id() string {
	if e.ID.String() != "" {
		return e.ID.String()
	}
	return e.EventID.String()
}

type siMarket struct {
	Type       string        `json:"type"`
	MarketType string        `json:"marketType"`
	Selections []siSelection `json:"selections"`
}

type siSelection struct {
	Name    string      `json:"name"`
	Team    string      `json:"team"`
	Price   json.Number `json:"price"`
	Odds    json.Number `json:"odds"`
	Decimal json.Number `json:"decimalOdds"`
}

// price returns the first parseable decimal price among the selection's
// aliased fields.
func (s *siSelection) price() float64 {
	for _, n := range []json.Number{s.Price, s.Odds, s.Decimal} {
		if n.String() == "" {
			continue
		}
		if v, err := n.Float64(); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseFlexibleTime accepts RFC 3339 or the date-only and epoch forms the
// direct-site APIs return. Unparseable input yields the zero time, which the
// normalizer treats as its own match bucket.
func parseFlexibleTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil && epoch > 0 {
		if epoch > 1e12 { // milliseconds
			return time.UnixMilli(epoch).UTC()
		}
		return time.Unix(epoch, 0).UTC()
	}
	return time.Time{}
}
