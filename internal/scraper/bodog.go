package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// bodogSports maps sport keys to Bodog's published-API sport codes.
var bodogSports = map[string]string{
	"icehockey_nhl":        "icehockey",
	"basketball_nba":       "basketball",
	"americanfootball_nfl": "football",
	"baseball_mlb":         "baseball",
	"soccer_usa_mls":       "soccer",
	"americanfootball_cfl": "canadianfootball",
}

// Bodog scrapes the public JSON API Bodog's web client uses,
// /publishedapi/en/v2/sports/{sport}/events/.
type Bodog struct {
	baseURL    string
	httpClient *http.Client
}

// NewBodog creates a Bodog client.
//
// baseURL is the site root, e.g. "https://www.bodog.eu".
func NewBodog(baseURL string) *Bodog {
	return &Bodog{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Scraper.
func (b *Bodog) Name() string { return "bodog" }

// Fetch retrieves moneyline markets for each requested sport Bodog carries.
func (b *Bodog) Fetch(ctx context.Context, sportKeys []string) ([]domain.RawQuote, error) {
	var quotes []domain.RawQuote
	for _, sportKey := range sportKeys {
		code, ok := bodogSports[sportKey]
		if !ok {
			continue
		}
		events, err := b.fetchSport(ctx, code)
		if err != nil {
			return quotes, fmt.Errorf("scraper/bodog: sport %s: %w", sportKey, err)
		}
		observed := time.Now().UTC()
		for i := range events {
			quotes = append(quotes, b.parseEvent(&events[i], sportKey, observed)...)
		}
	}
	return quotes, nil
}

func (b *Bodog) fetchSport(ctx context.Context, sportCode string) ([]bodogEvent, error) {
	endpoint := fmt.Sprintf("%s/publishedapi/en/v2/sports/%s/events/", b.baseURL, sportCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-CA,en;q=0.9")
	req.Header.Set("Referer", b.baseURL+"/sports/")
	req.Header.Set("Origin", b.baseURL)

	resp, err := b.httpClient.Do(req)
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

	var events []bodogEvent
	if err := json.Unmarshal(body, &events); err == nil {
		return events, nil
	}
	var envelope struct {
		Events []bodogEvent `json:"events"`
		Data   []bodogEvent `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding events: %v: %w", err, domain.ErrMalformedData)
	}
	if len(envelope.Events) > 0 {
		return envelope.Events, nil
	}
	return envelope.Data, nil
}

func (b *Bodog) parseEvent(ev *bodogEvent, sportKey string, observed time.Time) []domain.RawQuote {
	home, away := ev.teams()
	if home == "" || away == "" {
		return nil
	}
	commence := parseFlexibleTime(firstNonEmpty(ev.StartTime, ev.Date))

	var quotes []domain.RawQuote
	for _, group := range ev.DisplayGroups {
		for _, market := range group.Markets {
			desc := strings.ToLower(firstNonEmpty(market.Description, market.Key))
			if !strings.Contains(desc, "moneyline") && desc != "h2h" && desc != "2way" {
				continue
			}
			for _, out := range market.Outcomes {
				price, _ := out.Price.Decimal.Float64()
				name := firstNonEmpty(out.Description, out.Name)
				if name == "" || price <= 1.0 {
					continue
				}
				quotes = append(quotes, domain.RawQuote{
					SourceID:     "bodog",
					SourceName:   "Bodog",
					SportKey:     sportKey,
					SportLabel:   labelFor(sportKey),
					EventID:      ev.ID.String(),
					HomeTeam:     home,
					AwayTeam:     away,
					CommenceTime: commence,
					MarketType:   domain.MarketMoneyline,
					Outcome:      name,
					Price:        price,
					URL:          b.baseURL + "/sports/",
					ObservedAt:   observed,
				})
			}
		}
	}
	return quotes
}

// bodogEvent mirrors the published-API event shape. Competitor order is
// explicit via the home flag; the description field carries "Away @ Home".
type bodogEvent struct {
	ID            json.Number       `json:"id"`
	Description   string            `json:"description"`
	StartTime     string            `json:"startTime"`
	Date          string            `json:"date"`
	Competitors   []bodogCompetitor `json:"competitors"`
	DisplayGroups []bodogOfferGroup `json:"displayGroups"`
}

// teams resolves the home and away names, preferring the competitor list and
// falling back to splitting the "Away @ Home" description.
func (e *bodogEvent) teams() (home, away string) {
	for _, c := range e.Competitors {
		if c.Home {
			home = c.Name
		} else {
			away = c.Name
		}
	}
	if home != "" && away != "" {
		return home, away
	}
	if parts := strings.SplitN(e.Description, " @ ", 2); len(parts) == 2 {
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	}
	return home, away
}

type bodogCompetitor struct {
	Name string `json:"name"`
	Home bool   `json:"home"`
}

type bodogOfferGroup struct {
	Markets []bodogMarket `json:"markets"`
}

type bodogMarket struct {
	Key         string         `json:"key"`
	Description string         `json:"description"`
	Outcomes    []bodogOutcome `json:"outcomes"`
}

type bodogOutcome struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       bodogPrice `json:"price"`
}

type bodogPrice struct {
	Decimal json.Number `json:"decimal"`
}
