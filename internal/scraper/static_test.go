package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarleau/arbscan/internal/domain"
)

const fixtureBody = `[
  {
    "source_id": "bodog",
    "source_name": "Bodog",
    "sport_key": "icehockey_nhl",
    "home_team": "Toronto Maple Leafs",
    "away_team": "Montreal Canadiens",
    "commence_time": "2026-01-10T19:00:00Z",
    "market": "moneyline",
    "outcome": "Toronto Maple Leafs",
    "price": 2.1
  },
  {
    "sport_key": "basketball_nba",
    "home_team": "Toronto Raptors",
    "away_team": "Boston Celtics",
    "commence_time": "2026-01-10T23:30:00Z",
    "outcome": "Toronto Raptors",
    "price": 1.9
  }
]`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.json")
	if err := os.WriteFile(path, []byte(fixtureBody), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStaticFetchFiltersBySport(t *testing.T) {
	s := NewStatic(writeFixture(t))

	quotes, err := s.Fetch(context.Background(), []string{"icehockey_nhl"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("quotes = %d, want 1", len(quotes))
	}
	if quotes[0].SourceID != "bodog" || quotes[0].Price != 2.1 {
		t.Errorf("quote = %s @ %v", quotes[0].SourceID, quotes[0].Price)
	}
}

func TestStaticFetchDefaults(t *testing.T) {
	s := NewStatic(writeFixture(t))

	quotes, err := s.Fetch(context.Background(), []string{"basketball_nba"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("quotes = %d, want 1", len(quotes))
	}
	q := quotes[0]
	if q.SourceID != "static" {
		t.Errorf("source = %q, want static default", q.SourceID)
	}
	if q.MarketType != domain.MarketMoneyline {
		t.Errorf("market = %q, want moneyline default", q.MarketType)
	}
	if q.SportLabel != "NBA" {
		t.Errorf("sport label = %q, want NBA", q.SportLabel)
	}
}

func TestStaticFetchMissingFile(t *testing.T) {
	s := NewStatic(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := s.Fetch(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing fixture file")
	}
}
