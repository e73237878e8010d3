package normalize

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testSources = []domain.Source{
	{ID: "alpha", Name: "Alpha Book", Priority: 0},
	{ID: "beta", Name: "Beta Book", Priority: 1},
}

func newTestNormalizer(window time.Duration) *Normalizer {
	return New(Config{MatchWindow: window}, testSources, testLogger())
}

var kickoff = time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)

func rawML(source, home, away string, commence time.Time, outcome string, price float64) domain.RawQuote {
	return domain.RawQuote{
		SourceID:     source,
		SourceName:   source,
		SportKey:     "icehockey_nhl",
		SportLabel:   "NHL",
		HomeTeam:     home,
		AwayTeam:     away,
		CommenceTime: commence,
		MarketType:   domain.MarketMoneyline,
		Outcome:      outcome,
		Price:        price,
		ObservedAt:   kickoff.Add(-2 * time.Hour),
	}
}

func TestNormalizeUnifiesEventAcrossSources(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	raw := []domain.RawQuote{
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 2.10),
		// Beta reports nicknames only and a start five minutes later.
		rawML("beta", "Maple Leafs", "Canadiens", kickoff.Add(5*time.Minute), "Canadiens", 3.40),
	}

	groups, stats := n.Normalize(raw)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if stats.Accepted != 2 || stats.Dropped() != 0 {
		t.Fatalf("stats = %+v, want 2 accepted and no drops", stats)
	}

	g := groups[0]
	if len(g.Quotes[domain.OutcomeHome]) != 1 || len(g.Quotes[domain.OutcomeAway]) != 1 {
		t.Fatalf("quotes not mapped to home/away: %+v", g.Quotes)
	}
	if got := g.Quotes[domain.OutcomeAway][0].Source.ID; got != "beta" {
		t.Errorf("away quote source = %s, want beta", got)
	}
	if got := g.Quotes[domain.OutcomeAway][0].Source.Priority; got != 1 {
		t.Errorf("away quote priority = %d, want registry value 1", got)
	}
}

func TestNormalizeOrderIndependence(t *testing.T) {
	raw := []domain.RawQuote{
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 2.10),
		rawML("beta", "Maple Leafs", "Canadiens", kickoff.Add(10*time.Minute), "Canadiens", 3.40),
	}
	reversed := []domain.RawQuote{raw[1], raw[0]}

	forward, _ := newTestNormalizer(15 * time.Minute).Normalize(raw)
	backward, _ := newTestNormalizer(15 * time.Minute).Normalize(reversed)

	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("expected 1 group each, got %d and %d", len(forward), len(backward))
	}
	if forward[0].Event.Key() != backward[0].Event.Key() {
		t.Errorf("event key depends on arrival order: %q vs %q",
			forward[0].Event.Key(), backward[0].Event.Key())
	}
	for _, outcome := range []string{domain.OutcomeHome, domain.OutcomeAway} {
		if len(forward[0].Quotes[outcome]) != len(backward[0].Quotes[outcome]) {
			t.Errorf("outcome %s grouped differently across orders", outcome)
		}
	}
}

func TestNormalizeMatchWindowBoundary(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	raw := []domain.RawQuote{
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 2.10),
		// Exactly at the window edge: still the same event.
		rawML("beta", "Toronto Maple Leafs", "Montreal Canadiens", kickoff.Add(15*time.Minute), "Montreal Canadiens", 3.40),
	}
	if groups, _ := n.Normalize(raw); len(groups) != 1 {
		t.Fatalf("15m apart with 15m window: expected 1 group, got %d", len(groups))
	}

	raw[1].CommenceTime = kickoff.Add(16 * time.Minute)
	if groups, _ := n.Normalize(raw); len(groups) != 2 {
		t.Fatalf("16m apart with 15m window: expected 2 groups, got %d", len(groups))
	}
}

func TestNormalizeDistinctTeamsStaySeparate(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	raw := []domain.RawQuote{
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 2.10),
		rawML("beta", "Calgary Flames", "Edmonton Oilers", kickoff, "Calgary Flames", 2.20),
	}
	if groups, _ := n.Normalize(raw); len(groups) != 2 {
		t.Fatalf("different matches merged: expected 2 groups, got %d", len(groups))
	}
}

func TestNormalizeExactLineGrouping(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	spread := func(source string, line float64, outcome string, price float64) domain.RawQuote {
		rq := rawML(source, "Toronto Maple Leafs", "Montreal Canadiens", kickoff, outcome, price)
		rq.MarketType = domain.MarketSpread
		rq.Line = line
		return rq
	}

	// Lines -3.5 and -4.0 must never combine into one group, even with
	// matching outcome labels. Books quote the line per outcome, so each
	// market arrives as a home/away pair with opposite signs.
	raw := []domain.RawQuote{
		spread("alpha", -3.5, "Toronto Maple Leafs -3.5", 1.95),
		spread("alpha", 3.5, "Montreal Canadiens +3.5", 1.90),
		spread("beta", -4.0, "Toronto Maple Leafs -4", 2.05),
		spread("beta", 4.0, "Montreal Canadiens +4", 1.85),
	}
	groups, stats := n.Normalize(raw)
	if stats.Dropped() != 0 {
		t.Fatalf("unexpected drops: %+v", stats)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 line-separated groups, got %d", len(groups))
	}
	for _, g := range groups {
		if got := len(g.Quotes[domain.OutcomeHome]) + len(g.Quotes[domain.OutcomeAway]); got != 2 {
			t.Errorf("line %v holds %d quotes, want 2", g.Market.Line, got)
		}
		if !g.FullCoverage() {
			t.Errorf("line %v: both sides of one spread should give full coverage", g.Market.Line)
		}
	}
}

func TestNormalizeSpreadSidesUnifyAcrossSources(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	spread := func(source string, line float64, outcome string, price float64) domain.RawQuote {
		rq := rawML(source, "Toronto Maple Leafs", "Montreal Canadiens", kickoff, outcome, price)
		rq.MarketType = domain.MarketSpread
		rq.Line = line
		return rq
	}

	// One source quotes the home side at -3.5, another the away side at
	// +3.5. Same market: the opposite signs must not split the group, or a
	// guaranteed-profit pair (implied 0.952) becomes undetectable.
	raw := []domain.RawQuote{
		spread("alpha", -3.5, "Toronto Maple Leafs -3.5", 2.10),
		spread("beta", 3.5, "Montreal Canadiens +3.5", 2.10),
	}
	groups, stats := n.Normalize(raw)
	if stats.Dropped() != 0 {
		t.Fatalf("unexpected drops: %+v", stats)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Market.Line != -3.5 {
		t.Errorf("canonical line = %v, want home-side -3.5", g.Market.Line)
	}
	if !g.FullCoverage() {
		t.Fatal("home and away sides should give full coverage")
	}
	if len(g.Quotes[domain.OutcomeHome]) != 1 || len(g.Quotes[domain.OutcomeAway]) != 1 {
		t.Errorf("sides not mapped to home/away: %+v", g.Quotes)
	}
}

func TestNormalizePickEmSpreadLine(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	spread := func(source string, line float64, outcome string, price float64) domain.RawQuote {
		rq := rawML(source, "Toronto Maple Leafs", "Montreal Canadiens", kickoff, outcome, price)
		rq.MarketType = domain.MarketSpread
		rq.Line = line
		return rq
	}

	// Pick'em: both sides at 0. The away flip must not mint a -0 line key.
	raw := []domain.RawQuote{
		spread("alpha", 0, "Toronto Maple Leafs", 1.95),
		spread("beta", 0, "Montreal Canadiens", 2.15),
	}
	groups, _ := n.Normalize(raw)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if key := groups[0].Market.LineKey(); key != "0.00" {
		t.Errorf("line key = %q, want 0.00", key)
	}
}

func TestNormalizeDropsInvalidPrices(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	raw := []domain.RawQuote{
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 1.0),
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Montreal Canadiens", 0.0),
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 2.10),
	}
	groups, stats := n.Normalize(raw)
	if stats.InvalidPrice != 2 {
		t.Errorf("invalid price drops = %d, want 2", stats.InvalidPrice)
	}
	if len(groups) != 1 || len(groups[0].Quotes[domain.OutcomeHome]) != 1 {
		t.Fatalf("expected 1 group with the surviving quote, got %+v", groups)
	}
}

func TestNormalizeDropsUnmappableOutcomes(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	raw := []domain.RawQuote{
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Boston Bruins", 2.50),
		rawML("alpha", "Toronto Maple Leafs", "Montreal Canadiens", kickoff, "Toronto Maple Leafs", 2.10),
	}
	groups, stats := n.Normalize(raw)
	if stats.UnmappableOutcome != 1 {
		t.Errorf("unmappable drops = %d, want 1", stats.UnmappableOutcome)
	}
	if len(groups) != 1 || stats.Accepted != 1 {
		t.Fatalf("expected the mappable quote to survive, got %+v", stats)
	}
}

func TestNormalizeThreeWayDraw(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	soccer := func(outcome string, price float64) domain.RawQuote {
		rq := rawML("alpha", "Toronto FC", "CF Montreal", kickoff, outcome, price)
		rq.SportKey = "soccer_usa_mls"
		rq.SportLabel = "MLS"
		return rq
	}
	raw := []domain.RawQuote{
		soccer("Toronto FC", 3.1),
		soccer("Draw", 3.4),
		soccer("CF Montreal", 2.9),
	}
	groups, stats := n.Normalize(raw)
	if stats.Dropped() != 0 {
		t.Fatalf("unexpected drops: %+v", stats)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if !g.DrawPossible {
		t.Error("soccer group should allow draws")
	}
	if len(g.Quotes[domain.OutcomeDraw]) != 1 {
		t.Errorf("draw quote missing: %+v", g.Quotes)
	}
	if !g.FullCoverage() {
		t.Error("three mapped outcomes should give full coverage")
	}
}

func TestNormalizeTotals(t *testing.T) {
	n := newTestNormalizer(15 * time.Minute)

	total := func(source, outcome string, price float64) domain.RawQuote {
		rq := rawML(source, "Toronto Raptors", "Boston Celtics", kickoff, outcome, price)
		rq.SportKey = "basketball_nba"
		rq.MarketType = domain.MarketTotal
		rq.Line = 220.5
		return rq
	}
	raw := []domain.RawQuote{
		total("alpha", "Over 220.5", 1.95),
		total("beta", "Under 220.5", 2.15),
	}
	groups, stats := n.Normalize(raw)
	if stats.Dropped() != 0 {
		t.Fatalf("unexpected drops: %+v", stats)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Market.Line != 220.5 {
		t.Errorf("line = %v, want 220.5", g.Market.Line)
	}
	if len(g.Quotes[domain.OutcomeOver]) != 1 || len(g.Quotes[domain.OutcomeUnder]) != 1 {
		t.Errorf("over/under not mapped: %+v", g.Quotes)
	}
}

func TestTeamsMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Toronto Maple Leafs", "toronto maple leafs", true},
		{"Toronto Maple Leafs", "Maple Leafs", true},
		{"NY Rangers", "New York Rangers", true},
		{"St. Louis Blues", "Saint Louis Blues", true},
		{"Toronto Maple Leafs", "Montreal Canadiens", false},
		{"Rangers", "Islanders", false},
		{"", "Maple Leafs", false},
	}
	for _, tc := range cases {
		if got := teamsMatch(tc.a, tc.b); got != tc.want {
			t.Errorf("teamsMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		if got := teamsMatch(tc.b, tc.a); got != tc.want {
			t.Errorf("teamsMatch(%q, %q) = %v, want %v (asymmetric)", tc.b, tc.a, got, tc.want)
		}
	}
}
