package domain

import (
	"testing"
	"time"
)

func TestEventKeyIgnoresOrderAndCosmetics(t *testing.T) {
	start := time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC)
	a := Event{
		SportKey:    "icehockey_nhl",
		Competitors: []string{"Toronto Maple Leafs", "Montreal Canadiens"},
		StartTime:   start,
	}
	b := Event{
		SportKey:    "icehockey_nhl",
		Competitors: []string{"montreal canadiens", "TORONTO MAPLE LEAFS"},
		StartTime:   start.Add(10 * time.Minute), // same 30-minute bucket
	}
	if a.Key() != b.Key() {
		t.Errorf("keys differ:\n  %s\n  %s", a.Key(), b.Key())
	}
}

func TestEventKeySeparatesDistinctGames(t *testing.T) {
	start := time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC)
	a := Event{SportKey: "icehockey_nhl", Competitors: []string{"Toronto", "Montreal"}, StartTime: start}
	b := Event{SportKey: "icehockey_nhl", Competitors: []string{"Toronto", "Boston"}, StartTime: start}
	c := Event{SportKey: "basketball_nba", Competitors: []string{"Toronto", "Montreal"}, StartTime: start}

	if a.Key() == b.Key() {
		t.Error("different competitors should produce different keys")
	}
	if a.Key() == c.Key() {
		t.Error("different sports should produce different keys")
	}
}

func TestOutcomeName(t *testing.T) {
	ev := Event{Competitors: []string{"Toronto Maple Leafs", "Montreal Canadiens"}}

	cases := map[string]string{
		OutcomeHome:  "Toronto Maple Leafs",
		OutcomeAway:  "Montreal Canadiens",
		OutcomeDraw:  "Draw",
		OutcomeOver:  "Over",
		OutcomeUnder: "Under",
	}
	for outcome, want := range cases {
		if got := ev.OutcomeName(outcome); got != want {
			t.Errorf("OutcomeName(%q) = %q, want %q", outcome, got, want)
		}
	}
}

func TestMarketLineKeyAndLabel(t *testing.T) {
	ml := Market{Type: MarketMoneyline}
	if ml.LineKey() != "-" {
		t.Errorf("moneyline LineKey = %q, want \"-\"", ml.LineKey())
	}

	spread := Market{Type: MarketSpread, Line: -3.5}
	total := Market{Type: MarketTotal, Line: 220.5}
	if spread.LineKey() == total.LineKey() {
		t.Error("different lines must have different keys")
	}
	if got := spread.Label(); got != "spread -3.5" {
		t.Errorf("spread label = %q", got)
	}
	if got := total.Label(); got != "total +220.5" {
		t.Errorf("total label = %q", got)
	}
}

func TestOpportunityKeyStableAcrossLegOrder(t *testing.T) {
	ev := Event{
		SportKey:    "icehockey_nhl",
		Competitors: []string{"Toronto", "Montreal"},
		StartTime:   time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC),
	}
	market := Market{Type: MarketMoneyline}
	legA := Leg{Outcome: OutcomeHome, Source: Source{ID: "bodog"}, Stake: 50}
	legB := Leg{Outcome: OutcomeAway, Source: Source{ID: "pinnacle"}, Stake: 50}

	a := Opportunity{Event: ev, Market: market, Legs: []Leg{legA, legB}, ProfitPct: 2.0}
	b := Opportunity{Event: ev, Market: market, Legs: []Leg{legB, legA}, ProfitPct: 3.5}

	if a.Key() != b.Key() {
		t.Error("leg order and profit must not affect the identity key")
	}

	// A different source choice is a different opportunity.
	c := Opportunity{Event: ev, Market: market, Legs: []Leg{
		legA, {Outcome: OutcomeAway, Source: Source{ID: "fanduel"}},
	}}
	if a.Key() == c.Key() {
		t.Error("different source pair should change the key")
	}
}

func TestSourcePair(t *testing.T) {
	opp := Opportunity{Legs: []Leg{
		{Outcome: OutcomeHome, Source: Source{ID: "pinnacle"}},
		{Outcome: OutcomeAway, Source: Source{ID: "bodog"}},
		{Outcome: OutcomeDraw, Source: Source{ID: "bodog"}},
	}}
	if got := opp.SourcePair(); got != "bodog+pinnacle" {
		t.Errorf("SourcePair = %q, want bodog+pinnacle", got)
	}
}

func TestMarketGroupFullCoverage(t *testing.T) {
	g := MarketGroup{
		Market: Market{Type: MarketMoneyline},
		Quotes: map[string][]Quote{
			OutcomeHome: {{Price: 2.1}},
		},
	}
	if g.FullCoverage() {
		t.Error("missing away outcome should fail coverage")
	}

	g.Quotes[OutcomeAway] = []Quote{{Price: 2.0}}
	if !g.FullCoverage() {
		t.Error("both outcomes quoted should pass coverage")
	}

	// Three-way markets additionally need the draw.
	g.DrawPossible = true
	if g.FullCoverage() {
		t.Error("three-way market without a draw quote should fail coverage")
	}
	g.Quotes[OutcomeDraw] = []Quote{{Price: 3.5}}
	if !g.FullCoverage() {
		t.Error("complete three-way market should pass coverage")
	}
}
