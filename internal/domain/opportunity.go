package domain

import (
	"sort"
	"strings"
	"time"
)

// Leg is one side of an arbitrage opportunity: the bet to place at a specific
// bookmaker for one outcome.
type Leg struct {
	Outcome string
	Source  Source
	Price   float64
	Stake   float64
	Payout  float64 // Stake * Price, identical across legs within tolerance
	URL     string
}

// Opportunity is a detected risk-free bet across bookmakers. It is immutable
// once created; a later cycle that finds "the same" arbitrage produces a new
// value with the same Key but fresh numbers.
type Opportunity struct {
	ID           string
	Event        Event
	Market       Market
	Legs         []Leg // ordered by canonical outcome
	TotalImplied float64
	ProfitPct    float64
	TotalStake   float64
	Profit       float64 // guaranteed profit at TotalStake
	DiscoveredAt time.Time
}

// Key derives the dedup identity: event key, market type, line, and the
// ordered set of (outcome, source) pairs chosen as best price. Stake and
// profit are deliberately excluded so a re-surfacing opportunity with updated
// numbers maps to the same key.
func (o Opportunity) Key() string {
	pairs := make([]string, len(o.Legs))
	for i, leg := range o.Legs {
		pairs[i] = leg.Outcome + "@" + leg.Source.ID
	}
	sort.Strings(pairs)

	var b strings.Builder
	b.WriteString(o.Event.Key())
	b.WriteByte('|')
	b.WriteString(string(o.Market.Type))
	b.WriteByte('|')
	b.WriteString(o.Market.LineKey())
	for _, p := range pairs {
		b.WriteByte('|')
		b.WriteString(p)
	}
	return b.String()
}

// SourcePair renders the participating bookmakers as a stable "+"-joined
// string, e.g. "bodog+pinnacle". Used for store aggregation.
func (o Opportunity) SourcePair() string {
	ids := make([]string, 0, len(o.Legs))
	seen := make(map[string]bool, len(o.Legs))
	for _, leg := range o.Legs {
		if !seen[leg.Source.ID] {
			seen[leg.Source.ID] = true
			ids = append(ids, leg.Source.ID)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}
