package domain

import "time"

// Source identifies one bookmaker or aggregator feed. Sources outlive any
// single scan; Priority breaks ties when two sources quote an identical best
// price (lower wins) so results are reproducible across runs.
type Source struct {
	ID       string // stable identifier, e.g. "sports_interaction"
	Name     string // display name, e.g. "Sports Interaction"
	URL      string // human-facing site URL for bet instructions
	Priority int
}

// RawQuote is a single price offering as reported by a scraper, before
// normalization. Event naming, outcome labels, and market keys are still in
// the source's own vocabulary.
type RawQuote struct {
	SourceID     string
	SourceName   string
	SportKey     string
	SportLabel   string
	EventID      string // source-local event identifier, may be empty
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	MarketType   MarketType
	Line         float64 // spread/total only
	Outcome      string  // source-local outcome label
	Price        float64 // decimal odds
	URL          string
	ObservedAt   time.Time
}

// Quote is a normalized price offering attached to a canonical outcome.
// Invariant: Price > 1.0; lower prices are rejected during normalization.
type Quote struct {
	Source     Source
	Outcome    string // canonical outcome label
	Price      float64
	URL        string
	ObservedAt time.Time
}

// ImpliedProbability converts the decimal price to its implied probability.
func (q Quote) ImpliedProbability() float64 {
	return 1.0 / q.Price
}

// SourceReport describes the outcome of one source's fetch during a scan
// cycle. Err is nil on success; Degraded marks quota-limited aggregators that
// returned partial or no coverage without failing the scan.
type SourceReport struct {
	SourceID string
	Quotes   int
	Attempts int
	Elapsed  time.Duration
	Err      error
	Degraded bool
}
