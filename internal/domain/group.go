package domain

// MarketGroup is the unit of arbitrage detection: every normalized quote for
// one (event, market type, line) tuple, keyed by canonical outcome label.
// Spread and total groups are split by exact line upstream, so all quotes in
// one group price the same proposition.
type MarketGroup struct {
	Event        Event
	Market       Market
	DrawPossible bool
	Quotes       map[string][]Quote
}

// FullCoverage reports whether every required outcome has at least one quote.
// Groups without full coverage cannot be arbitraged and are skipped.
func (g MarketGroup) FullCoverage() bool {
	for _, outcome := range g.Market.RequiredOutcomes(g.DrawPossible) {
		if len(g.Quotes[outcome]) == 0 {
			return false
		}
	}
	return true
}
