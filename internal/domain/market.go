package domain

import (
	"fmt"
	"strconv"
)

// MarketType classifies the market family a quote belongs to.
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
)

// Valid reports whether the market type is one of the known families.
func (m MarketType) Valid() bool {
	switch m {
	case MarketMoneyline, MarketSpread, MarketTotal:
		return true
	}
	return false
}

// Market identifies one betting market within an event. Spread and total
// markets carry a numeric line; two markets with different lines are distinct
// and never combined into one arbitrage group.
type Market struct {
	Type MarketType
	Line float64 // 0 and unused for moneyline
}

// LineKey renders the line at fixed precision for use inside identity keys.
// Moneyline markets have no line and render as "-".
func (m Market) LineKey() string {
	if m.Type == MarketMoneyline {
		return "-"
	}
	return strconv.FormatFloat(m.Line, 'f', 2, 64)
}

// Label renders the market for display, e.g. "spread -3.5" or "total 220.5".
func (m Market) Label() string {
	if m.Type == MarketMoneyline {
		return string(m.Type)
	}
	return fmt.Sprintf("%s %+.1f", m.Type, m.Line)
}

// Canonical outcome labels. Spread outcomes reuse Home/Away for the team
// covering each side of the line.
const (
	OutcomeHome  = "home"
	OutcomeAway  = "away"
	OutcomeDraw  = "draw"
	OutcomeOver  = "over"
	OutcomeUnder = "under"
)

// RequiredOutcomes returns the full outcome set a market must cover before it
// is arbitrage-eligible. Moneyline is two-way unless the sport allows draws.
func (m Market) RequiredOutcomes(drawPossible bool) []string {
	switch m.Type {
	case MarketMoneyline:
		if drawPossible {
			return []string{OutcomeHome, OutcomeAway, OutcomeDraw}
		}
		return []string{OutcomeHome, OutcomeAway}
	case MarketSpread:
		return []string{OutcomeHome, OutcomeAway}
	case MarketTotal:
		return []string{OutcomeOver, OutcomeUnder}
	}
	return nil
}
