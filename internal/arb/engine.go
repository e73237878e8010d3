// Package arb implements arbitrage detection and stake allocation. An
// opportunity exists when the implied probabilities of the best available
// price for every outcome of a market sum to less than one; stakes are then
// split so the payout is identical regardless of outcome.
package arb

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmarleau/arbscan/internal/domain"
)

// payoutTolerance bounds the floating-point drift allowed between leg payouts.
const payoutTolerance = 1e-6

// Config holds detection thresholds and the staking mode. Kelly sizing is
// active when KellyFraction > 0; otherwise TotalStake is used for every
// opportunity. Config validation upstream guarantees exactly one mode is set.
type Config struct {
	MinProfitPct  float64
	MaxProfitPct  float64
	TotalStake    float64
	KellyFraction float64
	Bankroll      float64
}

// Engine scans normalized market groups for arbitrage opportunities.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Engine with the given thresholds and staking mode.
func New(cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "arb_engine")),
	}
}

// Scan evaluates every group and returns the detected opportunities sorted by
// profit percentage, highest first. Groups missing coverage for any outcome
// are skipped; apparent profits above the sanity cap are dropped as bad data.
func (e *Engine) Scan(groups []domain.MarketGroup, now time.Time) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, g := range groups {
		opp, ok := e.evaluate(g, now)
		if !ok {
			continue
		}
		opps = append(opps, opp)
		e.logger.Info("arbitrage found",
			slog.String("event", opp.Event.Name()),
			slog.String("market", opp.Market.Label()),
			slog.Float64("profit_pct", opp.ProfitPct),
		)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ProfitPct > opps[j].ProfitPct
	})
	return opps
}

// evaluate checks one market group. It returns false when no opportunity
// exists or the group is not arbitrage-eligible.
func (e *Engine) evaluate(g domain.MarketGroup, now time.Time) (domain.Opportunity, bool) {
	if !g.FullCoverage() {
		return domain.Opportunity{}, false
	}

	outcomes := g.Market.RequiredOutcomes(g.DrawPossible)
	best := make([]domain.Quote, len(outcomes))
	implied := 0.0
	for i, outcome := range outcomes {
		q := bestQuote(g.Quotes[outcome])
		best[i] = q
		implied += q.ImpliedProbability()
	}

	threshold := 1.0 - e.cfg.MinProfitPct/100.0
	if implied >= threshold {
		return domain.Opportunity{}, false
	}

	profitPct := (1.0 - implied) * 100.0
	if profitPct > e.cfg.MaxProfitPct {
		e.logger.Warn("skipping apparent arbitrage, likely bad data",
			slog.String("event", g.Event.Name()),
			slog.String("market", g.Market.Label()),
			slog.Float64("profit_pct", profitPct),
		)
		return domain.Opportunity{}, false
	}

	totalStake := e.cfg.TotalStake
	if e.cfg.KellyFraction > 0 {
		totalStake = KellyStake(profitPct, e.cfg.Bankroll, e.cfg.KellyFraction)
	}

	legs := allocate(outcomes, best, implied, totalStake)
	payout := totalStake / implied

	return domain.Opportunity{
		ID:           uuid.New().String(),
		Event:        g.Event,
		Market:       g.Market,
		Legs:         legs,
		TotalImplied: implied,
		ProfitPct:    profitPct,
		TotalStake:   totalStake,
		Profit:       payout - totalStake,
		DiscoveredAt: now,
	}, true
}

// bestQuote selects the maximum price from quotes. Ties go to the source with
// the lower configured priority, then the lexically smaller source ID, so the
// choice is deterministic regardless of input order.
func bestQuote(quotes []domain.Quote) domain.Quote {
	best := quotes[0]
	for _, q := range quotes[1:] {
		switch {
		case q.Price > best.Price:
			best = q
		case q.Price == best.Price && q.Source.Priority < best.Source.Priority:
			best = q
		case q.Price == best.Price && q.Source.Priority == best.Source.Priority &&
			q.Source.ID < best.Source.ID:
			best = q
		}
	}
	return best
}

// allocate splits totalStake across legs proportionally to each outcome's
// implied probability. Every leg's payout (stake * price) comes out equal and
// the stakes sum to totalStake exactly, up to floating-point tolerance.
func allocate(outcomes []string, best []domain.Quote, implied, totalStake float64) []domain.Leg {
	legs := make([]domain.Leg, len(outcomes))
	for i, outcome := range outcomes {
		q := best[i]
		stake := totalStake * q.ImpliedProbability() / implied
		legs[i] = domain.Leg{
			Outcome: outcome,
			Source:  q.Source,
			Price:   q.Price,
			Stake:   stake,
			Payout:  stake * q.Price,
			URL:     q.URL,
		}
	}
	return legs
}

// KellyStake sizes the total stake from the edge and bankroll:
// bankroll * (profitPct/100) * fraction. A half-Kelly fraction of 0.5 is the
// usual variance guard.
func KellyStake(profitPct, bankroll, fraction float64) float64 {
	return bankroll * (profitPct / 100.0) * fraction
}

// PayoutsEqual reports whether every leg's payout matches within tolerance.
// It backs the engine's core guarantee and is exercised heavily by tests.
func PayoutsEqual(legs []domain.Leg) bool {
	if len(legs) < 2 {
		return true
	}
	first := legs[0].Payout
	for _, leg := range legs[1:] {
		diff := leg.Payout - first
		if diff < 0 {
			diff = -diff
		}
		if diff > payoutTolerance*first {
			return false
		}
	}
	return true
}
