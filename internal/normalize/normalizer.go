// Package normalize maps heterogeneous raw quotes from many bookmakers into
// the canonical event/market/outcome model. The same real-world match reported
// with cosmetic name or kick-off variance by different sources unifies into
// one event; spread and total markets are split by exact numeric line.
package normalize

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// Config tunes the event-matching heuristics. The window has no canonical
// correct value; boundary behavior is covered by tests rather than hard-coded
// beyond this default.
type Config struct {
	// MatchWindow is the maximum start-time difference for two reports to be
	// considered the same event.
	MatchWindow time.Duration
}

// Stats counts what normalization discarded, for the cycle health report.
type Stats struct {
	Accepted          int
	InvalidPrice      int
	UnknownMarket     int
	UnmappableOutcome int
}

// Dropped returns the total number of discarded quotes.
func (s Stats) Dropped() int {
	return s.InvalidPrice + s.UnknownMarket + s.UnmappableOutcome
}

// Normalizer builds market groups from raw quotes. It carries the source
// registry so normalized quotes reference configured priorities.
type Normalizer struct {
	cfg     Config
	sources map[string]domain.Source
	logger  *slog.Logger
}

// New creates a Normalizer. Sources establish the priority used later for
// best-price tie-breaking; quotes from unregistered sources are still
// accepted, with the lowest priority.
func New(cfg Config, sources []domain.Source, logger *slog.Logger) *Normalizer {
	byID := make(map[string]domain.Source, len(sources))
	for _, s := range sources {
		byID[s.ID] = s
	}
	return &Normalizer{
		cfg:     cfg,
		sources: byID,
		logger:  logger.With(slog.String("component", "normalizer")),
	}
}

// eventEntry is one canonical event under construction plus its markets,
// keyed by market type and exact line.
type eventEntry struct {
	event        domain.Event
	drawPossible bool
	markets      map[string]*domain.MarketGroup
}

// Normalize consumes the raw quote batch and returns the market groups ready
// for arbitrage detection. The result is independent of the order raw quotes
// arrive in: matching is symmetric and grouping keys are derived, not
// positional. Invalid and unmappable quotes are dropped with a logged reason.
func (n *Normalizer) Normalize(raw []domain.RawQuote) ([]domain.MarketGroup, Stats) {
	var stats Stats
	var entries []*eventEntry

	for _, rq := range raw {
		if rq.Price <= 1.0 {
			stats.InvalidPrice++
			n.logger.Debug("dropping quote with invalid price",
				slog.String("source", rq.SourceID),
				slog.Float64("price", rq.Price),
			)
			continue
		}
		if !rq.MarketType.Valid() {
			stats.UnknownMarket++
			n.logger.Warn("dropping quote with unknown market type",
				slog.String("source", rq.SourceID),
				slog.String("market", string(rq.MarketType)),
			)
			continue
		}

		entry := n.findOrCreateEvent(&entries, rq)

		outcome, ok := mapOutcome(rq, entry.event)
		if !ok {
			stats.UnmappableOutcome++
			n.logger.Warn("dropping quote with unmappable outcome",
				slog.String("source", rq.SourceID),
				slog.String("event", entry.event.Name()),
				slog.String("outcome", rq.Outcome),
			)
			continue
		}

		market := domain.Market{Type: rq.MarketType, Line: canonicalLine(rq.MarketType, outcome, rq.Line)}
		mk := string(market.Type) + "|" + market.LineKey()
		group, ok := entry.markets[mk]
		if !ok {
			group = &domain.MarketGroup{
				Event:        entry.event,
				Market:       market,
				DrawPossible: entry.drawPossible,
				Quotes:       make(map[string][]domain.Quote),
			}
			entry.markets[mk] = group
		}

		group.Quotes[outcome] = append(group.Quotes[outcome], domain.Quote{
			Source:     n.sourceFor(rq),
			Outcome:    outcome,
			Price:      rq.Price,
			URL:        rq.URL,
			ObservedAt: rq.ObservedAt,
		})
		stats.Accepted++
	}

	var groups []domain.MarketGroup
	for _, entry := range entries {
		for _, g := range entry.markets {
			groups = append(groups, *g)
		}
	}
	return groups, stats
}

// findOrCreateEvent locates the canonical event a raw quote belongs to, or
// registers a new one. Matching requires the same sport, start times within
// the configured window, and fuzzy-equal competitor pairs.
func (n *Normalizer) findOrCreateEvent(entries *[]*eventEntry, rq domain.RawQuote) *eventEntry {
	for _, entry := range *entries {
		if entry.event.SportKey != rq.SportKey {
			continue
		}
		dt := entry.event.StartTime.Sub(rq.CommenceTime)
		if dt < 0 {
			dt = -dt
		}
		if dt > n.cfg.MatchWindow {
			continue
		}
		if competitorsMatch(entry.event.Competitors, []string{rq.HomeTeam, rq.AwayTeam}) {
			return entry
		}
	}

	entry := &eventEntry{
		event: domain.Event{
			SportKey:    rq.SportKey,
			SportLabel:  rq.SportLabel,
			Competitors: []string{rq.HomeTeam, rq.AwayTeam},
			StartTime:   rq.CommenceTime.UTC(),
		},
		drawPossible: drawPossible(rq.SportKey),
		markets:      make(map[string]*domain.MarketGroup),
	}
	*entries = append(*entries, entry)
	return entry
}

// sourceFor resolves the registered source for a raw quote, falling back to a
// lowest-priority stand-in for unregistered IDs.
func (n *Normalizer) sourceFor(rq domain.RawQuote) domain.Source {
	if s, ok := n.sources[rq.SourceID]; ok {
		return s
	}
	return domain.Source{
		ID:       rq.SourceID,
		Name:     rq.SourceName,
		Priority: int(^uint(0) >> 1), // unregistered sources lose every tie
	}
}

// canonicalLine expresses a market line in the home-side convention. Books
// quote spread points per outcome (home -3.5, away +3.5 for the same market),
// so the away side's sign is flipped to land both sides in one line group.
// Total lines are already outcome-independent.
func canonicalLine(mt domain.MarketType, outcome string, line float64) float64 {
	if mt == domain.MarketSpread && outcome == domain.OutcomeAway && line != 0 {
		return -line
	}
	return line
}

// drawPossible reports whether the sport's moneyline is three-way.
func drawPossible(sportKey string) bool {
	return strings.HasPrefix(sportKey, "soccer_")
}

// competitorsMatch reports whether two competitor pairs describe the same
// match. The comparison is symmetric: home/away order is respected first and
// swapped as a fallback since a few books list the away side first.
func competitorsMatch(a, b []string) bool {
	if len(a) != len(b) || len(a) != 2 {
		return false
	}
	if teamsMatch(a[0], b[0]) && teamsMatch(a[1], b[1]) {
		return true
	}
	return teamsMatch(a[0], b[1]) && teamsMatch(a[1], b[0])
}
