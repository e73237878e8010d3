// Package pipeline composes collection, normalization, and detection into
// scan cycles, and runs the watch loop on top of them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmarleau/arbscan/internal/arb"
	"github.com/dmarleau/arbscan/internal/collector"
	"github.com/dmarleau/arbscan/internal/domain"
	"github.com/dmarleau/arbscan/internal/normalize"
	"github.com/dmarleau/arbscan/internal/scraper"
)

// CycleResult is everything one scan cycle produced.
type CycleResult struct {
	ScanAt        time.Time
	Elapsed       time.Duration
	Raw           []domain.RawQuote
	Reports       []domain.SourceReport
	Stats         normalize.Stats
	Groups        []domain.MarketGroup
	Opportunities []domain.Opportunity
}

// Scanner runs one full scan cycle: collect from every source, normalize into
// market groups, detect arbitrage.
type Scanner struct {
	scrapers   []scraper.Scraper
	sports     []string
	collector  *collector.Collector
	normalizer *normalize.Normalizer
	engine     *arb.Engine
	logger     *slog.Logger
}

// NewScanner creates a Scanner over the given sources and sports.
func NewScanner(
	scrapers []scraper.Scraper,
	sports []string,
	coll *collector.Collector,
	norm *normalize.Normalizer,
	engine *arb.Engine,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		scrapers:   scrapers,
		sports:     sports,
		collector:  coll,
		normalizer: norm,
		engine:     engine,
		logger:     logger.With(slog.String("component", "scanner")),
	}
}

// RunCycle executes one scan cycle. When every source comes back empty the
// cycle returns domain.ErrNoCoverage; partial coverage is normal operation
// and detection proceeds on what arrived.
func (s *Scanner) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	res := CycleResult{ScanAt: start.UTC()}

	collected := s.collector.Collect(ctx, s.scrapers, s.sports)
	res.Raw = collected.Quotes
	res.Reports = collected.Reports

	if len(collected.Quotes) == 0 {
		res.Elapsed = time.Since(start)
		return res, fmt.Errorf("pipeline: no source produced quotes: %w", domain.ErrNoCoverage)
	}

	res.Groups, res.Stats = s.normalizer.Normalize(collected.Quotes)
	res.Opportunities = s.engine.Scan(res.Groups, res.ScanAt)
	res.Elapsed = time.Since(start)

	s.logger.Info("scan cycle complete",
		slog.Int("quotes", len(res.Raw)),
		slog.Int("dropped", res.Stats.Dropped()),
		slog.Int("groups", len(res.Groups)),
		slog.Int("opportunities", len(res.Opportunities)),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
