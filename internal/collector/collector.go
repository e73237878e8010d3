// Package collector fans the scrapers out concurrently and gathers their raw
// quotes under a wall-clock budget. A failing source never fails the batch:
// every source produces a report, and whatever quotes arrived in time flow on
// to normalization.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmarleau/arbscan/internal/domain"
	"github.com/dmarleau/arbscan/internal/scraper"
)

// Config bounds one collection batch.
type Config struct {
	// Timeout applies to each individual fetch attempt.
	Timeout time.Duration
	// Retries is the maximum number of attempts per source.
	Retries int
	// Backoff is the delay before the second attempt; it doubles each retry.
	Backoff time.Duration
	// Budget caps the whole batch. Sources still running at the deadline are
	// cancelled and reported with the budget error.
	Budget time.Duration
}

// Result is the outcome of one collection batch: the pooled quotes plus one
// report per source in scraper order.
type Result struct {
	Quotes  []domain.RawQuote
	Reports []domain.SourceReport
}

// Healthy returns the number of sources that produced quotes without error.
func (r Result) Healthy() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.Err == nil && !rep.Degraded {
			n++
		}
	}
	return n
}

// Collector runs scrapers concurrently with per-source retry and isolation.
type Collector struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Collector.
func New(cfg Config, logger *slog.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "collector")),
	}
}

// Collect fetches from every scraper in parallel and returns the combined
// quotes with per-source reports. It never returns an error: source failures
// are carried in the reports, and a cancelled ctx simply truncates the batch.
func (c *Collector) Collect(ctx context.Context, scrapers []scraper.Scraper, sportKeys []string) Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Budget)
	defer cancel()

	reports := make([]domain.SourceReport, len(scrapers))
	quotesBySource := make([][]domain.RawQuote, len(scrapers))

	g, ctx := errgroup.WithContext(ctx)
	for i, s := range scrapers {
		i, s := i, s
		g.Go(func() error {
			quotes, report := c.fetchWithRetry(ctx, s, sportKeys)
			quotesBySource[i] = quotes
			reports[i] = report
			return nil
		})
	}
	// Goroutines report failures through reports, never as errors.
	_ = g.Wait()

	var all []domain.RawQuote
	for _, qs := range quotesBySource {
		all = append(all, qs...)
	}

	result := Result{Quotes: all, Reports: reports}
	c.logger.Info("collection batch complete",
		slog.Int("sources", len(scrapers)),
		slog.Int("healthy", result.Healthy()),
		slog.Int("quotes", len(all)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result
}

// fetchWithRetry runs one source's bounded attempt loop. Quota exhaustion is
// terminal for the batch (the quota will not recover within it) and marks the
// source degraded rather than failed.
func (c *Collector) fetchWithRetry(ctx context.Context, s scraper.Scraper, sportKeys []string) ([]domain.RawQuote, domain.SourceReport) {
	report := domain.SourceReport{SourceID: s.Name()}
	start := time.Now()
	defer func() { report.Elapsed = time.Since(start) }()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		report.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		quotes, err := s.Fetch(attemptCtx, sportKeys)
		cancel()

		if err == nil {
			report.Quotes = len(quotes)
			c.logger.Debug("source fetch succeeded",
				slog.String("source", s.Name()),
				slog.Int("quotes", len(quotes)),
				slog.Int("attempt", attempt),
			)
			return quotes, report
		}

		if errors.Is(err, domain.ErrQuotaExceeded) {
			c.logger.Warn("source quota exhausted, degrading",
				slog.String("source", s.Name()),
				slog.Int("quotes", len(quotes)),
			)
			report.Degraded = true
			report.Quotes = len(quotes)
			return quotes, report
		}

		lastErr = err
		if ctx.Err() != nil {
			// Budget spent; the attempt error just reflects cancellation.
			report.Err = fmt.Errorf("collection budget exhausted: %w", domain.ErrContextDone)
			c.logger.Warn("source abandoned at budget deadline",
				slog.String("source", s.Name()),
				slog.Int("attempts", attempt),
			)
			return nil, report
		}

		c.logger.Warn("source fetch failed",
			slog.String("source", s.Name()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.cfg.Retries),
			slog.String("error", err.Error()),
		)

		if attempt < c.cfg.Retries {
			if !sleepCtx(ctx, c.cfg.Backoff<<(attempt-1)) {
				report.Err = fmt.Errorf("collection budget exhausted: %w", domain.ErrContextDone)
				return nil, report
			}
		}
	}

	report.Err = fmt.Errorf("all %d attempts failed: %w", c.cfg.Retries, lastErr)
	return nil, report
}

// sleepCtx waits for d unless ctx finishes first. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
