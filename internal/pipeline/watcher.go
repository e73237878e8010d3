package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmarleau/arbscan/internal/display"
	"github.com/dmarleau/arbscan/internal/domain"
	"github.com/dmarleau/arbscan/internal/notify"
	"github.com/dmarleau/arbscan/internal/watch"
)

// Watcher repeats scan cycles on an interval, deduplicates findings across
// cycles, and alerts on the ones worth acting on. Cycles run sequentially: a
// cycle that overruns the interval delays the next tick instead of stacking.
type Watcher struct {
	scanner   *Scanner
	publisher *Publisher
	tracker   *watch.Tracker
	notifier  *notify.Notifier
	renderer  display.Renderer
	interval  time.Duration

	archiver      domain.Archiver
	retentionDays int

	logger *slog.Logger
}

// NewWatcher creates a Watcher. archiver may be nil; retentionDays <= 0
// disables opportunity archival.
func NewWatcher(
	scanner *Scanner,
	publisher *Publisher,
	tracker *watch.Tracker,
	notifier *notify.Notifier,
	renderer display.Renderer,
	interval time.Duration,
	archiver domain.Archiver,
	retentionDays int,
	logger *slog.Logger,
) *Watcher {
	return &Watcher{
		scanner:       scanner,
		publisher:     publisher,
		tracker:       tracker,
		notifier:      notifier,
		renderer:      renderer,
		interval:      interval,
		archiver:      archiver,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "watcher")),
	}
}

// Run loops until ctx is cancelled. The first cycle starts immediately.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watch loop starting", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	cycleNum := 0
	lastArchive := time.Time{}

	for {
		cycleNum++
		w.runOnce(ctx, cycleNum)

		if w.archiver != nil && w.retentionDays > 0 && time.Since(lastArchive) >= 24*time.Hour {
			cutoff := time.Now().UTC().AddDate(0, 0, -w.retentionDays)
			if n, err := w.archiver.ArchiveOpportunities(ctx, cutoff); err != nil {
				w.logger.Warn("opportunity archival failed", slog.String("error", err.Error()))
			} else if n > 0 {
				w.logger.Info("aged opportunities archived", slog.Int64("count", n))
			}
			lastArchive = time.Now()
		}

		select {
		case <-ctx.Done():
			w.logger.Info("watch loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runOnce executes one cycle end to end. Scan failures are logged and the
// loop carries on; a market with zero coverage right now may recover by the
// next tick.
func (w *Watcher) runOnce(ctx context.Context, cycleNum int) {
	res, err := w.scanner.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoCoverage) {
			w.logger.Warn("cycle produced no quotes", slog.Int("cycle", cycleNum))
		} else if ctx.Err() == nil {
			w.logger.Error("cycle failed", slog.Int("cycle", cycleNum), slog.String("error", err.Error()))
		}
		return
	}

	var alerted []domain.Opportunity
	for _, opp := range res.Opportunities {
		status := w.tracker.Classify(opp.Key(), opp.ProfitPct)
		if status == watch.StatusDuplicate {
			continue
		}
		alerted = append(alerted, opp)

		title, message := notify.FormatAlert(opp)
		if err := w.notifier.Notify(ctx, status.String(), title, message); err != nil {
			w.logger.Warn("alert delivery incomplete",
				slog.String("id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	w.publisher.Publish(ctx, res, alerted)
	w.renderer.Render(display.Cycle{
		Number:        cycleNum,
		ScanAt:        res.ScanAt,
		Elapsed:       res.Elapsed,
		QuoteCount:    len(res.Raw),
		Reports:       res.Reports,
		Opportunities: res.Opportunities,
		NewCount:      len(alerted),
	})
}
