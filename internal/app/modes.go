package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmarleau/arbscan/internal/arb"
	"github.com/dmarleau/arbscan/internal/collector"
	"github.com/dmarleau/arbscan/internal/display"
	"github.com/dmarleau/arbscan/internal/normalize"
	"github.com/dmarleau/arbscan/internal/notify"
	"github.com/dmarleau/arbscan/internal/pipeline"
	"github.com/dmarleau/arbscan/internal/watch"
)

// buildScanner assembles the scan pipeline shared by scan and watch modes.
func (a *App) buildScanner(deps *Dependencies) *pipeline.Scanner {
	coll := collector.New(collector.Config{
		Timeout: a.cfg.Collect.Timeout.Duration,
		Retries: a.cfg.Collect.Retries,
		Backoff: a.cfg.Collect.Backoff.Duration,
		Budget:  a.cfg.Collect.Budget.Duration,
	}, a.logger)

	norm := normalize.New(normalize.Config{
		MatchWindow: a.cfg.Scan.MatchWindow.Duration,
	}, deps.Sources, a.logger)

	engine := arb.New(arb.Config{
		MinProfitPct:  a.cfg.Scan.MinProfitPct,
		MaxProfitPct:  a.cfg.Scan.MaxProfitPct,
		TotalStake:    a.cfg.Staking.TotalStake,
		KellyFraction: a.cfg.Staking.KellyFraction,
		Bankroll:      a.cfg.Staking.Bankroll,
	}, a.logger)

	return pipeline.NewScanner(deps.Scrapers, a.cfg.Scan.Sports, coll, norm, engine, a.logger)
}

func (a *App) buildPublisher(deps *Dependencies) *pipeline.Publisher {
	return pipeline.NewPublisher(
		deps.Store,
		deps.SignalBus,
		a.cfg.Bus.Channel,
		deps.ScanCache,
		deps.Archiver,
		a.cfg.Archive.ScanSnapshots,
		a.logger,
	)
}

// ScanMode runs a single scan cycle, reports everything it found, and exits.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	scanner := a.buildScanner(deps)
	publisher := a.buildPublisher(deps)

	res, err := scanner.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	// One-shot scans have no cycle history: everything found is new.
	publisher.Publish(ctx, res, res.Opportunities)
	for _, opp := range res.Opportunities {
		title, message := notify.FormatAlert(opp)
		if err := deps.Notifier.Notify(ctx, watch.StatusNew.String(), title, message); err != nil {
			a.logger.Warn("alert delivery incomplete",
				slog.String("id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	deps.Renderer.Render(display.Cycle{
		Number:        1,
		ScanAt:        res.ScanAt,
		Elapsed:       res.Elapsed,
		QuoteCount:    len(res.Raw),
		Reports:       res.Reports,
		Opportunities: res.Opportunities,
		NewCount:      len(res.Opportunities),
	})
	return nil
}

// WatchMode repeats scan cycles until cancelled, alerting only on new and
// materially changed opportunities.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	watcher := pipeline.NewWatcher(
		a.buildScanner(deps),
		a.buildPublisher(deps),
		watch.NewTracker(a.cfg.Watch.RenotifyDeltaPct),
		deps.Notifier,
		deps.Renderer,
		a.cfg.Scan.Interval.Duration,
		deps.Archiver,
		a.cfg.Archive.RetentionDays,
		a.logger,
	)

	err := watcher.Run(ctx)
	if ctx.Err() != nil {
		return nil // clean shutdown
	}
	return err
}

// ReportMode prints aggregate statistics over the stored opportunity history
// and exits.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	since := time.Now().UTC().AddDate(0, 0, -a.cfg.Report.Days)

	daily, err := deps.Store.DailySummary(ctx, since)
	if err != nil {
		return fmt.Errorf("app: report: %w", err)
	}
	pairs, err := deps.Store.TopSourcePairs(ctx, since, a.cfg.Report.TopPairs)
	if err != nil {
		return fmt.Errorf("app: report: %w", err)
	}

	display.RenderReport(os.Stdout, daily, pairs)
	return nil
}
