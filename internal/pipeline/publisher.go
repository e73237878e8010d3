package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmarleau/arbscan/internal/domain"
)

// Publisher pushes a finished cycle to the configured sinks: the durable
// store, the Redis signal bus, the latest-scan cache, and the raw snapshot
// archive. Every sink is optional and best-effort; failures are logged and
// never interrupt scanning.
type Publisher struct {
	store      domain.OpportunityStore
	bus        domain.SignalBus
	busChannel string
	cache      domain.ScanCache
	archiver   domain.Archiver
	snapshots  bool
	logger     *slog.Logger
}

// NewPublisher creates a Publisher. Any sink may be nil.
func NewPublisher(
	store domain.OpportunityStore,
	bus domain.SignalBus,
	busChannel string,
	cache domain.ScanCache,
	archiver domain.Archiver,
	snapshots bool,
	logger *slog.Logger,
) *Publisher {
	return &Publisher{
		store:      store,
		bus:        bus,
		busChannel: busChannel,
		cache:      cache,
		archiver:   archiver,
		snapshots:  snapshots,
		logger:     logger.With(slog.String("component", "publisher")),
	}
}

// Publish fans the cycle out. alerted holds the opportunities classified as
// worth acting on this cycle (all of them in one-shot scans, only new and
// re-triggered ones in watch mode); only those are persisted and put on the
// bus, while the cache snapshot always reflects the full cycle.
func (p *Publisher) Publish(ctx context.Context, res CycleResult, alerted []domain.Opportunity) {
	if p.store != nil {
		for _, opp := range alerted {
			if err := p.store.Insert(ctx, opp); err != nil {
				p.logger.Error("persisting opportunity failed",
					slog.String("id", opp.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if p.bus != nil {
		for _, opp := range alerted {
			payload, err := json.Marshal(opp)
			if err != nil {
				p.logger.Error("marshaling opportunity for bus failed",
					slog.String("id", opp.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := p.bus.Publish(ctx, p.busChannel, payload); err != nil {
				p.logger.Warn("bus publish failed",
					slog.String("id", opp.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if p.cache != nil {
		snapshot := domain.ScanSnapshot{
			ScanAt:        res.ScanAt,
			QuoteCount:    len(res.Raw),
			SourcesOK:     healthyCount(res.Reports),
			SourcesFailed: failedCount(res.Reports),
			Opportunities: res.Opportunities,
		}
		if err := p.cache.SetLatestScan(ctx, snapshot); err != nil {
			p.logger.Warn("caching scan snapshot failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if p.archiver != nil && p.snapshots {
		if err := p.archiver.ArchiveScan(ctx, res.ScanAt, res.Raw); err != nil {
			p.logger.Warn("archiving raw scan failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

func healthyCount(reports []domain.SourceReport) int {
	n := 0
	for _, rep := range reports {
		if rep.Err == nil && !rep.Degraded {
			n++
		}
	}
	return n
}

func failedCount(reports []domain.SourceReport) int {
	n := 0
	for _, rep := range reports {
		if rep.Err != nil {
			n++
		}
	}
	return n
}
