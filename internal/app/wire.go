package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	s3blob "github.com/dmarleau/arbscan/internal/blob/s3"
	"github.com/dmarleau/arbscan/internal/cache/redis"
	"github.com/dmarleau/arbscan/internal/config"
	"github.com/dmarleau/arbscan/internal/display"
	"github.com/dmarleau/arbscan/internal/domain"
	"github.com/dmarleau/arbscan/internal/notify"
	"github.com/dmarleau/arbscan/internal/scraper"
	"github.com/dmarleau/arbscan/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. Optional
// backends (database, Redis, S3, chat channels) are nil when not configured.
type Dependencies struct {
	Scrapers []scraper.Scraper
	Sources  []domain.Source

	Store     domain.OpportunityStore
	SignalBus domain.SignalBus
	ScanCache domain.ScanCache
	Archiver  domain.Archiver

	Notifier *notify.Notifier
	Renderer display.Renderer
}

// Wire constructs the concrete dependency implementations from cfg and
// returns them with a cleanup function to run on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	scrapers, sources, err := scraper.Build(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: scrapers: %w", err)
	}
	deps.Scrapers = scrapers
	deps.Sources = sources

	var archiveStore s3blob.ArchiveStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		store := postgres.NewOpportunityStore(pgClient.Pool())
		deps.Store = store
		archiveStore = store
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		if cfg.Bus.Enabled {
			deps.SignalBus = redis.NewSignalBus(redisClient)
		}
		// Snapshot TTL tracks the watch interval with room for slow cycles.
		ttl := 10 * cfg.Scan.Interval.Duration
		if ttl < time.Minute {
			ttl = time.Minute
		}
		deps.ScanCache = redis.NewScanCache(redisClient, ttl)
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), archiveStore, logger)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: telegram: %w", err)
		}
		senders = append(senders, tg)
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if cfg.Notify.TerminalBell && !cfg.Display.Quiet {
		senders = append(senders, notify.NewBellSender(os.Stdout))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Kinds, logger)

	if cfg.Display.Quiet {
		deps.Renderer = display.NoOp{}
	} else {
		deps.Renderer = display.NewTerminal(os.Stdout)
	}

	return deps, cleanup, nil
}
