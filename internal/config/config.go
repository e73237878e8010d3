// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSCAN_* environment variables.
type Config struct {
	Scan     ScanConfig     `toml:"scan"`
	Staking  StakingConfig  `toml:"staking"`
	Collect  CollectConfig  `toml:"collect"`
	Watch    WatchConfig    `toml:"watch"`
	OddsAPI  OddsAPIConfig  `toml:"odds_api"`
	Sites    SitesConfig    `toml:"sites"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Bus      BusConfig      `toml:"bus"`
	Notify   NotifyConfig   `toml:"notify"`
	Display  DisplayConfig  `toml:"display"`
	Archive  ArchiveConfig  `toml:"archive"`
	Report   ReportConfig   `toml:"report"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ScanConfig holds the markets and thresholds for one scan cycle.
type ScanConfig struct {
	// Sports are Odds-API-style sport keys, e.g. "icehockey_nhl".
	Sports []string `toml:"sports"`
	// Sources lists enabled source IDs in priority order; the order breaks
	// ties when two bookmakers quote an identical best price.
	Sources []string `toml:"sources"`
	// MinProfitPct is the minimum profit percentage worth reporting.
	MinProfitPct float64 `toml:"min_profit_pct"`
	// MaxProfitPct is a sanity cap; apparent profit above it is treated as
	// bad data and dropped.
	MaxProfitPct float64 `toml:"max_profit_pct"`
	// Interval is the sleep between cycles in watch mode.
	Interval duration `toml:"interval"`
	// MatchWindow is the start-time tolerance when unifying the same event
	// reported by different sources.
	MatchWindow duration `toml:"match_window"`
}

// StakingConfig selects exactly one staking mode: a fixed total stake, or
// Kelly sizing from a bankroll. The two are mutually exclusive.
type StakingConfig struct {
	TotalStake    float64 `toml:"total_stake"`
	KellyFraction float64 `toml:"kelly_fraction"`
	Bankroll      float64 `toml:"bankroll"`
}

// Kelly reports whether Kelly sizing is configured.
func (s StakingConfig) Kelly() bool {
	return s.KellyFraction > 0
}

// CollectConfig bounds the concurrent odds collection.
type CollectConfig struct {
	// Timeout applies independently to each fetch attempt.
	Timeout duration `toml:"timeout"`
	// Retries is the maximum attempt count per source and cycle.
	Retries int `toml:"retries"`
	// Backoff is the base delay between attempts; it grows exponentially.
	Backoff duration `toml:"backoff"`
	// Budget is the wall-clock limit for the whole batch; sources still
	// pending at the deadline are reported as timed out.
	Budget duration `toml:"budget"`
}

// WatchConfig tunes dedup behavior across watch cycles.
type WatchConfig struct {
	// RenotifyDeltaPct re-classifies a seen opportunity as new when its
	// profit moved by more than this many percentage points.
	RenotifyDeltaPct float64 `toml:"renotify_delta_pct"`
}

// OddsAPIConfig holds The Odds API aggregator parameters.
type OddsAPIConfig struct {
	APIKey     string   `toml:"api_key"`
	BaseURL    string   `toml:"base_url"`
	Regions    string   `toml:"regions"`
	Bookmakers []string `toml:"bookmakers"`
}

// SitesConfig holds base URLs for the direct-site scrapers.
type SitesConfig struct {
	SportsInteractionURL string `toml:"sports_interaction_url"`
	BodogURL             string `toml:"bodog_url"`
	// FixturesPath feeds the static scraper used by tests and dry runs.
	FixturesPath string `toml:"fixtures_path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the signal bus and scan cache are skipped at wiring time.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for scan archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// BusConfig holds the Redis Pub/Sub channel new opportunities are published to.
type BusConfig struct {
	Enabled bool   `toml:"enabled"`
	Channel string `toml:"channel"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    int64  `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	TerminalBell      bool   `toml:"terminal_bell"`
	// Kinds filters which alert classes go out ("new", "renotify"). Empty
	// allows everything.
	Kinds []string `toml:"kinds"`
}

// DisplayConfig controls the terminal dashboard.
type DisplayConfig struct {
	Quiet bool `toml:"quiet"`
}

// ArchiveConfig controls raw-scan snapshots and opportunity-history archival.
type ArchiveConfig struct {
	ScanSnapshots bool `toml:"scan_snapshots"`
	RetentionDays int  `toml:"retention_days"`
}

// ReportConfig shapes report mode output.
type ReportConfig struct {
	// Days is the lookback window for the aggregates.
	Days int `toml:"days"`
	// TopPairs limits the bookmaker pairing ranking.
	TopPairs int `toml:"top_pairs"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// KnownSources are the source IDs the scraper registry can construct.
var KnownSources = []string{"odds_api", "sports_interaction", "bodog", "static"}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Scan: ScanConfig{
			Sports: []string{
				"icehockey_nhl",
				"basketball_nba",
				"americanfootball_nfl",
				"baseball_mlb",
			},
			Sources:      []string{"odds_api", "sports_interaction", "bodog"},
			MinProfitPct: 0.3,
			MaxProfitPct: 20.0,
			Interval:     duration{30 * time.Second},
			MatchWindow:  duration{15 * time.Minute},
		},
		Staking: StakingConfig{
			TotalStake: 100.0,
		},
		Collect: CollectConfig{
			Timeout: duration{30 * time.Second},
			Retries: 3,
			Backoff: duration{2 * time.Second},
			Budget:  duration{90 * time.Second},
		},
		Watch: WatchConfig{
			RenotifyDeltaPct: 1.0,
		},
		OddsAPI: OddsAPIConfig{
			BaseURL: "https://api.the-odds-api.com/v4",
			Regions: "us",
			Bookmakers: []string{
				"draftkings", "fanduel", "betmgm", "pointsbetus", "betrivers", "pinnacle",
			},
		},
		Sites: SitesConfig{
			SportsInteractionURL: "https://www.sportsinteraction.com",
			BodogURL:             "https://www.bodog.eu",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbscan",
			User:          "arbscan",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbscan-data",
			ForcePathStyle: true,
		},
		Bus: BusConfig{
			Channel: "arbscan.opportunities",
		},
		Notify: NotifyConfig{
			TerminalBell: true,
		},
		Archive: ArchiveConfig{
			RetentionDays: 90,
		},
		Report: ReportConfig{
			Days:     30,
			TopPairs: 10,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"scan":   true,
	"watch":  true,
	"report": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for internal consistency and returns an
// error describing every problem found. A non-nil error is fatal at startup,
// before any scan cycle begins.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, watch, report)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(c.Scan.Sports) == 0 {
		errs = append(errs, "scan: at least one sport key is required")
	}
	if len(c.Scan.Sources) == 0 {
		errs = append(errs, "scan: at least one source is required")
	}
	known := make(map[string]bool, len(KnownSources))
	for _, s := range KnownSources {
		known[s] = true
	}
	for _, s := range c.Scan.Sources {
		if !known[s] {
			errs = append(errs, fmt.Sprintf("scan: unknown source %q (valid: %s)",
				s, strings.Join(KnownSources, ", ")))
		}
	}
	if c.Scan.MinProfitPct < 0 {
		errs = append(errs, "scan: min_profit_pct must not be negative")
	}
	if c.Scan.MaxProfitPct <= c.Scan.MinProfitPct {
		errs = append(errs, "scan: max_profit_pct must exceed min_profit_pct")
	}
	if c.Mode == "report" && !c.Postgres.Enabled {
		errs = append(errs, "postgres: must be enabled in report mode")
	}
	if c.Mode == "watch" && c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be positive in watch mode")
	}
	if c.Scan.MatchWindow.Duration < 0 {
		errs = append(errs, "scan: match_window must not be negative")
	}

	// Staking: exactly one of the two modes.
	fixed := c.Staking.TotalStake > 0
	kelly := c.Staking.KellyFraction != 0 || c.Staking.Bankroll != 0
	switch {
	case fixed && kelly:
		errs = append(errs, "staking: total_stake and kelly sizing are mutually exclusive")
	case !fixed && !kelly:
		errs = append(errs, "staking: either total_stake or kelly_fraction + bankroll must be set")
	case kelly:
		if c.Staking.KellyFraction <= 0 || c.Staking.KellyFraction > 1 {
			errs = append(errs, fmt.Sprintf("staking: kelly_fraction must be in (0, 1], got %g", c.Staking.KellyFraction))
		}
		if c.Staking.Bankroll <= 0 {
			errs = append(errs, "staking: bankroll must be positive when kelly_fraction is set")
		}
	}

	if c.Collect.Timeout.Duration <= 0 {
		errs = append(errs, "collect: timeout must be positive")
	}
	if c.Collect.Retries < 1 {
		errs = append(errs, "collect: retries must be at least 1")
	}
	if c.Collect.Budget.Duration < c.Collect.Timeout.Duration {
		errs = append(errs, "collect: budget must be at least the per-attempt timeout")
	}

	if c.Watch.RenotifyDeltaPct < 0 {
		errs = append(errs, "watch: renotify_delta_pct must not be negative")
	}

	if c.Report.Days <= 0 {
		errs = append(errs, "report: days must be positive")
	}
	if c.Report.TopPairs <= 0 {
		errs = append(errs, "report: top_pairs must be positive")
	}

	if c.Bus.Enabled && !c.Redis.Enabled {
		errs = append(errs, "bus: redis must be enabled when the signal bus is enabled")
	}
	if c.Bus.Enabled && strings.TrimSpace(c.Bus.Channel) == "" {
		errs = append(errs, "bus: channel must not be empty")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}
	if c.Archive.ScanSnapshots && !c.S3.Enabled {
		errs = append(errs, "archive: scan_snapshots requires s3 to be enabled")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == 0) {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
