package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	var md toml.MetaData
	if path != "" {
		var err error
		if md, err = toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	// The default flat stake only applies when Kelly sizing is off. A config
	// that turns Kelly on without mentioning total_stake gets the stake
	// cleared rather than a mutual-exclusion failure; writing both explicitly
	// still fails validation.
	stakeSet := md.IsDefined("staking", "total_stake") || os.Getenv("ARBSCAN_TOTAL_STAKE") != ""
	if cfg.Staking.KellyFraction > 0 && !stakeSet {
		cfg.Staking.TotalStake = 0
	}

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Scan ──
	setStringSlice(&cfg.Scan.Sports, "ARBSCAN_SPORTS")
	setStringSlice(&cfg.Scan.Sources, "ARBSCAN_SOURCES")
	setFloat64(&cfg.Scan.MinProfitPct, "ARBSCAN_MIN_PROFIT_PCT")
	setFloat64(&cfg.Scan.MaxProfitPct, "ARBSCAN_MAX_PROFIT_PCT")
	setDuration(&cfg.Scan.Interval, "ARBSCAN_INTERVAL")
	setDuration(&cfg.Scan.MatchWindow, "ARBSCAN_MATCH_WINDOW")

	// ── Staking ──
	setFloat64(&cfg.Staking.TotalStake, "ARBSCAN_TOTAL_STAKE")
	setFloat64(&cfg.Staking.KellyFraction, "ARBSCAN_KELLY_FRACTION")
	setFloat64(&cfg.Staking.Bankroll, "ARBSCAN_BANKROLL")

	// ── Collect ──
	setDuration(&cfg.Collect.Timeout, "ARBSCAN_COLLECT_TIMEOUT")
	setInt(&cfg.Collect.Retries, "ARBSCAN_COLLECT_RETRIES")
	setDuration(&cfg.Collect.Backoff, "ARBSCAN_COLLECT_BACKOFF")
	setDuration(&cfg.Collect.Budget, "ARBSCAN_COLLECT_BUDGET")

	// ── Watch ──
	setFloat64(&cfg.Watch.RenotifyDeltaPct, "ARBSCAN_RENOTIFY_DELTA_PCT")

	// ── The Odds API ──
	setStr(&cfg.OddsAPI.APIKey, "ARBSCAN_ODDS_API_KEY")
	setStr(&cfg.OddsAPI.APIKey, "ODDS_API_KEY") // compatibility alias
	setStr(&cfg.OddsAPI.BaseURL, "ARBSCAN_ODDS_API_BASE_URL")
	setStr(&cfg.OddsAPI.Regions, "ARBSCAN_ODDS_API_REGIONS")
	setStringSlice(&cfg.OddsAPI.Bookmakers, "ARBSCAN_ODDS_API_BOOKMAKERS")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARBSCAN_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARBSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSCAN_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBSCAN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBSCAN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSCAN_S3_FORCE_PATH_STYLE")

	// ── Bus ──
	setBool(&cfg.Bus.Enabled, "ARBSCAN_BUS_ENABLED")
	setStr(&cfg.Bus.Channel, "ARBSCAN_BUS_CHANNEL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBSCAN_TELEGRAM_TOKEN")
	setInt64(&cfg.Notify.TelegramChatID, "ARBSCAN_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCAN_DISCORD_WEBHOOK_URL")
	setBool(&cfg.Notify.TerminalBell, "ARBSCAN_TERMINAL_BELL")

	// ── Archive ──
	setBool(&cfg.Archive.ScanSnapshots, "ARBSCAN_ARCHIVE_SCAN_SNAPSHOTS")
	setInt(&cfg.Archive.RetentionDays, "ARBSCAN_ARCHIVE_RETENTION_DAYS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSCAN_MODE")
	setStr(&cfg.LogLevel, "ARBSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
