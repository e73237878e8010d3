package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmarleau/arbscan/internal/domain"
)

// latestScanKey is where the most recent cycle's snapshot lives.
const latestScanKey = "arbscan:latest_scan"

// ScanCache implements domain.ScanCache using a single JSON value with a TTL.
// A snapshot older than the TTL is stale by definition and better reported as
// missing.
type ScanCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewScanCache creates a ScanCache. ttl should comfortably exceed the watch
// interval so the snapshot survives between cycles.
func NewScanCache(c *Client, ttl time.Duration) *ScanCache {
	return &ScanCache{rdb: c.Underlying(), ttl: ttl}
}

// SetLatestScan overwrites the cached snapshot.
func (sc *ScanCache) SetLatestScan(ctx context.Context, snapshot domain.ScanSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: marshal scan snapshot: %w", err)
	}
	if err := sc.rdb.Set(ctx, latestScanKey, data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set latest scan: %w", err)
	}
	return nil
}

// GetLatestScan returns the cached snapshot, or domain.ErrNotFound when no
// cycle has completed recently.
func (sc *ScanCache) GetLatestScan(ctx context.Context) (domain.ScanSnapshot, error) {
	data, err := sc.rdb.Get(ctx, latestScanKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ScanSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ScanSnapshot{}, fmt.Errorf("redis: get latest scan: %w", err)
	}

	var snapshot domain.ScanSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.ScanSnapshot{}, fmt.Errorf("redis: unmarshal scan snapshot: %w", err)
	}
	return snapshot, nil
}

// Compile-time interface check.
var _ domain.ScanCache = (*ScanCache)(nil)
