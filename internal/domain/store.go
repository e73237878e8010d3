package domain

import (
	"context"
	"io"
	"time"
)

// OpportunityStore durably appends detected opportunities and answers the
// aggregate queries used by report mode. The scan path only ever writes; the
// read queries are consumed by a separate reporting pass.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	DailySummary(ctx context.Context, since time.Time) ([]DailySummary, error)
	TopSourcePairs(ctx context.Context, since time.Time, limit int) ([]SourcePairSummary, error)
	ListBefore(ctx context.Context, before time.Time) ([]Opportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// DailySummary is one row of the (date, sport, market) aggregate.
type DailySummary struct {
	Day           time.Time
	Sport         string
	MarketType    MarketType
	Opportunities int64
	TotalProfit   float64
	AvgProfitPct  float64
	MaxProfitPct  float64
}

// SourcePairSummary ranks a bookmaker pairing by the profit it generated.
type SourcePairSummary struct {
	SourcePair    string
	Opportunities int64
	TotalProfit   float64
	AvgProfitPct  float64
}

// SignalBus publishes scan results to external consumers. Implementations
// must be best-effort: a publish failure is logged by the caller, never fatal.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ScanCache exposes the latest cycle's results to external readers (for
// example a dashboard) without touching the durable store.
type ScanCache interface {
	SetLatestScan(ctx context.Context, snapshot ScanSnapshot) error
	GetLatestScan(ctx context.Context) (ScanSnapshot, error)
}

// ScanSnapshot is the cached summary of one completed scan cycle.
type ScanSnapshot struct {
	ScanAt        time.Time     `json:"scan_at"`
	QuoteCount    int           `json:"quote_count"`
	SourcesOK     int           `json:"sources_ok"`
	SourcesFailed int           `json:"sources_failed"`
	Opportunities []Opportunity `json:"opportunities"`
}

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver moves historical data out of the hot path: per-cycle raw quote
// snapshots and aged opportunity history.
type Archiver interface {
	ArchiveScan(ctx context.Context, scanAt time.Time, raw []RawQuote) error
	ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error)
}
