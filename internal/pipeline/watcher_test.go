package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmarleau/arbscan/internal/display"
	"github.com/dmarleau/arbscan/internal/domain"
	"github.com/dmarleau/arbscan/internal/notify"
	"github.com/dmarleau/arbscan/internal/scraper"
	"github.com/dmarleau/arbscan/internal/watch"
)

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

type recordingStore struct {
	inserted []domain.Opportunity
}

func (r *recordingStore) Insert(_ context.Context, opp domain.Opportunity) error {
	r.inserted = append(r.inserted, opp)
	return nil
}

func (r *recordingStore) DailySummary(context.Context, time.Time) ([]domain.DailySummary, error) {
	return nil, nil
}

func (r *recordingStore) TopSourcePairs(context.Context, time.Time, int) ([]domain.SourcePairSummary, error) {
	return nil, nil
}

func (r *recordingStore) ListBefore(context.Context, time.Time) ([]domain.Opportunity, error) {
	return nil, nil
}

func (r *recordingStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func arbitrageQuotes(awayPrice float64) []domain.RawQuote {
	return []domain.RawQuote{
		mlQuote("alpha", "Toronto Maple Leafs", "Montreal Canadiens", "Toronto Maple Leafs", 2.10),
		mlQuote("alpha", "Toronto Maple Leafs", "Montreal Canadiens", "Montreal Canadiens", 1.75),
		mlQuote("beta", "Toronto Maple Leafs", "Montreal Canadiens", "Toronto Maple Leafs", 1.80),
		mlQuote("beta", "Toronto Maple Leafs", "Montreal Canadiens", "Montreal Canadiens", awayPrice),
	}
}

func TestWatcherSuppressesDuplicatesAcrossCycles(t *testing.T) {
	logger := testLogger()
	alpha := &stubScraper{name: "alpha", quotes: arbitrageQuotes(2.05)[:2]}
	beta := &stubScraper{name: "beta", quotes: arbitrageQuotes(2.05)[2:]}

	sender := &recordingSender{}
	store := &recordingStore{}
	w := NewWatcher(
		newTestScanner([]scraper.Scraper{alpha, beta}),
		NewPublisher(store, nil, "", nil, nil, false, logger),
		watch.NewTracker(1.0),
		notify.NewNotifier([]notify.Sender{sender}, nil, logger),
		display.NoOp{},
		time.Second,
		nil, 0,
		logger,
	)

	ctx := context.Background()

	// First sighting: alerted and persisted.
	w.runOnce(ctx, 1)
	if len(sender.titles) != 1 {
		t.Fatalf("cycle 1 alerts = %d, want 1", len(sender.titles))
	}
	if len(store.inserted) != 1 {
		t.Fatalf("cycle 1 inserts = %d, want 1", len(store.inserted))
	}

	// Same opportunity with unchanged prices: silent, not re-persisted.
	w.runOnce(ctx, 2)
	if len(sender.titles) != 1 {
		t.Errorf("duplicate cycle alerted: %d alerts, want still 1", len(sender.titles))
	}
	if len(store.inserted) != 1 {
		t.Errorf("duplicate cycle persisted: %d inserts, want still 1", len(store.inserted))
	}

	// Profit moves well past the 1.0 point delta: alerted again.
	beta.quotes = arbitrageQuotes(2.20)[2:]
	w.runOnce(ctx, 3)
	if len(sender.titles) != 2 {
		t.Errorf("renotify cycle alerts = %d, want 2", len(sender.titles))
	}
	if len(store.inserted) != 2 {
		t.Errorf("renotify cycle inserts = %d, want 2", len(store.inserted))
	}
}

func TestWatcherSurvivesEmptyCycle(t *testing.T) {
	logger := testLogger()
	down := &stubScraper{name: "alpha", err: errors.New("connection refused")}

	sender := &recordingSender{}
	w := NewWatcher(
		newTestScanner([]scraper.Scraper{down}),
		NewPublisher(nil, nil, "", nil, nil, false, logger),
		watch.NewTracker(1.0),
		notify.NewNotifier([]notify.Sender{sender}, nil, logger),
		display.NoOp{},
		time.Second,
		nil, 0,
		logger,
	)

	// Zero coverage must not panic or alert; the loop just waits for the
	// next tick.
	w.runOnce(context.Background(), 1)
	if len(sender.titles) != 0 {
		t.Errorf("no-coverage cycle alerted: %d", len(sender.titles))
	}
}
