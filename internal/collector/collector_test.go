package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
	"github.com/dmarleau/arbscan/internal/scraper"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeScraper scripts per-call behavior: each call pops the next step.
type fakeScraper struct {
	name  string
	calls atomic.Int32
	steps []fakeStep
	block bool // ignore scripted steps and wait for ctx
}

type fakeStep struct {
	quotes int
	err    error
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) Fetch(ctx context.Context, sportKeys []string) ([]domain.RawQuote, error) {
	call := int(f.calls.Add(1)) - 1
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	step := f.steps[len(f.steps)-1]
	if call < len(f.steps) {
		step = f.steps[call]
	}
	if step.err != nil {
		return nil, step.err
	}
	quotes := make([]domain.RawQuote, step.quotes)
	for i := range quotes {
		quotes[i] = domain.RawQuote{SourceID: f.name, Price: 2.0}
	}
	return quotes, nil
}

func defaultConfig() Config {
	return Config{
		Timeout: 200 * time.Millisecond,
		Retries: 3,
		Backoff: time.Millisecond,
		Budget:  time.Second,
	}
}

func TestCollectIsolatesFailures(t *testing.T) {
	healthy := &fakeScraper{name: "alpha", steps: []fakeStep{{quotes: 4}}}
	broken := &fakeScraper{name: "beta", steps: []fakeStep{{err: errors.New("connection refused")}}}

	c := New(defaultConfig(), testLogger())
	result := c.Collect(context.Background(), []scraper.Scraper{healthy, broken}, nil)

	if len(result.Quotes) != 4 {
		t.Errorf("pooled quotes = %d, want 4 from the healthy source", len(result.Quotes))
	}
	if result.Healthy() != 1 {
		t.Errorf("healthy = %d, want 1", result.Healthy())
	}
	if result.Reports[0].Err != nil {
		t.Errorf("healthy source reported error: %v", result.Reports[0].Err)
	}
	if result.Reports[1].Err == nil {
		t.Error("broken source reported no error")
	}
	if got := int(broken.calls.Load()); got != 3 {
		t.Errorf("broken source attempted %d times, want 3", got)
	}
}

func TestCollectRetriesUntilSuccess(t *testing.T) {
	flaky := &fakeScraper{name: "alpha", steps: []fakeStep{
		{err: errors.New("transient")},
		{quotes: 2},
	}}

	c := New(defaultConfig(), testLogger())
	result := c.Collect(context.Background(), []scraper.Scraper{flaky}, nil)

	rep := result.Reports[0]
	if rep.Err != nil {
		t.Fatalf("unexpected error after recovery: %v", rep.Err)
	}
	if rep.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", rep.Attempts)
	}
	if len(result.Quotes) != 2 {
		t.Errorf("quotes = %d, want 2", len(result.Quotes))
	}
}

func TestCollectQuotaDegradesWithoutRetry(t *testing.T) {
	quota := &fakeScraper{name: "odds_api", steps: []fakeStep{
		{err: domain.ErrQuotaExceeded},
	}}

	c := New(defaultConfig(), testLogger())
	result := c.Collect(context.Background(), []scraper.Scraper{quota}, nil)

	rep := result.Reports[0]
	if !rep.Degraded {
		t.Error("quota-limited source not marked degraded")
	}
	if rep.Err != nil {
		t.Errorf("degraded source should not carry an error, got %v", rep.Err)
	}
	if got := int(quota.calls.Load()); got != 1 {
		t.Errorf("quota failure retried: %d calls, want 1", got)
	}
	if result.Healthy() != 0 {
		t.Errorf("healthy = %d, want 0", result.Healthy())
	}
}

func TestCollectEnforcesBudget(t *testing.T) {
	slow := &fakeScraper{name: "slow", block: true}
	fast := &fakeScraper{name: "fast", steps: []fakeStep{{quotes: 1}}}

	cfg := defaultConfig()
	cfg.Budget = 50 * time.Millisecond
	cfg.Timeout = time.Second

	c := New(cfg, testLogger())
	start := time.Now()
	result := c.Collect(context.Background(), []scraper.Scraper{slow, fast}, nil)

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("collect ran %v, budget was 50ms", elapsed)
	}
	if len(result.Quotes) != 1 {
		t.Errorf("quotes = %d, want the fast source's 1", len(result.Quotes))
	}
	slowRep := result.Reports[0]
	if slowRep.Err == nil || !errors.Is(slowRep.Err, domain.ErrContextDone) {
		t.Errorf("slow source error = %v, want wrapped %v", slowRep.Err, domain.ErrContextDone)
	}
}

func TestCollectReportsKeepScraperOrder(t *testing.T) {
	a := &fakeScraper{name: "a", steps: []fakeStep{{quotes: 1}}}
	b := &fakeScraper{name: "b", steps: []fakeStep{{quotes: 1}}}
	c := &fakeScraper{name: "c", steps: []fakeStep{{quotes: 1}}}

	result := New(defaultConfig(), testLogger()).
		Collect(context.Background(), []scraper.Scraper{a, b, c}, nil)

	for i, want := range []string{"a", "b", "c"} {
		if result.Reports[i].SourceID != want {
			t.Errorf("report[%d] = %s, want %s", i, result.Reports[i].SourceID, want)
		}
	}
}
