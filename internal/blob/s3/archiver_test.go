package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

type fakeWriter struct {
	puts       map[string][]byte
	multiparts map[string][]byte
	err        error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		puts:       make(map[string][]byte),
		multiparts: make(map[string][]byte),
	}
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if f.err != nil {
		return f.err
	}
	b, _ := io.ReadAll(data)
	f.puts[path] = b
	return nil
}

func (f *fakeWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	if f.err != nil {
		return f.err
	}
	b, _ := io.ReadAll(data)
	f.multiparts[path] = b
	return nil
}

type fakeStore struct {
	opps    []domain.Opportunity
	deleted bool
}

func (f *fakeStore) ListBefore(_ context.Context, _ time.Time) ([]domain.Opportunity, error) {
	return f.opps, nil
}

func (f *fakeStore) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	f.deleted = true
	return int64(len(f.opps)), nil
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func TestArchiveScanWritesDatedPath(t *testing.T) {
	w := newFakeWriter()
	a := NewArchiver(w, nil, silentLogger())

	scanAt := time.Date(2026, 1, 10, 19, 30, 45, 0, time.UTC)
	raw := []domain.RawQuote{{SourceID: "bodog", Price: 2.1}}
	if err := a.ArchiveScan(context.Background(), scanAt, raw); err != nil {
		t.Fatalf("ArchiveScan: %v", err)
	}

	wantPath := "scans/2026-01-10/193045.json"
	body, ok := w.puts[wantPath]
	if !ok {
		t.Fatalf("no object at %s, have %v", wantPath, keys(w.puts))
	}
	if !bytes.Contains(body, []byte(`"bodog"`)) {
		t.Errorf("snapshot body missing source: %s", body)
	}
}

func TestArchiveScanSkipsEmptyCycle(t *testing.T) {
	w := newFakeWriter()
	a := NewArchiver(w, nil, silentLogger())

	if err := a.ArchiveScan(context.Background(), time.Now(), nil); err != nil {
		t.Fatalf("ArchiveScan: %v", err)
	}
	if len(w.puts) != 0 {
		t.Error("empty cycle should not upload anything")
	}
}

func TestArchiveOpportunitiesUploadsThenDeletes(t *testing.T) {
	w := newFakeWriter()
	store := &fakeStore{opps: []domain.Opportunity{{ID: "op-1"}, {ID: "op-2"}}}
	a := NewArchiver(w, store, silentLogger())

	cutoff := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	n, err := a.ArchiveOpportunities(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveOpportunities: %v", err)
	}
	if n != 2 {
		t.Errorf("archived = %d, want 2", n)
	}

	wantPath := "archive/opportunities/2026-01.jsonl"
	body, ok := w.multiparts[wantPath]
	if !ok {
		t.Fatalf("no archive at %s, have %v", wantPath, keys(w.multiparts))
	}
	if lines := strings.Count(strings.TrimRight(string(body), "\n"), "\n") + 1; lines != 2 {
		t.Errorf("jsonl lines = %d, want 2", lines)
	}
	if !store.deleted {
		t.Error("archived rows should be deleted")
	}
}

func TestArchiveOpportunitiesKeepsRowsOnUploadFailure(t *testing.T) {
	w := newFakeWriter()
	w.err = errors.New("bucket unavailable")
	store := &fakeStore{opps: []domain.Opportunity{{ID: "op-1"}}}
	a := NewArchiver(w, store, silentLogger())

	if _, err := a.ArchiveOpportunities(context.Background(), time.Now()); err == nil {
		t.Fatal("expected upload error")
	}
	if store.deleted {
		t.Error("rows must survive a failed upload")
	}
}

func TestArchiveOpportunitiesWithoutStore(t *testing.T) {
	a := NewArchiver(newFakeWriter(), nil, silentLogger())
	n, err := a.ArchiveOpportunities(context.Background(), time.Now())
	if err != nil || n != 0 {
		t.Fatalf("nil store should be a no-op, got n=%d err=%v", n, err)
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
