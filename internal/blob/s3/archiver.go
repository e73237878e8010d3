package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// ArchiveStore is the read/delete slice of the opportunity store the archiver
// needs.
type ArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver implements domain.Archiver: per-cycle raw quote snapshots go
// straight to object storage, and aged opportunity rows move from Postgres to
// monthly JSONL files.
type Archiver struct {
	writer domain.BlobWriter
	store  ArchiveStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver. store may be nil when no database is
// configured; ArchiveOpportunities then reports zero rows.
func NewArchiver(writer domain.BlobWriter, store ArchiveStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		store:  store,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveScan uploads the raw quotes of one scan cycle as a timestamped JSON
// object, for replaying cycles offline.
func (a *Archiver) ArchiveScan(ctx context.Context, scanAt time.Time, raw []domain.RawQuote) error {
	if len(raw) == 0 {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("s3blob: marshal scan snapshot: %w", err)
	}

	path := fmt.Sprintf("scans/%s/%s.json",
		scanAt.UTC().Format("2006-01-02"),
		scanAt.UTC().Format("150405"),
	)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: upload scan snapshot: %w", err)
	}

	a.logger.Debug("archived scan snapshot",
		slog.String("path", path),
		slog.Int("quotes", len(raw)),
	)
	return nil
}

// ArchiveOpportunities moves every opportunity discovered before the cutoff
// to a monthly JSONL file, then deletes the archived rows. The upload happens
// first so a failure leaves the rows in place for the next run.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	if a.store == nil {
		return 0, nil
	}

	opps, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive marshal: %w", err)
	}

	path := fmt.Sprintf("archive/opportunities/%s.jsonl", before.UTC().Format("2006-01"))
	if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize); err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	deleted, err := a.store.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(opps)), fmt.Errorf("s3blob: archive cleanup: %w", err)
	}

	a.logger.Info("archived opportunities",
		slog.String("path", path),
		slog.Int("archived", len(opps)),
		slog.Int64("deleted", deleted),
	)
	return int64(len(opps)), nil
}

// marshalJSONL serializes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
