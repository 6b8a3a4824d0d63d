package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// Narrow store interfaces for archival. The Postgres stores satisfy these
// through their ListBefore methods; the archiver never needs the full store
// surface.

// DecisionArchiveStore provides read access to decisions for archival.
type DecisionArchiveStore interface {
	// ListBefore returns all decisions evaluated strictly before cutoff.
	ListBefore(ctx context.Context, before time.Time) ([]domain.Decision, error)
}

// TweetArchiveStore provides read access to scraped tweets for archival.
type TweetArchiveStore interface {
	// ListBefore returns all tweets scraped strictly before cutoff.
	ListBefore(ctx context.Context, before time.Time) ([]domain.Tweet, error)
}

// Archiver serializes old decision and tweet records to JSONL and uploads
// them to cold storage. Deleting the archived rows from the primary store is
// a separate step the caller runs after the upload succeeds.
type Archiver struct {
	writer    domain.BlobWriter
	decisions DecisionArchiveStore
	tweets    TweetArchiveStore
	audit     domain.AuditStore
}

// NewArchiver creates an Archiver. tweets and audit may be nil when the
// corresponding source or sink is disabled.
func NewArchiver(writer domain.BlobWriter, decisions DecisionArchiveStore, tweets TweetArchiveStore, audit domain.AuditStore) *Archiver {
	return &Archiver{
		writer:    writer,
		decisions: decisions,
		tweets:    tweets,
		audit:     audit,
	}
}

// ArchiveDecisions uploads every decision evaluated before the cutoff to
// archive/decisions/YYYY-MM.jsonl and returns the archived count.
func (a *Archiver) ArchiveDecisions(ctx context.Context, before time.Time) (int64, error) {
	decisions, err := a.decisions.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions query: %w", err)
	}
	if len(decisions) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(decisions)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions marshal: %w", err)
	}

	path := archivePath("decisions", before)
	if err := a.writer.Write(ctx, path, buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive decisions upload: %w", err)
	}

	count := int64(len(decisions))
	a.logArchive(ctx, "archive.decisions", path, count, before)
	return count, nil
}

// ArchiveTweets uploads every tweet scraped before the cutoff to
// archive/tweets/YYYY-MM.jsonl and returns the archived count.
func (a *Archiver) ArchiveTweets(ctx context.Context, before time.Time) (int64, error) {
	if a.tweets == nil {
		return 0, nil
	}
	tweets, err := a.tweets.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive tweets query: %w", err)
	}
	if len(tweets) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(tweets)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive tweets marshal: %w", err)
	}

	path := archivePath("tweets", before)
	if err := a.writer.Write(ctx, path, buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive tweets upload: %w", err)
	}

	count := int64(len(tweets))
	a.logArchive(ctx, "archive.tweets", path, count, before)
	return count, nil
}

func (a *Archiver) logArchive(ctx context.Context, event, path string, count int64, before time.Time) {
	if a.audit == nil {
		return
	}
	_ = a.audit.Log(ctx, event, map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	})
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
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
