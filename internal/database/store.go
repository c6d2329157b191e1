package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Digest outcomes recorded in the audit log.
const (
	OutcomeOK               = "ok"
	OutcomeEmptyHistory     = "empty_history"
	OutcomeNoTextMessages   = "no_text"
	OutcomeGenerationFailed = "generation_failed"
)

// DigestRecord is one row of the digest audit log.
type DigestRecord struct {
	ID                 int64         `db:"id"`
	RequestID          string        `db:"request_id"`
	ChatID             int64         `db:"chat_id"`
	Kind               string        `db:"kind"`
	RequestedCount     sql.NullInt64 `db:"requested_count"`
	MessagesConsidered int           `db:"messages_considered"`
	Partial            bool          `db:"partial"`
	Outcome            string        `db:"outcome"`
	DurationMS         int64         `db:"duration_ms"`
	CreatedAt          time.Time     `db:"created_at"`
}

// Store defines the audit log operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveDigestRecord inserts a record and sets its ID.
	SaveDigestRecord(ctx context.Context, record *DigestRecord) error

	// GetRecentDigests returns up to limit records across all chats, newest
	// first.
	GetRecentDigests(ctx context.Context, limit int) ([]DigestRecord, error)

	// CountOutcomesSince groups records created at or after since by outcome.
	CountOutcomesSince(ctx context.Context, since time.Time) (map[string]int, error)

	// DeleteDigestsBefore removes records older than cutoff and returns how
	// many were deleted.
	DeleteDigestsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveDigestRecord(ctx context.Context, record *DigestRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil digest record")
	}
	if record.RequestID == "" {
		return fmt.Errorf("digest record must have a request_id")
	}
	if record.ChatID == 0 {
		return fmt.Errorf("digest record must have a non-zero chat_id")
	}
	if record.Kind == "" || record.Outcome == "" {
		return fmt.Errorf("digest record must have kind and outcome")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	} else {
		record.CreatedAt = record.CreatedAt.UTC()
	}

	query := `
        INSERT INTO digest_log (request_id, chat_id, kind, requested_count, messages_considered, partial, outcome, duration_ms, created_at)
        VALUES (:request_id, :chat_id, :kind, :requested_count, :messages_considered, :partial, :outcome, :duration_ms, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving digest record", "chat_id", record.ChatID, "request_id", record.RequestID, "error", err)
		return fmt.Errorf("failed to save digest record (chat %d): %w", record.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving digest record", "request_id", record.RequestID, "error", err)
	}

	s.logger.DebugContext(ctx, "Digest record saved", "chat_id", record.ChatID, "request_id", record.RequestID, "outcome", record.Outcome)
	return nil
}

func (s *sqlxStore) GetRecentDigests(ctx context.Context, limit int) ([]DigestRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []DigestRecord
	query := `
        SELECT id, request_id, chat_id, kind, requested_count, messages_considered, partial, outcome, duration_ms, created_at
        FROM digest_log
        ORDER BY created_at DESC, id DESC
        LIMIT ?;
    `
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching recent digests", "error", err)
		return nil, fmt.Errorf("failed to get recent digests: %w", err)
	}
	return records, nil
}

func (s *sqlxStore) CountOutcomesSince(ctx context.Context, since time.Time) (map[string]int, error) {
	var rows []struct {
		Outcome string `db:"outcome"`
		Count   int    `db:"count"`
	}
	query := `
        SELECT outcome, COUNT(*) AS count
        FROM digest_log
        WHERE created_at >= ?
        GROUP BY outcome;
    `
	if err := s.db.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to count digest outcomes: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Count
	}
	return counts, nil
}

func (s *sqlxStore) DeleteDigestsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM digest_log WHERE created_at < ?;`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old digest records: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	s.logger.InfoContext(ctx, "Deleted old digest records", "cutoff", cutoff, "deleted", affected)
	return affected, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}
	return nil
}
