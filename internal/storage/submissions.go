package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/asagiri/subgate/core/logger"
)

// SubmissionRepo persists published submission records.
type SubmissionRepo struct {
	db *sqlx.DB
}

func NewSubmissionRepo(db *sqlx.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Put inserts the record. The channel post already happened when this runs,
// so callers treat failures as degraded rather than fatal.
func (r *SubmissionRepo) Put(ctx context.Context, rec Record) error {
	const q = `
		INSERT INTO submissions
			(id, user_id, username, mode, message_ids, tags, link, title, description, spoiler, published_at)
		VALUES
			(:id, :user_id, :username, :mode, :message_ids, :tags, :link, :title, :description, :spoiler, :published_at)`

	start := time.Now()
	_, err := r.db.NamedExecContext(ctx, q, rec)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	logger.DB.Debug("submission recorded",
		slog.String("event", "db.submissions.put"),
		slog.String("submission_id", rec.ID.String()),
		slog.Int64("user_id", rec.UserID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// CountSince reports how many submissions were published after the cutoff.
func (r *SubmissionRepo) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM submissions WHERE published_at >= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// CountAll reports the total number of published submissions.
func (r *SubmissionRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM submissions`); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}
