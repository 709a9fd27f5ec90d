package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/asagiri/subgate/internal/blacklist"
)

// BlacklistRepo is the Postgres implementation of blacklist.Repository.
type BlacklistRepo struct {
	db *sqlx.DB
}

func NewBlacklistRepo(db *sqlx.DB) *BlacklistRepo {
	return &BlacklistRepo{db: db}
}

// Add inserts or refreshes the deny-list entry for a user.
func (r *BlacklistRepo) Add(ctx context.Context, e blacklist.Entry) error {
	const q = `
		INSERT INTO blacklist (user_id, reason, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
			SET reason = EXCLUDED.reason, added_at = EXCLUDED.added_at`
	if _, err := r.db.ExecContext(ctx, q, e.UserID, e.Reason, e.AddedAt); err != nil {
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

// Remove deletes the entry; reports whether a row existed.
func (r *BlacklistRepo) Remove(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blacklist WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete blacklist entry: %w", err)
	}
	return n > 0, nil
}

// List returns every entry, newest first.
func (r *BlacklistRepo) List(ctx context.Context) ([]blacklist.Entry, error) {
	var out []blacklist.Entry
	err := r.db.SelectContext(ctx, &out,
		`SELECT user_id, reason, added_at FROM blacklist ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return out, nil
}

// IDs returns just the blocked user IDs, for warming the in-memory set.
func (r *BlacklistRepo) IDs(ctx context.Context) ([]int64, error) {
	var out []int64
	if err := r.db.SelectContext(ctx, &out, `SELECT user_id FROM blacklist`); err != nil {
		return nil, fmt.Errorf("load blacklist ids: %w", err)
	}
	return out, nil
}
