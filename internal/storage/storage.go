// Package storage holds the Postgres repositories: published submission
// records and the blacklist table backing the in-memory deny-list.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Record is the durable trace of one published submission.
type Record struct {
	ID          uuid.UUID      `db:"id"`
	UserID      int64          `db:"user_id"`
	Username    string         `db:"username"`
	Mode        string         `db:"mode"`
	MessageIDs  pq.Int64Array  `db:"message_ids"`
	Tags        pq.StringArray `db:"tags"`
	Link        string         `db:"link"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Spoiler     bool           `db:"spoiler"`
	PublishedAt time.Time      `db:"published_at"`
}
