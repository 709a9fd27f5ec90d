// Package session owns per-user submission sessions: one mutable Session per
// user, a Store guaranteeing per-user exclusive access, and a periodic sweep
// that expires stale sessions.
package session

import (
	"time"

	"github.com/asagiri/subgate/internal/submission"
)

// State identifies the conversation step a session is in. Terminal outcomes
// (published, cancelled, expired) are not stored; reaching one removes the
// session from the store.
type State string

const (
	// StateModeSelect waits for the user to pick media or document mode
	// (mixed deployments only).
	StateModeSelect State = "mode_select"
	// StateCollectingDocuments collects primary documents (document mode).
	StateCollectingDocuments State = "collecting_documents"
	// StateCollectingMedia collects media: the main list in media mode, the
	// attached list in document mode.
	StateCollectingMedia State = "collecting_media"
	// StateAwaitingTags waits for the mandatory tag list.
	StateAwaitingTags State = "awaiting_tags"
	// StateAwaitingLink waits for the optional link or a skip.
	StateAwaitingLink State = "awaiting_link"
	// StateAwaitingTitle waits for the optional title or a skip.
	StateAwaitingTitle State = "awaiting_title"
	// StateAwaitingDescription waits for the optional description or a skip.
	StateAwaitingDescription State = "awaiting_description"
	// StateAwaitingSpoiler waits for the yes/no spoiler choice.
	StateAwaitingSpoiler State = "awaiting_spoiler"
	// StateConfirming shows the summary and waits for confirm or cancel.
	StateConfirming State = "confirming"
)

// Session is the in-progress submission of a single user.
type Session struct {
	UserID   int64
	Username string
	State    State

	Collector *submission.Collector

	Tags        []string
	Link        string
	Title       string
	Description string
	Spoiler     bool

	CreatedAt    time.Time
	LastActivity time.Time
}

// New constructs a fresh session in the given initial state.
func New(userID int64, username string, mode submission.Mode, limits submission.Limits, initial State) *Session {
	now := time.Now()
	return &Session{
		UserID:       userID,
		Username:     username,
		State:        initial,
		Collector:    submission.NewCollector(mode, limits),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Collecting reports whether the session is in an attachment-collection step.
func (s *Session) Collecting() bool {
	return s.State == StateCollectingDocuments || s.State == StateCollectingMedia
}
