package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/asagiri/subgate/core/logger"
)

// Store maps user IDs to active sessions. Every session lives inside an
// entry carrying its own mutex: operations for one user serialize while
// different users proceed in parallel. Lock order is always store mutex
// first, then entry mutex, never the reverse.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	timeout time.Duration
}

type entry struct {
	mu sync.Mutex
	// gone marks an entry removed or expired while another goroutine may
	// still hold a reference to it.
	gone bool
	sess *Session
}

// NewStore creates an empty store; sessions idle longer than timeout are
// eligible for the sweep.
func NewStore(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Store{
		entries: make(map[int64]*entry),
		timeout: timeout,
	}
}

// Create registers the session, failing with ErrAlreadyActive when the user
// already has one.
func (st *Store) Create(sess *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.entries[sess.UserID]; exists {
		return ErrAlreadyActive
	}
	st.entries[sess.UserID] = &entry{sess: sess}

	logger.SVCSessions.Debug("session created",
		slog.String("event", "session.create"),
		slog.Int64("user_id", sess.UserID),
		slog.String("state", string(sess.State)),
		slog.String("mode", string(sess.Collector.Mode())),
	)
	return nil
}

// Get returns the session for a user. The returned pointer must be treated
// read-only; all mutation goes through Mutate.
func (st *Store) Get(userID int64) (*Session, error) {
	st.mu.Lock()
	e, ok := st.entries[userID]
	st.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return nil, ErrNotFound
	}
	return e.sess, nil
}

// Mutate runs fn on the user's session under its exclusive lock and
// refreshes the last-activity timestamp. fn's error is returned unchanged;
// the activity refresh happens regardless, since even a rejected input
// proves the user is alive.
func (st *Store) Mutate(userID int64, fn func(*Session) error) error {
	st.mu.Lock()
	e, ok := st.entries[userID]
	st.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return ErrNotFound
	}
	e.sess.LastActivity = time.Now()
	return fn(e.sess)
}

// Finish runs fn like Mutate and, when fn succeeds, marks the session gone
// before the user's lock is released. A queued event for the same user can
// never observe the session between a successful fn and its removal, so a
// terminal action inside fn runs at most once.
func (st *Store) Finish(userID int64, fn func(*Session) error) error {
	st.mu.Lock()
	e, ok := st.entries[userID]
	st.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	if e.gone {
		e.mu.Unlock()
		return ErrNotFound
	}
	e.sess.LastActivity = time.Now()
	if err := fn(e.sess); err != nil {
		e.mu.Unlock()
		return err
	}
	e.gone = true
	e.mu.Unlock()

	st.mu.Lock()
	if cur, ok := st.entries[userID]; ok && cur == e {
		delete(st.entries, userID)
	}
	st.mu.Unlock()

	logger.SVCSessions.Debug("session removed",
		slog.String("event", "session.remove"),
		slog.Int64("user_id", userID),
	)
	return nil
}

// Remove deletes the user's session. Idempotent: removing an absent session
// is a no-op. Blocks until any in-flight mutation for the user finishes.
func (st *Store) Remove(userID int64) {
	st.mu.Lock()
	e, ok := st.entries[userID]
	if ok {
		delete(st.entries, userID)
	}
	st.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.gone = true
	e.mu.Unlock()

	logger.SVCSessions.Debug("session removed",
		slog.String("event", "session.remove"),
		slog.Int64("user_id", userID),
	)
}

// Len reports the number of active sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// Sweep expires every session idle longer than the store timeout and returns
// the expired sessions so the caller can notify their owners. Each candidate
// is checked under its entry lock, so a sweep never expires a session in the
// middle of a mutation.
func (st *Store) Sweep(now time.Time) []*Session {
	st.mu.Lock()
	candidates := make(map[int64]*entry, len(st.entries))
	for id, e := range st.entries {
		candidates[id] = e
	}
	st.mu.Unlock()

	var expired []*Session
	for id, e := range candidates {
		e.mu.Lock()
		if e.gone || now.Sub(e.sess.LastActivity) <= st.timeout {
			e.mu.Unlock()
			continue
		}
		e.gone = true
		sess := e.sess
		e.mu.Unlock()

		st.mu.Lock()
		if cur, ok := st.entries[id]; ok && cur == e {
			delete(st.entries, id)
		}
		st.mu.Unlock()

		logger.SVCSessions.Info("session expired",
			slog.String("event", "session.expire"),
			slog.Int64("user_id", id),
			slog.String("state", string(sess.State)),
		)
		expired = append(expired, sess)
	}
	return expired
}

// Run sweeps on the given interval until ctx is cancelled. onExpired, when
// set, is invoked for every expired session (best-effort notification).
func (st *Store) Run(ctx context.Context, interval time.Duration, onExpired func(*Session)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			expired := st.Sweep(now)
			if len(expired) == 0 {
				continue
			}
			logger.SVCSessions.Info("sweep summary",
				slog.String("event", "session.sweep"),
				slog.Int("expired", len(expired)),
				slog.Int("sessions", st.Len()),
			)
			if onExpired == nil {
				continue
			}
			for _, sess := range expired {
				onExpired(sess)
			}
		}
	}
}
