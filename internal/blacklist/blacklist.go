// Package blacklist guards session creation: blocked users never reach the
// conversation engine. The deny-list is kept in memory and written through
// to durable storage, mirroring how the admin commands mutate it.
package blacklist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/asagiri/subgate/core/logger"
)

// Entry is one blacklisted user.
type Entry struct {
	UserID  int64     `db:"user_id"`
	Reason  string    `db:"reason"`
	AddedAt time.Time `db:"added_at"`
}

// Repository is the durable backing store for the deny-list.
type Repository interface {
	Add(ctx context.Context, e Entry) error
	Remove(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]Entry, error)
	IDs(ctx context.Context) ([]int64, error)
}

// Service answers the Blocked predicate from an in-memory set and keeps the
// set in step with the repository.
type Service struct {
	mu   sync.RWMutex
	ids  map[int64]struct{}
	repo Repository
}

// NewService wraps the repository. Call Load before serving traffic.
func NewService(repo Repository) *Service {
	return &Service{
		ids:  make(map[int64]struct{}),
		repo: repo,
	}
}

// Load replaces the cache with the repository contents.
func (s *Service) Load(ctx context.Context) error {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.mu.Unlock()

	logger.SVCBlacklist.Info("blacklist loaded",
		slog.String("event", "blacklist.load"),
		slog.Int("count", len(ids)),
	)
	return nil
}

// Blocked reports whether the user is denied. Pure read, no side effects.
func (s *Service) Blocked(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, blocked := s.ids[userID]
	return blocked
}

// Ban adds the user to the deny-list.
func (s *Service) Ban(ctx context.Context, userID int64, reason string) error {
	if reason == "" {
		reason = "unspecified"
	}
	if err := s.repo.Add(ctx, Entry{UserID: userID, Reason: reason, AddedAt: time.Now()}); err != nil {
		return err
	}
	s.mu.Lock()
	s.ids[userID] = struct{}{}
	s.mu.Unlock()

	logger.SVCBlacklist.Info("user banned",
		slog.String("event", "blacklist.add"),
		slog.Int64("user_id", userID),
		slog.String("reason", reason),
	)
	return nil
}

// Unban removes the user; reports whether an entry existed.
func (s *Service) Unban(ctx context.Context, userID int64) (bool, error) {
	removed, err := s.repo.Remove(ctx, userID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	delete(s.ids, userID)
	s.mu.Unlock()

	if removed {
		logger.SVCBlacklist.Info("user unbanned",
			slog.String("event", "blacklist.remove"),
			slog.Int64("user_id", userID),
		)
	}
	return removed, nil
}

// List returns the full deny-list from the repository.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}
