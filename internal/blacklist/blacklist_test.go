package blacklist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	entries map[int64]Entry
	err     error
}

func newFakeRepo(ids ...int64) *fakeRepo {
	r := &fakeRepo{entries: map[int64]Entry{}}
	for _, id := range ids {
		r.entries[id] = Entry{UserID: id, AddedAt: time.Now()}
	}
	return r
}

func (r *fakeRepo) Add(ctx context.Context, e Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries[e.UserID] = e
	return nil
}

func (r *fakeRepo) Remove(ctx context.Context, userID int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.entries[userID]
	delete(r.entries, userID)
	return ok, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRepo) IDs(ctx context.Context) ([]int64, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]int64, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	return out, nil
}

func TestServiceLoad(t *testing.T) {
	svc := NewService(newFakeRepo(1, 2))
	require.NoError(t, svc.Load(context.Background()))

	assert.True(t, svc.Blocked(1))
	assert.True(t, svc.Blocked(2))
	assert.False(t, svc.Blocked(3))
}

func TestServiceBanUnban(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)
	require.NoError(t, svc.Load(ctx))

	require.NoError(t, svc.Ban(ctx, 5, "spam"))
	assert.True(t, svc.Blocked(5))
	assert.Equal(t, "spam", repo.entries[5].Reason)

	removed, err := svc.Unban(ctx, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, svc.Blocked(5))

	removed, err = svc.Unban(ctx, 5)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestServiceBanDefaultsReason(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	require.NoError(t, svc.Ban(ctx, 5, ""))
	assert.Equal(t, "unspecified", repo.entries[5].Reason)
}

func TestServiceRepoErrorLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)
	require.NoError(t, svc.Load(ctx))

	repo.err = errors.New("db down")
	assert.Error(t, svc.Ban(ctx, 5, "spam"))
	assert.False(t, svc.Blocked(5))
	assert.Error(t, svc.Load(ctx))
}
