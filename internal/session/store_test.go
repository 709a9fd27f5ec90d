package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asagiri/subgate/internal/submission"
)

func newTestSession(userID int64) *Session {
	return New(userID, "tester", submission.ModeMedia, submission.DefaultLimits(), StateCollectingMedia)
}

func TestStoreCreateUniquePerUser(t *testing.T) {
	st := NewStore(time.Minute)

	require.NoError(t, st.Create(newTestSession(1)))
	assert.ErrorIs(t, st.Create(newTestSession(1)), ErrAlreadyActive)
	require.NoError(t, st.Create(newTestSession(2)))
	assert.Equal(t, 2, st.Len())
}

func TestStoreGetAbsent(t *testing.T) {
	st := NewStore(time.Minute)
	_, err := st.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMutateRefreshesActivity(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, st.Mutate(1, func(s *Session) error {
		s.LastActivity = past
		return nil
	}))

	// Even a rejected event proves the user is alive.
	wantErr := assert.AnError
	err := st.Mutate(1, func(s *Session) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	sess, err := st.Get(1)
	require.NoError(t, err)
	assert.True(t, sess.LastActivity.After(past))
}

func TestStoreRemoveIdempotent(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	st.Remove(1)
	st.Remove(1)
	st.Remove(99)

	_, err := st.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Mutate(1, func(*Session) error { return nil }), ErrNotFound)

	// The user can start over after removal.
	assert.NoError(t, st.Create(newTestSession(1)))
}

func TestStoreSweep(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))
	require.NoError(t, st.Create(newTestSession(2)))

	// Age only the first session past the timeout.
	require.NoError(t, st.Mutate(1, func(s *Session) error {
		s.LastActivity = time.Now().Add(-2 * time.Minute)
		return nil
	}))

	expired := st.Sweep(time.Now())
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1), expired[0].UserID)
	assert.Equal(t, 1, st.Len())

	_, err := st.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(2)
	assert.NoError(t, err)
}

func TestStoreSweepExactTimeoutSurvives(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	now := time.Now()
	require.NoError(t, st.Mutate(1, func(s *Session) error {
		s.LastActivity = now.Add(-time.Minute)
		return nil
	}))

	// Idle exactly the timeout is not yet expired.
	assert.Empty(t, st.Sweep(now))
	assert.Equal(t, 1, st.Len())
}

func TestStoreMutateSerializesPerUser(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = st.Mutate(1, func(s *Session) error {
				// Unsynchronized read-modify-write: only safe if Mutate
				// serializes callers for the same user.
				s.Description += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	sess, err := st.Get(1)
	require.NoError(t, err)
	assert.Len(t, sess.Description, workers)
}

func TestStoreFinishRemovesOnSuccess(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	require.NoError(t, st.Finish(1, func(s *Session) error { return nil }))
	_, err := st.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.Finish(1, func(*Session) error { return nil }), ErrNotFound)
}

func TestStoreFinishKeepsSessionOnError(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	wantErr := assert.AnError
	assert.ErrorIs(t, st.Finish(1, func(*Session) error { return wantErr }), wantErr)

	_, err := st.Get(1)
	assert.NoError(t, err)
}

func TestStoreFinishRunsTerminalActionOnce(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	first := make(chan error, 1)
	go func() {
		first <- st.Finish(1, func(s *Session) error {
			calls++
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	// The second finisher queues on the same session while the first still
	// holds it; it must never see the session again.
	second := make(chan error, 1)
	go func() {
		second <- st.Finish(1, func(s *Session) error {
			calls++
			return nil
		})
	}()

	close(release)
	require.NoError(t, <-first)
	assert.ErrorIs(t, <-second, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestStoreRemoveDuringMutation(t *testing.T) {
	st := NewStore(time.Minute)
	require.NoError(t, st.Create(newTestSession(1)))

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = st.Mutate(1, func(s *Session) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	done := make(chan struct{})
	go func() {
		st.Remove(1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("remove finished while a mutation held the session")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	_, err := st.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}
