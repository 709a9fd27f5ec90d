package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asagiri/subgate/internal/session"
	"github.com/asagiri/subgate/internal/submission"
)

type fakeGuard struct {
	blocked map[int64]bool
}

func (g *fakeGuard) Blocked(userID int64) bool { return g.blocked[userID] }

type fakePublisher struct {
	calls int
	err   error
	ids   []int
	link  string
	last  *session.Session
	// entered/release, when set, gate Publish so a test can hold a publish
	// mid-flight while another event queues behind it.
	entered chan struct{}
	release chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, sess *session.Session) ([]int, string, error) {
	p.calls++
	p.last = sess
	if p.entered != nil {
		close(p.entered)
		<-p.release
	}
	if p.err != nil {
		return nil, "", p.err
	}
	return p.ids, p.link, nil
}

func newTestEngine(policy Policy, pub *fakePublisher, guard *fakeGuard) (*Engine, *session.Store) {
	if pub == nil {
		pub = &fakePublisher{ids: []int{100}}
	}
	if guard == nil {
		guard = &fakeGuard{}
	}
	store := session.NewStore(time.Minute)
	eng := NewEngine(store, guard, pub, policy, submission.DefaultLimits(), 30)
	return eng, store
}

func photo(n byte) submission.Attachment {
	return submission.Attachment{FileID: "photo-" + string('0'+n), Kind: submission.KindPhoto}
}

func doc(n byte) submission.Attachment {
	return submission.Attachment{FileID: "doc-" + string('0'+n), Kind: submission.KindDocument}
}

func TestHappyPathMedia(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{ids: []int{10, 11, 12}, link: "https://t.me/chan/10"}
	eng, _ := newTestEngine(PolicyMedia, pub, nil)

	reply, err := eng.Start(ctx, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, PromptSendMedia, reply.Prompt)

	for i := byte(1); i <= 3; i++ {
		reply, err = eng.Attach(ctx, 1, photo(i))
		require.NoError(t, err)
		assert.Equal(t, PromptAccepted, reply.Prompt)
		assert.Equal(t, int(i), reply.Attachments)
	}

	reply, err = eng.Done(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptTags, reply.Prompt)

	reply, err = eng.Text(ctx, 1, "#cat #dog")
	require.NoError(t, err)
	assert.Equal(t, PromptLink, reply.Prompt)

	reply, err = eng.SkipOptional(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptSpoiler, reply.Prompt)

	reply, err = eng.Spoiler(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, PromptSummary, reply.Prompt)
	require.NotNil(t, reply.Summary)
	assert.Equal(t, []string{"cat", "dog"}, reply.Summary.Tags)
	assert.Equal(t, 3, reply.Summary.MediaCount)
	assert.False(t, reply.Summary.Spoiler)

	reply, err = eng.Confirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptPublished, reply.Prompt)
	assert.Equal(t, "https://t.me/chan/10", reply.PostLink)
	assert.Equal(t, 1, pub.calls)
	assert.False(t, eng.InProgress(1))
}

func TestDocumentFlow(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{ids: []int{5}}
	eng, _ := newTestEngine(PolicyDocument, pub, nil)

	reply, err := eng.Start(ctx, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, PromptSendDocuments, reply.Prompt)

	_, err = eng.Attach(ctx, 1, doc(1))
	require.NoError(t, err)

	reply, err = eng.Done(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptSendAttachedMedia, reply.Prompt)

	reply, err = eng.SkipMedia(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptTags, reply.Prompt)
}

func TestModeSelectMixed(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMixed, nil, nil)

	reply, err := eng.Start(ctx, 1, "carol")
	require.NoError(t, err)
	assert.Equal(t, PromptChooseMode, reply.Prompt)

	// Attachments are rejected until a mode is picked.
	_, err = eng.Attach(ctx, 1, photo(1))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reply, err = eng.SelectMode(ctx, 1, submission.ModeDocument)
	require.NoError(t, err)
	assert.Equal(t, PromptSendDocuments, reply.Prompt)
}

func TestOneTimeSwitchWhileCollecting(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMixed, nil, nil)

	_, err := eng.Start(ctx, 1, "dave")
	require.NoError(t, err)
	_, err = eng.SelectMode(ctx, 1, submission.ModeMedia)
	require.NoError(t, err)
	_, err = eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)

	reply, err := eng.SelectMode(ctx, 1, submission.ModeDocument)
	require.NoError(t, err)
	assert.Equal(t, PromptSendDocuments, reply.Prompt)

	_, err = eng.SelectMode(ctx, 1, submission.ModeMedia)
	assert.ErrorIs(t, err, submission.ErrModeSwitched)
}

func TestDoneRequiresAttachments(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Start(ctx, 1, "erin")
	require.NoError(t, err)

	_, err = eng.Done(ctx, 1)
	assert.ErrorIs(t, err, ErrNothingCollected)

	// The session is still collecting; a later attach and done succeed.
	_, err = eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)
	reply, err := eng.Done(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptTags, reply.Prompt)
}

func TestBlockedUserCannotStart(t *testing.T) {
	ctx := context.Background()
	guard := &fakeGuard{blocked: map[int64]bool{7: true}}
	eng, _ := newTestEngine(PolicyMedia, nil, guard)

	_, err := eng.Start(ctx, 7, "mallory")
	assert.ErrorIs(t, err, ErrBlocked)
	assert.False(t, eng.InProgress(7))
}

func TestSecondStartRejected(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Start(ctx, 1, "frank")
	require.NoError(t, err)
	_, err = eng.Start(ctx, 1, "frank")
	assert.ErrorIs(t, err, session.ErrAlreadyActive)
}

func TestEventsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Start(ctx, 1, "grace")
	require.NoError(t, err)

	// Simulate the sweep tearing the session down mid-conversation.
	store.Remove(1)

	_, err = eng.Text(ctx, 1, "cat dog")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = eng.Confirm(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestInvalidTagsKeepState(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Start(ctx, 1, "heidi")
	require.NoError(t, err)
	_, err = eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)
	_, err = eng.Done(ctx, 1)
	require.NoError(t, err)

	_, err = eng.Text(ctx, 1, "   ,, ")
	assert.ErrorIs(t, err, submission.ErrValidationFailed)

	reply, err := eng.Text(ctx, 1, "cat")
	require.NoError(t, err)
	assert.Equal(t, PromptLink, reply.Prompt)
}

func TestLinkValidationAndSkipWords(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Start(ctx, 1, "ivan")
	require.NoError(t, err)
	_, err = eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)
	_, err = eng.Done(ctx, 1)
	require.NoError(t, err)
	_, err = eng.Text(ctx, 1, "cat")
	require.NoError(t, err)

	_, err = eng.Text(ctx, 1, "not a link")
	assert.ErrorIs(t, err, submission.ErrValidationFailed)

	// The plain-text "none" answer advances without storing a link.
	reply, err := eng.Text(ctx, 1, "无")
	require.NoError(t, err)
	assert.Equal(t, PromptTitle, reply.Prompt)
}

func TestFailedPublishKeepsSession(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("gateway timeout")}
	eng, _ := newTestEngine(PolicyMedia, pub, nil)

	_, err := eng.Start(ctx, 1, "judy")
	require.NoError(t, err)
	_, err = eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)
	_, err = eng.Done(ctx, 1)
	require.NoError(t, err)
	_, err = eng.Text(ctx, 1, "cat")
	require.NoError(t, err)
	_, err = eng.SkipOptional(ctx, 1)
	require.NoError(t, err)
	_, err = eng.Spoiler(ctx, 1, true)
	require.NoError(t, err)

	_, err = eng.Confirm(ctx, 1)
	require.Error(t, err)
	assert.True(t, eng.InProgress(1))
	assert.Equal(t, 1, pub.calls)

	// The summary can be shown again, and a retry succeeds.
	reply, err := eng.Summary(1)
	require.NoError(t, err)
	assert.Equal(t, PromptSummary, reply.Prompt)
	assert.True(t, reply.Summary.Spoiler)

	pub.err = nil
	pub.ids = []int{42}
	reply, err = eng.Confirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptPublished, reply.Prompt)
	assert.Equal(t, 2, pub.calls)
	assert.False(t, eng.InProgress(1))
}

func TestConcurrentConfirmPublishesOnce(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{
		ids:     []int{10},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	eng, _ := newTestEngine(PolicyMedia, pub, nil)

	_, err := eng.Start(ctx, 1, "mae")
	require.NoError(t, err)
	_, err = eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)
	_, err = eng.Done(ctx, 1)
	require.NoError(t, err)
	_, err = eng.Text(ctx, 1, "cat")
	require.NoError(t, err)
	_, err = eng.SkipOptional(ctx, 1)
	require.NoError(t, err)
	_, err = eng.Spoiler(ctx, 1, false)
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := eng.Confirm(ctx, 1)
		first <- err
	}()
	<-pub.entered

	// A second confirm queues behind the in-flight publish; it must never
	// see the session again.
	second := make(chan error, 1)
	go func() {
		_, err := eng.Confirm(ctx, 1)
		second <- err
	}()

	close(pub.release)
	require.NoError(t, <-first)
	assert.ErrorIs(t, <-second, session.ErrNotFound)
	assert.Equal(t, 1, pub.calls)
	assert.False(t, eng.InProgress(1))
}

func TestCancelAnywhere(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Cancel(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = eng.Start(ctx, 1, "kim")
	require.NoError(t, err)
	reply, err := eng.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PromptCancelled, reply.Prompt)
	assert.False(t, eng.InProgress(1))
}

func TestOutOfOrderEvents(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(PolicyMedia, nil, nil)

	_, err := eng.Start(ctx, 1, "leo")
	require.NoError(t, err)

	_, err = eng.Skip(ctx, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = eng.Spoiler(ctx, 1, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = eng.Confirm(ctx, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = eng.SkipMedia(ctx, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Still collecting after the noise.
	reply, err := eng.Attach(ctx, 1, photo(1))
	require.NoError(t, err)
	assert.Equal(t, PromptAccepted, reply.Prompt)
}
