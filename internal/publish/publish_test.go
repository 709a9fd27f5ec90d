package publish

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/internal/session"
	"github.com/asagiri/subgate/internal/storage"
	"github.com/asagiri/subgate/internal/submission"
)

type sendCall struct {
	what tele.Inputtable
	opts *tele.SendOptions
}

type albumCall struct {
	album tele.Album
	opts  *tele.SendOptions
}

type fakePoster struct {
	nextID int
	sends  []sendCall
	albums []albumCall
	err    error
}

func sendOpts(opts []interface{}) *tele.SendOptions {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}

func (p *fakePoster) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.nextID++
	if media, ok := what.(tele.Inputtable); ok {
		p.sends = append(p.sends, sendCall{what: media, opts: sendOpts(opts)})
	}
	return &tele.Message{ID: p.nextID}, nil
}

func (p *fakePoster) SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.albums = append(p.albums, albumCall{album: a, opts: sendOpts(opts)})
	msgs := make([]tele.Message, len(a))
	for i := range msgs {
		p.nextID++
		msgs[i] = tele.Message{ID: p.nextID}
	}
	return msgs, nil
}

type fakeRecorder struct {
	recs []storage.Record
	err  error
}

func (r *fakeRecorder) Put(ctx context.Context, rec storage.Record) error {
	if r.err != nil {
		return r.err
	}
	r.recs = append(r.recs, rec)
	return nil
}

func publishSession(mode submission.Mode, media, docs int) *session.Session {
	state := session.StateConfirming
	sess := session.New(9, "alice", mode, submission.DefaultLimits(), state)
	for i := 0; i < media; i++ {
		kind := submission.KindPhoto
		if err := sess.Collector.AcceptMedia(submission.Attachment{
			FileID: fmt.Sprintf("media-%d", i), Kind: kind,
		}); err != nil {
			panic(err)
		}
	}
	for i := 0; i < docs; i++ {
		if err := sess.Collector.AcceptDocument(submission.Attachment{
			FileID: fmt.Sprintf("doc-%d", i), Kind: submission.KindDocument,
		}); err != nil {
			panic(err)
		}
	}
	sess.Tags = []string{"cat"}
	return sess
}

func newTestService(poster *fakePoster, rec Recorder, opts Options) *Service {
	opts.Retry = fastRetry(1)
	if opts.Channel == nil {
		opts.Channel = tele.ChatID(-100)
	}
	return NewService(poster, rec, opts)
}

func TestPublishAlbum(t *testing.T) {
	poster := &fakePoster{}
	rec := &fakeRecorder{}
	svc := newTestService(poster, rec, Options{})

	ids, link, err := svc.Publish(context.Background(), publishSession(submission.ModeMedia, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Empty(t, link)

	require.Len(t, poster.albums, 1)
	require.Empty(t, poster.sends)
	album := poster.albums[0].album
	require.Len(t, album, 3)

	// Caption rides on the first item only.
	first := album[0].(*tele.Photo)
	assert.Contains(t, first.Caption, "#cat")
	assert.Empty(t, album[1].(*tele.Photo).Caption)

	require.Len(t, rec.recs, 1)
	assert.Equal(t, int64(9), rec.recs[0].UserID)
	assert.Len(t, rec.recs[0].MessageIDs, 3)
}

func TestPublishSingleUsesSend(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(poster, &fakeRecorder{}, Options{})

	ids, _, err := svc.Publish(context.Background(), publishSession(submission.ModeMedia, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
	assert.Empty(t, poster.albums)
	require.Len(t, poster.sends, 1)
	assert.Contains(t, poster.sends[0].what.(*tele.Photo).Caption, "#cat")
}

func TestPublishChunksOfTen(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(poster, &fakeRecorder{}, Options{})

	ids, _, err := svc.Publish(context.Background(), publishSession(submission.ModeMedia, 12, 0))
	require.NoError(t, err)
	assert.Len(t, ids, 12)

	require.Len(t, poster.albums, 2)
	assert.Len(t, poster.albums[0].album, 10)
	assert.Len(t, poster.albums[1].album, 2)

	// The second chunk replies to the first posted message.
	require.NotNil(t, poster.albums[1].opts)
	require.NotNil(t, poster.albums[1].opts.ReplyTo)
	assert.Equal(t, 1, poster.albums[1].opts.ReplyTo.ID)
	// Only the first chunk carries the caption.
	assert.NotEmpty(t, poster.albums[0].album[0].(*tele.Photo).Caption)
	assert.Empty(t, poster.albums[1].album[0].(*tele.Photo).Caption)
}

func TestPublishDocumentModeOrdering(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(poster, &fakeRecorder{}, Options{})

	ids, _, err := svc.Publish(context.Background(), publishSession(submission.ModeDocument, 2, 1))
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	// Attached media album first, captionless.
	require.Len(t, poster.albums, 1)
	assert.Empty(t, poster.albums[0].album[0].(*tele.Photo).Caption)

	// The document follows as a reply carrying the caption.
	require.Len(t, poster.sends, 1)
	docSend := poster.sends[0]
	assert.Contains(t, docSend.what.(*tele.Document).Caption, "#cat")
	require.NotNil(t, docSend.opts.ReplyTo)
	assert.Equal(t, 1, docSend.opts.ReplyTo.ID)
}

func TestPublishSpoilerOnlyOnEligibleKinds(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(poster, &fakeRecorder{}, Options{})

	sess := publishSession(submission.ModeMedia, 2, 0)
	require.NoError(t, sess.Collector.AcceptMedia(submission.Attachment{FileID: "a", Kind: submission.KindAudio}))
	sess.Spoiler = true

	_, _, err := svc.Publish(context.Background(), sess)
	require.NoError(t, err)

	require.Len(t, poster.albums, 1)
	for _, item := range poster.albums[0].album {
		assert.True(t, item.(*tele.Photo).HasSpoiler)
	}
	// Audio is not groupable with photos and cannot be spoilered.
	require.Len(t, poster.sends, 1)
	_, isAudio := poster.sends[0].what.(*tele.Audio)
	assert.True(t, isAudio)
}

func TestPublishFailureWritesNoRecord(t *testing.T) {
	poster := &fakePoster{err: &tele.Error{Code: 400, Description: "chat not found"}}
	rec := &fakeRecorder{}
	svc := newTestService(poster, rec, Options{})

	_, _, err := svc.Publish(context.Background(), publishSession(submission.ModeMedia, 2, 0))
	assert.ErrorIs(t, err, ErrPublishFailed)
	// The user-facing text tells them the summary keyboard still works.
	assert.Contains(t, ErrPublishFailed.Error(), "try again")
	assert.Empty(t, rec.recs)
}

func TestPublishRecordFailureDoesNotFailPublish(t *testing.T) {
	poster := &fakePoster{}
	rec := &fakeRecorder{err: fmt.Errorf("connection refused")}
	svc := newTestService(poster, rec, Options{})

	ids, _, err := svc.Publish(context.Background(), publishSession(submission.ModeMedia, 1, 0))
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestPublishPostLink(t *testing.T) {
	poster := &fakePoster{}
	svc := newTestService(poster, &fakeRecorder{}, Options{ChannelUsername: "mychannel"})

	_, link, err := svc.Publish(context.Background(), publishSession(submission.ModeMedia, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/mychannel/1", link)
}

func TestChannelRecipient(t *testing.T) {
	r, username := ChannelRecipient("@mychannel")
	assert.Equal(t, "@mychannel", r.Recipient())
	assert.Equal(t, "mychannel", username)

	r, username = ChannelRecipient("-1001234567890")
	assert.Equal(t, "-1001234567890", r.Recipient())
	assert.Empty(t, username)
}
