// Package publish turns a confirmed session into channel posts and a durable
// record. The channel post is the transaction's point of no return: once it
// stands, record and notification failures only degrade, never roll back.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/core/logger"
	"github.com/asagiri/subgate/internal/session"
	"github.com/asagiri/subgate/internal/storage"
	"github.com/asagiri/subgate/internal/submission"
)

// albumChunk is Telegram's media group size ceiling.
const albumChunk = 10

// Poster is the outbound bot surface the publisher needs. *tele.Bot
// satisfies it.
type Poster interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
}

// Recorder persists the submission record after a successful post.
type Recorder interface {
	Put(ctx context.Context, rec storage.Record) error
}

// Options configures the publisher.
type Options struct {
	Channel tele.Recipient
	// ChannelUsername, when set, lets the publisher hand back a public
	// t.me link to the post.
	ChannelUsername string
	ShowSubmitter   bool
	OwnerID         int64
	NotifyOwner     bool
	Retry           RetryOptions
}

// channelHandle is a recipient addressed by @username.
type channelHandle string

func (c channelHandle) Recipient() string { return string(c) }

// ChannelRecipient resolves the configured channel id, which is either an
// "@username" handle or a numeric chat id. The returned username is empty
// for numeric channels, where no public post link can be built.
func ChannelRecipient(id string) (tele.Recipient, string) {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "@") {
		return channelHandle(id), strings.TrimPrefix(id, "@")
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return channelHandle(id), ""
	}
	return tele.ChatID(n), ""
}

// Service posts submissions to the channel.
type Service struct {
	bot     Poster
	records Recorder
	opts    Options
}

func NewService(bot Poster, records Recorder, opts Options) *Service {
	opts.Retry = opts.Retry.normalized()
	return &Service{bot: bot, records: records, opts: opts}
}

// batch is one homogeneous group of attachments posted together. Telegram
// albums cannot mix audio or documents with visual media, so a submission
// may fan out into several batches.
type batch struct {
	atts    []submission.Attachment
	caption bool
}

// Publish posts the submission and writes its record. Returns the channel
// message IDs in post order plus a public post link when the channel has a
// username. A failed post returns ErrPublishFailed (wrapped) and leaves no
// partial record.
func (s *Service) Publish(ctx context.Context, sess *session.Session) ([]int, string, error) {
	start := time.Now()
	caption := BuildCaption(sess, s.opts.ShowSubmitter)
	batches := s.plan(sess)

	channel := s.opts.Channel
	var (
		ids  []int
		root *tele.Message
	)
	for _, b := range batches {
		batchCaption := ""
		if b.caption {
			batchCaption = caption
		}
		for off := 0; off < len(b.atts); off += albumChunk {
			end := off + albumChunk
			if end > len(b.atts) {
				end = len(b.atts)
			}
			chunkCaption := ""
			if off == 0 {
				chunkCaption = batchCaption
			}
			msgs, err := s.postChunk(ctx, channel, b.atts[off:end], chunkCaption, sess.Spoiler, root)
			if err != nil {
				logger.SVCPublish.Error("channel post failed",
					slog.String("event", "publish.post"),
					slog.Int64("user_id", sess.UserID),
					slog.Int("posted", len(ids)),
					slog.String("err", err.Error()),
				)
				return nil, "", fmt.Errorf("%w: %v", ErrPublishFailed, err)
			}
			for _, m := range msgs {
				ids = append(ids, m.ID)
			}
			if root == nil && len(msgs) > 0 {
				root = &msgs[0]
			}
		}
	}

	rec := storage.Record{
		ID:          uuid.New(),
		UserID:      sess.UserID,
		Username:    sess.Username,
		Mode:        string(sess.Collector.Mode()),
		MessageIDs:  toInt64Array(ids),
		Tags:        pq.StringArray(sess.Tags),
		Link:        sess.Link,
		Title:       sess.Title,
		Description: sess.Description,
		Spoiler:     sess.Spoiler,
		PublishedAt: time.Now(),
	}
	s.record(ctx, rec)

	logger.SVCPublish.Info("submission published",
		slog.String("event", "publish.done"),
		slog.String("submission_id", rec.ID.String()),
		slog.Int64("user_id", sess.UserID),
		slog.String("mode", rec.Mode),
		slog.Int("attachments", len(ids)),
		slog.Int("tags", len(sess.Tags)),
		slog.Bool("spoiler", sess.Spoiler),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)

	s.notifyOwner(sess, rec)
	return ids, s.postLink(ids), nil
}

// plan splits the submission into post batches. Document submissions post
// their attached media first and carry the caption on the document album;
// media submissions caption the first batch.
func (s *Service) plan(sess *session.Session) []batch {
	visual, audio := splitGroupable(sess.Collector.Media())

	var batches []batch
	if sess.Collector.Mode() == submission.ModeDocument {
		if len(visual) > 0 {
			batches = append(batches, batch{atts: visual})
		}
		if len(audio) > 0 {
			batches = append(batches, batch{atts: audio})
		}
		return append(batches, batch{atts: sess.Collector.Documents(), caption: true})
	}

	if len(visual) > 0 {
		batches = append(batches, batch{atts: visual, caption: true})
	}
	if len(audio) > 0 {
		batches = append(batches, batch{atts: audio, caption: len(batches) == 0})
	}
	return batches
}

func splitGroupable(atts []submission.Attachment) (visual, audio []submission.Attachment) {
	for _, a := range atts {
		if a.Kind.Groupable() {
			visual = append(visual, a)
		} else {
			audio = append(audio, a)
		}
	}
	return visual, audio
}

// postChunk sends up to albumChunk attachments as one message or album.
// Every chunk after the very first message replies to it, keeping the post
// thread together in the channel.
func (s *Service) postChunk(ctx context.Context, to tele.Recipient, atts []submission.Attachment, caption string, spoiler bool, root *tele.Message) ([]tele.Message, error) {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if root != nil {
		opts.ReplyTo = root
	}

	if len(atts) == 1 {
		var msg *tele.Message
		err := withRetry(ctx, "send", s.opts.Retry, func() error {
			var sendErr error
			msg, sendErr = s.bot.Send(to, inputtable(atts[0], caption, spoiler), opts)
			return sendErr
		})
		if err != nil {
			return nil, err
		}
		return []tele.Message{*msg}, nil
	}

	album := make(tele.Album, len(atts))
	for i, a := range atts {
		itemCaption := ""
		if i == 0 {
			itemCaption = caption
		}
		album[i] = inputtable(a, itemCaption, spoiler)
	}
	var msgs []tele.Message
	err := withRetry(ctx, "sendAlbum", s.opts.Retry, func() error {
		var sendErr error
		msgs, sendErr = s.bot.SendAlbum(to, album, opts)
		return sendErr
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// inputtable builds the telebot media value for an attachment. The spoiler
// flag only lands on kinds Telegram can actually hide.
func inputtable(a submission.Attachment, caption string, spoiler bool) tele.Inputtable {
	file := tele.File{FileID: a.FileID}
	hide := spoiler && a.Kind.SpoilerEligible()
	switch a.Kind {
	case submission.KindPhoto:
		return &tele.Photo{File: file, Caption: caption, HasSpoiler: hide}
	case submission.KindVideo:
		return &tele.Video{File: file, Caption: caption, HasSpoiler: hide}
	case submission.KindAnimation:
		return &tele.Animation{File: file, Caption: caption, HasSpoiler: hide}
	case submission.KindAudio:
		return &tele.Audio{File: file, Caption: caption}
	default:
		return &tele.Document{File: file, Caption: caption}
	}
}

// record writes the submission record. Best-effort: the channel post already
// happened, so a storage failure is logged and swallowed.
func (s *Service) record(ctx context.Context, rec storage.Record) {
	if s.records == nil {
		return
	}
	putCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.records.Put(putCtx, rec); err != nil {
		logger.SVCPublish.Error("record write failed",
			slog.String("event", "publish.record"),
			slog.String("submission_id", rec.ID.String()),
			slog.Int64("user_id", rec.UserID),
			slog.String("err_code", ErrPersistenceFailed.Code()),
			slog.String("err", err.Error()),
		)
	}
}

// notifyOwner pings the configured owner about the new post. Best-effort.
func (s *Service) notifyOwner(sess *session.Session, rec storage.Record) {
	if !s.opts.NotifyOwner || s.opts.OwnerID == 0 {
		return
	}
	text := fmt.Sprintf("new submission from user %d (%s): %d attachment(s)",
		sess.UserID, rec.Mode, len(rec.MessageIDs))
	if link := s.postLink(toIntSlice(rec.MessageIDs)); link != "" {
		text += "\n" + link
	}
	if _, err := s.bot.Send(tele.ChatID(s.opts.OwnerID), text); err != nil {
		logger.SVCPublish.Warn("owner notify failed",
			slog.String("event", "publish.notify"),
			slog.String("err", err.Error()),
		)
	}
}

// postLink builds the public t.me link to the first posted message, when the
// channel exposes a username.
func (s *Service) postLink(ids []int) string {
	if s.opts.ChannelUsername == "" || len(ids) == 0 {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", s.opts.ChannelUsername, ids[0])
}

func toInt64Array(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func toIntSlice(ids pq.Int64Array) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
