// Package conversation drives the submission dialogue: a state machine over
// the per-user session, fed by events from the bot layer and replying with
// prompts for it to render. All session access funnels through the store's
// per-user lock, so handlers for one user never interleave.
package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/asagiri/subgate/core/logger"
	"github.com/asagiri/subgate/internal/session"
	"github.com/asagiri/subgate/internal/submission"
)

// Guard answers whether a user is denied before any session is created.
type Guard interface {
	Blocked(userID int64) bool
}

// Publisher posts a finished submission to the channel, records it, and
// returns the channel message IDs plus a public post link when one exists.
type Publisher interface {
	Publish(ctx context.Context, sess *session.Session) (messageIDs []int, postLink string, err error)
}

// Policy fixes which collection modes a deployment offers.
type Policy string

const (
	PolicyMedia    Policy = "media"
	PolicyDocument Policy = "document"
	PolicyMixed    Policy = "mixed"
)

// Engine owns the transition rules. One instance serves all users.
type Engine struct {
	store  *session.Store
	guard  Guard
	pub    Publisher
	policy Policy
	limits submission.Limits
	// maxTags bounds how many tags survive parsing.
	maxTags int
}

func NewEngine(store *session.Store, guard Guard, pub Publisher, policy Policy, limits submission.Limits, maxTags int) *Engine {
	if maxTags <= 0 {
		maxTags = 30
	}
	return &Engine{
		store:   store,
		guard:   guard,
		pub:     pub,
		policy:  policy,
		limits:  limits,
		maxTags: maxTags,
	}
}

// InProgress reports whether the user has an active session.
func (e *Engine) InProgress(userID int64) bool {
	_, err := e.store.Get(userID)
	return err == nil
}

// Start opens a new session. Blocked users are rejected before any state is
// allocated; a second start while a session exists returns ErrAlreadyActive.
func (e *Engine) Start(ctx context.Context, userID int64, username string) (Reply, error) {
	if e.guard != nil && e.guard.Blocked(userID) {
		logger.SVCSessions.Info("start denied",
			slog.String("event", "session.denied"),
			slog.Int64("user_id", userID),
			slog.String("reason", "blacklisted"),
		)
		return Reply{}, ErrBlocked
	}

	mode, initial, prompt := e.entryPoint()
	sess := session.New(userID, username, mode, e.limits, initial)
	if err := e.store.Create(sess); err != nil {
		return Reply{}, err
	}
	return Reply{Prompt: prompt}, nil
}

// entryPoint maps the deployment policy to the first state of a session.
func (e *Engine) entryPoint() (submission.Mode, session.State, Prompt) {
	switch e.policy {
	case PolicyDocument:
		return submission.ModeDocument, session.StateCollectingDocuments, PromptSendDocuments
	case PolicyMedia:
		return submission.ModeMedia, session.StateCollectingMedia, PromptSendMedia
	default:
		// Mixed deployments ask; the session starts in media mode and the
		// collector is switched if the user picks documents.
		return submission.ModeMedia, session.StateModeSelect, PromptChooseMode
	}
}

// SelectMode handles the mode keyboard. In ModeSelect it fixes the initial
// mode; while collecting under the mixed policy it performs the one-time
// switch, re-validating held attachments.
func (e *Engine) SelectMode(ctx context.Context, userID int64, target submission.Mode) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		switch {
		case s.State == session.StateModeSelect:
			// The initial pick is not a switch: the collector is empty and
			// the one-time switch stays available for later.
			if s.Collector.Mode() != target {
				s.Collector = submission.NewCollector(target, e.limits)
			}
			reply = e.enterCollecting(s, target)
			return nil
		case s.Collecting() && e.policy == PolicyMixed:
			if err := s.Collector.Switch(target); err != nil {
				return err
			}
			reply = e.enterCollecting(s, target)
			return nil
		default:
			return ErrInvalidTransition
		}
	})
	return reply, err
}

func (e *Engine) enterCollecting(s *session.Session, mode submission.Mode) Reply {
	if mode == submission.ModeDocument {
		s.State = session.StateCollectingDocuments
		return Reply{Prompt: PromptSendDocuments}
	}
	s.State = session.StateCollectingMedia
	return Reply{Prompt: PromptSendMedia}
}

// Attach stores one attachment. Documents are only primary items during the
// document collection phase; media goes to the active media list, which in
// document mode is the attached-media list.
func (e *Engine) Attach(ctx context.Context, userID int64, att submission.Attachment) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		if !s.Collecting() {
			return ErrInvalidTransition
		}
		var acceptErr error
		if att.Kind == submission.KindDocument {
			if s.State != session.StateCollectingDocuments {
				return submission.ErrUnsupportedKind
			}
			acceptErr = s.Collector.AcceptDocument(att)
		} else {
			acceptErr = s.Collector.AcceptMedia(att)
		}
		if acceptErr != nil {
			return acceptErr
		}
		reply = Reply{
			Prompt:      PromptAccepted,
			Attachments: len(s.Collector.Media()) + len(s.Collector.Documents()),
		}
		return nil
	})
	return reply, err
}

// Done closes the current collection phase. From the document phase it opens
// the optional attached-media phase; from the media phase it moves on to
// tags. An empty submission cannot move on.
func (e *Engine) Done(ctx context.Context, userID int64) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		switch s.State {
		case session.StateCollectingDocuments:
			if len(s.Collector.Documents()) == 0 {
				return ErrNothingCollected
			}
			s.State = session.StateCollectingMedia
			reply = Reply{Prompt: PromptSendAttachedMedia}
			return nil
		case session.StateCollectingMedia:
			if s.Collector.Empty() {
				return ErrNothingCollected
			}
			s.State = session.StateAwaitingTags
			reply = Reply{Prompt: PromptTags}
			return nil
		default:
			return ErrInvalidTransition
		}
	})
	return reply, err
}

// SkipMedia skips the attached-media phase of a document submission.
func (e *Engine) SkipMedia(ctx context.Context, userID int64) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		if s.State != session.StateCollectingMedia || s.Collector.Mode() != submission.ModeDocument {
			return ErrInvalidTransition
		}
		if len(s.Collector.Documents()) == 0 {
			return ErrNothingCollected
		}
		s.State = session.StateAwaitingTags
		reply = Reply{Prompt: PromptTags}
		return nil
	})
	return reply, err
}

// linkSkipWords are plain-text answers treated as "no link". The original
// audience writes Chinese, hence 无.
var linkSkipWords = map[string]struct{}{
	"无": {}, "none": {}, "no": {}, "-": {},
}

// Text feeds free-form text into whichever field the session is waiting on.
func (e *Engine) Text(ctx context.Context, userID int64, text string) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		switch s.State {
		case session.StateAwaitingTags:
			tags, err := submission.ParseTags(text, e.maxTags)
			if err != nil {
				return err
			}
			s.Tags = tags
			s.State = session.StateAwaitingLink
			reply = Reply{Prompt: PromptLink}
			return nil
		case session.StateAwaitingLink:
			if _, skip := linkSkipWords[strings.ToLower(strings.TrimSpace(text))]; skip {
				s.State = session.StateAwaitingTitle
				reply = Reply{Prompt: PromptTitle}
				return nil
			}
			link, err := submission.ParseLink(text)
			if err != nil {
				return err
			}
			s.Link = link
			s.State = session.StateAwaitingTitle
			reply = Reply{Prompt: PromptTitle}
			return nil
		case session.StateAwaitingTitle:
			s.Title = submission.ClampTitle(text)
			s.State = session.StateAwaitingDescription
			reply = Reply{Prompt: PromptDescription}
			return nil
		case session.StateAwaitingDescription:
			s.Description = submission.ClampDescription(text)
			s.State = session.StateAwaitingSpoiler
			reply = Reply{Prompt: PromptSpoiler}
			return nil
		default:
			return ErrInvalidTransition
		}
	})
	return reply, err
}

// Skip advances past the current optional field. Tags are mandatory and
// cannot be skipped.
func (e *Engine) Skip(ctx context.Context, userID int64) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		switch s.State {
		case session.StateAwaitingLink:
			s.State = session.StateAwaitingTitle
			reply = Reply{Prompt: PromptTitle}
		case session.StateAwaitingTitle:
			s.State = session.StateAwaitingDescription
			reply = Reply{Prompt: PromptDescription}
		case session.StateAwaitingDescription:
			s.State = session.StateAwaitingSpoiler
			reply = Reply{Prompt: PromptSpoiler}
		default:
			return ErrInvalidTransition
		}
		return nil
	})
	return reply, err
}

// SkipOptional skips every remaining optional field and jumps straight to
// the spoiler choice.
func (e *Engine) SkipOptional(ctx context.Context, userID int64) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		switch s.State {
		case session.StateAwaitingLink, session.StateAwaitingTitle, session.StateAwaitingDescription:
			s.State = session.StateAwaitingSpoiler
			reply = Reply{Prompt: PromptSpoiler}
			return nil
		default:
			return ErrInvalidTransition
		}
	})
	return reply, err
}

// Spoiler records the yes/no choice and moves to confirmation.
func (e *Engine) Spoiler(ctx context.Context, userID int64, spoiler bool) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		if s.State != session.StateAwaitingSpoiler {
			return ErrInvalidTransition
		}
		s.Spoiler = spoiler
		s.State = session.StateConfirming
		reply = Reply{Prompt: PromptSummary, Summary: snapshot(s)}
		return nil
	})
	return reply, err
}

// Summary re-renders the confirmation summary for a session already in the
// confirming state.
func (e *Engine) Summary(userID int64) (Reply, error) {
	var reply Reply
	err := e.store.Mutate(userID, func(s *session.Session) error {
		if s.State != session.StateConfirming {
			return ErrInvalidTransition
		}
		reply = Reply{Prompt: PromptSummary, Summary: snapshot(s)}
		return nil
	})
	return reply, err
}

func snapshot(s *session.Session) *Summary {
	tags := make([]string, len(s.Tags))
	copy(tags, s.Tags)
	return &Summary{
		Mode:        s.Collector.Mode(),
		MediaCount:  len(s.Collector.Media()),
		Documents:   len(s.Collector.Documents()),
		Tags:        tags,
		Link:        s.Link,
		Title:       s.Title,
		Description: s.Description,
		Spoiler:     s.Spoiler,
	}
}

// Confirm publishes the submission. The publish runs synchronously under the
// user's session lock: once started it cannot be preempted by another event
// from the same user. On success the session teardown happens under that same
// lock, so a second queued confirm can never publish again; on failure the
// session stays in the confirming state so the user may retry or cancel.
func (e *Engine) Confirm(ctx context.Context, userID int64) (Reply, error) {
	var reply Reply
	err := e.store.Finish(userID, func(s *session.Session) error {
		if s.State != session.StateConfirming {
			return ErrInvalidTransition
		}
		_, link, err := e.pub.Publish(ctx, s)
		if err != nil {
			return err
		}
		reply = Reply{Prompt: PromptPublished, PostLink: link}
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Cancel tears the session down from any state. Cancelling without a session
// reports ErrNotFound so the bot can answer honestly.
func (e *Engine) Cancel(ctx context.Context, userID int64) (Reply, error) {
	if _, err := e.store.Get(userID); err != nil {
		return Reply{}, err
	}
	e.store.Remove(userID)
	logger.SVCSessions.Debug("session cancelled",
		slog.String("event", "session.cancel"),
		slog.Int64("user_id", userID),
	)
	return Reply{Prompt: PromptCancelled}, nil
}
