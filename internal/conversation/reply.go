package conversation

import "github.com/asagiri/subgate/internal/submission"

// Prompt tells the transport layer what to ask the user next. The engine
// stays free of message text and keyboards; rendering lives with the bot.
type Prompt int

const (
	PromptNone Prompt = iota
	// PromptChooseMode asks for media or document mode (mixed deployments).
	PromptChooseMode
	// PromptSendDocuments opens the primary document collection phase.
	PromptSendDocuments
	// PromptSendMedia opens the media collection phase.
	PromptSendMedia
	// PromptSendAttachedMedia opens the optional attached-media phase that
	// follows primary documents.
	PromptSendAttachedMedia
	// PromptAccepted acknowledges a stored attachment.
	PromptAccepted
	// PromptTags asks for the mandatory tag list.
	PromptTags
	// PromptLink asks for the optional source link.
	PromptLink
	// PromptTitle asks for the optional title.
	PromptTitle
	// PromptDescription asks for the optional description.
	PromptDescription
	// PromptSpoiler asks for the yes/no spoiler choice.
	PromptSpoiler
	// PromptSummary shows the submission summary with confirm/cancel buttons.
	PromptSummary
	// PromptPublished reports a successful channel post.
	PromptPublished
	// PromptCancelled confirms the session was torn down.
	PromptCancelled
)

// Summary is a read-only snapshot of a session taken under its lock, safe to
// render after the lock is released.
type Summary struct {
	Mode        submission.Mode
	MediaCount  int
	Documents   int
	Tags        []string
	Link        string
	Title       string
	Description string
	Spoiler     bool
}

// Reply is the engine's answer to one event.
type Reply struct {
	Prompt Prompt

	// Attachments counts items held after an accept (PromptAccepted).
	Attachments int

	// Summary is set for PromptSummary.
	Summary *Summary

	// PostLink is set for PromptPublished when the channel exposes a public
	// username; empty otherwise.
	PostLink string
}
