package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/core/telegram/format"
	tghelpers "github.com/asagiri/subgate/core/telegram/helpers"
	"github.com/asagiri/subgate/core/telegram/keyboard"
	"github.com/asagiri/subgate/internal/conversation"
	"github.com/asagiri/subgate/internal/submission"
)

const (
	cbModeMedia     = "mode_media"
	cbModeDocument  = "mode_document"
	cbSpoilerYes    = "spoiler_yes"
	cbSpoilerNo     = "spoiler_no"
	cbSubmitConfirm = "submit_confirm"
	cbSubmitCancel  = "submit_cancel"
)

func modeKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "🖼 Media", Unique: cbModeMedia},
		{Text: "📄 Files", Unique: cbModeDocument},
	})
}

func spoilerKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "⚠️ Yes, hide it", Unique: cbSpoilerYes},
		{Text: "No", Unique: cbSpoilerNo},
	})
}

func confirmKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Publish", Unique: cbSubmitConfirm},
		{Text: "❌ Discard", Unique: cbSubmitCancel},
	})
}

// promptContent renders a conversation reply into message text plus an
// optional inline keyboard.
func (a *App) promptContent(r conversation.Reply) (string, *tele.ReplyMarkup) {
	sub := a.cfg.Submission
	switch r.Prompt {
	case conversation.PromptChooseMode:
		return "What would you like to submit?", modeKeyboard()
	case conversation.PromptSendDocuments:
		return fmt.Sprintf("Send your files, up to %d. Use /done when finished, /cancel to abort.", sub.DocumentLimit), nil
	case conversation.PromptSendMedia:
		return fmt.Sprintf("Send photos, videos, GIFs or audio, up to %d. Use /done when finished, /cancel to abort.", sub.MediaLimit), nil
	case conversation.PromptSendAttachedMedia:
		return fmt.Sprintf("Optionally add up to %d preview media for your files. Use /done when finished, or /skip_media to go straight on.", sub.AttachedMediaLimit), nil
	case conversation.PromptAccepted:
		return fmt.Sprintf("Saved, %d so far. Use /done when finished.", r.Attachments), nil
	case conversation.PromptTags:
		return "Now send tags, separated by spaces or commas. Example: cat dog", nil
	case conversation.PromptLink:
		return "Send a source link starting with http:// or https://, or /skip.", nil
	case conversation.PromptTitle:
		return "Send a title, or /skip.", nil
	case conversation.PromptDescription:
		return "Send a description, or /skip. Use /skip_optional to skip everything optional.", nil
	case conversation.PromptSpoiler:
		return "Should the media be hidden behind a spoiler?", spoilerKeyboard()
	case conversation.PromptSummary:
		return summaryText(r.Summary), confirmKeyboard()
	case conversation.PromptPublished:
		text := "Published, thank you!"
		if r.PostLink != "" {
			text += "\n" + r.PostLink
		}
		return text, nil
	case conversation.PromptCancelled:
		return "Submission discarded.", nil
	}
	return "", nil
}

func summaryText(s *conversation.Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("<b>Ready to publish</b>\n")
	if s.Mode == submission.ModeDocument {
		fmt.Fprintf(&b, "Files: %d", s.Documents)
		if s.MediaCount > 0 {
			fmt.Fprintf(&b, " (+%d media)", s.MediaCount)
		}
	} else {
		fmt.Fprintf(&b, "Media: %d", s.MediaCount)
	}
	b.WriteString("\nTags: ")
	hashed := make([]string, len(s.Tags))
	for i, tag := range s.Tags {
		hashed[i] = "#" + format.EscapeHTML(tag)
	}
	b.WriteString(strings.Join(hashed, " "))
	if s.Link != "" {
		b.WriteString("\nLink: " + format.EscapeHTML(s.Link))
	}
	if s.Title != "" {
		b.WriteString("\nTitle: " + format.EscapeHTML(s.Title))
	}
	if s.Description != "" {
		b.WriteString("\nDescription: " + format.EscapeHTML(s.Description))
	}
	if s.Spoiler {
		b.WriteString("\nSpoiler: yes")
	}
	return b.String()
}

// render sends the reply as a fresh message.
func (a *App) render(c tele.Context, r conversation.Reply) error {
	text, kb := a.promptContent(r)
	if text == "" {
		return nil
	}
	if kb != nil {
		return tghelpers.SendHTML(c, text, kb)
	}
	return tghelpers.SendHTML(c, text)
}

// renderEdit replaces the message the callback came from, falling back to a
// fresh send when the edit is no longer possible.
func (a *App) renderEdit(c tele.Context, r conversation.Reply) error {
	text, kb := a.promptContent(r)
	if text == "" {
		return nil
	}
	if kb != nil {
		return tghelpers.EditOrSendHTML(c, text, kb)
	}
	return tghelpers.EditOrSendHTML(c, text)
}
