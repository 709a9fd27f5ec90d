package publish

import (
	"strings"

	"github.com/asagiri/subgate/core/telegram/format"
	"github.com/asagiri/subgate/internal/session"
)

// captionBudget is Telegram's media caption ceiling.
const captionBudget = 1024

const spoilerBanner = "⚠️ spoiler"

// linkLabelRunes bounds the visible anchor text for long links.
const linkLabelRunes = 64

// BuildCaption renders the HTML caption for a submission. When the result
// would exceed Telegram's caption budget the description is shortened first;
// only if that is not enough does the whole caption get clipped.
func BuildCaption(sess *session.Session, showSubmitter bool) string {
	caption := renderCaption(sess, sess.Description, showSubmitter)
	if runeLen(caption) <= captionBudget {
		return caption
	}

	overflow := runeLen(caption) - captionBudget
	desc := []rune(sess.Description)
	if len(desc) > overflow {
		shortened := strings.TrimSpace(string(desc[:len(desc)-overflow-1])) + "…"
		caption = renderCaption(sess, shortened, showSubmitter)
	} else {
		caption = renderCaption(sess, "", showSubmitter)
	}

	// Last resort: drop whole lines from the end. Every rendered line is
	// balanced HTML on its own, so a mid-tag clip can never reach Telegram.
	lines := strings.Split(caption, "\n")
	for runeLen(caption) > captionBudget && len(lines) > 1 {
		lines = lines[:len(lines)-1]
		caption = strings.Join(lines, "\n")
	}
	return caption
}

func renderCaption(sess *session.Session, description string, showSubmitter bool) string {
	var lines []string
	if sess.Spoiler {
		lines = append(lines, spoilerBanner)
	}
	if sess.Link != "" {
		label := sess.Link
		if r := []rune(label); len(r) > linkLabelRunes {
			label = string(r[:linkLabelRunes-1]) + "…"
		}
		lines = append(lines, format.Link(sess.Link, label))
	}
	if sess.Title != "" {
		lines = append(lines, "<b>"+format.EscapeHTML(sess.Title)+"</b>")
	}
	if description != "" {
		lines = append(lines, format.EscapeHTML(description))
	}
	if len(sess.Tags) > 0 {
		hashed := make([]string, len(sess.Tags))
		for i, tag := range sess.Tags {
			hashed[i] = "#" + format.EscapeHTML(tag)
		}
		lines = append(lines, strings.Join(hashed, " "))
	}
	if showSubmitter {
		label := sess.Username
		if label == "" {
			label = "submitter"
		}
		lines = append(lines, "via "+format.UserMention(sess.UserID, label))
	}
	return strings.Join(lines, "\n")
}

func runeLen(s string) int { return len([]rune(s)) }
