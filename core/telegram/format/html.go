package format

import (
	"fmt"
	"html"
)

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// Link renders an HTML anchor with an escaped label.
func Link(url, label string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, url, EscapeHTML(label))
}

// UserMention renders a tg://user deep link that opens the user's profile.
func UserMention(userID int64, label string) string {
	return Link(fmt.Sprintf("tg://user?id=%d", userID), label)
}
