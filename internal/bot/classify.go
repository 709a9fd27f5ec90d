package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/internal/submission"
)

// attachmentFrom maps an incoming message onto the submission attachment
// model. Telegram clients upload GIFs and audio as plain documents when the
// user picks "send as file", so documents are reclassified by MIME type:
// image/gif becomes an animation, audio/* becomes audio.
func attachmentFrom(m *tele.Message) (submission.Attachment, bool) {
	if m == nil {
		return submission.Attachment{}, false
	}
	switch {
	case m.Photo != nil:
		return submission.Attachment{FileID: m.Photo.FileID, Kind: submission.KindPhoto}, true
	case m.Video != nil:
		return submission.Attachment{FileID: m.Video.FileID, Kind: submission.KindVideo}, true
	case m.Animation != nil:
		return submission.Attachment{FileID: m.Animation.FileID, Kind: submission.KindAnimation}, true
	case m.Audio != nil:
		return submission.Attachment{FileID: m.Audio.FileID, Kind: submission.KindAudio}, true
	case m.Document != nil:
		kind := submission.KindDocument
		switch {
		case m.Document.MIME == "image/gif":
			kind = submission.KindAnimation
		case strings.HasPrefix(m.Document.MIME, "audio/"):
			kind = submission.KindAudio
		}
		return submission.Attachment{FileID: m.Document.FileID, Kind: kind}, true
	}
	return submission.Attachment{}, false
}
