package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/internal/submission"
)

func TestAttachmentFrom(t *testing.T) {
	cases := []struct {
		name string
		msg  *tele.Message
		want submission.Attachment
	}{
		{
			"photo",
			&tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "p1"}}},
			submission.Attachment{FileID: "p1", Kind: submission.KindPhoto},
		},
		{
			"video",
			&tele.Message{Video: &tele.Video{File: tele.File{FileID: "v1"}}},
			submission.Attachment{FileID: "v1", Kind: submission.KindVideo},
		},
		{
			"animation",
			&tele.Message{Animation: &tele.Animation{File: tele.File{FileID: "a1"}}},
			submission.Attachment{FileID: "a1", Kind: submission.KindAnimation},
		},
		{
			"audio",
			&tele.Message{Audio: &tele.Audio{File: tele.File{FileID: "au1"}}},
			submission.Attachment{FileID: "au1", Kind: submission.KindAudio},
		},
		{
			"plain document",
			&tele.Message{Document: &tele.Document{File: tele.File{FileID: "d1"}, MIME: "application/zip"}},
			submission.Attachment{FileID: "d1", Kind: submission.KindDocument},
		},
		{
			"gif sent as file",
			&tele.Message{Document: &tele.Document{File: tele.File{FileID: "d2"}, MIME: "image/gif"}},
			submission.Attachment{FileID: "d2", Kind: submission.KindAnimation},
		},
		{
			"audio sent as file",
			&tele.Message{Document: &tele.Document{File: tele.File{FileID: "d3"}, MIME: "audio/flac"}},
			submission.Attachment{FileID: "d3", Kind: submission.KindAudio},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := attachmentFrom(tc.msg)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAttachmentFromNonMedia(t *testing.T) {
	_, ok := attachmentFrom(&tele.Message{Text: "hello"})
	assert.False(t, ok)
	_, ok = attachmentFrom(nil)
	assert.False(t, ok)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/done", commandName("/done"))
	assert.Equal(t, "/done", commandName("/Done@SubgateBot"))
	assert.Equal(t, "/ban", commandName("/ban 123 spam"))
}
