package submission

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func att(kind Kind, n int) Attachment {
	return Attachment{FileID: fmt.Sprintf("%s-%d", kind, n), Kind: kind}
}

func TestCollectorMediaMode(t *testing.T) {
	c := NewCollector(ModeMedia, Limits{Media: 3, Documents: 10, AttachedMedia: 10})

	require.NoError(t, c.AcceptMedia(att(KindPhoto, 1)))
	require.NoError(t, c.AcceptMedia(att(KindVideo, 2)))
	require.NoError(t, c.AcceptMedia(att(KindAudio, 3)))
	assert.ErrorIs(t, c.AcceptMedia(att(KindPhoto, 4)), ErrCapacityExceeded)

	// Arrival order preserved.
	ids := make([]string, 0, 3)
	for _, a := range c.Media() {
		ids = append(ids, a.FileID)
	}
	assert.Equal(t, []string{"photo-1", "video-2", "audio-3"}, ids)
}

func TestCollectorRejectsDocumentAsMedia(t *testing.T) {
	c := NewCollector(ModeMedia, DefaultLimits())
	assert.ErrorIs(t, c.AcceptMedia(att(KindDocument, 1)), ErrUnsupportedKind)
	assert.ErrorIs(t, c.AcceptDocument(att(KindDocument, 1)), ErrUnsupportedKind)
	assert.True(t, c.Empty())
}

func TestCollectorRejectsEmptyFileID(t *testing.T) {
	c := NewCollector(ModeMedia, DefaultLimits())
	assert.ErrorIs(t, c.AcceptMedia(Attachment{Kind: KindPhoto}), ErrUnsupportedKind)
}

func TestCollectorDocumentMode(t *testing.T) {
	c := NewCollector(ModeDocument, Limits{Media: 50, Documents: 2, AttachedMedia: 2})

	require.NoError(t, c.AcceptDocument(att(KindDocument, 1)))
	require.NoError(t, c.AcceptDocument(att(KindDocument, 2)))
	assert.ErrorIs(t, c.AcceptDocument(att(KindDocument, 3)), ErrCapacityExceeded)

	// Attached media counts against its own, smaller ceiling.
	require.NoError(t, c.AcceptMedia(att(KindPhoto, 1)))
	require.NoError(t, c.AcceptMedia(att(KindPhoto, 2)))
	assert.ErrorIs(t, c.AcceptMedia(att(KindPhoto, 3)), ErrCapacityExceeded)

	assert.ErrorIs(t, c.AcceptDocument(att(KindPhoto, 9)), ErrUnsupportedKind)
}

func TestCollectorFailedAcceptLeavesStateUnchanged(t *testing.T) {
	c := NewCollector(ModeMedia, Limits{Media: 1, Documents: 1, AttachedMedia: 1})
	require.NoError(t, c.AcceptMedia(att(KindPhoto, 1)))
	require.Error(t, c.AcceptMedia(att(KindPhoto, 2)))
	assert.Len(t, c.Media(), 1)
}

func TestCollectorSwitch(t *testing.T) {
	c := NewCollector(ModeMedia, Limits{Media: 50, Documents: 10, AttachedMedia: 2})
	require.NoError(t, c.AcceptMedia(att(KindPhoto, 1)))

	require.NoError(t, c.Switch(ModeDocument))
	assert.Equal(t, ModeDocument, c.Mode())
	assert.True(t, c.Switched())
	// Held media survived as attached media.
	assert.Len(t, c.Media(), 1)

	assert.ErrorIs(t, c.Switch(ModeMedia), ErrModeSwitched)
}

func TestCollectorSwitchIncompatible(t *testing.T) {
	// Too many held media for the attached-media ceiling.
	c := NewCollector(ModeMedia, Limits{Media: 50, Documents: 10, AttachedMedia: 1})
	require.NoError(t, c.AcceptMedia(att(KindPhoto, 1)))
	require.NoError(t, c.AcceptMedia(att(KindPhoto, 2)))
	assert.ErrorIs(t, c.Switch(ModeDocument), ErrIncompatibleItems)
	// Nothing dropped, mode unchanged, and the one-time switch not consumed.
	assert.Equal(t, ModeMedia, c.Mode())
	assert.Len(t, c.Media(), 2)
	assert.False(t, c.Switched())

	// Documents block the reverse direction.
	d := NewCollector(ModeDocument, DefaultLimits())
	require.NoError(t, d.AcceptDocument(att(KindDocument, 1)))
	assert.ErrorIs(t, d.Switch(ModeMedia), ErrIncompatibleItems)
}

func TestSwitchToSameModeIsNoop(t *testing.T) {
	c := NewCollector(ModeMedia, DefaultLimits())
	require.NoError(t, c.Switch(ModeMedia))
	assert.False(t, c.Switched())
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindPhoto.SpoilerEligible())
	assert.True(t, KindVideo.SpoilerEligible())
	assert.True(t, KindAnimation.SpoilerEligible())
	assert.False(t, KindAudio.SpoilerEligible())
	assert.False(t, KindDocument.SpoilerEligible())

	assert.True(t, KindPhoto.Groupable())
	assert.False(t, KindAudio.Groupable())
	assert.False(t, KindDocument.Groupable())
}
