// Package submission defines the submission domain model: attachment kinds,
// collection modes with their ceilings, and the metadata fields gathered
// during a conversation.
package submission

// Kind identifies the transport-level type of a collected attachment.
type Kind string

const (
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindAnimation Kind = "animation"
	KindAudio     Kind = "audio"
	KindDocument  Kind = "document"
)

// SpoilerEligible reports whether the kind supports Telegram's spoiler
// overlay. Only visual media can be hidden; audio and documents cannot.
func (k Kind) SpoilerEligible() bool {
	switch k {
	case KindPhoto, KindVideo, KindAnimation:
		return true
	}
	return false
}

// Groupable reports whether the kind can be part of a visual media album.
func (k Kind) Groupable() bool {
	switch k {
	case KindPhoto, KindVideo, KindAnimation:
		return true
	}
	return false
}

// Mode is the submission category of a single session. The mixed deployment
// policy is a configuration concern; an active session is always in exactly
// one of these two modes.
type Mode string

const (
	// ModeMedia collects visual/audio media only.
	ModeMedia Mode = "media"
	// ModeDocument collects documents first, then optional attached media.
	ModeDocument Mode = "document"
)

// Attachment is a single collected item, referenced by its transport file id.
type Attachment struct {
	FileID string
	Kind   Kind
}

// Limits carries the per-mode attachment ceilings.
type Limits struct {
	// Media bounds the media list in media mode.
	Media int
	// Documents bounds the primary document list in document mode.
	Documents int
	// AttachedMedia bounds the supplementary media list in document mode.
	AttachedMedia int
}

// DefaultLimits returns the ceilings used when configuration leaves them unset.
func DefaultLimits() Limits {
	return Limits{Media: 50, Documents: 10, AttachedMedia: 10}
}
