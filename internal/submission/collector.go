package submission

// Collector accumulates attachments for one session, enforcing the kind and
// capacity rules of the active mode. It is not safe for concurrent use; the
// session store serializes access per user.
type Collector struct {
	mode      Mode
	limits    Limits
	media     []Attachment
	documents []Attachment
	switched  bool
}

// NewCollector returns an empty collector for the given mode.
func NewCollector(mode Mode, limits Limits) *Collector {
	return &Collector{mode: mode, limits: limits}
}

// Mode returns the active collection mode.
func (c *Collector) Mode() Mode { return c.mode }

// Switched reports whether the one-time mode switch was already used.
func (c *Collector) Switched() bool { return c.switched }

// Media returns the collected media items in arrival order.
func (c *Collector) Media() []Attachment { return c.media }

// Documents returns the collected primary documents in arrival order.
func (c *Collector) Documents() []Attachment { return c.documents }

// Empty reports whether nothing has been collected yet.
func (c *Collector) Empty() bool {
	return len(c.media) == 0 && len(c.documents) == 0
}

func (c *Collector) mediaCeiling() int {
	if c.mode == ModeDocument {
		return c.limits.AttachedMedia
	}
	return c.limits.Media
}

// AcceptMedia appends a media attachment. In document mode media items count
// against the attached-media ceiling. A failed accept leaves the collector
// unchanged.
func (c *Collector) AcceptMedia(a Attachment) error {
	if a.Kind == KindDocument || a.FileID == "" {
		return ErrUnsupportedKind
	}
	switch a.Kind {
	case KindPhoto, KindVideo, KindAnimation, KindAudio:
	default:
		return ErrUnsupportedKind
	}
	if len(c.media) >= c.mediaCeiling() {
		return ErrCapacityExceeded
	}
	c.media = append(c.media, a)
	return nil
}

// AcceptDocument appends a primary document. Valid only in document mode.
func (c *Collector) AcceptDocument(a Attachment) error {
	if c.mode != ModeDocument {
		return ErrUnsupportedKind
	}
	if a.Kind != KindDocument || a.FileID == "" {
		return ErrUnsupportedKind
	}
	if len(c.documents) >= c.limits.Documents {
		return ErrCapacityExceeded
	}
	c.documents = append(c.documents, a)
	return nil
}

// Switch changes the collection mode once per session. Held items are
// re-validated against the target mode: anything that would be invalid or
// over the new ceiling fails the switch, nothing is dropped.
func (c *Collector) Switch(target Mode) error {
	if c.switched {
		return ErrModeSwitched
	}
	if target == c.mode {
		return nil
	}
	switch target {
	case ModeDocument:
		// Held media become attached media and must fit the smaller ceiling.
		if len(c.media) > c.limits.AttachedMedia {
			return ErrIncompatibleItems
		}
	case ModeMedia:
		// Documents have no place in media mode.
		if len(c.documents) > 0 {
			return ErrIncompatibleItems
		}
		if len(c.media) > c.limits.Media {
			return ErrIncompatibleItems
		}
	default:
		return ErrUnsupportedKind
	}
	c.mode = target
	c.switched = true
	return nil
}
