package submission

import (
	"regexp"
	"strings"
)

const (
	// MaxTagRunes bounds a single tag after normalization.
	MaxTagRunes = 30
	// MaxTitleRunes bounds the optional title field.
	MaxTitleRunes = 100
	// MaxDescriptionRunes bounds the optional description field.
	MaxDescriptionRunes = 600
	// MaxLinkRunes bounds the optional link field. A link cannot be clipped
	// without breaking it, so longer input is rejected outright.
	MaxLinkRunes = 300
)

// Tags are separated by commas or whitespace; the full-width comma and
// ideographic enumeration comma are common in CJK input.
var tagSplitPattern = regexp.MustCompile(`[,\s，、]+`)

// ParseTags splits raw tag input into a normalized list: trimmed, lowercased,
// leading '#' stripped, duplicates dropped keeping first-seen order, each tag
// clipped to MaxTagRunes and the list silently truncated to max entries.
// Returns ErrValidationFailed when no tag survives normalization.
func ParseTags(raw string, max int) ([]string, error) {
	if max <= 0 {
		max = 30
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range tagSplitPattern.Split(raw, -1) {
		tag := strings.ToLower(strings.TrimSpace(part))
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		if r := []rune(tag); len(r) > MaxTagRunes {
			tag = string(r[:MaxTagRunes])
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == max {
			break
		}
	}
	if len(tags) == 0 {
		return nil, ErrValidationFailed
	}
	return tags, nil
}

// ParseLink validates an optional link value: it must carry an http or https
// scheme and fit MaxLinkRunes. The caller handles skip signals before getting
// here.
func ParseLink(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return "", ErrValidationFailed
	}
	if len([]rune(link)) > MaxLinkRunes {
		return "", ErrValidationFailed
	}
	return link, nil
}

// ClampTitle trims and clips a title to its length ceiling.
func ClampTitle(raw string) string {
	return clampRunes(strings.TrimSpace(raw), MaxTitleRunes)
}

// ClampDescription trims and clips a description to its length ceiling.
func ClampDescription(raw string) string {
	return clampRunes(strings.TrimSpace(raw), MaxDescriptionRunes)
}

func clampRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
