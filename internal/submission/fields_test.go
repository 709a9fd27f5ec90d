package submission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"spaces", "cat dog", []string{"cat", "dog"}},
		{"commas", "cat,dog", []string{"cat", "dog"}},
		{"mixed separators", "cat, dog  bird", []string{"cat", "dog", "bird"}},
		{"fullwidth comma", "猫，犬", []string{"猫", "犬"}},
		{"enumeration comma", "猫、犬", []string{"猫", "犬"}},
		{"hash stripped", "#cat #dog", []string{"cat", "dog"}},
		{"lowercased", "Cat DOG", []string{"cat", "dog"}},
		{"duplicates dropped", "cat Cat #cat dog", []string{"cat", "dog"}},
		{"surrounding noise", "  ,cat,  ,dog,  ", []string{"cat", "dog"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTags(tc.raw, 30)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTagsLongTagClipped(t *testing.T) {
	long := strings.Repeat("а", 40) // cyrillic, multibyte
	got, err := ParseTags(long, 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, MaxTagRunes, len([]rune(got[0])))
}

func TestParseTagsListTruncated(t *testing.T) {
	raw := "a b c d e f"
	got, err := ParseTags(raw, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestParseTagsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", ", ,", "###"} {
		_, err := ParseTags(raw, 30)
		assert.ErrorIs(t, err, ErrValidationFailed, "raw=%q", raw)
	}
}

func TestParseLink(t *testing.T) {
	link, err := ParseLink("  https://example.org/a ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a", link)

	link, err = ParseLink("http://example.org")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org", link)

	for _, raw := range []string{"example.org", "ftp://example.org", "just text", ""} {
		_, err := ParseLink(raw)
		assert.ErrorIs(t, err, ErrValidationFailed, "raw=%q", raw)
	}
}

func TestParseLinkLengthCeiling(t *testing.T) {
	atLimit := "https://example.org/" + strings.Repeat("p", MaxLinkRunes-20)
	link, err := ParseLink(atLimit)
	require.NoError(t, err)
	assert.Equal(t, atLimit, link)

	_, err = ParseLink(atLimit + "p")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestClamps(t *testing.T) {
	assert.Equal(t, "short", ClampTitle("  short "))

	long := strings.Repeat("x", MaxTitleRunes+50)
	assert.Equal(t, MaxTitleRunes, len([]rune(ClampTitle(long))))

	longDesc := strings.Repeat("люди", MaxDescriptionRunes) // multibyte
	assert.Equal(t, MaxDescriptionRunes, len([]rune(ClampDescription(longDesc))))
}
