package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackKind(t *testing.T) {
	tests := []struct {
		track Track
		kind  TrackKind
	}{
		{"", TrackNone},
		{"dQw4w9WgXcQ", TrackCatalogID},
		{"aaaaaaaaaaa", TrackCatalogID},
		{"short", TrackURL},
		{"https://example.com/stream.mp3", TrackURL},
		{"twelve-chars", TrackURL},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.track.Kind(), "track %q", tt.track)
	}
}

func TestTrackPredicates(t *testing.T) {
	assert.True(t, Track("dQw4w9WgXcQ").IsCatalogID())
	assert.False(t, Track("dQw4w9WgXcQ").IsURL())
	assert.True(t, Track("https://example.com/a.mp3").IsURL())
	assert.False(t, Track("").IsURL())
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName("Alice"))
	assert.ErrorIs(t, ValidateDisplayName(""), ErrNameEmpty)
	assert.ErrorIs(t, ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLen+1)), ErrNameTooLong)
	assert.NoError(t, ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLen)))
}
