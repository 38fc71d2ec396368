package feed

import (
	"testing"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmojiOnly(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"🐦", true},
		{"🔥 🔥", true},
		{"👍🏽", true},
		{"👨‍👩‍👧", true},
		{"❤️", true},
		{"🇫🇷", true},
		{"", false},
		{"   ", false},
		{"hello", false},
		{"🐦 tweet", false},
		{"1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isEmojiOnly(tt.content), "%q", tt.content)
	}
}

func TestParseContentPolicy(t *testing.T) {
	p, err := ParseContentPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAny, p)

	p, err = ParseContentPolicy("Emoji")
	require.NoError(t, err)
	assert.Equal(t, PolicyEmoji, p)

	_, err = ParseContentPolicy("strict")
	assert.Error(t, err)
}

func TestValidateRequest_Messages(t *testing.T) {
	err := validateRequest(CreateRequest{})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.EqualError(t, err, "validation error: content is required")

	err = validateRequest(ListRequest{Limit: 31})
	assert.EqualError(t, err, "validation error: limit must be at most 30")
}
