package storage

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/MosinFAM/chirp/internal/models"
)

const cursorTimeLayout = time.RFC3339Nano

// EncodeCursor returns the opaque cursor pointing right after post in feed order.
// The cursor carries the sort key itself, so it stays valid after the post is deleted.
func EncodeCursor(post models.Post) string {
	raw := post.CreatedAt.UTC().Format(cursorTimeLayout) + "|" + post.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor is the inverse of EncodeCursor.
func DecodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return time.Time{}, "", fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	createdAt, err := time.Parse(cursorTimeLayout, ts)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	return createdAt, id, nil
}

// olderThan reports whether p comes after the (createdAt, id) key in feed order,
// which is created_at DESC, id DESC.
func olderThan(p models.Post, createdAt time.Time, id string) bool {
	if !p.CreatedAt.Equal(createdAt) {
		return p.CreatedAt.Before(createdAt)
	}
	return p.ID < id
}
