//go:generate go run go.uber.org/mock/mockgen -source=ratelimit.go -destination=../mocks/mock_limiter.go -package=mocks

// Package ratelimit answers whether a user may perform another write action
// within a sliding time window.
package ratelimit

import (
	"context"
	"time"
)

// Default policy: three actions per minute per key.
const (
	DefaultLimit  = 3
	DefaultWindow = time.Minute
)

type Limiter interface {
	// Allow records an action for key and reports whether it fits in the window.
	// Denied actions are not recorded.
	Allow(ctx context.Context, key string) (bool, error)
}
