package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(DefaultLimit, DefaultWindow)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user_1")
		require.NoError(t, err)
		assert.True(t, allowed, "action %d", i+1)
		clock = clock.Add(10 * time.Second)
	}

	allowed, err := limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, allowed, "fourth action within the window")

	allowed, err = limiter.Allow(ctx, "user_2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are independent")

	// The first action (t=0) leaves the window at t=60s.
	clock = time.Date(2024, 1, 1, 12, 1, 0, 1, time.UTC)
	allowed, err = limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	limiter := NewMemoryLimiter(5, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Allow(context.Background(), "user_1")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, granted)
}
