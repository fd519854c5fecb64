package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterPerKey(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(2, time.Minute, nil)

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "h1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, int64(2), res.Limit)

	res, err = l.Allow(ctx, "h2")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "households are limited independently")
}

func TestLimiterIgnoresEmptyKey(t *testing.T) {
	l := NewLimiter(1, time.Minute, nil)
	for i := 0; i < 5; i++ {
		res, err := l.Allow(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}
