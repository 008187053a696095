package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("cart-remote", config.BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		err := b.Do(ctx, func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.True(t, IsOpen(err))
	assert.False(t, called, "open breaker must not call through")
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := New("cart-remote", config.BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute}, nil)

	err := b.Do(context.Background(), func(context.Context) error { return context.Canceled })
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "closed", b.State())
}

func TestRunReturnsTypedResult(t *testing.T) {
	b := New("typed", config.BreakerConfig{}, nil)

	got, err := Run(context.Background(), b, func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	var nilBreaker *Breaker
	n, err := Run(context.Background(), nilBreaker, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "closed", nilBreaker.State())
}
