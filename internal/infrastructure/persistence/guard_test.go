package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/memory"
	"github.com/skillplay/skillplay-life/pkg/circuitbreaker"
	"github.com/skillplay/skillplay-life/pkg/logger"
	"github.com/skillplay/skillplay-life/pkg/retry"
)

func TestGuard_OpensOnBackendFailures(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	inner.FailWrites("totalPoints", errors.New("connection reset"))

	g := Guard(inner, circuitbreaker.Config{Name: "redis", FailureThreshold: 2, Cooldown: time.Hour})

	for range 2 {
		err := g.Set(ctx, "totalPoints", []byte("10"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrServiceUnavailable)
	}
	assert.Equal(t, circuitbreaker.StateOpen, g.Breaker().State())

	err := g.Set(ctx, "other", []byte("1"))
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)

	_, err = g.Get(ctx, "other")
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, 0, inner.Keys())
}

func TestGuard_IgnoresNotFoundAndBadInput(t *testing.T) {
	ctx := context.Background()
	g := Guard(memory.NewStore(), circuitbreaker.Config{FailureThreshold: 1, Cooldown: time.Hour})

	_, err := g.Get(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))
	assert.ErrorIs(t, g.Set(ctx, "", nil), shared.ErrInvalidInput)
	assert.Equal(t, circuitbreaker.StateClosed, g.Breaker().State())

	require.NoError(t, g.Set(ctx, "k", []byte("v")))
	v, err := g.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
	require.NoError(t, g.Delete(ctx, "k"))
	require.NoError(t, g.Close())
}

func TestConnect_RetriesTransientErrors(t *testing.T) {
	opts := Options{Driver: DriverRedis, Connect: retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond}}
	calls := 0
	kv, err := connect(context.Background(), opts, logger.Discard(), func(context.Context) (shared.KeyValueStore, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return memory.NewStore(), nil
	})
	require.NoError(t, err)
	assert.NotNil(t, kv)
	assert.Equal(t, 3, calls)
}

func TestConnect_InvalidConfigIsNotRetried(t *testing.T) {
	opts := Options{Driver: DriverS3, Connect: retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond}}
	calls := 0
	_, err := connect(context.Background(), opts, logger.Discard(), func(context.Context) (shared.KeyValueStore, error) {
		calls++
		return nil, shared.NewDomainError("s3", "New", shared.ErrInvalidInput, "bucket is required")
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}
