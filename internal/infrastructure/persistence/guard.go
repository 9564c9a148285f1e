package persistence

import (
	"context"
	"errors"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/circuitbreaker"
)

var _ shared.KeyValueStore = (*GuardedStore)(nil)

// GuardedStore fails fast with ErrServiceUnavailable while a network backend
// keeps failing, so a dead server does not stall every action on the loop
// for a full dial timeout.
type GuardedStore struct {
	inner   shared.KeyValueStore
	breaker *circuitbreaker.Breaker
}

// Guard wraps kv with a breaker. Missing keys, invalid input and caller
// cancellation do not count as backend failures.
func Guard(kv shared.KeyValueStore, cfg circuitbreaker.Config) *GuardedStore {
	cfg.IsFailure = isBackendFailure
	return &GuardedStore{inner: kv, breaker: circuitbreaker.New(cfg)}
}

func isBackendFailure(err error) bool {
	switch {
	case errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Breaker exposes the breaker state.
func (g *GuardedStore) Breaker() *circuitbreaker.Breaker { return g.breaker }

// Get returns the value stored under key.
func (g *GuardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := g.execute(ctx, "Get", func(ctx context.Context) error {
		var err error
		value, err = g.inner.Get(ctx, key)
		return err
	})
	return value, err
}

// Set stores value under key.
func (g *GuardedStore) Set(ctx context.Context, key string, value []byte) error {
	return g.execute(ctx, "Set", func(ctx context.Context) error {
		return g.inner.Set(ctx, key, value)
	})
}

// Delete removes keys.
func (g *GuardedStore) Delete(ctx context.Context, keys ...string) error {
	return g.execute(ctx, "Delete", func(ctx context.Context) error {
		return g.inner.Delete(ctx, keys...)
	})
}

// Close closes the wrapped store.
func (g *GuardedStore) Close() error { return g.inner.Close() }

func (g *GuardedStore) execute(ctx context.Context, op string, fn func(context.Context) error) error {
	err := g.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrTrialInFlight) {
		return shared.WrapError("storage", op, shared.ErrServiceUnavailable,
			g.breaker.Name()+" storage unavailable", err)
	}
	return err
}
