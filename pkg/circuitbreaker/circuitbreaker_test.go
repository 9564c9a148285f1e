package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("down")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newBreaker(t *testing.T) (*Breaker, *clock, *[]string) {
	t.Helper()
	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	b := New(Config{
		Name:             "redis",
		FailureThreshold: 2,
		Cooldown:         10 * time.Second,
		Now:              c.Now,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	return b, c, &transitions
}

func fail(context.Context) error { return errDown }
func ok(context.Context) error   { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _, transitions := newBreaker(t)
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	assert.Equal(t, Counts{Requests: 2, Failures: 2, Rejected: 1, ConsecutiveFailures: 2}, b.Counts())
	assert.Equal(t, []string{"closed>open"}, *transitions)
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	b, _, _ := newBreaker(t)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	require.NoError(t, b.Execute(ctx, ok))
	_ = b.Execute(ctx, fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_TrialAfterCooldown(t *testing.T) {
	b, c, transitions := newBreaker(t)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)

	c.now = c.now.Add(10 * time.Second)
	assert.ErrorIs(t, b.Execute(ctx, fail), errDown, "trial ran and failed")
	assert.Equal(t, StateOpen, b.State())

	c.now = c.now.Add(10 * time.Second)
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>open", "open>half-open", "half-open>closed"}, *transitions)
}

func TestBreaker_OneTrialAtATime(t *testing.T) {
	b, c, _ := newBreaker(t)
	ctx := context.Background()
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	c.now = c.now.Add(time.Minute)

	err := b.Execute(ctx, func(ctx context.Context) error {
		return b.Execute(ctx, ok)
	})
	assert.ErrorIs(t, err, ErrTrialInFlight)
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	notFound := errors.New("not found")
	b := New(Config{FailureThreshold: 1, Cooldown: time.Minute, IsFailure: func(err error) bool {
		return !errors.Is(err, notFound)
	}})

	assert.ErrorIs(t, b.Execute(context.Background(), func(context.Context) error { return notFound }), notFound)
	assert.Equal(t, StateClosed, b.State())
}
