package messaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

func TestInMemoryEventBus_DeliversInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var got []string
	require.NoError(t, bus.Subscribe(shared.EventGateDecided, func(e shared.Event) error {
		got = append(got, "typed:"+e.Payload()["route"].(string))
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		got = append(got, "all:"+string(e.EventType()))
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewGateDecidedEvent("native", "battery_full")))
	require.NoError(t, bus.Publish(shared.NewScreenChangedEvent("loading", "main")))

	assert.Equal(t, []string{
		"typed:native",
		"all:gate.decided",
		"all:navigation.screen_changed",
	}, got)
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventGateDecided))
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	calls := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("nope") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { calls++; return nil }))

	assert.NoError(t, bus.Publish(shared.NewChallengeCompletedEvent("c1", "t1", 8)))
	assert.Equal(t, 1, calls)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(3), snap.TotalHandlerExecs)
	assert.Equal(t, int64(2), snap.HandlerFailures)
}

func TestInMemoryEventBus_Close(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewGateDecidedEvent("remote", "status")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Nil(t, bus.Metrics())
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	assert.ErrorIs(t, bus.Subscribe(shared.EventGameFinished, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}
