package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/messaging"
)

func TestCollector_CountsEvents(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	c := NewCollector(bus.Metrics())
	require.NoError(t, c.Attach(bus))

	events := []shared.Event{
		shared.NewGateDecidedEvent("native", "battery_full"),
		shared.NewPointsAwardedEvent("challenge_completed", "c1", 50, 50),
		shared.NewPointsAwardedEvent("tip_read", "t1", 10, 60),
		shared.NewPointsAwardedEvent("tip_read", "t2", 10, 70),
		shared.NewAchievementUnlockedEvent("first_steps", "First Steps", "common"),
		shared.NewChallengeCompletedEvent("c1", "tpl", 8),
		shared.NewGameFinishedEvent("s1", "tap_challenge", "expired", 12, 12, true),
		shared.NewStorageFailedEvent("totalPoints", errors.New("disk full")),
		shared.NewScreenChangedEvent("loading", "main"),
	}
	for _, e := range events {
		require.NoError(t, bus.Publish(e))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(c.gateDecisions.WithLabelValues("native", "battery_full")))
	assert.Equal(t, 50.0, testutil.ToFloat64(c.pointsAwarded.WithLabelValues("challenge_completed")))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.pointsAwarded.WithLabelValues("tip_read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.achievementsUnlocked.WithLabelValues("first_steps")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.challengesCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.gamesFinished.WithLabelValues("tap_challenge", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageWriteErrors.WithLabelValues("totalPoints")))
}

func TestServer_ServesMetricsAndHealth(t *testing.T) {
	c := NewCollector(nil)
	require.NoError(t, c.Observe(shared.NewGateDecidedEvent("remote", "remote_response")))

	cfg := DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	s := NewServer(cfg, c, nil)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	assert.Error(t, s.Start(), "second start")

	body := get(t, "http://"+s.Addr()+"/metrics")
	assert.Contains(t, body, `skillplay_gate_decisions_total{reason="remote_response",route="remote"} 1`)

	assert.Contains(t, get(t, "http://"+s.Addr()+"/healthz"), "ok")

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, s.Shutdown(context.Background()))
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
