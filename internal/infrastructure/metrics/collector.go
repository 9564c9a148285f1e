// Package metrics turns domain events into Prometheus series and serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/messaging"
)

const namespace = "skillplay"

// Collector owns a private registry and the domain counters.
type Collector struct {
	registry *prometheus.Registry

	gateDecisions        *prometheus.CounterVec
	pointsAwarded        *prometheus.CounterVec
	achievementsUnlocked *prometheus.CounterVec
	gamesFinished        *prometheus.CounterVec
	challengesCompleted  prometheus.Counter
	storageWriteErrors   *prometheus.CounterVec
}

// NewCollector creates the collectors on a fresh registry. When busMetrics is
// non-nil the event bus counters are exported too.
func NewCollector(busMetrics *messaging.EventBusMetrics) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Startup gate decisions by route and reason.",
		}, []string{"route", "reason"}),
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points awarded by source.",
		}, []string{"source"}),
		achievementsUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked by id.",
		}, []string{"achievement"}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished mini-games by type and outcome.",
		}, []string{"game_type", "outcome"}),
		challengesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_completed_total",
			Help:      "Daily challenges brought to their target.",
		}),
		storageWriteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_write_errors_total",
			Help:      "Failed progress writes by key.",
		}, []string{"key"}),
	}

	c.registry.MustRegister(
		c.gateDecisions,
		c.pointsAwarded,
		c.achievementsUnlocked,
		c.gamesFinished,
		c.challengesCompleted,
		c.storageWriteErrors,
		collectors.NewGoCollector(),
	)

	if busMetrics != nil {
		c.registry.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events published on the in-process bus.",
			}, func() float64 { return float64(busMetrics.Snapshot().TotalPublished) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_handler_failures_total",
				Help:      "Event handlers that returned an error or panicked.",
			}, func() float64 { return float64(busMetrics.Snapshot().HandlerFailures) }),
		)
	}
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Attach subscribes the collector to every event on the bus.
func (c *Collector) Attach(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(c.Observe)
}

// Observe records one event. Unknown events are ignored.
func (c *Collector) Observe(event shared.Event) error {
	switch e := event.(type) {
	case shared.GateDecidedEvent:
		c.gateDecisions.WithLabelValues(e.Route, e.Reason).Inc()
	case shared.PointsAwardedEvent:
		c.pointsAwarded.WithLabelValues(e.Source).Add(float64(e.Points))
	case shared.AchievementUnlockedEvent:
		c.achievementsUnlocked.WithLabelValues(e.AchievementID).Inc()
	case shared.GameFinishedEvent:
		c.gamesFinished.WithLabelValues(e.GameType, e.Outcome).Inc()
	case shared.ChallengeCompletedEvent:
		c.challengesCompleted.Inc()
	case shared.StorageFailedEvent:
		c.storageWriteErrors.WithLabelValues(e.Key).Inc()
	}
	return nil
}
