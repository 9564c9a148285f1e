// Package eventhandler contains domain event handlers subscribed to the
// in-process bus. The bus delivers synchronously, so handlers run on whatever
// goroutine published the event (the client loop).
package eventhandler

import (
	"sort"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON POINTS AWARDED HANDLER
// Watches the running point total and reports each milestone the first time
// an award carries the total across it.
// ═══════════════════════════════════════════════════════════════════════════

// Milestone is a point total worth announcing.
type Milestone struct {
	Threshold   int
	TotalPoints int
}

// PointsAwardedConfig configures the handler.
type PointsAwardedConfig struct {
	// Milestones are point totals, in any order.
	Milestones []int

	// OnMilestone is called for every crossed milestone. Optional.
	OnMilestone func(Milestone)
}

// DefaultPointsAwardedConfig returns the default milestone ladder.
func DefaultPointsAwardedConfig() PointsAwardedConfig {
	return PointsAwardedConfig{
		Milestones: []int{100, 250, 500, 1000, 2500, 5000},
	}
}

// OnPointsAwardedHandler handles PointsAwardedEvent.
type OnPointsAwardedHandler struct {
	milestones []int
	notify     func(Milestone)
	logger     *logger.Logger
}

// NewOnPointsAwardedHandler creates the handler.
func NewOnPointsAwardedHandler(config PointsAwardedConfig, log *logger.Logger) *OnPointsAwardedHandler {
	if log == nil {
		log = logger.Discard()
	}
	if config.OnMilestone == nil {
		config.OnMilestone = func(Milestone) {}
	}
	ms := append([]int(nil), config.Milestones...)
	sort.Ints(ms)

	return &OnPointsAwardedHandler{
		milestones: ms,
		notify:     config.OnMilestone,
		logger:     log.With(logger.String("handler", "on_points_awarded")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnPointsAwardedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.PointsAwardedEvent)
	if !ok {
		return nil
	}

	before := e.TotalPoints - e.Points
	for _, m := range h.milestones {
		if before < m && e.TotalPoints >= m {
			h.logger.Info("milestone reached",
				logger.Int("milestone", m),
				logger.TotalPoints(e.TotalPoints),
				logger.String("source", e.Source),
			)
			h.notify(Milestone{Threshold: m, TotalPoints: e.TotalPoints})
		}
	}
	return nil
}

// Register subscribes the handler to bus.
func (h *OnPointsAwardedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventPointsAwarded, h.Handle)
}
