package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that happened
// in the client session.
const (
	// Startup events
	EventGateDecided   EventType = "gate.decided"
	EventScreenChanged EventType = "navigation.screen_changed"

	// Progress events
	EventPointsAwarded EventType = "progress.points_awarded"
	EventProgressReset EventType = "progress.reset"
	EventStorageFailed EventType = "progress.storage_failed"

	// Engagement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventChallengeCompleted  EventType = "challenge.completed"
	EventGameFinished        EventType = "game.finished"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for logging and serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Startup Events
// ═══════════════════════════════════════════════════════════════════════════

// GateDecidedEvent is emitted once per launch when the device gate resolves.
type GateDecidedEvent struct {
	BaseEvent
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

// Payload implements Event interface.
func (e GateDecidedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"route":  e.Route,
		"reason": e.Reason,
	}
}

// NewGateDecidedEvent creates a GateDecidedEvent.
func NewGateDecidedEvent(route, reason string) GateDecidedEvent {
	return GateDecidedEvent{
		BaseEvent: NewBaseEvent(EventGateDecided, "gate"),
		Route:     route,
		Reason:    reason,
	}
}

// ScreenChangedEvent is emitted on every navigator transition.
type ScreenChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// Payload implements Event interface.
func (e ScreenChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from": e.From,
		"to":   e.To,
	}
}

// NewScreenChangedEvent creates a ScreenChangedEvent.
func NewScreenChangedEvent(from, to string) ScreenChangedEvent {
	return ScreenChangedEvent{
		BaseEvent: NewBaseEvent(EventScreenChanged, "navigator"),
		From:      from,
		To:        to,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsAwardedEvent is emitted when an award-bearing operation adds points.
type PointsAwardedEvent struct {
	BaseEvent
	Source      string `json:"source"`
	ItemID      string `json:"item_id"`
	Points      int    `json:"points"`
	TotalPoints int    `json:"total_points"`
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"source":       e.Source,
		"item_id":      e.ItemID,
		"points":       e.Points,
		"total_points": e.TotalPoints,
	}
}

// NewPointsAwardedEvent creates a PointsAwardedEvent.
func NewPointsAwardedEvent(source, itemID string, points, total int) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent:   NewBaseEvent(EventPointsAwarded, "progress"),
		Source:      source,
		ItemID:      itemID,
		Points:      points,
		TotalPoints: total,
	}
}

// ProgressResetEvent is emitted when the aggregate is cleared to defaults.
type ProgressResetEvent struct {
	BaseEvent
	PreviousPoints int `json:"previous_points"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_points": e.PreviousPoints,
	}
}

// NewProgressResetEvent creates a ProgressResetEvent.
func NewProgressResetEvent(previousPoints int) ProgressResetEvent {
	return ProgressResetEvent{
		BaseEvent:      NewBaseEvent(EventProgressReset, "progress"),
		PreviousPoints: previousPoints,
	}
}

// StorageFailedEvent is emitted when a single persisted key fails to write.
type StorageFailedEvent struct {
	BaseEvent
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Payload implements Event interface.
func (e StorageFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"key":   e.Key,
		"error": e.Error,
	}
}

// NewStorageFailedEvent creates a StorageFailedEvent.
func NewStorageFailedEvent(key string, err error) StorageFailedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return StorageFailedEvent{
		BaseEvent: NewBaseEvent(EventStorageFailed, "progress"),
		Key:       key,
		Error:     msg,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Engagement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted on a first-time unlock.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
	Rarity        string `json:"rarity"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"title":          e.Title,
		"rarity":         e.Rarity,
	}
}

// NewAchievementUnlockedEvent creates an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(id, title, rarity string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, id),
		AchievementID: id,
		Title:         title,
		Rarity:        rarity,
	}
}

// ChallengeCompletedEvent is emitted when the active challenge reaches its target.
type ChallengeCompletedEvent struct {
	BaseEvent
	ChallengeID string `json:"challenge_id"`
	TemplateID  string `json:"template_id"`
	Target      int    `json:"target"`
}

// Payload implements Event interface.
func (e ChallengeCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"challenge_id": e.ChallengeID,
		"template_id":  e.TemplateID,
		"target":       e.Target,
	}
}

// NewChallengeCompletedEvent creates a ChallengeCompletedEvent.
func NewChallengeCompletedEvent(challengeID, templateID string, target int) ChallengeCompletedEvent {
	return ChallengeCompletedEvent{
		BaseEvent:   NewBaseEvent(EventChallengeCompleted, challengeID),
		ChallengeID: challengeID,
		TemplateID:  templateID,
		Target:      target,
	}
}

// GameFinishedEvent is emitted when a game session enters the finished state.
type GameFinishedEvent struct {
	BaseEvent
	GameType     string `json:"game_type"`
	Score        int    `json:"score"`
	HighScore    int    `json:"high_score"`
	Outcome      string `json:"outcome"` // "expired" or "stopped"
	NewHighScore bool   `json:"new_high_score"`
}

// Payload implements Event interface.
func (e GameFinishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"game_type":      e.GameType,
		"score":          e.Score,
		"high_score":     e.HighScore,
		"outcome":        e.Outcome,
		"new_high_score": e.NewHighScore,
	}
}

// NewGameFinishedEvent creates a GameFinishedEvent.
func NewGameFinishedEvent(sessionID, gameType, outcome string, score, highScore int, newHigh bool) GameFinishedEvent {
	return GameFinishedEvent{
		BaseEvent:    NewBaseEvent(EventGameFinished, sessionID),
		GameType:     gameType,
		Score:        score,
		HighScore:    highScore,
		Outcome:      outcome,
		NewHighScore: newHigh,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
