package progress

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// Store is the single source of truth for ProgressState. It is not safe for
// concurrent use; every method must be called from the serialized loop.
//
// Each mutating operation runs the same pipeline: mutate in memory, notify
// subscribers, persist the touched keys. A persist failure never rolls back
// the in-memory mutation.
type Store struct {
	kv        shared.KeyValueStore
	clock     shared.Clock
	publisher shared.EventPublisher
	logger    *logger.Logger

	state     State
	loading   bool
	listeners map[int]Listener
	nextID    int
}

// StoreConfig contains the Store's collaborators.
type StoreConfig struct {
	KV        shared.KeyValueStore
	Clock     shared.Clock
	Publisher shared.EventPublisher
	Logger    *logger.Logger
}

// NewStore creates a Store holding first-run defaults. Call Load to read the
// persisted aggregate.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Clock == nil {
		cfg.Clock = shared.SystemClock
	}
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	return &Store{
		kv:        cfg.KV,
		clock:     cfg.Clock,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With(logger.Component("progress")),
		state:     NewState(),
		listeners: make(map[int]Listener),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LOAD
// ══════════════════════════════════════════════════════════════════════════════

// Load replaces the in-memory state with the persisted one. Missing keys keep
// their defaults; unreadable or corrupt keys fall back to their defaults with a
// warning. Nothing is written while loading.
func (s *Store) Load(ctx context.Context) {
	s.loading = true
	defer func() { s.loading = false }()

	loaded := NewState()
	for _, key := range AllKeys {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			if !shared.IsNotFound(err) {
				s.logger.Warn("progress key unreadable, using default", logger.Key(key), logger.Err(err))
			}
			continue
		}
		if err := decodeField(&loaded, key, data); err != nil {
			s.logger.Warn("progress key corrupt, using default", logger.Key(key), logger.Err(err))
		}
	}
	s.state = loaded

	s.logger.Debug("progress loaded",
		logger.TotalPoints(loaded.TotalPoints),
		logger.Int("current_streak", loaded.CurrentStreak),
		logger.Int("game_scores", len(loaded.GameScores)),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// READS
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State { return s.state.Clone() }

// TotalPoints returns the current point total.
func (s *Store) TotalPoints() int { return s.state.TotalPoints }

// HasCompletedChallenge reports membership in the completed challenge set.
func (s *Store) HasCompletedChallenge(id string) bool { return s.state.CompletedChallengeIDs.Has(id) }

// HasCompletedLearningCard reports membership in the completed card set.
func (s *Store) HasCompletedLearningCard(id string) bool {
	return s.state.CompletedLearningCardIDs.Has(id)
}

// HasReadTip reports membership in the read tip set.
func (s *Store) HasReadTip(id string) bool { return s.state.ReadTipIDs.Has(id) }

// HasUnlockedAchievement reports membership in the unlocked achievement set.
func (s *Store) HasUnlockedAchievement(id content.AchievementID) bool {
	return s.state.UnlockedAchievementIDs.Has(string(id))
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Subscribe registers listener for every applied change and returns a function
// that removes it. The returned function is idempotent.
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() { delete(s.listeners, id) }
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CompleteChallenge records a completed challenge. A new ID awards 50 points.
func (s *Store) CompleteChallenge(ctx context.Context, id string) (bool, error) {
	return s.insert(ctx, ChangeChallengeCompleted, id, PointsChallenge,
		s.state.CompletedChallengeIDs, KeyCompletedChallengeIDs)
}

// CompleteLearningCard records a completed learning card. A new ID awards 25 points.
func (s *Store) CompleteLearningCard(ctx context.Context, id string) (bool, error) {
	return s.insert(ctx, ChangeLearningCardCompleted, id, PointsLearningCard,
		s.state.CompletedLearningCardIDs, KeyCompletedLearningCardIDs)
}

// ReadTip records a read lifestyle tip. A new ID awards 10 points.
func (s *Store) ReadTip(ctx context.Context, id string) (bool, error) {
	return s.insert(ctx, ChangeTipRead, id, PointsTip, s.state.ReadTipIDs, KeyReadTipIDs)
}

// UnlockAchievement records an unlocked achievement. A new ID awards 100 points.
func (s *Store) UnlockAchievement(ctx context.Context, id content.AchievementID) (bool, error) {
	return s.insert(ctx, ChangeAchievementUnlocked, string(id), PointsAchievement,
		s.state.UnlockedAchievementIDs, KeyUnlockedAchievementIDs)
}

// AddGameScore appends a score unconditionally and adds it to the point total.
// The score is not validated.
func (s *Store) AddGameScore(ctx context.Context, score int, at time.Time, gameType content.GameType) error {
	s.state.GameScores = append(s.state.GameScores, GameScore{
		Score:    score,
		Date:     at,
		GameType: gameType,
	})
	s.state.TotalPoints += score

	keys := []string{KeyGameScores, KeyTotalPoints}
	if s.state.recordActivity(s.clock.Now()) {
		keys = append(keys, streakKeys...)
	}

	s.logger.Debug("game score added", logger.GameType(string(gameType)), logger.Score(score),
		logger.TotalPoints(s.state.TotalPoints))

	s.notify(Change{Kind: ChangeGameScoreAdded, ItemID: string(gameType), Points: score})
	s.publish(shared.NewPointsAwardedEvent(string(ChangeGameScoreAdded), string(gameType), score, s.state.TotalPoints))
	return s.persist(ctx, keys...)
}

// Reset clears the aggregate to first-run defaults and deletes every progress key.
func (s *Store) Reset(ctx context.Context) error {
	previous := s.state.TotalPoints
	s.state = NewState()

	s.logger.Info("progress reset", logger.Int("previous_points", previous))
	s.notify(Change{Kind: ChangeReset})
	s.publish(shared.NewProgressResetEvent(previous))

	if s.loading {
		return nil
	}
	if err := s.kv.Delete(ctx, AllKeys...); err != nil {
		s.logger.Error("failed to delete progress keys", logger.Err(err))
		return shared.WrapError("progress", "Reset", shared.ErrExternalService, "failed to delete progress keys", err)
	}
	return nil
}

// insert is the shared pipeline for the four set-backed awards.
func (s *Store) insert(ctx context.Context, kind ChangeKind, id string, points int, set IDSet, key string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, shared.ErrEmptyItemID
	}
	if !set.add(id) {
		return false, nil
	}

	s.state.TotalPoints += points
	keys := []string{key, KeyTotalPoints}
	if s.state.recordActivity(s.clock.Now()) {
		keys = append(keys, streakKeys...)
	}

	s.logger.Debug("points awarded", logger.String("kind", string(kind)), logger.ItemID(id),
		logger.Points(points), logger.TotalPoints(s.state.TotalPoints))

	s.notify(Change{Kind: kind, ItemID: id, Points: points})
	s.publish(shared.NewPointsAwardedEvent(string(kind), id, points, s.state.TotalPoints))
	return true, s.persist(ctx, keys...)
}

func (s *Store) notify(change Change) {
	if len(s.listeners) == 0 {
		return
	}
	change.Snapshot = s.state.Clone()
	for _, l := range s.listeners {
		l(change)
	}
}

func (s *Store) publish(event shared.Event) {
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish progress event", logger.Err(err))
	}
}

// persist writes each key independently. Failures are logged, published and
// joined; successful writes are kept.
func (s *Store) persist(ctx context.Context, keys ...string) error {
	if s.loading {
		return nil
	}

	var errs []error
	for _, key := range keys {
		data, err := encodeField(&s.state, key)
		if err == nil {
			err = s.kv.Set(ctx, key, data)
		}
		if err != nil {
			s.logger.Error("failed to persist progress key", logger.Key(key), logger.Err(err))
			s.publish(shared.NewStorageFailedEvent(key, err))
			errs = append(errs, shared.WrapError("progress", "Persist", shared.ErrProgressPersist,
				"failed to persist "+key, err))
		}
	}
	return errors.Join(errs...)
}
