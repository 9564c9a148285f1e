package achievement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/memory"
	"github.com/skillplay/skillplay-life/internal/infrastructure/scheduler"
)

func testCatalog() *content.Static {
	return &content.Static{
		Cards: []content.LearningCard{{ID: "card-1"}, {ID: "card-2"}},
		Awards: []content.Achievement{
			{ID: content.AchievementFirstSteps, Title: "First Steps", Rarity: content.RarityCommon},
			{ID: content.AchievementKnowledgeSeeker, Title: "Knowledge Seeker", Rarity: content.RarityCommon},
			{ID: content.AchievementGameMaster, Title: "Game Master", Rarity: content.RarityRare},
			{ID: content.AchievementScholar, Title: "Scholar", Rarity: content.RarityEpic},
			{ID: content.AchievementHighScorer, Title: "High Scorer", Rarity: content.RarityLegendary},
		},
	}
}

type fixture struct {
	ctx     context.Context
	store   *progress.Store
	clock   *scheduler.Manual
	engine  *Engine
	history []Celebration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background()}
	f.clock = scheduler.NewManual(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	f.store = progress.NewStore(progress.StoreConfig{KV: memory.NewStore(), Clock: f.clock})
	f.store.Load(f.ctx)
	f.engine = NewEngine(EngineConfig{
		Catalog:       testCatalog(),
		Store:         f.store,
		Scheduler:     f.clock,
		OnCelebration: func(c Celebration) { f.history = append(f.history, c) },
	})
	return f
}

func TestEngine_EvaluateFollowsCatalogOrder(t *testing.T) {
	f := newFixture(t)

	_, ok := f.engine.Evaluate(f.store.Snapshot())
	assert.False(t, ok)

	require.NoError(t, f.store.AddGameScore(f.ctx, 150, f.clock.Now(), content.GameTapChallenge))
	_, _ = f.store.CompleteChallenge(f.ctx, "c1")

	a, ok := f.engine.Evaluate(f.store.Snapshot())
	require.True(t, ok)
	assert.Equal(t, content.AchievementFirstSteps, a.ID)
}

func TestEngine_UnlockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	first, _ := testCatalog().Achievement(content.AchievementFirstSteps)

	added, err := f.engine.Unlock(f.ctx, first)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, progress.PointsAchievement, f.store.TotalPoints())

	added, err = f.engine.Unlock(f.ctx, first)
	require.NoError(t, err)
	assert.False(t, added)

	snap := f.store.Snapshot()
	assert.Equal(t, 1, snap.UnlockedAchievementIDs.Len())
	assert.Equal(t, progress.PointsAchievement, snap.TotalPoints)
}

func TestEngine_UnlockUnknownAchievement(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Unlock(f.ctx, content.Achievement{ID: content.AchievementLifeOptimizer})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEngine_RefreshUnlocksEverythingEligible(t *testing.T) {
	f := newFixture(t)
	_, _ = f.store.CompleteChallenge(f.ctx, "c1")
	_, _ = f.store.CompleteLearningCard(f.ctx, "card-1")
	_, _ = f.store.CompleteLearningCard(f.ctx, "card-2")
	require.NoError(t, f.store.AddGameScore(f.ctx, 101, f.clock.Now(), content.GameMemory))

	unlocked, err := f.engine.Refresh(f.ctx)
	require.NoError(t, err)

	var ids []content.AchievementID
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []content.AchievementID{
		content.AchievementFirstSteps,
		content.AchievementGameMaster,
		content.AchievementScholar,
	}, ids)

	again, err := f.engine.Refresh(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.False(t, f.store.HasUnlockedAchievement(content.AchievementHighScorer), "no rule, never unlocked")
}

func TestEngine_CelebrationExpiresAndIsSuperseded(t *testing.T) {
	f := newFixture(t)
	catalog := testCatalog()
	first, _ := catalog.Achievement(content.AchievementFirstSteps)
	scholar, _ := catalog.Achievement(content.AchievementScholar)

	_, _ = f.engine.Unlock(f.ctx, first)
	current, ok := f.engine.Celebrating()
	require.True(t, ok)
	assert.Equal(t, first.ID, current.ID)

	f.clock.Advance(time.Second)
	_, _ = f.engine.Unlock(f.ctx, scholar)
	assert.Equal(t, 1, f.clock.Pending(), "older celebration cancelled")

	f.clock.Advance(1500 * time.Millisecond)
	current, _ = f.engine.Celebrating()
	assert.Equal(t, scholar.ID, current.ID)

	f.clock.Advance(time.Second)
	_, ok = f.engine.Celebrating()
	assert.False(t, ok)

	assert.Equal(t, []string{
		fmt.Sprintf("%s:true", first.ID),
		fmt.Sprintf("%s:false", first.ID),
		fmt.Sprintf("%s:true", scholar.ID),
		fmt.Sprintf("%s:false", scholar.ID),
	}, describe(f.history))
}

func TestEngine_CloseCancelsCelebration(t *testing.T) {
	f := newFixture(t)
	first, _ := testCatalog().Achievement(content.AchievementFirstSteps)

	_, _ = f.engine.Unlock(f.ctx, first)
	f.engine.Close()
	f.engine.Close()

	assert.Zero(t, f.clock.Pending())
	_, ok := f.engine.Celebrating()
	assert.False(t, ok)

	_, err := f.engine.Unlock(f.ctx, first)
	assert.ErrorIs(t, err, shared.ErrClosed)
	_, err = f.engine.Refresh(f.ctx)
	assert.ErrorIs(t, err, shared.ErrClosed)
}

func TestDefaultRules_Thresholds(t *testing.T) {
	rules := DefaultRules()
	state := progress.NewState()
	facts := Facts{}

	for i := 0; i < WellnessWarriorTips-1; i++ {
		state.ReadTipIDs[fmt.Sprintf("tip-%d", i)] = struct{}{}
	}
	assert.False(t, rules[content.AchievementWellnessWarrior](state, facts))
	state.ReadTipIDs["tip-last"] = struct{}{}
	assert.True(t, rules[content.AchievementWellnessWarrior](state, facts))

	state.CurrentStreak = StreakMasterDays
	assert.True(t, rules[content.AchievementStreakMaster](state, facts))

	assert.False(t, rules[content.AchievementScholar](state, facts), "empty catalog never qualifies")
	assert.False(t, rules[content.AchievementLifeOptimizer](state, facts))

	state.GameScores = []progress.GameScore{{Score: GameMasterScore}}
	assert.False(t, rules[content.AchievementGameMaster](state, facts), "strictly greater")
}

func describe(history []Celebration) []string {
	out := make([]string, 0, len(history))
	for _, c := range history {
		out = append(out, fmt.Sprintf("%s:%t", c.Achievement.ID, c.Active))
	}
	return out
}
