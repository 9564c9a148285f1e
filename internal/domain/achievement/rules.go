// Package achievement evaluates unlock rules against the progress aggregate.
// Evaluation is pull-based: callers invoke Refresh (typically when the
// achievements view is opened) and the engine unlocks whatever now qualifies.
package achievement

import (
	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
)

// Thresholds used by the built-in rules.
const (
	KnowledgeSeekerCards    = 5
	WellnessWarriorTips     = 10
	GameMasterScore         = 100
	StreakMasterDays        = 7
	LifeOptimizerChallenges = 50
)

// Facts are catalog-derived inputs a rule may need besides the progress state.
type Facts struct {
	LearningCardIDs []string
}

// FactsFrom collects facts from the catalog.
func FactsFrom(catalog content.Repository) Facts {
	cards := catalog.LearningCards()
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return Facts{LearningCardIDs: ids}
}

// Rule is a pure unlock predicate.
type Rule func(state progress.State, facts Facts) bool

// DefaultRules returns the built-in rule set keyed by achievement ID.
// An achievement without an entry is never unlocked.
func DefaultRules() map[content.AchievementID]Rule {
	return map[content.AchievementID]Rule{
		content.AchievementFirstSteps: func(s progress.State, _ Facts) bool {
			return s.CompletedChallengeIDs.Len() > 0
		},
		content.AchievementKnowledgeSeeker: func(s progress.State, _ Facts) bool {
			return s.CompletedLearningCardIDs.Len() >= KnowledgeSeekerCards
		},
		content.AchievementWellnessWarrior: func(s progress.State, _ Facts) bool {
			return s.ReadTipIDs.Len() >= WellnessWarriorTips
		},
		content.AchievementGameMaster: func(s progress.State, _ Facts) bool {
			return s.BestScore() > GameMasterScore
		},
		content.AchievementStreakMaster: func(s progress.State, _ Facts) bool {
			return s.CurrentStreak >= StreakMasterDays
		},
		content.AchievementScholar: func(s progress.State, f Facts) bool {
			if len(f.LearningCardIDs) == 0 {
				return false
			}
			for _, id := range f.LearningCardIDs {
				if !s.CompletedLearningCardIDs.Has(id) {
					return false
				}
			}
			return true
		},
		content.AchievementLifeOptimizer: func(s progress.State, _ Facts) bool {
			return s.CompletedChallengeIDs.Len() >= LifeOptimizerChallenges
		},
	}
}
