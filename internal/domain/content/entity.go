// Package content defines the read-only catalog the client engine reads from:
// onboarding slides, learning cards, lifestyle tips, challenge templates, games
// and achievements. Nothing in this package is computed over; the engine only
// looks entities up by their stable IDs.
package content

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementID is the stable identifier of an achievement. Rules and the
// persisted unlocked set are keyed by it, never by title.
type AchievementID string

const (
	AchievementFirstSteps      AchievementID = "first_steps"
	AchievementKnowledgeSeeker AchievementID = "knowledge_seeker"
	AchievementGameMaster      AchievementID = "game_master"
	AchievementWellnessWarrior AchievementID = "wellness_warrior"
	AchievementStreakMaster    AchievementID = "streak_master"
	AchievementScholar         AchievementID = "scholar"
	AchievementHighScorer      AchievementID = "high_scorer"
	AchievementLifeOptimizer   AchievementID = "life_optimizer"
)

// AchievementCategory groups achievements in the UI.
type AchievementCategory string

const (
	CategoryEducation  AchievementCategory = "education"
	CategoryGames      AchievementCategory = "games"
	CategoryLifestyle  AchievementCategory = "lifestyle"
	CategoryChallenges AchievementCategory = "challenges"
)

// IsValid checks if the category is known.
func (c AchievementCategory) IsValid() bool {
	switch c {
	case CategoryEducation, CategoryGames, CategoryLifestyle, CategoryChallenges:
		return true
	}
	return false
}

// Rarity of an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IsValid checks if the rarity is known.
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// TipCategory classifies lifestyle tips.
type TipCategory string

const (
	TipHealth       TipCategory = "health"
	TipProductivity TipCategory = "productivity"
	TipMindfulness  TipCategory = "mindfulness"
	TipFitness      TipCategory = "fitness"
)

// IsValid checks if the tip category is known.
func (c TipCategory) IsValid() bool {
	switch c {
	case TipHealth, TipProductivity, TipMindfulness, TipFitness:
		return true
	}
	return false
}

// GameType identifies a mini-game. The string form is what gets persisted
// with every game score.
type GameType string

const (
	GameTapChallenge GameType = "tap_challenge"
	GameMemory       GameType = "memory_game"
	GameReactionTime GameType = "reaction_time"
)

// AllGameTypes lists the known mini-games in display order.
var AllGameTypes = []GameType{GameTapChallenge, GameMemory, GameReactionTime}

// IsValid checks if the game type is known.
func (g GameType) IsValid() bool {
	switch g {
	case GameTapChallenge, GameMemory, GameReactionTime:
		return true
	}
	return false
}

// ParseGameType parses user input such as "tap", "tap_challenge" or "Memory Game".
func ParseGameType(s string) (GameType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "tap", "tap_challenge":
		return GameTapChallenge, nil
	case "memory", "memory_game":
		return GameMemory, nil
	case "reaction", "reaction_time":
		return GameReactionTime, nil
	}
	return "", fmt.Errorf("unknown game type %q", s)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSlide is one page of the first-run walkthrough.
type OnboardingSlide struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Icon     string `yaml:"icon"`
}

// LearningCard is an educational article. Completing it awards points once.
type LearningCard struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Content         string `yaml:"content"`
	Category        string `yaml:"category"`
	ReadTimeMinutes int    `yaml:"read_time_minutes"`
	Icon            string `yaml:"icon"`
}

// LifestyleTip is a short wellbeing tip. Reading it awards points once.
type LifestyleTip struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Category    TipCategory `yaml:"category"`
	Icon        string      `yaml:"icon"`
}

// ChallengeTemplate is the catalog definition a daily challenge is instantiated from.
type ChallengeTemplate struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	TargetValue int    `yaml:"target_value"`
	Unit        string `yaml:"unit"`
	Icon        string `yaml:"icon"`
}

// Game describes a mini-game entry in the games menu.
type Game struct {
	Type        GameType `yaml:"type"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Icon        string   `yaml:"icon"`
}

// Achievement is an immutable catalog definition. Whether it is unlocked lives
// in the progress aggregate.
type Achievement struct {
	ID          AchievementID       `yaml:"id"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Category    AchievementCategory `yaml:"category"`
	Rarity      Rarity              `yaml:"rarity"`
	Icon        string              `yaml:"icon"`
}
