// Package progress owns the persisted user-progress aggregate: completed items,
// game scores, streak and total points. All mutations go through Store, which
// applies them in memory, notifies subscribers and then persists every touched
// field under its own key.
package progress

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/content"
)

// Award amounts for the point-bearing operations.
const (
	PointsChallenge    = 50
	PointsLearningCard = 25
	PointsTip          = 10
	PointsAchievement  = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// ID SET
// ══════════════════════════════════════════════════════════════════════════════

// IDSet is a set of stable identifiers. It encodes as a sorted JSON array.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int { return len(s) }

// add inserts id and reports whether it was new.
func (s IDSet) add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of strings. Duplicates collapse.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME SCORE
// ══════════════════════════════════════════════════════════════════════════════

// GameScore is one recorded mini-game result.
type GameScore struct {
	Score    int
	Date     time.Time
	GameType content.GameType
}

type gameScoreJSON struct {
	Score    int    `json:"score"`
	Date     string `json:"date"`
	GameType string `json:"gameType"`
}

// MarshalJSON encodes the score with an RFC3339 date.
func (g GameScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameScoreJSON{
		Score:    g.Score,
		Date:     g.Date.UTC().Format(time.RFC3339),
		GameType: string(g.GameType),
	})
}

// UnmarshalJSON decodes and validates a persisted score.
func (g *GameScore) UnmarshalJSON(data []byte) error {
	var raw gameScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	gt := content.GameType(raw.GameType)
	if !gt.IsValid() {
		return fmt.Errorf("unknown game type %q", raw.GameType)
	}
	date, err := time.Parse(time.RFC3339, raw.Date)
	if err != nil {
		return fmt.Errorf("parse score date: %w", err)
	}
	*g = GameScore{Score: raw.Score, Date: date, GameType: gt}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE
// ══════════════════════════════════════════════════════════════════════════════

// State is the progress aggregate. Values handed out by Store are deep copies.
type State struct {
	CompletedLearningCardIDs IDSet
	CompletedChallengeIDs    IDSet
	ReadTipIDs               IDSet
	UnlockedAchievementIDs   IDSet
	GameScores               []GameScore
	CurrentStreak            int
	BestStreak               int
	LastActiveDate           time.Time // zero until the first award
	TotalPoints              int
}

// NewState returns the first-run defaults.
func NewState() State {
	return State{
		CompletedLearningCardIDs: IDSet{},
		CompletedChallengeIDs:    IDSet{},
		ReadTipIDs:               IDSet{},
		UnlockedAchievementIDs:   IDSet{},
		GameScores:               []GameScore{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.CompletedLearningCardIDs = s.CompletedLearningCardIDs.Clone()
	out.CompletedChallengeIDs = s.CompletedChallengeIDs.Clone()
	out.ReadTipIDs = s.ReadTipIDs.Clone()
	out.UnlockedAchievementIDs = s.UnlockedAchievementIDs.Clone()
	out.GameScores = make([]GameScore, len(s.GameScores))
	copy(out.GameScores, s.GameScores)
	return out
}

// BestScore returns the highest recorded score across all games, or 0.
func (s State) BestScore() int {
	best := 0
	for _, g := range s.GameScores {
		if g.Score > best {
			best = g.Score
		}
	}
	return best
}

// BestScoreFor returns the highest recorded score for one game type, or 0.
func (s State) BestScoreFor(gameType content.GameType) int {
	best := 0
	for _, g := range s.GameScores {
		if g.GameType == gameType && g.Score > best {
			best = g.Score
		}
	}
	return best
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ChangeKind identifies the operation that produced a Change.
type ChangeKind string

const (
	ChangeChallengeCompleted    ChangeKind = "challenge_completed"
	ChangeLearningCardCompleted ChangeKind = "learning_card_completed"
	ChangeGameScoreAdded        ChangeKind = "game_score_added"
	ChangeTipRead               ChangeKind = "tip_read"
	ChangeAchievementUnlocked   ChangeKind = "achievement_unlocked"
	ChangeReset                 ChangeKind = "reset"
)

// Change describes one applied mutation.
type Change struct {
	Kind     ChangeKind
	ItemID   string
	Points   int
	Snapshot State
}

// Listener receives changes after they are applied and before they are persisted.
type Listener func(Change)
