package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillplay/skillplay-life/pkg/timeutil"
)

// Persisted keys. Each field of the aggregate lives under its own key.
const (
	KeyCompletedLearningCardIDs = "completedLearningCardIds"
	KeyGameScores               = "gameScores"
	KeyReadTipIDs               = "readTipIds"
	KeyCompletedChallengeIDs    = "completedChallengeIds"
	KeyUnlockedAchievementIDs   = "unlockedAchievementIds"
	KeyCurrentStreak            = "currentStreak"
	KeyBestStreak               = "bestStreak"
	KeyLastActiveDate           = "lastActiveDate"
	KeyTotalPoints              = "totalPoints"
)

// AllKeys lists every progress key in a stable order.
var AllKeys = []string{
	KeyCompletedLearningCardIDs,
	KeyGameScores,
	KeyReadTipIDs,
	KeyCompletedChallengeIDs,
	KeyUnlockedAchievementIDs,
	KeyCurrentStreak,
	KeyBestStreak,
	KeyLastActiveDate,
	KeyTotalPoints,
}

// streakKeys are rewritten whenever activity is recorded.
var streakKeys = []string{KeyCurrentStreak, KeyBestStreak, KeyLastActiveDate}

// encodeField serializes the named field of s.
func encodeField(s *State, key string) ([]byte, error) {
	switch key {
	case KeyCompletedLearningCardIDs:
		return json.Marshal(s.CompletedLearningCardIDs)
	case KeyGameScores:
		return json.Marshal(s.GameScores)
	case KeyReadTipIDs:
		return json.Marshal(s.ReadTipIDs)
	case KeyCompletedChallengeIDs:
		return json.Marshal(s.CompletedChallengeIDs)
	case KeyUnlockedAchievementIDs:
		return json.Marshal(s.UnlockedAchievementIDs)
	case KeyCurrentStreak:
		return json.Marshal(s.CurrentStreak)
	case KeyBestStreak:
		return json.Marshal(s.BestStreak)
	case KeyLastActiveDate:
		if s.LastActiveDate.IsZero() {
			return json.Marshal("")
		}
		return json.Marshal(timeutil.FormatDate(s.LastActiveDate))
	case KeyTotalPoints:
		return json.Marshal(s.TotalPoints)
	}
	return nil, fmt.Errorf("unknown progress key %q", key)
}

// decodeField parses data into the named field of s. On error s is untouched.
func decodeField(s *State, key string, data []byte) error {
	switch key {
	case KeyCompletedLearningCardIDs:
		return decodeSet(data, &s.CompletedLearningCardIDs)
	case KeyGameScores:
		var scores []GameScore
		if err := json.Unmarshal(data, &scores); err != nil {
			return err
		}
		if scores == nil {
			scores = []GameScore{}
		}
		s.GameScores = scores
		return nil
	case KeyReadTipIDs:
		return decodeSet(data, &s.ReadTipIDs)
	case KeyCompletedChallengeIDs:
		return decodeSet(data, &s.CompletedChallengeIDs)
	case KeyUnlockedAchievementIDs:
		return decodeSet(data, &s.UnlockedAchievementIDs)
	case KeyCurrentStreak:
		return decodeCount(data, &s.CurrentStreak)
	case KeyBestStreak:
		return decodeCount(data, &s.BestStreak)
	case KeyLastActiveDate:
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			s.LastActiveDate = time.Time{}
			return nil
		}
		day, err := timeutil.ParseDate(raw)
		if err != nil {
			return err
		}
		s.LastActiveDate = day
		return nil
	case KeyTotalPoints:
		// Game scores are not validated, so the total may legitimately be negative.
		return json.Unmarshal(data, &s.TotalPoints)
	}
	return fmt.Errorf("unknown progress key %q", key)
}

func decodeSet(data []byte, dst *IDSet) error {
	var set IDSet
	if err := json.Unmarshal(data, &set); err != nil {
		return err
	}
	if set == nil {
		set = IDSet{}
	}
	*dst = set
	return nil
}

func decodeCount(data []byte, dst *int) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative value %d", n)
	}
	*dst = n
	return nil
}
