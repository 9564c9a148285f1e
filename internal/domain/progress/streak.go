package progress

import (
	"time"

	"github.com/skillplay/skillplay-life/pkg/timeutil"
)

// recordActivity updates the streak for an award made at now.
// Same day: unchanged. Next day: +1. Any gap (or the first award): reset to 1.
// Reports whether any streak field changed.
func (s *State) recordActivity(now time.Time) bool {
	today := timeutil.StartOfDay(now)

	if s.LastActiveDate.IsZero() {
		s.CurrentStreak = 1
	} else {
		switch days := timeutil.DaysBetween(s.LastActiveDate, today); {
		case days == 0:
			return false
		case days == 1:
			s.CurrentStreak++
		case days < 0:
			// Clock moved backwards; keep the later day as the anchor.
			return false
		default:
			s.CurrentStreak = 1
		}
	}

	s.LastActiveDate = today
	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
	}
	return true
}
