// Package challenge tracks the single active daily challenge: which template
// was chosen, how far the user got, and the completion celebration.
package challenge

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/timeutil"
)

// DailyChallenge is one instantiated challenge.
type DailyChallenge struct {
	ID              string
	TemplateID      string
	Title           string
	Description     string
	Unit            string
	TargetValue     int
	CurrentProgress int
	Date            time.Time
}

// IsCompleted is derived from progress.
func (c DailyChallenge) IsCompleted() bool {
	return c.CurrentProgress == c.TargetValue
}

// Percent returns progress in [0, 1].
func (c DailyChallenge) Percent() float64 {
	if c.TargetValue <= 0 {
		return 0
	}
	return float64(c.CurrentProgress) / float64(c.TargetValue)
}

func newInstance(t content.ChallengeTemplate, id string, now time.Time) (DailyChallenge, error) {
	if t.TargetValue <= 0 {
		return DailyChallenge{}, fmt.Errorf("template %s has target %d: %w", t.ID, t.TargetValue, shared.ErrInvalidTarget)
	}
	return DailyChallenge{
		ID:          id,
		TemplateID:  t.ID,
		Title:       t.Title,
		Description: t.Description,
		Unit:        t.Unit,
		TargetValue: t.TargetValue,
		Date:        timeutil.StartOfDay(now),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECTORS
// ══════════════════════════════════════════════════════════════════════════════

// Selection policy names accepted by NewSelector.
const (
	SelectionRandom = "random"
	SelectionDaily  = "daily"
)

// Selector picks today's challenge from the catalog templates.
type Selector interface {
	Select(templates []content.ChallengeTemplate, now time.Time) (DailyChallenge, error)
}

// NewSelector returns the selector for a policy name.
func NewSelector(policy string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", SelectionRandom:
		return NewRandomSelector(nil), nil
	case SelectionDaily:
		return DailySelector{}, nil
	}
	return nil, shared.NewDomainError("challenge", "NewSelector", shared.ErrInvalidInput,
		fmt.Sprintf("unknown selection policy %q", policy))
}

// RandomSelector picks a uniformly random template on every call and gives the
// instance a fresh UUID.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector creates a RandomSelector. A nil rng uses a randomly seeded one.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomSelector{rng: rng}
}

// Select implements Selector.
func (s *RandomSelector) Select(templates []content.ChallengeTemplate, now time.Time) (DailyChallenge, error) {
	if len(templates) == 0 {
		return DailyChallenge{}, shared.ErrNoChallengeTemplates
	}
	s.mu.Lock()
	idx := s.rng.IntN(len(templates))
	s.mu.Unlock()

	return newInstance(templates[idx], uuid.NewString(), now)
}

// DailySelector derives the template from the calendar date, so every restart
// on the same day yields the same challenge with the same instance ID.
type DailySelector struct{}

// Select implements Selector.
func (DailySelector) Select(templates []content.ChallengeTemplate, now time.Time) (DailyChallenge, error) {
	if len(templates) == 0 {
		return DailyChallenge{}, shared.ErrNoChallengeTemplates
	}
	day := timeutil.FormatDate(now)
	sum := blake2b.Sum256([]byte(day))
	idx := binary.BigEndian.Uint64(sum[:8]) % uint64(len(templates))

	t := templates[idx]
	return newInstance(t, t.ID+":"+day, now)
}
