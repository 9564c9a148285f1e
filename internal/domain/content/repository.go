package content

// Repository is the read-only content catalog. Implementations must return
// entities in catalog order and must not be mutated by callers.
type Repository interface {
	OnboardingSlides() []OnboardingSlide
	LearningCards() []LearningCard
	LifestyleTips() []LifestyleTip
	ChallengeTemplates() []ChallengeTemplate
	Games() []Game
	Achievements() []Achievement

	// LearningCard finds a card by ID.
	LearningCard(id string) (LearningCard, bool)

	// LifestyleTip finds a tip by ID.
	LifestyleTip(id string) (LifestyleTip, bool)

	// ChallengeTemplate finds a template by ID.
	ChallengeTemplate(id string) (ChallengeTemplate, bool)

	// Achievement finds an achievement by its stable ID.
	Achievement(id AchievementID) (Achievement, bool)
}

// Static is an in-memory Repository built from plain slices. The YAML catalog
// decodes into it; tests construct it directly.
type Static struct {
	Slides    []OnboardingSlide   `yaml:"onboarding"`
	Cards     []LearningCard      `yaml:"learning_cards"`
	Tips      []LifestyleTip      `yaml:"lifestyle_tips"`
	Templates []ChallengeTemplate `yaml:"challenges"`
	GameList  []Game              `yaml:"games"`
	Awards    []Achievement       `yaml:"achievements"`
}

var _ Repository = (*Static)(nil)

func (s *Static) OnboardingSlides() []OnboardingSlide     { return clone(s.Slides) }
func (s *Static) LearningCards() []LearningCard           { return clone(s.Cards) }
func (s *Static) LifestyleTips() []LifestyleTip           { return clone(s.Tips) }
func (s *Static) ChallengeTemplates() []ChallengeTemplate { return clone(s.Templates) }
func (s *Static) Games() []Game                           { return clone(s.GameList) }
func (s *Static) Achievements() []Achievement             { return clone(s.Awards) }

func (s *Static) LearningCard(id string) (LearningCard, bool) {
	return find(s.Cards, func(c LearningCard) bool { return c.ID == id })
}

func (s *Static) LifestyleTip(id string) (LifestyleTip, bool) {
	return find(s.Tips, func(t LifestyleTip) bool { return t.ID == id })
}

func (s *Static) ChallengeTemplate(id string) (ChallengeTemplate, bool) {
	return find(s.Templates, func(t ChallengeTemplate) bool { return t.ID == id })
}

func (s *Static) Achievement(id AchievementID) (Achievement, bool) {
	return find(s.Awards, func(a Achievement) bool { return a.ID == id })
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func find[T any](items []T, match func(T) bool) (T, bool) {
	for _, item := range items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
