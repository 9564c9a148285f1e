package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/content"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()

	assert.Len(t, c.OnboardingSlides(), 4)
	assert.Len(t, c.LearningCards(), 5)
	assert.Len(t, c.LifestyleTips(), 8)
	assert.Len(t, c.ChallengeTemplates(), 5)
	assert.Len(t, c.Games(), 3)
	require.Len(t, c.Achievements(), 8)

	first := c.Achievements()[0]
	assert.Equal(t, content.AchievementFirstSteps, first.ID)
	assert.Equal(t, content.CategoryChallenges, first.Category)

	hs, ok := c.Achievement(content.AchievementHighScorer)
	require.True(t, ok)
	assert.Equal(t, content.RarityLegendary, hs.Rarity)

	perCategory := make(map[content.TipCategory]int)
	for _, tip := range c.LifestyleTips() {
		perCategory[tip.Category]++
	}
	assert.Equal(t, map[content.TipCategory]int{
		content.TipHealth: 2, content.TipProductivity: 2, content.TipMindfulness: 2, content.TipFitness: 2,
	}, perCategory)

	card := c.LearningCards()[0]
	found, ok := c.LearningCard(card.ID)
	require.True(t, ok)
	assert.Equal(t, card.Title, found.Title)
}

func TestLoad_File(t *testing.T) {
	doc := `
challenges:
  - id: 0b7e0c5e-8d0f-4b8a-9f57-1f1d5a0e2a10
    title: Stretch
    target_value: 4
    unit: sets
achievements:
  - id: first_steps
    title: First Steps
    category: challenges
    rarity: common
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.ChallengeTemplates(), 1)
	assert.Equal(t, 4, c.ChallengeTemplates()[0].TargetValue)
	assert.Empty(t, c.LearningCards())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_RejectsBadContent(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "non uuid id",
			doc:  "challenges:\n  - {id: hydration, title: x, target_value: 1}\n",
			want: "must be a UUID",
		},
		{
			name: "zero target",
			doc:  "challenges:\n  - {id: 0b7e0c5e-8d0f-4b8a-9f57-1f1d5a0e2a10, title: x, target_value: 0}\n",
			want: "target_value must be positive",
		},
		{
			name: "no challenges",
			doc:  "games: []\n",
			want: "at least one challenge",
		},
		{
			name: "unknown field",
			doc:  "challenges:\n  - {id: 0b7e0c5e-8d0f-4b8a-9f57-1f1d5a0e2a10, target_value: 1, colour: red}\n",
			want: "colour",
		},
		{
			name: "bad rarity",
			doc: "challenges:\n  - {id: 0b7e0c5e-8d0f-4b8a-9f57-1f1d5a0e2a10, target_value: 1}\n" +
				"achievements:\n  - {id: scholar, category: education, rarity: mythic}\n",
			want: "unknown rarity",
		},
		{
			name: "duplicate id",
			doc: "challenges:\n  - {id: 0b7e0c5e-8d0f-4b8a-9f57-1f1d5a0e2a10, target_value: 1}\n" +
				"lifestyle_tips:\n  - {id: 0b7e0c5e-8d0f-4b8a-9f57-1f1d5a0e2a10, category: health}\n",
			want: "already used",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
