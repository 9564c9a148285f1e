// Package catalog loads the read-only content catalog from YAML. The built-in
// catalog is embedded; a file on disk may replace it.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/skillplay/skillplay-life/internal/domain/content"
)

//go:embed catalog.yaml
var builtin []byte

// Builtin returns the embedded catalog. It panics if the embedded file is
// invalid, which a test guards against.
func Builtin() *content.Static {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from path. An empty path returns the embedded catalog.
func Load(path string) (*content.Static, error) {
	if path == "" {
		return Parse(builtin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document. Unknown fields are rejected.
func Parse(data []byte) (*content.Static, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c content.Static
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks IDs and enumerations. Every problem is reported.
func Validate(c *content.Static) error {
	var errs []error
	ids := make(map[string]string)

	checkID := func(kind, id string) {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: id must be a UUID", kind, id))
			return
		}
		if prev, dup := ids[id]; dup {
			errs = append(errs, fmt.Errorf("%s %q: id already used by a %s", kind, id, prev))
			return
		}
		ids[id] = kind
	}

	for _, s := range c.Slides {
		checkID("onboarding slide", s.ID)
	}
	for _, card := range c.Cards {
		checkID("learning card", card.ID)
		if card.ReadTimeMinutes < 0 {
			errs = append(errs, fmt.Errorf("learning card %q: negative read time", card.ID))
		}
	}
	for _, t := range c.Tips {
		checkID("lifestyle tip", t.ID)
		if !t.Category.IsValid() {
			errs = append(errs, fmt.Errorf("lifestyle tip %q: unknown category %q", t.ID, t.Category))
		}
	}
	for _, t := range c.Templates {
		checkID("challenge", t.ID)
		if t.TargetValue <= 0 {
			errs = append(errs, fmt.Errorf("challenge %q: target_value must be positive", t.ID))
		}
	}
	if len(c.Templates) == 0 {
		errs = append(errs, errors.New("at least one challenge is required"))
	}

	games := make(map[content.GameType]bool)
	for _, g := range c.GameList {
		if !g.Type.IsValid() {
			errs = append(errs, fmt.Errorf("game %q: unknown type", g.Type))
		}
		if games[g.Type] {
			errs = append(errs, fmt.Errorf("game %q: listed twice", g.Type))
		}
		games[g.Type] = true
	}

	awards := make(map[content.AchievementID]bool)
	for _, a := range c.Awards {
		if a.ID == "" {
			errs = append(errs, errors.New("achievement with empty id"))
			continue
		}
		if awards[a.ID] {
			errs = append(errs, fmt.Errorf("achievement %q: listed twice", a.ID))
		}
		awards[a.ID] = true
		if !a.Category.IsValid() {
			errs = append(errs, fmt.Errorf("achievement %q: unknown category %q", a.ID, a.Category))
		}
		if !a.Rarity.IsValid() {
			errs = append(errs, fmt.Errorf("achievement %q: unknown rarity %q", a.ID, a.Rarity))
		}
	}

	return errors.Join(errs...)
}
