// Package settings holds the app-level flags: onboarding completion, UI toggles
// and the first-launch marker. Each flag is persisted under its own key.
package settings

import (
	"context"
	"encoding/json"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// Persisted keys.
const (
	KeyAnimationsEnabled      = "animationsEnabled"
	KeyNotificationsEnabled   = "notificationsEnabled"
	KeyHasCompletedOnboarding = "hasCompletedOnboarding"
	KeyHasLaunchedBefore      = "hasLaunchedBefore"
	KeyStatus                 = "status"
)

// AllKeys lists every settings key.
var AllKeys = []string{
	KeyAnimationsEnabled,
	KeyNotificationsEnabled,
	KeyHasCompletedOnboarding,
	KeyHasLaunchedBefore,
	KeyStatus,
}

// Settings is the flag set.
type Settings struct {
	AnimationsEnabled      bool
	NotificationsEnabled   bool
	HasCompletedOnboarding bool
	HasLaunchedBefore      bool
	// Status records the route chosen at the last launch.
	Status string
}

// Store loads and saves Settings. Like progress.Store it must only be used
// from the serialized loop.
type Store struct {
	kv       shared.KeyValueStore
	logger   *logger.Logger
	settings Settings
}

// NewStore creates a settings store over kv.
func NewStore(kv shared.KeyValueStore, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{kv: kv, logger: log.With(logger.Component("settings"))}
}

// Load reads all flags. On first launch (hasLaunchedBefore unset) the toggles
// default to true and the launch marker is written.
func (s *Store) Load(ctx context.Context) error {
	var loaded Settings
	launched := s.readBool(ctx, KeyHasLaunchedBefore, false)

	if !launched {
		s.logger.Info("first launch, writing default settings")
		loaded.AnimationsEnabled = true
		loaded.NotificationsEnabled = true
		loaded.HasLaunchedBefore = true
		if err := s.writeAll(ctx, map[string]any{
			KeyAnimationsEnabled:    true,
			KeyNotificationsEnabled: true,
			KeyHasLaunchedBefore:    true,
		}); err != nil {
			s.settings = s.readRest(ctx, loaded)
			return err
		}
	} else {
		loaded.HasLaunchedBefore = true
		loaded.AnimationsEnabled = s.readBool(ctx, KeyAnimationsEnabled, true)
		loaded.NotificationsEnabled = s.readBool(ctx, KeyNotificationsEnabled, true)
	}

	s.settings = s.readRest(ctx, loaded)
	return nil
}

func (s *Store) readRest(ctx context.Context, in Settings) Settings {
	in.HasCompletedOnboarding = s.readBool(ctx, KeyHasCompletedOnboarding, false)
	in.Status = s.readString(ctx, KeyStatus)
	return in
}

// Current returns a copy of the loaded settings.
func (s *Store) Current() Settings { return s.settings }

// OnboardingCompleted reports the loaded onboarding flag.
func (s *Store) OnboardingCompleted() bool { return s.settings.HasCompletedOnboarding }

// SetOnboardingCompleted persists the onboarding flag.
func (s *Store) SetOnboardingCompleted(ctx context.Context, done bool) error {
	s.settings.HasCompletedOnboarding = done
	return s.write(ctx, KeyHasCompletedOnboarding, done)
}

// SetAnimationsEnabled persists the animations toggle.
func (s *Store) SetAnimationsEnabled(ctx context.Context, enabled bool) error {
	s.settings.AnimationsEnabled = enabled
	return s.write(ctx, KeyAnimationsEnabled, enabled)
}

// SetNotificationsEnabled persists the notifications toggle.
func (s *Store) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	s.settings.NotificationsEnabled = enabled
	return s.write(ctx, KeyNotificationsEnabled, enabled)
}

// SetStatus persists the status marker.
func (s *Store) SetStatus(ctx context.Context, status string) error {
	s.settings.Status = status
	return s.write(ctx, KeyStatus, status)
}

func (s *Store) readBool(ctx context.Context, key string, def bool) bool {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !shared.IsNotFound(err) {
			s.logger.Warn("settings key unreadable, using default", logger.Key(key), logger.Err(err))
		}
		return def
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("settings key corrupt, using default", logger.Key(key), logger.Err(err))
		return def
	}
	return v
}

func (s *Store) readString(ctx context.Context, key string) string {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		return ""
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("settings key corrupt, using default", logger.Key(key), logger.Err(err))
		return ""
	}
	return v
}

func (s *Store) writeAll(ctx context.Context, values map[string]any) error {
	for _, key := range AllKeys {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := s.write(ctx, key, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err == nil {
		err = s.kv.Set(ctx, key, data)
	}
	if err != nil {
		s.logger.Error("failed to persist setting", logger.Key(key), logger.Err(err))
		return shared.WrapError("settings", "Persist", shared.ErrExternalService, "failed to persist "+key, err)
	}
	return nil
}
