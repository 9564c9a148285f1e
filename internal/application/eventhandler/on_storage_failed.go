package eventhandler

import (
	"sort"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STORAGE FAILED HANDLER
// Collects keys whose last write failed. A later ProgressResetEvent clears the
// list, since a reset rewrites the whole key space.
// ═══════════════════════════════════════════════════════════════════════════

// OnStorageFailedHandler tracks failed progress writes.
type OnStorageFailedHandler struct {
	failed map[string]string
	logger *logger.Logger
}

// NewOnStorageFailedHandler creates the handler.
func NewOnStorageFailedHandler(log *logger.Logger) *OnStorageFailedHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &OnStorageFailedHandler{
		failed: make(map[string]string),
		logger: log.With(logger.String("handler", "on_storage_failed")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnStorageFailedHandler) Handle(event shared.Event) error {
	switch e := event.(type) {
	case shared.StorageFailedEvent:
		if _, seen := h.failed[e.Key]; !seen {
			h.logger.Warn("progress key not saved", logger.Key(e.Key), logger.String("error", e.Error))
		}
		h.failed[e.Key] = e.Error
	case shared.ProgressResetEvent:
		clear(h.failed)
	}
	return nil
}

// FailedKeys returns the keys whose writes failed, sorted.
func (h *OnStorageFailedHandler) FailedKeys() []string {
	keys := make([]string, 0, len(h.failed))
	for k := range h.failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register subscribes the handler to bus.
func (h *OnStorageFailedHandler) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventStorageFailed, h.Handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventProgressReset, h.Handle)
}
