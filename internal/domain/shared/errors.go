// Package shared contains common domain types, errors, events, and ports
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"strings"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidID          = errors.New("invalid ID")
	ErrValueOutOfRange    = errors.New("value out of range")
	ErrInvalidState       = errors.New("invalid state")
	ErrStateTransition    = errors.New("invalid state transition")
	ErrAlreadyProcessed   = errors.New("already processed")
	ErrClosed             = errors.New("closed")
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError carries where a failure happened (Domain, Op), what kind it is
// (Kind) and optionally what caused it (Err). errors.Is matches either Kind or
// anything in the Err chain.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Domain)
	b.WriteByte('.')
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DomainError) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// progress
var (
	ErrProgressPersist = NewDomainError("progress", "Persist", ErrExternalService, "failed to persist progress")
	ErrEmptyItemID     = NewDomainError("progress", "Validate", ErrInvalidID, "item ID cannot be empty")
)

// achievement
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not in catalog")
	ErrEngineClosed        = NewDomainError("achievement", "Unlock", ErrClosed, "achievement engine is closed")
)

// challenge
var (
	ErrNoChallengeTemplates = NewDomainError("challenge", "Select", ErrInvalidInput, "no challenge templates available")
	ErrInvalidTarget        = NewDomainError("challenge", "Validate", ErrValueOutOfRange, "challenge target must be positive")
	ErrTrackerClosed        = NewDomainError("challenge", "UpdateProgress", ErrClosed, "challenge tracker is closed")
)

// game
var (
	ErrGameNotWaiting   = NewDomainError("game", "Start", ErrStateTransition, "game can only start from waiting")
	ErrGameNotFinished  = NewDomainError("game", "Reset", ErrStateTransition, "game can only reset from finished")
	ErrScoreRecorded    = NewDomainError("game", "Record", ErrAlreadyProcessed, "score already recorded for this game")
	ErrNoScoreRecorder  = NewDomainError("game", "Record", ErrInvalidState, "no score recorder configured")
	ErrGameSessionEnded = NewDomainError("game", "Start", ErrClosed, "game session is closed")
)

// navigation
var (
	ErrNotNativeFlow  = NewDomainError("navigation", "Transition", ErrStateTransition, "router actions require the native flow")
	ErrAlreadyDecided = NewDomainError("navigation", "Resolve", ErrAlreadyProcessed, "gate decision already applied")
)

// storage
var (
	ErrKeyNotFound = NewDomainError("storage", "Get", ErrNotFound, "key not found")
	ErrEmptyKey    = NewDomainError("storage", "Validate", ErrInvalidInput, "key cannot be empty")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports input problems the caller can fix.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnavailable reports a backend that is down or refusing work.
func IsUnavailable(err error) bool { return errors.Is(err, ErrServiceUnavailable) }
