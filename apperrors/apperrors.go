// Package apperrors defines the error taxonomy shared by services,
// controllers, and the event handlers, plus the mapping to HTTP statuses.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a duplicate unique key (display name within a role).
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized marks an unknown name or credential mismatch.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrRelay marks the external detection service being unreachable,
	// timing out, or answering with garbage. Never retried.
	ErrRelay = errors.New("detection relay failed")

	// ErrStore marks a persistence failure.
	ErrStore = errors.New("storage failure")

	// ErrThrottled marks a detection trigger rejected by the relay
	// rate limiter.
	ErrThrottled = errors.New("too many detection requests")
)

// Wrap annotates err with one of the sentinels above so callers can
// classify it with errors.Is while keeping the underlying cause.
func Wrap(sentinel error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// Wrapf annotates the sentinel with a formatted detail message.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

// Status maps a taxonomy error to its HTTP status code. Anything outside
// the taxonomy is a 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrThrottled):
		return fiber.StatusTooManyRequests
	case errors.Is(err, ErrRelay), errors.Is(err, ErrStore):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
