package tts

import (
	"errors"
	"fmt"
)

// Common errors for the TTS supervisor and cache subsystem.
var (
	// ErrSpawn indicates the worker script could not be located or the OS
	// failed to create the process. Fatal to that Start call.
	ErrSpawn = errors.New("failed to spawn TTS worker")

	// ErrStartupTimeout indicates the worker never answered health checks
	// within the probe budget. The caller may retry Start.
	ErrStartupTimeout = errors.New("TTS worker did not become ready in time")

	// ErrTransport indicates the worker was unreachable or disappeared
	// mid-request. The caller should treat the worker as down.
	ErrTransport = errors.New("TTS worker unreachable")

	// ErrCacheIO indicates a cache file exists but could not be read.
	// Distinct from a cache miss and must never be treated as one.
	ErrCacheIO = errors.New("audio cache read failed")

	// ErrWorkerStopped indicates an operation raced with Stop.
	ErrWorkerStopped = errors.New("TTS worker has been stopped")
)

// ApplicationError is a structured failure returned by a reachable worker,
// e.g. invalid text or a model loading problem. It is surfaced verbatim to
// the caller and never retried automatically.
type ApplicationError struct {
	Message string // the worker's {error} body
	Status  int    // HTTP status code, when known
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return "TTS worker returned an error"
	}
	return e.Message
}

// IsRetryable reports whether an error class permits a retry after
// re-establishing the worker. Application errors are not retryable;
// transport and startup failures are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return false
	}
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrStartupTimeout)
}

// spawnErr wraps an underlying cause as an ErrSpawn.
func spawnErr(cause error) error {
	return fmt.Errorf("%w: %w", ErrSpawn, cause)
}

// transportErr wraps an underlying cause as an ErrTransport.
func transportErr(cause error) error {
	return fmt.Errorf("%w: %w", ErrTransport, cause)
}
