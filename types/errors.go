package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the prioritization library.
//
// All components use these sentinels for known error conditions and wrap
// external errors with context using fmt.Errorf("...: %w", err). Callers
// check them with errors.Is().
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Tiering, Router, Worker, Substrate)
//   - Configuration failures always wrap ErrConfiguration

// Configuration errors - fail fast at startup, never swallowed.
var (
	// ErrConfiguration is the root of every configuration failure: bad weights,
	// non-positive partition counts, mismatched topic metadata.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = fmt.Errorf("%w: invalid configuration", ErrConfiguration)

	// ErrEmptyTier is returned when a tier owns no partitions and a component
	// needs at least one (partition draw, worker binding).
	ErrEmptyTier = fmt.Errorf("%w: tier has no partitions", ErrConfiguration)

	// ErrTableMismatch is returned when another process published a different
	// partition tier table for the same topic.
	ErrTableMismatch = fmt.Errorf("%w: partition tier table mismatch", ErrConfiguration)
)

// Priority errors.
var (
	// ErrInvalidPriority is returned when a priority label or message key
	// cannot be decoded to a known class. Producers never fall back to a
	// default partition on this error.
	ErrInvalidPriority = errors.New("invalid priority")
)

// Router errors - Public API errors returned by Router.
var (
	// ErrAlreadyStarted is returned when Start is called on a running router.
	ErrAlreadyStarted = errors.New("router already started")

	// ErrNotStarted is returned when operations require a started router.
	ErrNotStarted = errors.New("router not started")

	// ErrSubstrateRequired is returned when NewRouter receives a nil substrate.
	ErrSubstrateRequired = errors.New("substrate is required")

	// ErrHandlerRequired is returned when NewRouter receives a nil handler.
	ErrHandlerRequired = errors.New("handler is required")
)

// Worker errors.
var (
	// ErrWorkerAlreadyRunning is returned when Run is called twice on a worker.
	ErrWorkerAlreadyRunning = errors.New("tier worker already running")
)

// Substrate errors - returned by messaging substrate adapters.
var (
	// ErrConsumeFailure wraps a failed poll. Tier workers log it, back off and
	// keep polling.
	ErrConsumeFailure = errors.New("consume failure")

	// ErrPublishFailure wraps a publish the substrate did not accept. There is
	// no automatic retry.
	ErrPublishFailure = errors.New("publish failure")

	// ErrConnectivity indicates a NATS/Kafka connectivity issue.
	// This is used to distinguish network failures from application errors.
	ErrConnectivity = errors.New("connectivity issue")

	// ErrBindingClosed is returned by Consume after the binding was released.
	ErrBindingClosed = errors.New("consumer binding closed")

	// ErrNoPartitioner is returned when publishing to a topic that has no
	// partitioner registered.
	ErrNoPartitioner = errors.New("no partitioner registered for topic")

	// ErrTopicNotFound is returned when the substrate does not know the topic.
	ErrTopicNotFound = errors.New("topic not found")
)

// Common errors - Shared errors used across multiple components.
var (
	// ErrNoKeysFound is returned when NATS KV returns no keys (expected condition).
	ErrNoKeysFound = errors.New("no keys found")
)

// IsNoKeysFoundError checks if an error indicates that no keys were found in NATS KV.
//
// This function handles NATS-specific "no keys found" errors which may come as:
//   - Direct error: "nats: no keys found"
//   - Wrapped error: "failed to list KV keys: nats: no keys found"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates no keys were found, false otherwise
func IsNoKeysFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoKeysFound) {
		return true
	}

	return strings.Contains(err.Error(), "no keys found")
}

// IsConfigurationError reports whether err is, or wraps, ErrConfiguration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
