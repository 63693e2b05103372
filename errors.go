package prioritization

import "github.com/no0law1/kafka-prioritization/types"

// Sentinel errors returned by the Router and the substrates.
//
// They are re-exported from the types package so callers can match them
// with errors.Is without importing types.
var (
	// ErrConfiguration is the root of every configuration failure.
	ErrConfiguration = types.ErrConfiguration

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrEmptyTier is returned when a tier owns no partitions.
	ErrEmptyTier = types.ErrEmptyTier

	// ErrTableMismatch is returned when another process recorded a different
	// tier table for the topic.
	ErrTableMismatch = types.ErrTableMismatch

	// ErrInvalidPriority is returned for unknown priority labels and keys.
	ErrInvalidPriority = types.ErrInvalidPriority

	// ErrAlreadyStarted is returned when Start is called on a started router.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when Stop is called on a router that hasn't been started.
	ErrNotStarted = types.ErrNotStarted

	// ErrSubstrateRequired is returned when the substrate is nil.
	ErrSubstrateRequired = types.ErrSubstrateRequired

	// ErrHandlerRequired is returned when the handler is nil.
	ErrHandlerRequired = types.ErrHandlerRequired

	// ErrConsumeFailure wraps a failed poll.
	ErrConsumeFailure = types.ErrConsumeFailure

	// ErrPublishFailure wraps a publish the substrate did not accept.
	ErrPublishFailure = types.ErrPublishFailure

	// ErrConnectivity indicates a NATS/Kafka connectivity issue.
	ErrConnectivity = types.ErrConnectivity

	// ErrBindingClosed is returned by Consume after the binding was released.
	ErrBindingClosed = types.ErrBindingClosed

	// ErrTopicNotFound is returned when the substrate does not know the topic.
	ErrTopicNotFound = types.ErrTopicNotFound
)
