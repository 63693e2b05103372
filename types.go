package prioritization

import (
	"github.com/no0law1/kafka-prioritization/types"
	"github.com/no0law1/kafka-prioritization/worker"
)

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal packages
// to depend on `types` without depending on the root `prioritization` package,
// while still providing a convenient `prioritization.Priority`,
// `prioritization.Logger`, etc. for users.
type (
	Priority       = types.Priority
	Record         = types.Record
	PublishResult  = types.PublishResult
	TopicPartition = types.TopicPartition
	PartitionRange = types.PartitionRange
	TierRange      = types.TierRange
	Weights        = types.Weights
	WorkerState    = types.WorkerState
	RouterState    = types.RouterState
)

// Re-export interfaces from the internal types package for convenience.
type (
	Substrate        = types.Substrate
	Partitioner      = types.Partitioner
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
	Handler          = worker.Handler
	HandlerFunc      = worker.HandlerFunc
)

// Re-export priority constants from the internal types package.
const (
	PriorityHigh   = types.PriorityHigh
	PriorityMedium = types.PriorityMedium
	PriorityLow    = types.PriorityLow
)

// Re-export worker state constants from the internal types package.
const (
	WorkerRunning    = types.WorkerRunning
	WorkerPolling    = types.WorkerPolling
	WorkerProcessing = types.WorkerProcessing
	WorkerDraining   = types.WorkerDraining
	WorkerClosed     = types.WorkerClosed
)

// Re-export router state constants from the internal types package.
const (
	RouterIdle     = types.RouterIdle
	RouterStarting = types.RouterStarting
	RouterRunning  = types.RouterRunning
	RouterStopping = types.RouterStopping
	RouterStopped  = types.RouterStopped
)

// ParsePriority decodes a priority label such as "High".
func ParsePriority(s string) (Priority, error) {
	return types.ParsePriority(s)
}
