package types

// WorkerState represents the tier worker lifecycle state.
//
// States follow a defined progression during normal operation:
//
//	WorkerRunning → WorkerPolling → WorkerProcessing → WorkerPolling → ...
//
// On cancellation:
//
//	any → WorkerDraining → WorkerClosed
//
// WorkerClosed is terminal.
type WorkerState int

const (
	// WorkerRunning is the state right after Run is called, before the first poll.
	WorkerRunning WorkerState = iota

	// WorkerPolling indicates the worker is blocked waiting for the next record.
	WorkerPolling

	// WorkerProcessing indicates the handler is running on a record.
	WorkerProcessing

	// WorkerDraining indicates cancellation was observed and the binding is
	// being released.
	WorkerDraining

	// WorkerClosed indicates the binding was released and the loop exited.
	WorkerClosed
)

// String returns the string representation of the state.
func (s WorkerState) String() string {
	switch s {
	case WorkerRunning:
		return "Running"
	case WorkerPolling:
		return "Polling"
	case WorkerProcessing:
		return "Processing"
	case WorkerDraining:
		return "Draining"
	case WorkerClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions can follow s.
func (s WorkerState) Terminal() bool {
	return s == WorkerClosed
}

// RouterState represents the router lifecycle state.
type RouterState int

const (
	// RouterIdle is the state before Start.
	RouterIdle RouterState = iota

	// RouterStarting indicates the tier table is being built and bindings created.
	RouterStarting

	// RouterRunning indicates all three tier workers are running.
	RouterRunning

	// RouterStopping indicates Stop was called and workers are draining.
	RouterStopping

	// RouterStopped indicates every worker closed its binding.
	RouterStopped
)

// String returns the string representation of the state.
func (s RouterState) String() string {
	switch s {
	case RouterIdle:
		return "Idle"
	case RouterStarting:
		return "Starting"
	case RouterRunning:
		return "Running"
	case RouterStopping:
		return "Stopping"
	case RouterStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
