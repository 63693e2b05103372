package types

import "context"

// Hooks defines callbacks for tier worker lifecycle events.
//
// All hooks are optional. They are called synchronously from the worker
// goroutine that raised the event, so they must complete quickly.
//
// Hook behavior:
//   - The context passed to hooks is the worker's context and may already be
//     cancelled during draining
//   - Hook errors are logged but don't fail worker operations
//
// Example:
//
//	hooks := &prioritization.Hooks{
//	    OnWorkerStateChanged: func(ctx context.Context, p prioritization.Priority, from, to prioritization.WorkerState) error {
//	        log.Printf("%s worker: %s -> %s", p, from, to)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnWorkerStateChanged is called when a tier worker transitions state.
	OnWorkerStateChanged func(ctx context.Context, priority Priority, from, to WorkerState) error

	// OnError is called when a recoverable error occurs (failed poll,
	// handler error).
	OnError func(ctx context.Context, err error) error
}
