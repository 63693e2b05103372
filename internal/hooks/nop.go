// Package hooks provides default Hooks implementations.
package hooks

import (
	"context"

	"github.com/no0law1/kafka-prioritization/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.Priority, types.WorkerState, types.WorkerState) error = (*NopHooks)(nil).OnWorkerStateChanged
	_ func(context.Context, error) error                                               = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnWorkerStateChanged: h.OnWorkerStateChanged,
		OnError:              h.OnError,
	}
}

// Fill returns a copy of h with every nil callback replaced by a no-op.
//
// Parameters:
//   - h: User hooks (nil is allowed)
//
// Returns:
//   - types.Hooks: Hooks safe to call without nil checks
func Fill(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnWorkerStateChanged != nil {
		out.OnWorkerStateChanged = h.OnWorkerStateChanged
	}
	if h.OnError != nil {
		out.OnError = h.OnError
	}

	return out
}

// OnWorkerStateChanged is a no-op implementation.
func (h *NopHooks) OnWorkerStateChanged(ctx context.Context, priority types.Priority, from, to types.WorkerState) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(ctx context.Context, err error) error {
	return nil
}
