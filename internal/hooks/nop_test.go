package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/types"
)

func TestNewNop(t *testing.T) {
	hooks := NewNop()

	require.NotNil(t, hooks.OnWorkerStateChanged)
	require.NotNil(t, hooks.OnError)

	ctx := context.Background()
	require.NoError(t, hooks.OnWorkerStateChanged(ctx, types.PriorityHigh, types.WorkerPolling, types.WorkerProcessing))
	require.NoError(t, hooks.OnError(ctx, context.Canceled))
}

func TestFill(t *testing.T) {
	t.Run("nil hooks", func(t *testing.T) {
		h := Fill(nil)
		require.NotNil(t, h.OnWorkerStateChanged)
		require.NotNil(t, h.OnError)
	})

	t.Run("partial hooks keep user callbacks", func(t *testing.T) {
		sentinel := errors.New("seen")
		h := Fill(&types.Hooks{
			OnError: func(context.Context, error) error { return sentinel },
		})

		require.ErrorIs(t, h.OnError(context.Background(), nil), sentinel)
		require.NoError(t, h.OnWorkerStateChanged(context.Background(), types.PriorityLow, types.WorkerDraining, types.WorkerClosed))
	})
}
