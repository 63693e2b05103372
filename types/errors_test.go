package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("configuration errors share a root", func(t *testing.T) {
		for _, err := range []error{ErrInvalidConfig, ErrEmptyTier, ErrTableMismatch} {
			require.ErrorIs(t, err, ErrConfiguration)
			require.True(t, IsConfigurationError(err))
		}
		require.False(t, IsConfigurationError(ErrInvalidPriority))
		require.False(t, IsConfigurationError(nil))
	})

	t.Run("wrapped errors maintain identity", func(t *testing.T) {
		wrapped := fmt.Errorf("publish to communications.14: %w", ErrPublishFailure)
		require.ErrorIs(t, wrapped, ErrPublishFailure)

		joined := errors.Join(ErrInvalidPriority, errors.New("additional context"))
		require.ErrorIs(t, joined, ErrInvalidPriority)
	})

	t.Run("all root errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrConfiguration,
			ErrInvalidPriority,
			ErrAlreadyStarted,
			ErrNotStarted,
			ErrSubstrateRequired,
			ErrHandlerRequired,
			ErrWorkerAlreadyRunning,
			ErrConsumeFailure,
			ErrPublishFailure,
			ErrConnectivity,
			ErrBindingClosed,
			ErrNoPartitioner,
			ErrTopicNotFound,
			ErrNoKeysFound,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i == j {
					require.True(t, errors.Is(err1, err2), "error should equal itself: %v", err1)
				} else {
					require.False(t, errors.Is(err1, err2), "errors should be distinct: %v vs %v", err1, err2)
				}
			}
		}
	})
}

func TestIsNoKeysFoundError(t *testing.T) {
	t.Run("returns false for nil error", func(t *testing.T) {
		require.False(t, IsNoKeysFoundError(nil))
	})

	t.Run("returns true for wrapped ErrNoKeysFound", func(t *testing.T) {
		wrapped := errors.Join(ErrNoKeysFound, errors.New("additional context"))
		require.True(t, IsNoKeysFoundError(wrapped))
	})

	t.Run("returns true for NATS error message", func(t *testing.T) {
		require.True(t, IsNoKeysFoundError(errors.New("failed to list KV keys: nats: no keys found")))
	})

	t.Run("returns false for unrelated error", func(t *testing.T) {
		require.False(t, IsNoKeysFoundError(ErrTopicNotFound))
	})
}
