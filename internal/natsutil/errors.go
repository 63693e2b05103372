// Package natsutil classifies NATS client errors for the substrate adapters.
package natsutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/no0law1/kafka-prioritization/types"
)

// IsConnectivityError checks if an error is caused by connectivity issues.
//
// This includes NATS timeouts, connection refused, disconnections, etc.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, types.ErrConnectivity) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// Classify tags connectivity failures with types.ErrConnectivity and returns
// every other error unchanged.
//
// Example:
//
//	if _, err := js.Publish(ctx, subj, data); err != nil {
//	    return fmt.Errorf("%w: %w", types.ErrPublishFailure, natsutil.Classify(err))
//	}
func Classify(err error) error {
	if err == nil || errors.Is(err, types.ErrConnectivity) || !IsConnectivityError(err) {
		return err
	}

	return fmt.Errorf("%w: %w", types.ErrConnectivity, err)
}
