// Package kvutil provides create-or-open helpers for NATS JetStream KV
// buckets and streams.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureKVBucketWithRetry creates or opens a KV bucket with retry logic.
//
// Several processes starting at once race to create the same bucket; the
// loser opens the winner's bucket. Transient failures are retried with
// exponential backoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: KV bucket configuration
//   - maxRetries: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Last error after all attempts
//
// Example:
//
//	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
//	    Bucket:  "prioritization-tables",
//	    History: 1,
//	}, 3)
func EnsureKVBucketWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	return ensure(ctx, "KV bucket "+config.Bucket, maxRetries,
		func() (jetstream.KeyValue, error) { return js.CreateKeyValue(ctx, config) },
		func() (jetstream.KeyValue, error) { return js.KeyValue(ctx, config.Bucket) },
		func(err error) bool { return errors.Is(err, jetstream.ErrBucketExists) },
	)
}

// EnsureStreamWithRetry creates or opens a stream with retry logic.
//
// An existing stream is opened as is; its configuration is not updated.
// Callers compare the returned stream's CachedInfo against what they need.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: Stream configuration used when the stream does not exist
//   - maxRetries: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.Stream: The stream handle
//   - error: Last error after all attempts
func EnsureStreamWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.StreamConfig,
	maxRetries int,
) (jetstream.Stream, error) {
	return ensure(ctx, "stream "+config.Name, maxRetries,
		func() (jetstream.Stream, error) { return js.CreateStream(ctx, config) },
		func() (jetstream.Stream, error) { return js.Stream(ctx, config.Name) },
		func(err error) bool { return errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) },
	)
}

func ensure[T any](
	ctx context.Context,
	what string,
	maxRetries int,
	create func() (T, error),
	open func() (T, error),
	exists func(error) bool,
) (T, error) {
	var zero T
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := range maxRetries {
		v, err := create()
		if err == nil {
			return v, nil
		}

		if exists(err) {
			v, err := open()
			if err == nil {
				return v, nil
			}
			lastErr = fmt.Errorf("%s exists but failed to open: %w", what, err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return zero, fmt.Errorf("context cancelled during %s creation: %w", what, ctx.Err())
		}

		// 10ms, 20ms, 40ms...
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return zero, fmt.Errorf("failed to create/open %s after %d attempts: %w", what, maxRetries, lastErr)
}
