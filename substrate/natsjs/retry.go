package natsjs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/no0law1/kafka-prioritization/internal/backoff"
	"github.com/no0law1/kafka-prioritization/internal/natsutil"
)

// retry runs fn until it succeeds, ctx ends or MaxRetries retries have
// failed. Each retry is counted and its backoff observed under op.
func (s *Substrate) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	var delay time.Duration
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= s.cfg.MaxRetries {
			return fmt.Errorf("%s failed after %d attempts: %w", op, attempt+1, natsutil.Classify(err))
		}

		delay = backoff.Jitter(delay, s.cfg.RetryBase, backoff.DefaultMultiplier, s.cfg.RetryMax, nil)
		s.cfg.Metrics.RecordControlRetry(op)
		s.cfg.Metrics.RecordRetryBackoff(op, delay.Seconds())
		s.cfg.Logger.Warn("control-plane call failed, retrying", "op", op, "attempt", attempt+1, "backoff", delay, "error", err)

		if !backoff.Sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// sanitizeConsumerName replaces invalid characters from consumer name to underscore (_).
//
// NATS consumer name restrictions:
// - Cannot contain whitespace
// - Cannot contain . (dot)
// - Cannot contain * (asterisk)
// - Cannot contain > (greater than)
// - Cannot contain path separators (/ or \)
// - Cannot contain non-printable characters
func sanitizeConsumerName(name string) string {
	var result strings.Builder
	result.Grow(len(name))

	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' ||
			r == '.' || r == '*' || r == '>' ||
			r == '/' || r == '\\' ||
			r < 32 || r == 127 {
			result.WriteRune('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
