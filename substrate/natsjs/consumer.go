package natsjs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/no0law1/kafka-prioritization/internal/natsutil"
	"github.com/no0law1/kafka-prioritization/types"
)

// partitionConsumer is the static binding of one tier on JetStream.
//
// Consume is called from a single goroutine (the owning worker). Close may
// race with a blocked Consume and always wins.
type partitionConsumer struct {
	cons   jetstream.Consumer
	topic  string
	tier   string
	parts  []int
	batch  int
	wait   time.Duration
	logger types.Logger

	mu       sync.Mutex
	pending  []jetstream.Msg
	inflight jetstream.Msg
	markers  []types.Record
	atEOF    map[int]bool

	closeOnce sync.Once
	closed    chan struct{}
}

var _ types.PartitionConsumer = (*partitionConsumer)(nil)

func newPartitionConsumer(cons jetstream.Consumer, topic string, b types.Binding, cfg Config) *partitionConsumer {
	parts := make([]int, 0, len(b.Partitions))
	for _, tp := range b.Partitions {
		parts = append(parts, tp.Partition)
	}

	return &partitionConsumer{
		cons:   cons,
		topic:  topic,
		tier:   b.Priority.String(),
		parts:  parts,
		batch:  cfg.BatchSize,
		wait:   cfg.FetchMaxWait,
		logger: cfg.Logger,
		atEOF:  make(map[int]bool, len(parts)),
		closed: make(chan struct{}),
	}
}

// Consume returns the next record of the binding.
//
// The record returned by the previous call is acknowledged first. When a
// fetch comes back empty, one end-of-partition marker is returned for every
// bound partition that delivered data since its last marker.
func (c *partitionConsumer) Consume(ctx context.Context) (types.Record, error) {
	for {
		if err := c.checkOpen(ctx); err != nil {
			return types.Record{}, err
		}

		rec, ok, err := c.nextBuffered()
		if err != nil || ok {
			return rec, err
		}

		msgs, err := c.fetch(ctx)
		if err != nil {
			return types.Record{}, err
		}

		c.mu.Lock()
		if c.isClosed() {
			c.mu.Unlock()
			nakAll(msgs)

			return types.Record{}, types.ErrBindingClosed
		}
		if len(msgs) == 0 {
			c.enqueueMarkersLocked()
		}
		c.pending = append(c.pending, msgs...)
		c.mu.Unlock()
	}
}

func (c *partitionConsumer) checkOpen(ctx context.Context) error {
	if c.isClosed() {
		return types.ErrBindingClosed
	}

	return ctx.Err()
}

func (c *partitionConsumer) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// nextBuffered acks the in-flight message and pops the next buffered
// message or marker.
func (c *partitionConsumer) nextBuffered() (types.Record, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ackInflightLocked()

	for len(c.pending) > 0 {
		msg := c.pending[0]
		c.pending = c.pending[1:]

		rec, err := c.toRecord(msg)
		if err != nil {
			// not one of ours; terminate so it is not redelivered forever
			c.logger.Warn("dropping malformed message", "tier", c.tier, "subject", msg.Subject(), "error", err)
			_ = msg.Term()

			continue
		}
		c.inflight = msg
		c.atEOF[rec.Partition] = false

		return rec, true, nil
	}

	if len(c.markers) > 0 {
		rec := c.markers[0]
		c.markers = c.markers[1:]

		return rec, true, nil
	}

	return types.Record{}, false, nil
}

func (c *partitionConsumer) enqueueMarkersLocked() {
	for _, p := range c.parts {
		if !c.atEOF[p] {
			c.atEOF[p] = true
			c.markers = append(c.markers, types.EndOfPartitionRecord(c.topic, p))
		}
	}
}

// fetch pulls one batch, waiting at most FetchMaxWait. Cancellation and
// Close interrupt the wait; messages already received are released.
func (c *partitionConsumer) fetch(ctx context.Context) ([]jetstream.Msg, error) {
	batch, err := c.cons.Fetch(c.batch, jetstream.FetchMaxWait(c.wait))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConsumeFailure, natsutil.Classify(err))
	}

	msgs := make([]jetstream.Msg, 0, c.batch)
	ch := batch.Messages()
	for {
		select {
		case <-ctx.Done():
			nakAll(msgs)

			return nil, ctx.Err()
		case <-c.closed:
			nakAll(msgs)

			return nil, types.ErrBindingClosed
		case msg, ok := <-ch:
			if !ok {
				if err := batch.Error(); err != nil && !isEmptyFetch(err) {
					if len(msgs) > 0 {
						return msgs, nil
					}

					return nil, fmt.Errorf("%w: %w", types.ErrConsumeFailure, natsutil.Classify(err))
				}

				return msgs, nil
			}
			msgs = append(msgs, msg)
		}
	}
}

func isEmptyFetch(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, jetstream.ErrNoMessages)
}

func (c *partitionConsumer) toRecord(msg jetstream.Msg) (types.Record, error) {
	subject := msg.Subject()
	suffix, ok := strings.CutPrefix(subject, c.topic+".")
	if !ok {
		return types.Record{}, fmt.Errorf("subject %q outside topic %s", subject, c.topic)
	}
	partition, err := strconv.Atoi(suffix)
	if err != nil {
		return types.Record{}, fmt.Errorf("subject %q has no partition index", subject)
	}

	var (
		offset int64
		ts     time.Time
	)
	if md, err := msg.Metadata(); err == nil {
		offset = int64(md.Sequence.Stream) //nolint:gosec // stream sequences fit in int64
		ts = md.Timestamp
	}

	var key []byte
	if v := msg.Headers().Get(HeaderTierKey); v != "" {
		key = []byte(v)
	}

	return types.NewRecord(c.topic, partition, offset, key, msg.Data(), ts), nil
}

func (c *partitionConsumer) ackInflightLocked() {
	if c.inflight == nil {
		return
	}
	if err := c.inflight.Ack(); err != nil {
		c.logger.Warn("ack failed", "tier", c.tier, "subject", c.inflight.Subject(), "error", err)
	}
	c.inflight = nil
}

// Close acknowledges the last delivered record, releases buffered ones for
// redelivery and unblocks a pending Consume. The durable consumer is kept;
// the server removes it after InactiveThreshold.
func (c *partitionConsumer) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		defer c.mu.Unlock()

		c.ackInflightLocked()
		nakAll(c.pending)
		c.pending = nil
		c.markers = nil
	})

	return nil
}

func nakAll(msgs []jetstream.Msg) {
	for _, m := range msgs {
		_ = m.Nak()
	}
}
