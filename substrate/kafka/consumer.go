package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"github.com/no0law1/kafka-prioritization/types"
)

type item struct {
	rec types.Record
	err error
}

type boundPartition struct {
	partition int
	pc        sarama.PartitionConsumer
	pom       sarama.PartitionOffsetManager
	caughtUp  bool
}

// partitionConsumer fans the partition consumers of one binding into a
// single Consume stream.
type partitionConsumer struct {
	topic  string
	tier   string
	logger types.Logger

	parts []boundPartition
	items chan item
	wg    sync.WaitGroup

	mu   sync.Mutex
	last *types.Record
	poms map[int]sarama.PartitionOffsetManager

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

var _ types.PartitionConsumer = (*partitionConsumer)(nil)

func newPartitionConsumer(topic, tier string, logger types.Logger) *partitionConsumer {
	return &partitionConsumer{
		topic:  topic,
		tier:   tier,
		logger: logger,
		items:  make(chan item),
		poms:   make(map[int]sarama.PartitionOffsetManager),
		closed: make(chan struct{}),
	}
}

func (c *partitionConsumer) add(partition int, pc sarama.PartitionConsumer, pom sarama.PartitionOffsetManager, caughtUp bool) {
	c.parts = append(c.parts, boundPartition{partition: partition, pc: pc, pom: pom, caughtUp: caughtUp})
	if pom != nil {
		c.poms[partition] = pom
	}
}

func (c *partitionConsumer) start() {
	for _, bp := range c.parts {
		c.wg.Go(func() { c.forward(bp) })
	}
}

// forward copies one partition's messages and errors into items. A marker
// follows every message that reaches the high-water mark.
func (c *partitionConsumer) forward(bp boundPartition) {
	if bp.caughtUp && !c.send(item{rec: types.EndOfPartitionRecord(c.topic, bp.partition)}) {
		return
	}

	msgs := bp.pc.Messages()
	errs := bp.pc.Errors()
	for {
		select {
		case <-c.closed:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			rec := types.NewRecord(c.topic, bp.partition, msg.Offset, msg.Key, msg.Value, msg.Timestamp)
			if !c.send(item{rec: rec}) {
				return
			}
			if msg.Offset+1 >= bp.pc.HighWaterMarkOffset() {
				if !c.send(item{rec: types.EndOfPartitionRecord(c.topic, bp.partition)}) {
					return
				}
			}
		case cerr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if !c.send(item{err: fmt.Errorf("%w: %s/%d: %w", types.ErrConsumeFailure, c.topic, bp.partition, cerr.Err)}) {
				return
			}
		}
	}
}

func (c *partitionConsumer) send(it item) bool {
	select {
	case c.items <- it:
		return true
	case <-c.closed:
		return false
	}
}

// Consume marks the previously returned record and waits for the next one.
func (c *partitionConsumer) Consume(ctx context.Context) (types.Record, error) {
	select {
	case <-c.closed:
		return types.Record{}, types.ErrBindingClosed
	default:
	}

	c.markLast()

	select {
	case <-ctx.Done():
		return types.Record{}, ctx.Err()
	case <-c.closed:
		return types.Record{}, types.ErrBindingClosed
	case it := <-c.items:
		if it.err == nil && !it.rec.EndOfPartition {
			c.mu.Lock()
			rec := it.rec
			c.last = &rec
			c.mu.Unlock()
		}

		return it.rec, it.err
	}
}

func (c *partitionConsumer) markLast() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return
	}
	if pom, ok := c.poms[c.last.Partition]; ok {
		pom.MarkOffset(c.last.Offset+1, "")
	}
	c.last = nil
}

// Close marks the last delivered record and closes every partition
// consumer and partition offset manager of the binding.
func (c *partitionConsumer) Close() error {
	c.closeOnce.Do(func() {
		c.markLast()
		close(c.closed)
		c.wg.Wait()

		var errs []error
		for _, bp := range c.parts {
			if err := bp.pc.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s/%d: %w", c.topic, bp.partition, err))
			}
			if bp.pom != nil {
				if err := bp.pom.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
		c.closeErr = errors.Join(errs...)
		if c.closeErr != nil {
			c.logger.Warn("closing tier binding failed", "topic", c.topic, "tier", c.tier, "error", c.closeErr)
		}
	})

	return c.closeErr
}
