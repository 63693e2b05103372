// Package memory provides an in-process types.Substrate.
//
// Topics are fixed arrays of partition logs held in memory. Publishing runs
// the registered partitioner exactly like a real broker would; bindings read
// their partitions from the oldest offset and emit one end-of-partition
// marker each time a partition is caught up. It backs unit tests and the
// --substrate memory mode of the CLI.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/no0law1/kafka-prioritization/types"
)

// Broker is an in-memory partitioned log.
type Broker struct {
	mu           sync.Mutex
	topics       map[string]*topic
	partitioners map[string]types.Partitioner
	closed       bool
}

type topic struct {
	logs [][]types.Record

	// changed is closed and replaced on every publish to wake blocked consumers.
	changed chan struct{}
}

// Compile-time assertion that Broker implements Substrate.
var _ types.Substrate = (*Broker)(nil)

// New creates an empty broker.
func New() *Broker {
	return &Broker{
		topics:       make(map[string]*topic),
		partitioners: make(map[string]types.Partitioner),
	}
}

// CreateTopic creates topic with a fixed partition count. Creating an existing
// topic with the same count is a no-op.
func (b *Broker) CreateTopic(name string, partitions int) error {
	if name == "" || partitions <= 0 {
		return fmt.Errorf("%w: topic %q with %d partitions", types.ErrConfiguration, name, partitions)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[name]; ok {
		if len(t.logs) != partitions {
			return fmt.Errorf("%w: topic %q exists with %d partitions", types.ErrConfiguration, name, len(t.logs))
		}

		return nil
	}
	b.topics[name] = &topic{logs: make([][]types.Record, partitions), changed: make(chan struct{})}

	return nil
}

// PartitionCount implements types.TopicInspector.
func (b *Broker) PartitionCount(_ context.Context, name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrTopicNotFound, name)
	}

	return len(t.logs), nil
}

// SetPartitioner implements types.Publisher.
func (b *Broker) SetPartitioner(name string, p types.Partitioner) error {
	if p == nil {
		return fmt.Errorf("%w: nil partitioner for %s", types.ErrConfiguration, name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.partitioners[name] = p

	return nil
}

// Publish implements types.Publisher.
func (b *Broker) Publish(ctx context.Context, name string, key, value []byte) (types.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return types.PublishResult{}, fmt.Errorf("%w: broker closed", types.ErrPublishFailure)
	}
	t, ok := b.topics[name]
	if !ok {
		return types.PublishResult{}, fmt.Errorf("%w: %w: %s", types.ErrPublishFailure, types.ErrTopicNotFound, name)
	}
	p, ok := b.partitioners[name]
	if !ok {
		return types.PublishResult{}, fmt.Errorf("%w: %w: %s", types.ErrPublishFailure, types.ErrNoPartitioner, name)
	}

	idx, err := p.Partition(name, len(t.logs), key)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}
	if idx < 0 || idx >= len(t.logs) {
		return types.PublishResult{}, fmt.Errorf("%w: partitioner returned %d of %d", types.ErrPublishFailure, idx, len(t.logs))
	}

	offset := int64(len(t.logs[idx]))
	t.logs[idx] = append(t.logs[idx], types.NewRecord(name, idx, offset, clone(key), clone(value), time.Now()))
	close(t.changed)
	t.changed = make(chan struct{})

	return types.PublishResult{Topic: name, Partition: idx, Offset: offset}, nil
}

// Bind implements types.Binder.
func (b *Broker) Bind(_ context.Context, binding types.Binding) (types.PartitionConsumer, error) {
	return b.BindConsumer(binding)
}

// BindConsumer is Bind returning the concrete consumer, for tests that
// inject failures.
func (b *Broker) BindConsumer(binding types.Binding) (*Consumer, error) {
	if len(binding.Partitions) == 0 {
		return nil, fmt.Errorf("%w: %s binding has no partitions", types.ErrEmptyTier, binding.Priority)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	name := binding.Partitions[0].Topic
	t, ok := b.topics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTopicNotFound, name)
	}
	parts := make([]int, 0, len(binding.Partitions))
	for _, tp := range binding.Partitions {
		if tp.Topic != name || tp.Partition < 0 || tp.Partition >= len(t.logs) {
			return nil, fmt.Errorf("%w: cannot bind %s", types.ErrConfiguration, tp)
		}
		parts = append(parts, tp.Partition)
	}

	return &Consumer{
		broker:  b,
		topic:   name,
		t:       t,
		parts:   parts,
		offsets: make(map[int]int64, len(parts)),
		atEOF:   make(map[int]bool, len(parts)),
		closed:  make(chan struct{}),
	}, nil
}

// Messages returns a copy of the records stored on one partition.
func (b *Broker) Messages(name string, partition int) []types.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[name]
	if !ok || partition < 0 || partition >= len(t.logs) {
		return nil
	}
	out := make([]types.Record, len(t.logs[partition]))
	copy(out, t.logs[partition])

	return out
}

// Close implements types.Publisher. Further publishes fail.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true

	return nil
}

// Consumer is a static binding on a Broker.
type Consumer struct {
	broker *Broker
	topic  string
	t      *topic
	parts  []int

	mu      sync.Mutex
	offsets map[int]int64
	atEOF   map[int]bool
	cursor  int
	failErr []error

	closeOnce  sync.Once
	closeCount int
	closed     chan struct{}
}

// Compile-time assertion that Consumer implements PartitionConsumer.
var _ types.PartitionConsumer = (*Consumer)(nil)

// FailNext makes the next len(errs) Consume calls return the given errors,
// wrapped in ErrConsumeFailure.
func (c *Consumer) FailNext(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = append(c.failErr, errs...)
}

// Consume implements types.PartitionConsumer.
func (c *Consumer) Consume(ctx context.Context) (types.Record, error) {
	for {
		select {
		case <-c.closed:
			return types.Record{}, types.ErrBindingClosed
		default:
		}
		if err := ctx.Err(); err != nil {
			return types.Record{}, err
		}

		rec, changed, ok, err := c.next()
		if err != nil {
			return types.Record{}, err
		}
		if ok {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return types.Record{}, ctx.Err()
		case <-c.closed:
			return types.Record{}, types.ErrBindingClosed
		case <-changed:
		}
	}
}

// next returns the next pending record or end-of-partition marker. When
// there is nothing to return it hands back the channel to wait on.
func (c *Consumer) next() (types.Record, <-chan struct{}, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.failErr) > 0 {
		err := c.failErr[0]
		c.failErr = c.failErr[1:]

		return types.Record{}, nil, false, fmt.Errorf("%w: %w", types.ErrConsumeFailure, err)
	}

	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()

	// round-robin over the bound partitions so no partition starves
	for i := range c.parts {
		p := c.parts[(c.cursor+i)%len(c.parts)]
		log := c.t.logs[p]
		off := c.offsets[p]
		if off < int64(len(log)) {
			c.offsets[p] = off + 1
			c.atEOF[p] = false
			c.cursor = (c.cursor + i + 1) % len(c.parts)

			return log[off], nil, true, nil
		}
	}

	for _, p := range c.parts {
		if !c.atEOF[p] {
			c.atEOF[p] = true

			return types.EndOfPartitionRecord(c.topic, p), nil, true, nil
		}
	}

	return types.Record{}, c.t.changed, false, nil
}

// Close implements types.PartitionConsumer.
func (c *Consumer) Close() error {
	c.mu.Lock()
	c.closeCount++
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.closed) })

	return nil
}

// CloseCount returns how many times Close was called on the binding.
func (c *Consumer) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeCount
}

// Partitions returns the bound partition indices.
func (c *Consumer) Partitions() []int {
	out := make([]int, len(c.parts))
	copy(out, c.parts)

	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)

	return out
}
