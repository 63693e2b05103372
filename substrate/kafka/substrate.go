package kafka

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/IBM/sarama"

	"github.com/no0law1/kafka-prioritization/types"
)

// OffsetSource reports partition log offsets. sarama.Client satisfies it.
type OffsetSource interface {
	GetOffset(topic string, partitionID int32, time int64) (int64, error)
}

// Substrate is a types.Substrate backed by Kafka.
type Substrate struct {
	cfg      Config
	registry *PartitionerRegistry
	producer sarama.SyncProducer
	consumer sarama.Consumer
	client   sarama.Client
	offsets  OffsetSource

	mu       sync.Mutex
	managers map[string]sarama.OffsetManager
	closed   bool
}

// Compile-time assertion that Substrate implements types.Substrate.
var _ types.Substrate = (*Substrate)(nil)

// New connects to brokers and creates the producer and consumer.
//
// Parameters:
//   - brokers: Bootstrap broker addresses
//   - cfg: Substrate configuration
//
// Returns:
//   - *Substrate: Connected substrate; Close releases the client
//   - error: ErrConfiguration for bad input, ErrConnectivity (wrapped) when
//     the cluster is unreachable
//
// Example:
//
//	sub, err := kafka.New([]string{"localhost:9092"}, kafka.Config{CommitOffsets: true})
//	if err != nil { /* handle */ }
//	defer sub.Close()
func New(brokers []string, cfg Config) (*Substrate, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", types.ErrConfiguration)
	}

	reg := NewPartitionerRegistry()
	sc, err := NewConfig(cfg, reg)
	if err != nil {
		return nil, err
	}

	client, err := sarama.NewClient(brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConnectivity, err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = producer.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	s := NewWithClients(producer, consumer, reg, cfg)
	s.client = client
	s.offsets = client

	return s, nil
}

// NewWithClients assembles a substrate from existing Sarama clients. The
// producer must have been built with NewConfig(cfg, reg). Offsets are not
// committed and no initial end-of-partition markers are emitted unless
// WithOffsetSource is used.
func NewWithClients(producer sarama.SyncProducer, consumer sarama.Consumer, reg *PartitionerRegistry, cfg Config) *Substrate {
	cfg.applyDefaults()

	return &Substrate{
		cfg:      cfg,
		registry: reg,
		producer: producer,
		consumer: consumer,
		managers: make(map[string]sarama.OffsetManager),
	}
}

// WithOffsetSource sets the source used to detect partitions that are
// already caught up at bind time.
func (s *Substrate) WithOffsetSource(src OffsetSource) *Substrate {
	s.offsets = src

	return s
}

// PartitionCount implements types.TopicInspector.
func (s *Substrate) PartitionCount(_ context.Context, topic string) (int, error) {
	parts, err := s.consumer.Partitions(topic)
	if err != nil {
		if errors.Is(err, sarama.ErrUnknownTopicOrPartition) {
			return 0, fmt.Errorf("%w: %s", types.ErrTopicNotFound, topic)
		}

		return 0, fmt.Errorf("%w: %w", types.ErrConnectivity, err)
	}
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: %s", types.ErrTopicNotFound, topic)
	}

	return len(parts), nil
}

// SetPartitioner implements types.Publisher.
func (s *Substrate) SetPartitioner(topic string, p types.Partitioner) error {
	if p == nil {
		return fmt.Errorf("%w: nil partitioner for %s", types.ErrConfiguration, topic)
	}
	s.registry.Set(topic, p)

	return nil
}

// Publish implements types.Publisher.
//
// The Sarama producer runs the registered partitioner; ErrInvalidPriority
// and ErrEmptyTier stay in the returned chain.
func (s *Substrate) Publish(ctx context.Context, topic string, key, value []byte) (types.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}
	if _, ok := s.registry.Get(topic); !ok {
		return types.PublishResult{}, fmt.Errorf("%w: %w: %s", types.ErrPublishFailure, types.ErrNoPartitioner, topic)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}

	return types.PublishResult{Topic: topic, Partition: int(partition), Offset: offset}, nil
}

// Bind implements types.Binder.
//
// One Sarama partition consumer is opened per bound partition, starting at
// the committed offset of b.Group when offset commits are enabled, at
// Config.InitialOffset otherwise.
func (s *Substrate) Bind(ctx context.Context, b types.Binding) (types.PartitionConsumer, error) {
	if len(b.Partitions) == 0 {
		return nil, fmt.Errorf("%w: %s binding has no partitions", types.ErrEmptyTier, b.Priority)
	}

	topic := b.Partitions[0].Topic
	count, err := s.PartitionCount(ctx, topic)
	if err != nil {
		return nil, err
	}

	parts := make([]int32, 0, len(b.Partitions))
	for _, tp := range b.Partitions {
		if tp.Topic != topic || tp.Partition < 0 || tp.Partition >= count {
			return nil, fmt.Errorf("%w: cannot bind %s on %d partitions", types.ErrConfiguration, tp, count)
		}
		parts = append(parts, int32(tp.Partition)) //nolint:gosec // bounded by count
	}
	slices.Sort(parts)
	parts = slices.Compact(parts)

	om, err := s.offsetManager(b.Group)
	if err != nil {
		return nil, err
	}

	pc := newPartitionConsumer(topic, b.Priority.String(), s.cfg.Logger)
	for _, p := range parts {
		start := s.cfg.InitialOffset

		var pom sarama.PartitionOffsetManager
		if om != nil {
			pom, err = om.ManagePartition(topic, p)
			if err != nil {
				_ = pc.Close()
				return nil, fmt.Errorf("failed to manage offsets for %s/%d: %w", topic, p, err)
			}
			if next, _ := pom.NextOffset(); next >= 0 {
				start = next
			}
		}

		spc, err := s.consumer.ConsumePartition(topic, p, start)
		if err != nil {
			if pom != nil {
				_ = pom.Close()
			}
			_ = pc.Close()

			return nil, fmt.Errorf("%w: consume %s/%d: %w", types.ErrConsumeFailure, topic, p, err)
		}
		pc.add(int(p), spc, pom, s.caughtUp(topic, p, start))
	}
	pc.start()

	s.cfg.Logger.Info("tier binding ready", "topic", topic, "tier", b.Priority.String(), "partitions", len(parts))

	return pc, nil
}

// caughtUp reports whether a partition has nothing to read from start.
func (s *Substrate) caughtUp(topic string, partition int32, start int64) bool {
	if s.offsets == nil {
		return false
	}
	if start == sarama.OffsetNewest {
		return true
	}

	newest, err := s.offsets.GetOffset(topic, partition, sarama.OffsetNewest)
	if err != nil {
		return false
	}
	if start == sarama.OffsetOldest {
		oldest, err := s.offsets.GetOffset(topic, partition, sarama.OffsetOldest)
		if err != nil {
			return false
		}
		start = oldest
	}

	return start >= newest
}

func (s *Substrate) offsetManager(group string) (sarama.OffsetManager, error) {
	if !s.cfg.CommitOffsets || s.client == nil {
		return nil, nil //nolint:nilnil // commits disabled
	}
	if group == "" {
		return nil, fmt.Errorf("%w: offset commits require a consumer group", types.ErrConfiguration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if om, ok := s.managers[group]; ok {
		return om, nil
	}
	om, err := sarama.NewOffsetManagerFromClient(group, s.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create offset manager for %s: %w", group, err)
	}
	s.managers[group] = om

	return om, nil
}

// Close implements types.Publisher. It closes the producer, the consumer,
// any offset managers and the client when the substrate created it.
// Bindings should be closed first.
func (s *Substrate) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	managers := s.managers
	s.managers = nil
	s.mu.Unlock()

	var errs []error
	for _, om := range managers {
		errs = append(errs, om.Close())
	}
	errs = append(errs, s.producer.Close(), s.consumer.Close())
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}

	return errors.Join(errs...)
}
