package natsjs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/no0law1/kafka-prioritization/internal/kvutil"
	"github.com/no0law1/kafka-prioritization/internal/natsutil"
	"github.com/no0law1/kafka-prioritization/types"
)

// Substrate is a types.Substrate backed by JetStream.
type Substrate struct {
	js  jetstream.JetStream
	cfg Config

	partitioners *xsync.Map[string, types.Partitioner]
	counts       *xsync.Map[string, int]
	closed       atomic.Bool
}

// Compile-time assertion that Substrate implements types.Substrate.
var _ types.Substrate = (*Substrate)(nil)

// New creates a substrate over a NATS connection.
//
// Parameters:
//   - conn: NATS connection (must be non-nil)
//   - cfg: Tuning; zero values use defaults
//
// Returns:
//   - *Substrate: Ready substrate
//   - error: ErrConfiguration for a nil connection, or the JetStream context error
func New(conn *nats.Conn, cfg Config) (*Substrate, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: NATS connection is required", types.ErrConfiguration)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return NewJS(js, cfg)
}

// NewJS creates a substrate over a pre-initialized JetStream context.
func NewJS(js jetstream.JetStream, cfg Config) (*Substrate, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: JetStream context is required", types.ErrConfiguration)
	}
	cfg.applyDefaults()

	return &Substrate{
		js:           js,
		cfg:          cfg,
		partitioners: xsync.NewMap[string, types.Partitioner](),
		counts:       xsync.NewMap[string, int](),
	}, nil
}

// EnsureTopic creates the stream backing topic, or opens it if it exists.
//
// An existing stream must already record the same partition count; the
// layout is never changed in place.
//
// Parameters:
//   - ctx: Context for cancellation and retry timing
//   - topic: Topic (stream) name
//   - partitions: Partition count
//
// Returns:
//   - error: ErrConfiguration for bad input or a conflicting existing stream
//
// Example:
//
//	sub, _ := natsjs.New(nc, natsjs.Config{})
//	if err := sub.EnsureTopic(ctx, "communications", 18); err != nil { /* handle */ }
func (s *Substrate) EnsureTopic(ctx context.Context, topic string, partitions int) error {
	if topic == "" || partitions <= 0 {
		return fmt.Errorf("%w: topic %q with %d partitions", types.ErrConfiguration, topic, partitions)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        topic,
		Description: "prioritization topic " + topic,
		Subjects:    []string{topic + ".*"},
		Metadata:    map[string]string{MetadataPartitions: strconv.Itoa(partitions)},
		Storage:     s.cfg.Storage,
		Replicas:    s.cfg.Replicas,
	}

	stream, err := kvutil.EnsureStreamWithRetry(ctx, s.js, streamCfg, s.cfg.MaxRetries+1)
	if err != nil {
		return natsutil.Classify(err)
	}

	got, err := partitionsFromInfo(topic, stream.CachedInfo())
	if err != nil {
		return err
	}
	if got != partitions {
		return fmt.Errorf("%w: stream %s already has %d partitions, want %d", types.ErrConfiguration, topic, got, partitions)
	}
	s.counts.Store(topic, partitions)
	s.cfg.Logger.Info("topic ready", "topic", topic, "partitions", partitions)

	return nil
}

// PartitionCount implements types.TopicInspector. The count is read from the
// stream metadata once and cached.
func (s *Substrate) PartitionCount(ctx context.Context, topic string) (int, error) {
	if n, ok := s.counts.Load(topic); ok {
		return n, nil
	}

	stream, err := s.js.Stream(ctx, topic)
	if err != nil {
		if errors.Is(err, jetstream.ErrStreamNotFound) {
			return 0, fmt.Errorf("%w: %s", types.ErrTopicNotFound, topic)
		}

		return 0, natsutil.Classify(err)
	}

	n, err := partitionsFromInfo(topic, stream.CachedInfo())
	if err != nil {
		return 0, err
	}
	s.counts.Store(topic, n)

	return n, nil
}

func partitionsFromInfo(topic string, info *jetstream.StreamInfo) (int, error) {
	if info == nil {
		return 0, fmt.Errorf("%w: no info for stream %s", types.ErrTopicNotFound, topic)
	}

	raw, ok := info.Config.Metadata[MetadataPartitions]
	if !ok {
		return 0, fmt.Errorf("%w: stream %s has no %q metadata", types.ErrConfiguration, topic, MetadataPartitions)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: stream %s partitions metadata %q", types.ErrConfiguration, topic, raw)
	}

	return n, nil
}

// SetPartitioner implements types.Publisher.
func (s *Substrate) SetPartitioner(topic string, p types.Partitioner) error {
	if p == nil {
		return fmt.Errorf("%w: nil partitioner for %s", types.ErrConfiguration, topic)
	}
	s.partitioners.Store(topic, p)

	return nil
}

// Publish implements types.Publisher.
//
// The registered partitioner picks the partition from the key; the message
// goes to <topic>.<index> with the key in the Tier-Key header. Every failure
// wraps ErrPublishFailure; partitioner errors (ErrInvalidPriority,
// ErrEmptyTier) stay in the chain.
func (s *Substrate) Publish(ctx context.Context, topic string, key, value []byte) (types.PublishResult, error) {
	if s.closed.Load() {
		return types.PublishResult{}, fmt.Errorf("%w: substrate closed", types.ErrPublishFailure)
	}

	p, ok := s.partitioners.Load(topic)
	if !ok {
		return types.PublishResult{}, fmt.Errorf("%w: %w: %s", types.ErrPublishFailure, types.ErrNoPartitioner, topic)
	}

	count, err := s.PartitionCount(ctx, topic)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}

	idx, err := p.Partition(topic, count, key)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}
	if idx < 0 || idx >= count {
		return types.PublishResult{}, fmt.Errorf("%w: partitioner returned %d of %d", types.ErrPublishFailure, idx, count)
	}

	msg := nats.NewMsg(types.TopicPartition{Topic: topic, Partition: idx}.SubjectKey())
	msg.Header.Set(HeaderTierKey, string(key))
	msg.Data = value

	ack, err := s.js.PublishMsg(ctx, msg, jetstream.WithExpectStream(topic))
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("%w: %w", types.ErrPublishFailure, natsutil.Classify(err))
	}

	return types.PublishResult{Topic: topic, Partition: idx, Offset: int64(ack.Sequence)}, nil //nolint:gosec // stream sequences fit in int64
}

// Bind implements types.Binder.
//
// The durable consumer <group>-<tier> is created or updated so that its
// FilterSubjects are exactly the bound partitions' subjects. Creation is
// retried with jittered backoff.
func (s *Substrate) Bind(ctx context.Context, b types.Binding) (types.PartitionConsumer, error) {
	if len(b.Partitions) == 0 {
		return nil, fmt.Errorf("%w: %s binding has no partitions", types.ErrEmptyTier, b.Priority)
	}
	if b.Group == "" {
		return nil, fmt.Errorf("%w: binding requires a consumer group", types.ErrConfiguration)
	}

	topic := b.Partitions[0].Topic
	count, err := s.PartitionCount(ctx, topic)
	if err != nil {
		return nil, err
	}

	subjects := make([]string, 0, len(b.Partitions))
	for _, tp := range b.Partitions {
		if tp.Topic != topic || tp.Partition < 0 || tp.Partition >= count {
			return nil, fmt.Errorf("%w: cannot bind %s on %d partitions", types.ErrConfiguration, tp, count)
		}
		subjects = append(subjects, tp.SubjectKey())
	}
	slices.Sort(subjects)
	subjects = slices.Compact(subjects)

	durable := DurableName(b.Group, b.Priority)
	consCfg := jetstream.ConsumerConfig{
		Name:              durable,
		Durable:           durable,
		FilterSubjects:    subjects,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           s.cfg.AckWait,
		MaxDeliver:        s.cfg.MaxDeliver,
		MaxWaiting:        s.cfg.MaxWaiting,
		InactiveThreshold: s.cfg.InactiveThreshold,
		DeliverPolicy:     s.cfg.DeliverPolicy,
	}

	var cons jetstream.Consumer
	err = s.retry(ctx, "bind", func(ctx context.Context) error {
		var createErr error
		cons, createErr = s.js.CreateOrUpdateConsumer(ctx, topic, consCfg)

		return createErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update tier consumer %s: %w", durable, err)
	}

	s.cfg.Logger.Info("tier binding ready",
		"durable", durable,
		"tier", b.Priority.String(),
		"subjects", len(subjects),
	)

	return newPartitionConsumer(cons, topic, b, s.cfg), nil
}

// Close implements types.Publisher. Further publishes fail. The NATS
// connection is owned by the caller and stays open.
func (s *Substrate) Close() error {
	s.closed.Store(true)

	return nil
}

// DurableName returns the durable consumer name used for a tier binding.
func DurableName(group string, p types.Priority) string {
	return sanitizeConsumerName(group + "-" + p.String())
}
