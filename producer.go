package prioritization

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/metrics"
	"github.com/no0law1/kafka-prioritization/partitioner"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

// ProducerSubstrate is the part of a substrate a Producer needs.
type ProducerSubstrate interface {
	types.Publisher
	types.TopicInspector
}

// Producer publishes messages into the partition range of their priority.
//
// A Producer is the publishing half of a Router and can be used on its own
// by processes that never consume. It does not own the substrate: closing
// the substrate is the caller's job.
//
// Lifecycle:
//   - Create with NewProducer()
//   - Call Prepare() to check the topic and register the tier partitioner
//   - Publish from any number of goroutines
type Producer struct {
	cfg      Config
	sub      ProducerSubstrate
	registry *tiering.Registry
	opts     routerOptions
	logger   Logger
	metrics  MetricsCollector

	mu       sync.Mutex
	prepared bool
	part     *partitioner.TierPartitioner
}

// NewProducer validates cfg and computes the startup tier table.
//
// Parameters:
//   - cfg: Router configuration (defaults are applied to unset fields)
//   - sub: Substrate to publish through
//   - opts: Optional logger, metrics, table store, seed
//
// Returns:
//   - *Producer: Producer that still needs Prepare
//   - error: ErrInvalidConfig (wrapped) or ErrSubstrateRequired
//
// Example:
//
//	producer, err := prioritization.NewProducer(prioritization.DefaultConfig(), sub)
//	if err != nil { /* handle */ }
//	if err := producer.Prepare(ctx); err != nil { /* handle */ }
//	_, err = producer.Publish(ctx, prioritization.PriorityHigh, []byte("password reset"))
func NewProducer(cfg Config, sub ProducerSubstrate, opts ...Option) (*Producer, error) {
	if sub == nil {
		return nil, ErrSubstrateRequired
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := routerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	registry, err := tiering.NewRegistry(cfg.TotalPartitions, cfg.Weights.TierWeights(),
		tiering.WithRegistryLogger(loggerInstance),
		tiering.WithRegistryMetrics(metricsCollector),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Producer{
		cfg:      cfg,
		sub:      sub,
		registry: registry,
		opts:     options,
		logger:   loggerInstance,
		metrics:  metricsCollector,
	}, nil
}

// Prepare checks the topic against the configuration and registers the tier
// partitioner with the substrate.
//
// Steps:
//  1. The topic's actual partition count must equal TotalPartitions
//  2. Every tier must own at least one partition
//  3. With a TableStore, the table is recorded or compared with the table
//     another process recorded
//  4. The tier partitioner is registered for the topic
//
// Calling Prepare again after a success is a no-op.
//
// Returns:
//   - error: ErrConfiguration (wrapped) for a count mismatch, ErrEmptyTier,
//     ErrTableMismatch, or the substrate error
func (p *Producer) Prepare(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.prepared {
		return nil
	}

	topic := p.cfg.Topic
	count, err := p.sub.PartitionCount(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to inspect topic %s: %w", topic, err)
	}
	if count != p.cfg.TotalPartitions {
		return fmt.Errorf("%w: topic %s has %d partitions, configured for %d",
			ErrConfiguration, topic, count, p.cfg.TotalPartitions)
	}

	table := p.registry.Current()
	if empty := table.EmptyTiers(); len(empty) > 0 {
		return fmt.Errorf("%w: %v in %s", ErrEmptyTier, empty, table.String())
	}

	if p.opts.tableStore != nil {
		if err := p.opts.tableStore.Reconcile(ctx, topic, table); err != nil {
			return fmt.Errorf("failed to reconcile tier table: %w", err)
		}
	}

	popts := []partitioner.Option{
		partitioner.WithLogger(p.logger),
		partitioner.WithMetrics(p.metrics),
	}
	if p.opts.seeded {
		popts = append(popts, partitioner.WithSeed(p.opts.seed))
	}
	part, err := partitioner.New(p.registry, popts...)
	if err != nil {
		return err
	}
	if err := p.sub.SetPartitioner(topic, part); err != nil {
		return fmt.Errorf("failed to register partitioner for %s: %w", topic, err)
	}

	p.part = part
	p.prepared = true
	p.logger.Info("tier partitioner registered", "topic", topic, "table", table.String())

	return nil
}

// Publish sends payload with the key of priority.
//
// There is no automatic retry; the caller decides what to do with a failure.
//
// Parameters:
//   - ctx: Context for the publish
//   - priority: Message class
//   - payload: Message value
//
// Returns:
//   - PublishResult: Partition and offset the substrate assigned
//   - error: ErrNotStarted before Prepare, otherwise ErrPublishFailure
//     (wrapped) keeping ErrInvalidPriority or the substrate error in the chain
func (p *Producer) Publish(ctx context.Context, priority Priority, payload []byte) (PublishResult, error) {
	if !priority.Valid() {
		p.metrics.RecordPublish(priority.String(), false, 0)
		return PublishResult{}, fmt.Errorf("%w: %w: %d", ErrPublishFailure, ErrInvalidPriority, int(priority))
	}

	return p.publish(ctx, priority.String(), priority.Key(), payload)
}

// PublishKey sends payload with a raw key. The key must decode to a
// priority; unknown keys are rejected by the partitioner, never routed to a
// default partition.
func (p *Producer) PublishKey(ctx context.Context, key, payload []byte) (PublishResult, error) {
	label := "Unknown"
	if priority, err := types.DecodeKey(key); err == nil {
		label = priority.String()
	}

	return p.publish(ctx, label, key, payload)
}

func (p *Producer) publish(ctx context.Context, label string, key, payload []byte) (PublishResult, error) {
	p.mu.Lock()
	prepared := p.prepared
	p.mu.Unlock()
	if !prepared {
		return PublishResult{}, ErrNotStarted
	}

	start := time.Now()
	res, err := p.sub.Publish(ctx, p.cfg.Topic, key, payload)
	p.metrics.RecordPublish(label, err == nil, time.Since(start).Seconds())
	if err != nil {
		p.logger.Debug("publish failed", "topic", p.cfg.Topic, "priority", label, "error", err)
		return PublishResult{}, err
	}

	return res, nil
}

// Table returns the tier table the producer was configured with.
func (p *Producer) Table() *tiering.Table {
	return p.registry.Current()
}

// Partitioner returns the registered tier partitioner, nil before Prepare.
func (p *Producer) Partitioner() *partitioner.TierPartitioner {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.part
}
