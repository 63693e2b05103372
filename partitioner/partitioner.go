// Package partitioner implements the producer face of priority tiering: a
// Partitioner that keeps every message inside its priority's partition range.
package partitioner

import (
	"fmt"
	rand "math/rand/v2"
	"sync"

	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/metrics"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

// Metrics is the subset of types.MetricsCollector the partitioner records.
type Metrics interface {
	types.PublishMetrics
	types.TableMetrics
}

// TierPartitioner picks a uniformly random partition inside the range of the
// priority encoded in the message key.
//
// A single PCG generator guarded by a mutex serves every call, so the
// partitioner is safe for concurrent use.
type TierPartitioner struct {
	registry *tiering.Registry
	logger   types.Logger
	metrics  Metrics

	mu  sync.Mutex
	rng *rand.Rand
}

// Compile-time assertion that TierPartitioner implements Partitioner.
var _ types.Partitioner = (*TierPartitioner)(nil)

// Option configures a TierPartitioner.
type Option func(*options)

type options struct {
	seed    uint64
	seeded  bool
	logger  types.Logger
	metrics Metrics
}

// WithSeed makes partition draws reproducible.
//
// Parameters:
//   - seed: PCG seed; the same seed yields the same draw sequence
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithLogger sets the logger used for rejected keys.
func WithLogger(logger types.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates a partitioner over the registry's tables.
//
// Parameters:
//   - registry: Table registry holding the process tier weights
//   - opts: Optional seed, logger, metrics
//
// Returns:
//   - *TierPartitioner: Ready partitioner
//   - error: ErrConfiguration (wrapped) if registry is nil
func New(registry *tiering.Registry, opts ...Option) (*TierPartitioner, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: partitioner requires a table registry", types.ErrConfiguration)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint64() //nolint:gosec // partition spreading, not crypto
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}

	return &TierPartitioner{
		registry: registry,
		logger:   o.logger,
		metrics:  o.metrics,
		rng:      rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)), //nolint:gosec
	}, nil
}

// Partition selects the partition for a message.
//
// The key is decoded to a priority; undecodable keys are rejected and never
// fall back to a default partition. The tier table is resolved for
// partitionCount, so a topic resized under a running producer still gets a
// valid index, and the mismatch against the startup table is counted.
//
// Parameters:
//   - topic: Topic name (used for diagnostics)
//   - partitionCount: Actual partition count reported by the substrate
//   - key: Encoded priority (see types.Priority.Key)
//
// Returns:
//   - int: Partition index inside the priority's range
//   - error: ErrInvalidPriority (bad key), ErrEmptyTier (tier owns no
//     partitions at this count), or ErrConfiguration (partitionCount <= 0)
func (p *TierPartitioner) Partition(topic string, partitionCount int, key []byte) (int, error) {
	priority, err := types.DecodeKey(key)
	if err != nil {
		p.metrics.RecordInvalidKey()
		p.logger.Debug("rejected message key", "topic", topic, "key", string(key))

		return 0, err
	}

	return p.PartitionFor(priority, partitionCount)
}

// PartitionFor selects a partition for an already decoded priority.
func (p *TierPartitioner) PartitionFor(priority types.Priority, partitionCount int) (int, error) {
	expected := p.registry.Current().TotalPartitions()
	if partitionCount != expected {
		p.metrics.RecordTableDesync(expected, partitionCount)
	}

	table, err := p.registry.Resolve(partitionCount)
	if err != nil {
		return 0, err
	}

	r, err := table.Range(priority)
	if err != nil {
		return 0, err
	}
	if r.Empty() {
		return 0, fmt.Errorf("%w: %s at %d partitions", types.ErrEmptyTier, priority, partitionCount)
	}

	p.mu.Lock()
	idx := r.Start + p.rng.IntN(r.Len())
	p.mu.Unlock()

	p.metrics.RecordPartitionSelected(priority.String(), idx)

	return idx, nil
}
