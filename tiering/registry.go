package tiering

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/metrics"
	"github.com/no0law1/kafka-prioritization/types"
)

// Registry holds the process-wide tier weights and caches one Table per
// observed partition count.
//
// The table computed at construction is the current table: the layout the
// process started with and bound its consumers to. Tables for other counts
// are computed on demand when a producer observes a different partition
// count, and indicate the topic was resized under a running process.
//
// Registry is safe for concurrent use.
type Registry struct {
	weights types.Weights
	tables  *xsync.Map[int, *Table]
	current *Table
	version atomic.Int64

	logger  types.Logger
	metrics types.TableMetrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for desync warnings.
func WithRegistryLogger(logger types.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryMetrics sets the collector that records computed tables.
func WithRegistryMetrics(m types.TableMetrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRegistry builds the current table for total and starts the cache.
//
// Parameters:
//   - total: Configured partition count of the topic
//   - weights: Ordered tier weights, copied and never modified afterwards
//   - opts: Optional logger and metrics
//
// Returns:
//   - *Registry: Registry whose Current() table covers total
//   - error: ErrConfiguration (wrapped) for invalid input
func NewRegistry(total int, weights types.Weights, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		weights: weights.Clone(),
		tables:  xsync.NewMap[int, *Table](),
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	t, err := New(total, r.weights)
	if err != nil {
		return nil, err
	}
	r.current = t.withVersion(r.version.Add(1))
	r.tables.Store(total, r.current)
	r.metrics.RecordTableComputed(total, r.current.version)
	for _, tr := range r.current.ranges {
		r.metrics.RecordTierSize(tr.Priority.String(), tr.Range.Len())
	}

	return r, nil
}

// Current returns the table the process started with.
func (r *Registry) Current() *Table {
	return r.current
}

// Weights returns a copy of the registry's tier weights.
func (r *Registry) Weights() types.Weights {
	return r.weights.Clone()
}

// Resolve returns the table for count, computing and caching it on first use.
//
// Parameters:
//   - count: Actual partition count observed on the substrate
//
// Returns:
//   - *Table: Cached or newly computed table
//   - error: ErrConfiguration (wrapped) if count is not positive
func (r *Registry) Resolve(count int) (*Table, error) {
	if count == r.current.total {
		return r.current, nil
	}
	if t, ok := r.tables.Load(count); ok {
		return t, nil
	}

	t, err := New(count, r.weights)
	if err != nil {
		return nil, err
	}

	t = t.withVersion(r.version.Add(1))
	actual, loaded := r.tables.LoadOrStore(count, t)
	if !loaded {
		r.logger.Warn("partition count differs from startup table, computed new tier table",
			"expected", r.current.total,
			"actual", count,
			"version", actual.version,
			"table", actual.String(),
		)
		r.metrics.RecordTableComputed(count, actual.version)
	}

	return actual, nil
}

// Size returns the number of cached tables.
func (r *Registry) Size() int {
	return r.tables.Size()
}

