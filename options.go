package prioritization

import (
	"context"

	"github.com/no0law1/kafka-prioritization/tiering"
)

// TableStore shares the tier table of a topic between processes.
//
// Reconcile records table as the layout of topic, or verifies it against a
// layout recorded earlier and returns ErrTableMismatch when they differ.
// natsjs.TableStore implements it on a JetStream KV bucket.
type TableStore interface {
	Reconcile(ctx context.Context, topic string, table *tiering.Table) error
}

// Option configures a Router with optional dependencies.
type Option func(*routerOptions)

// routerOptions holds optional Router configuration.
type routerOptions struct {
	hooks      *Hooks
	metrics    MetricsCollector
	logger     Logger
	tableStore TableStore
	seed       uint64
	seeded     bool
}

// WithHooks sets tier worker lifecycle hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	hooks := &prioritization.Hooks{
//	    OnError: func(ctx context.Context, err error) error {
//	        alerts.Notify(err)
//	        return nil
//	    },
//	}
//	router, err := prioritization.NewRouter(cfg, sub, handler, prioritization.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *routerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "prioritization")
//	router, err := prioritization.NewRouter(cfg, sub, handler, prioritization.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *routerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (any key/value logger, e.g. the slog adapter)
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	router, err := prioritization.NewRouter(cfg, sub, handler, prioritization.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger Logger) Option {
	return func(o *routerOptions) {
		o.logger = logger
	}
}

// WithTableStore makes Start record the tier table, or verify it against the
// table another process recorded for the same topic.
//
// Parameters:
//   - store: TableStore implementation
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	store, err := natsjs.NewTableStore(ctx, js, "", logger)
//	if err != nil { /* handle */ }
//	router, err := prioritization.NewRouter(cfg, sub, handler, prioritization.WithTableStore(store))
func WithTableStore(store TableStore) Option {
	return func(o *routerOptions) {
		o.tableStore = store
	}
}

// WithSeed makes partition draws and worker backoff jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(o *routerOptions) {
		o.seed = seed
		o.seeded = true
	}
}
