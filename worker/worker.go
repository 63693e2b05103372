// Package worker runs the consume loop for one priority tier.
//
// Each TierWorker owns exactly one consumer binding, polls it, hands data
// records to a Handler and releases the binding once on cancellation.
package worker

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/no0law1/kafka-prioritization/internal/backoff"
	"github.com/no0law1/kafka-prioritization/internal/hooks"
	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/metrics"
	"github.com/no0law1/kafka-prioritization/types"
)

// ErrWorkerAlreadyRunning is returned when Run is called more than once.
var ErrWorkerAlreadyRunning = types.ErrWorkerAlreadyRunning

// Default retry tuning for failed polls.
const (
	DefaultRetryBase       = backoff.DefaultBase
	DefaultRetryMax        = backoff.DefaultMax
	DefaultRetryMultiplier = backoff.DefaultMultiplier
)

// Config configures a TierWorker.
type Config struct {
	// Priority is the tier this worker serves.
	Priority types.Priority

	// Partitions is the binding the worker consumes. Records from any other
	// partition are counted as tier violations.
	Partitions []types.TopicPartition

	// RetryBase, RetryMax and RetryMultiplier tune the jittered backoff
	// applied after a failed poll. Zero values use the package defaults.
	RetryBase       time.Duration
	RetryMax        time.Duration
	RetryMultiplier float64

	// RetrySeed makes backoff jitter deterministic when non-zero.
	RetrySeed int64

	Logger  types.Logger
	Metrics types.WorkerMetrics
	Hooks   *types.Hooks
}

func (c *Config) applyDefaults() {
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	if c.RetryMax <= 0 {
		c.RetryMax = DefaultRetryMax
	}
	if c.RetryMultiplier < 1 {
		c.RetryMultiplier = DefaultRetryMultiplier
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
}

// Stats is a snapshot of a worker's counters.
type Stats struct {
	Processed      uint64
	Failed         uint64
	EndOfPartition uint64
	ConsumeErrors  uint64
	TierViolations uint64
}

// TierWorker is the consume loop of one priority tier.
//
// State machine:
//
//	Running → Polling → Processing → Polling → ...
//	(cancellation) → Draining → Closed
type TierWorker struct {
	cfg      Config
	tier     string
	consumer types.PartitionConsumer
	handler  Handler
	hooks    types.Hooks
	owned    map[types.TopicPartition]struct{}
	rng      *rand.Rand

	state   atomic.Int32
	started atomic.Bool
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error

	processed      atomic.Uint64
	failed         atomic.Uint64
	endOfPartition atomic.Uint64
	consumeErrors  atomic.Uint64
	violations     atomic.Uint64
}

// New creates a worker over an existing binding.
//
// Parameters:
//   - consumer: Bound consumer, owned by the worker from now on
//   - handler: Record handler
//   - cfg: Tier and tuning
//
// Returns:
//   - *TierWorker: Worker in the Running state, not yet polling
//   - error: ErrConfiguration (wrapped) for a nil consumer/handler or unknown priority
func New(consumer types.PartitionConsumer, handler Handler, cfg Config) (*TierWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("%w: tier worker requires a consumer binding", types.ErrConfiguration)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: tier worker requires a handler", types.ErrConfiguration)
	}
	if !cfg.Priority.Valid() {
		return nil, fmt.Errorf("%w: tier worker priority %d", types.ErrInvalidPriority, int(cfg.Priority))
	}
	cfg.applyDefaults()

	owned := make(map[types.TopicPartition]struct{}, len(cfg.Partitions))
	for _, tp := range cfg.Partitions {
		owned[tp] = struct{}{}
	}

	w := &TierWorker{
		cfg:      cfg,
		tier:     cfg.Priority.String(),
		consumer: consumer,
		handler:  handler,
		hooks:    hooks.Fill(cfg.Hooks),
		owned:    owned,
		rng:      backoff.NewRNG(cfg.RetrySeed),
		done:     make(chan struct{}),
	}
	w.state.Store(int32(types.WorkerRunning))

	return w, nil
}

// Run polls the binding until ctx is cancelled or the binding is closed.
//
// Failed polls are logged, reported to OnError and retried after a jittered
// backoff without a retry cap. End-of-partition markers return straight to
// polling. Handler errors are logged and the loop continues.
//
// On exit the worker drains: the binding is released exactly once and the
// state becomes Closed.
//
// Parameters:
//   - ctx: Cancellation shared by all tiers
//
// Returns:
//   - error: ErrWorkerAlreadyRunning on a second call, the binding's close
//     error otherwise (nil on a clean shutdown)
func (w *TierWorker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrWorkerAlreadyRunning
	}
	defer close(w.done)

	w.cfg.Metrics.RecordWorkerState(w.tier, types.WorkerRunning)
	w.cfg.Logger.Info("tier worker started", "tier", w.tier, "partitions", len(w.cfg.Partitions))

	var delay time.Duration
	for ctx.Err() == nil {
		w.setState(ctx, types.WorkerPolling)

		rec, err := w.consumer.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, types.ErrBindingClosed) {
				w.cfg.Logger.Warn("consumer binding closed, stopping tier worker", "tier", w.tier)
				break
			}

			w.consumeErrors.Add(1)
			w.cfg.Metrics.RecordConsumeError(w.tier)
			delay = backoff.Jitter(delay, w.cfg.RetryBase, w.cfg.RetryMultiplier, w.cfg.RetryMax, w.rng)
			w.cfg.Logger.Error("consume failed", "tier", w.tier, "error", err, "backoff", delay)
			w.reportError(ctx, err)

			if !backoff.Sleep(ctx, delay) {
				break
			}

			continue
		}
		delay = 0

		if rec.EndOfPartition {
			w.endOfPartition.Add(1)
			w.cfg.Metrics.RecordEndOfPartition(w.tier)

			continue
		}

		w.setState(ctx, types.WorkerProcessing)
		w.process(ctx, rec)
	}

	w.setState(ctx, types.WorkerDraining)
	err := w.Close()
	w.setState(ctx, types.WorkerClosed)
	w.cfg.Logger.Info("tier worker closed", "tier", w.tier, "processed", w.processed.Load())

	return err
}

// process runs the handler on one data record. The handler's context is
// detached from cancellation so the call completes during shutdown.
func (w *TierWorker) process(ctx context.Context, rec types.Record) {
	if w.misrouted(rec) {
		w.violations.Add(1)
		w.cfg.Metrics.RecordTierViolation(w.tier)
		w.cfg.Logger.Warn("record outside tier",
			"tier", w.tier,
			"topic", rec.Topic,
			"partition", rec.Partition,
			"priority", rec.Priority.String(),
			"priorityValid", rec.PriorityValid,
		)
	}

	start := time.Now()
	err := w.handler.Handle(context.WithoutCancel(ctx), rec)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		w.failed.Add(1)
		w.cfg.Metrics.RecordProcessed(w.tier, false, elapsed)
		w.cfg.Logger.Error("handler failed",
			"tier", w.tier,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		w.reportError(ctx, fmt.Errorf("handle %s offset %d: %w", rec.TopicPartition(), rec.Offset, err))

		return
	}

	w.processed.Add(1)
	w.cfg.Metrics.RecordProcessed(w.tier, true, elapsed)
}

func (w *TierWorker) misrouted(rec types.Record) bool {
	if rec.PriorityValid && rec.Priority != w.cfg.Priority {
		return true
	}
	if len(w.owned) == 0 {
		return false
	}
	_, ok := w.owned[rec.TopicPartition()]

	return !ok
}

func (w *TierWorker) setState(ctx context.Context, to types.WorkerState) {
	from := types.WorkerState(w.state.Swap(int32(to)))
	if from == to {
		return
	}

	w.cfg.Metrics.RecordWorkerState(w.tier, to)
	if err := w.hooks.OnWorkerStateChanged(ctx, w.cfg.Priority, from, to); err != nil {
		w.cfg.Logger.Warn("state change hook failed", "tier", w.tier, "from", from.String(), "to", to.String(), "error", err)
	}
}

func (w *TierWorker) reportError(ctx context.Context, err error) {
	if hookErr := w.hooks.OnError(ctx, err); hookErr != nil {
		w.cfg.Logger.Warn("error hook failed", "tier", w.tier, "error", hookErr)
	}
}

// Close releases the binding. Safe to call any number of times and from any
// goroutine; only the first call reaches the substrate. A Run loop blocked
// in Consume observes ErrBindingClosed and exits.
func (w *TierWorker) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.consumer.Close()
		if w.closeErr != nil {
			w.cfg.Logger.Warn("closing consumer binding failed", "tier", w.tier, "error", w.closeErr)
		}
	})

	return w.closeErr
}

// State returns the current lifecycle state.
func (w *TierWorker) State() types.WorkerState {
	return types.WorkerState(w.state.Load())
}

// Priority returns the tier this worker serves.
func (w *TierWorker) Priority() types.Priority {
	return w.cfg.Priority
}

// Done is closed when Run returns.
func (w *TierWorker) Done() <-chan struct{} {
	return w.done
}

// Stats returns a snapshot of the worker's counters.
func (w *TierWorker) Stats() Stats {
	return Stats{
		Processed:      w.processed.Load(),
		Failed:         w.failed.Load(),
		EndOfPartition: w.endOfPartition.Load(),
		ConsumeErrors:  w.consumeErrors.Load(),
		TierViolations: w.violations.Load(),
	}
}
