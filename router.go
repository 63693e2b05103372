package prioritization

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/no0law1/kafka-prioritization/assignor"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
	"github.com/no0law1/kafka-prioritization/worker"
)

// Router runs one consumer loop per priority tier over a single topic and
// publishes messages into the partition range of their priority.
//
// Router is the main entry point of the library. It handles:
//   - Partition tier table computation and cross-process reconciliation
//   - Tier partitioner registration on the producer path
//   - Static per-tier consumer bindings (no group rebalancing)
//   - Three independent tier worker loops under one cancellation
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - The tier table is read-only after construction
//
// Lifecycle:
//   - Create with NewRouter()
//   - Call Start() to bind the three tiers and start their loops
//   - Publish from any goroutine
//   - Call Stop() to cancel the loops and wait for every binding to close
//
// The router does not own the substrate; close it after Stop returns.
type Router struct {
	cfg       Config
	substrate Substrate
	handler   Handler
	producer  *Producer

	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	opts    routerOptions

	state atomic.Int32 // RouterState

	mu      sync.Mutex
	workers []*worker.TierWorker
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
}

// NewRouter creates a router.
//
// Returns a concrete *Router struct following the "accept interfaces, return structs" principle.
//
// Parameters:
//   - cfg: Router configuration (defaults are applied to unset fields)
//   - substrate: Messaging substrate (natsjs, kafka or memory)
//   - handler: Record handler shared by the three tiers
//   - opts: Optional configuration (hooks, metrics, logger, table store, seed)
//
// Returns:
//   - *Router: Router in the Idle state
//   - error: ErrInvalidConfig (wrapped), ErrSubstrateRequired or ErrHandlerRequired
//
// Example:
//
//	sub, _ := natsjs.New(nc, natsjs.Config{})
//	router, err := prioritization.NewRouter(prioritization.DefaultConfig(), sub,
//	    prioritization.HandlerFunc(func(ctx context.Context, rec prioritization.Record) error {
//	        return deliver(rec)
//	    }))
func NewRouter(cfg Config, substrate Substrate, handler Handler, opts ...Option) (*Router, error) {
	if substrate == nil {
		return nil, ErrSubstrateRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	producer, err := NewProducer(cfg, substrate, opts...)
	if err != nil {
		return nil, err
	}

	r := &Router{
		cfg:       producer.cfg,
		substrate: substrate,
		handler:   handler,
		producer:  producer,
		hooks:     producer.opts.hooks,
		metrics:   producer.metrics,
		logger:    producer.logger,
		opts:      producer.opts,
	}
	r.state.Store(int32(RouterIdle))

	return r, nil
}

// Start builds the three tier bindings and starts their loops.
//
// The producer path is prepared first (partition count check, table
// reconciliation, partitioner registration), then for each priority the
// tier's partitions are assigned, bound and handed to a worker. If any step
// fails, bindings created so far are released and the router returns to
// Idle.
//
// The loops run until Stop; the ctx passed here only bounds startup.
//
// Parameters:
//   - ctx: Context for startup, further bounded by StartupTimeout
//
// Returns:
//   - error: ErrAlreadyStarted, or the first startup failure
func (r *Router) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(RouterIdle), int32(RouterStarting)) {
		return ErrAlreadyStarted
	}

	startupCtx := ctx
	if r.cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = context.WithTimeout(ctx, r.cfg.StartupTimeout)
		defer cancel()
	}

	workers, err := r.bindTiers(startupCtx)
	if err != nil {
		r.state.Store(int32(RouterIdle))
		r.logger.Error("router start failed", "topic", r.cfg.Topic, "error", err)

		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(runCtx)
	done := make(chan struct{})

	r.mu.Lock()
	r.workers = workers
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	for _, w := range workers {
		group.Go(func() error {
			if err := w.Run(groupCtx); err != nil {
				return fmt.Errorf("%s tier: %w", w.Priority(), err)
			}

			return nil
		})
	}
	go func() {
		err := group.Wait()
		r.mu.Lock()
		r.runErr = err
		r.mu.Unlock()
		close(done)
	}()

	r.state.Store(int32(RouterRunning))
	r.logger.Info("router started",
		"topic", r.cfg.Topic,
		"group", r.cfg.ConsumerGroup,
		"table", r.producer.Table().String(),
	)

	return nil
}

func (r *Router) bindTiers(ctx context.Context) ([]*worker.TierWorker, error) {
	if err := r.producer.Prepare(ctx); err != nil {
		return nil, err
	}

	table := r.producer.Table()
	workers := make([]*worker.TierWorker, 0, len(types.AllPriorities()))
	release := func() {
		for _, w := range workers {
			_ = w.Close()
		}
	}

	for _, priority := range types.AllPriorities() {
		parts, err := assignor.AssignPartitions(priority, table, r.cfg.Topic)
		if err != nil {
			release()
			return nil, err
		}

		binding, err := r.substrate.Bind(ctx, types.Binding{
			Group:      r.cfg.ConsumerGroup,
			Priority:   priority,
			Partitions: parts,
		})
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to bind %s tier: %w", priority, err)
		}

		w, err := worker.New(binding, r.handler, worker.Config{
			Priority:        priority,
			Partitions:      parts,
			RetryBase:       r.cfg.Worker.RetryBase,
			RetryMax:        r.cfg.Worker.RetryMax,
			RetryMultiplier: r.cfg.Worker.RetryMultiplier,
			RetrySeed:       r.retrySeed(priority),
			Logger:          r.logger,
			Metrics:         r.metrics,
			Hooks:           r.hooks,
		})
		if err != nil {
			_ = binding.Close()
			release()

			return nil, err
		}
		workers = append(workers, w)
	}

	return workers, nil
}

func (r *Router) retrySeed(p Priority) int64 {
	if !r.opts.seeded {
		return 0
	}

	return int64(r.opts.seed) + int64(p) + 1 //nolint:gosec // jitter seed
}

// Stop cancels the three tier loops and waits for them to release their
// bindings.
//
// Safe to call multiple times - subsequent calls will return ErrNotStarted.
// In-flight handler calls run to completion before their loop exits.
//
// Parameters:
//   - ctx: Context for the wait; ShutdownTimeout applies when ctx has no deadline
//
// Returns:
//   - error: ErrNotStarted, a binding close error, or ctx.Err() on timeout
func (r *Router) Stop(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(RouterRunning), int32(RouterStopping)) {
		return ErrNotStarted
	}

	if _, ok := ctx.Deadline(); !ok && r.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ShutdownTimeout)
		defer cancel()
	}

	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
		r.state.Store(int32(RouterStopped))

		r.mu.Lock()
		err := r.runErr
		r.mu.Unlock()
		if err != nil {
			r.logger.Warn("router stopped with errors", "error", err)
			return err
		}
		r.logger.Info("router stopped gracefully", "topic", r.cfg.Topic)

		return nil
	case <-ctx.Done():
		r.logger.Error("shutdown timeout exceeded, some tier loops may still be running")
		return ctx.Err()
	}
}

// Done is closed once every tier loop has exited. It is nil before Start.
func (r *Router) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.done
}

// Publish sends payload into the partition range of priority.
//
// Returns:
//   - PublishResult: Partition and offset the substrate assigned
//   - error: ErrNotStarted before Start, otherwise ErrPublishFailure
//     (wrapped), with ErrInvalidPriority in the chain for unknown classes
func (r *Router) Publish(ctx context.Context, priority Priority, payload []byte) (PublishResult, error) {
	return r.producer.Publish(ctx, priority, payload)
}

// PublishKey sends payload with a raw priority key.
func (r *Router) PublishKey(ctx context.Context, key, payload []byte) (PublishResult, error) {
	return r.producer.PublishKey(ctx, key, payload)
}

// Table returns the partition tier table the router binds to.
func (r *Router) Table() *tiering.Table {
	return r.producer.Table()
}

// State returns the current router state.
func (r *Router) State() RouterState {
	return RouterState(r.state.Load())
}

// WorkerStates returns the state of every tier worker, keyed by priority.
// The map is empty before Start.
func (r *Router) WorkerStates() map[Priority]WorkerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[Priority]WorkerState, len(r.workers))
	for _, w := range r.workers {
		out[w.Priority()] = w.State()
	}

	return out
}

// Stats returns the counters of every tier worker, keyed by priority.
func (r *Router) Stats() map[Priority]worker.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[Priority]worker.Stats, len(r.workers))
	for _, w := range r.workers {
		out[w.Priority()] = w.Stats()
	}

	return out
}
