// Package prioritization provides priority-tiered partition routing for
// partitioned message topics on Kafka or NATS JetStream.
//
// A topic's partitions are split into three contiguous ranges, one per
// priority class. Producers publish each message into the range of its
// priority and one consumer per class reads only its own range, so a
// backlog of low-priority messages never delays high-priority ones.
//
// # Quick Start
//
// Basic usage with default settings (18 partitions split 50/30/20):
//
//	import "github.com/no0law1/kafka-prioritization"
//
//	cfg := prioritization.DefaultConfig()
//
//	router, err := prioritization.NewRouter(cfg, substrate, handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := router.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer router.Stop(context.Background())
//
//	router.Publish(ctx, prioritization.PriorityHigh, []byte("password reset"))
//
// # Key Features
//
//   - Tier Table: Deterministic High/Medium/Low partition ranges from fractional weights
//   - Tier Partitioner: Routes each message to a partition inside its priority's range
//   - Static Assignment: One consumer per tier bound to exactly its range, no group rebalancing
//   - Isolation: A slow or failing tier never blocks the other two
//   - Table Agreement: Optional shared record of the table so processes with different weights refuse to start
//
// # Architecture
//
// The Router moves through a small lifecycle:
//
//	IDLE → STARTING → RUNNING → STOPPING → STOPPED
//
// Start verifies the topic's partition count, registers the tier
// partitioner with the substrate and binds one worker per tier. Stop
// cancels the workers, waits for in-flight handlers and releases every
// binding.
//
// # Advanced Usage
//
// Sharing the table and observing workers:
//
//	import (
//	    "github.com/no0law1/kafka-prioritization"
//	    "github.com/no0law1/kafka-prioritization/substrate/natsjs"
//	)
//
//	store, _ := natsjs.NewTableStore(ctx, js, "", logger)
//
//	hooks := &prioritization.Hooks{
//	    OnWorkerStateChanged: func(ctx context.Context, p prioritization.Priority, from, to prioritization.WorkerState) error {
//	        return nil
//	    },
//	}
//
//	router, err := prioritization.NewRouter(cfg, substrate, handler,
//	    prioritization.WithTableStore(store),
//	    prioritization.WithHooks(hooks),
//	)
//
// A Producer publishes without running consumers:
//
//	producer, _ := prioritization.NewProducer(cfg, substrate)
//	_ = producer.Prepare(ctx)
//	producer.Publish(ctx, prioritization.PriorityLow, payload)
//
// See the examples/ directory and cmd/prioritization for complete working programs.
package prioritization
