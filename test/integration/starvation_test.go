package integration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization"
	"github.com/no0law1/kafka-prioritization/substrate/natsjs"
	priotest "github.com/no0law1/kafka-prioritization/testing"
	"github.com/no0law1/kafka-prioritization/test/testutil"
	"github.com/no0law1/kafka-prioritization/types"
)

// TestStarvation_LowBacklogDoesNotDelayHigh verifies that urgent messages
// published behind a large slow low-priority backlog are consumed while the
// backlog is still draining.
func TestStarvation_LowBacklogDoesNotDelayHigh(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	ctx := t.Context()
	_, js := priotest.StartEmbeddedJetStream(t)

	sub, err := natsjs.NewJS(js, natsjs.Config{
		Storage:      jetstream.MemoryStorage,
		FetchMaxWait: 100 * time.Millisecond,
		BatchSize:    1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	cfg := prioritization.TestConfig()
	require.NoError(t, sub.EnsureTopic(ctx, cfg.Topic, cfg.TotalPartitions))

	rec := testutil.NewTierRecorder(map[types.Priority]time.Duration{
		types.PriorityLow: 20 * time.Millisecond,
	})
	router, err := prioritization.NewRouter(cfg, sub, rec, prioritization.WithLogger(priotest.NewTestLogger(t)))
	require.NoError(t, err)
	require.NoError(t, router.Start(ctx))
	t.Cleanup(func() { _ = router.Stop(context.Background()) })

	const backlog = 200
	for i := range backlog {
		_, err := router.Publish(ctx, prioritization.PriorityLow, fmt.Appendf(nil, "bulk-%d", i))
		require.NoError(t, err)
	}

	const urgent = 10
	for i := range urgent {
		_, err := router.Publish(ctx, prioritization.PriorityHigh, fmt.Appendf(nil, "urgent-%d", i))
		require.NoError(t, err)
	}

	// the backlog needs about four seconds, the urgent messages far less
	require.Eventually(t, func() bool {
		return rec.Count(types.PriorityHigh) == urgent
	}, 3*time.Second, 10*time.Millisecond)
	require.Less(t, rec.Count(types.PriorityLow), backlog, "low backlog drained before high was consumed")

	high, err := router.Table().Range(types.PriorityHigh)
	require.NoError(t, err)
	for _, c := range rec.Snapshot(types.PriorityHigh) {
		require.True(t, high.Contains(c.Record.Partition), "high record on partition %d", c.Record.Partition)
	}
}
