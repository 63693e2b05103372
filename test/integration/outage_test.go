package integration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization"
	"github.com/no0law1/kafka-prioritization/substrate/natsjs"
	priotest "github.com/no0law1/kafka-prioritization/testing"
	"github.com/no0law1/kafka-prioritization/test/testutil"
	"github.com/no0law1/kafka-prioritization/types"
)

// TestOutage_WorkersResumeAfterServerRestart verifies that tier workers keep
// polling through a NATS outage and resume from their durables once the
// server is back.
func TestOutage_WorkersResumeAfterServerRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	ctx := t.Context()
	srv := testutil.StartRestartableNATS(t)
	nc := srv.Connect()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	sub, err := natsjs.NewJS(js, natsjs.Config{
		Storage:      jetstream.FileStorage,
		FetchMaxWait: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	cfg := prioritization.TestConfig()
	require.NoError(t, sub.EnsureTopic(ctx, cfg.Topic, cfg.TotalPartitions))

	rec := testutil.NewTierRecorder(nil)
	router, err := prioritization.NewRouter(cfg, sub, rec, prioritization.WithLogger(priotest.NewTestLogger(t)))
	require.NoError(t, err)
	require.NoError(t, router.Start(ctx))
	t.Cleanup(func() { _ = router.Stop(context.Background()) })

	publish := func(prefix string) {
		for _, p := range types.AllPriorities() {
			require.EventuallyWithT(t, func(c *assert.CollectT) {
				_, err := router.Publish(ctx, p, fmt.Appendf(nil, "%s-%s", prefix, p))
				assert.NoError(c, err)
			}, 10*time.Second, 100*time.Millisecond)
		}
	}

	publish("before")
	require.Eventually(t, func() bool {
		return rec.Count(types.PriorityHigh) == 1 &&
			rec.Count(types.PriorityMedium) == 1 &&
			rec.Count(types.PriorityLow) == 1
	}, 5*time.Second, 10*time.Millisecond)

	srv.Stop()
	time.Sleep(300 * time.Millisecond)
	for p, state := range router.WorkerStates() {
		require.NotEqual(t, types.WorkerClosed, state, "%s worker exited during outage", p)
	}
	srv.Start()

	publish("after")
	require.Eventually(t, func() bool {
		return rec.Count(types.PriorityHigh) >= 2 &&
			rec.Count(types.PriorityMedium) >= 2 &&
			rec.Count(types.PriorityLow) >= 2
	}, 15*time.Second, 50*time.Millisecond)

	for _, p := range types.AllPriorities() {
		r, err := router.Table().Range(p)
		require.NoError(t, err)
		for _, c := range rec.Snapshot(p) {
			require.True(t, r.Contains(c.Record.Partition), "%s record on partition %d", p, c.Record.Partition)
		}
	}
	require.Equal(t, prioritization.RouterRunning, router.State())
}
