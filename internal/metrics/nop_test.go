package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/types"
)

func TestNewNop(t *testing.T) {
	metrics := NewNop()

	require.NotNil(t, metrics)
	require.IsType(t, &NopMetrics{}, metrics)
}

func TestNopMetrics_AllMethods(t *testing.T) {
	metrics := NewNop()

	// Should not panic with various inputs
	require.NotPanics(t, func() {
		metrics.RecordPublish("High", true, 0.01)
		metrics.RecordPartitionSelected("Low", 15)
		metrics.RecordInvalidKey()
		metrics.RecordWorkerState("Medium", types.WorkerPolling)
		metrics.RecordWorkerState("", types.WorkerState(999))
		metrics.RecordProcessed("High", false, -1.0)
		metrics.RecordConsumeError("Low")
		metrics.RecordEndOfPartition("Low")
		metrics.RecordTierViolation("High")
		metrics.RecordTableComputed(18, 1)
		metrics.RecordTierSize("High", 9)
		metrics.RecordTableDesync(18, 24)
		metrics.RecordControlRetry("create_consumer")
		metrics.RecordRetryBackoff("create_consumer", 0.2)
	})
}

func BenchmarkNopMetrics(b *testing.B) {
	metrics := NewNop()

	for b.Loop() {
		metrics.RecordPublish("High", true, 0.001)
		metrics.RecordProcessed("High", true, 0.001)
	}
}
