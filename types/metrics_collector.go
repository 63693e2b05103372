package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from worker and publishing goroutines and must be
// thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	PublishMetrics
	WorkerMetrics
	TableMetrics
	SubstrateMetrics
}

// PublishMetrics defines metrics for the producer path.
type PublishMetrics interface {
	// RecordPublish records a publish attempt.
	//
	// Parameters:
	//   - priority: Tier label ("High", "Medium", "Low" or "Unknown")
	//   - success: true if the substrate accepted the message
	//   - duration: Time taken in seconds
	RecordPublish(priority string, success bool, duration float64)

	// RecordPartitionSelected records the partition chosen by the tier partitioner.
	RecordPartitionSelected(priority string, partition int)

	// RecordInvalidKey records a message key that did not decode to a priority.
	RecordInvalidKey()
}

// WorkerMetrics defines metrics for tier worker loops.
type WorkerMetrics interface {
	// RecordWorkerState sets the current state of a tier worker (gauge metric).
	RecordWorkerState(priority string, state WorkerState)

	// RecordProcessed records one handler invocation.
	//
	// Parameters:
	//   - priority: Tier label
	//   - success: true if the handler returned nil
	//   - duration: Handler time in seconds
	RecordProcessed(priority string, success bool, duration float64)

	// RecordConsumeError records a failed poll.
	RecordConsumeError(priority string)

	// RecordEndOfPartition records a skipped end-of-partition marker.
	RecordEndOfPartition(priority string)

	// RecordTierViolation records a record that arrived on a tier it does not
	// belong to.
	RecordTierViolation(priority string)
}

// TableMetrics defines metrics for partition tier table computation.
type TableMetrics interface {
	// RecordTableComputed records a newly computed table.
	//
	// Parameters:
	//   - totalPartitions: Partition count the table covers
	//   - version: Version stamped by the registry
	RecordTableComputed(totalPartitions int, version int64)

	// RecordTierSize sets the partition count owned by a tier (gauge metric).
	RecordTierSize(priority string, partitions int)

	// RecordTableDesync records a publish whose actual partition count
	// differed from the configured table.
	RecordTableDesync(expected, actual int)
}

// SubstrateMetrics defines metrics for substrate control-plane operations
// (stream, consumer and bucket management).
type SubstrateMetrics interface {
	// RecordControlRetry records a retried control-plane operation.
	//
	// Parameters:
	//   - op: Operation name ("ensure_stream", "create_consumer", "ensure_bucket")
	RecordControlRetry(op string)

	// RecordRetryBackoff records the backoff slept before a retry, in seconds.
	RecordRetryBackoff(op string, seconds float64)
}
