// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/no0law1/kafka-prioritization/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	router, err := prioritization.NewRouter(&cfg, sub, handler, prioritization.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// PublishMetrics implementation

// RecordPublish discards the publish metric.
func (n *NopMetrics) RecordPublish(_ /* priority */ string, _ /* success */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordPartitionSelected discards the partition selection metric.
func (n *NopMetrics) RecordPartitionSelected(_ /* priority */ string, _ /* partition */ int) {
	// No-op
}

// RecordInvalidKey discards the invalid key metric.
func (n *NopMetrics) RecordInvalidKey() {
	// No-op
}

// WorkerMetrics implementation

// RecordWorkerState discards the worker state metric.
func (n *NopMetrics) RecordWorkerState(_ /* priority */ string, _ /* state */ types.WorkerState) {
	// No-op
}

// RecordProcessed discards the processed record metric.
func (n *NopMetrics) RecordProcessed(_ /* priority */ string, _ /* success */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordConsumeError discards the consume error metric.
func (n *NopMetrics) RecordConsumeError(_ /* priority */ string) {
	// No-op
}

// RecordEndOfPartition discards the end-of-partition metric.
func (n *NopMetrics) RecordEndOfPartition(_ /* priority */ string) {
	// No-op
}

// RecordTierViolation discards the tier violation metric.
func (n *NopMetrics) RecordTierViolation(_ /* priority */ string) {
	// No-op
}

// TableMetrics implementation

// RecordTableComputed discards the table computed metric.
func (n *NopMetrics) RecordTableComputed(_ /* totalPartitions */ int, _ /* version */ int64) {
	// No-op
}

// RecordTierSize discards the tier size metric.
func (n *NopMetrics) RecordTierSize(_ /* priority */ string, _ /* partitions */ int) {
	// No-op
}

// RecordTableDesync discards the table desync metric.
func (n *NopMetrics) RecordTableDesync(_ /* expected */, _ /* actual */ int) {
	// No-op
}

// SubstrateMetrics implementation

// RecordControlRetry discards the control retry metric.
func (n *NopMetrics) RecordControlRetry(_ /* op */ string) {
	// No-op
}

// RecordRetryBackoff discards the retry backoff metric.
func (n *NopMetrics) RecordRetryBackoff(_ /* op */ string, _ /* seconds */ float64) {
	// No-op
}
