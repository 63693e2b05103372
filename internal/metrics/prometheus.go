package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/no0law1/kafka-prioritization/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// one is free and unused collectors never touch the registry.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	publishTotal      *prometheus.CounterVec
	publishLatency    *prometheus.HistogramVec
	partitionSelected *prometheus.CounterVec
	invalidKeys       prometheus.Counter
	tableDesyncs      prometheus.Counter
	tableComputed     prometheus.Counter
	tableVersion      prometheus.Gauge
	tierPartitions    *prometheus.GaugeVec
	workerState       *prometheus.GaugeVec
	processedTotal    *prometheus.CounterVec
	processLatency    *prometheus.HistogramVec
	consumeErrors     *prometheus.CounterVec
	endOfPartition    *prometheus.CounterVec
	tierViolations    *prometheus.CounterVec
	controlRetries    *prometheus.CounterVec
	controlBackoff    *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "prioritization" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "prioritization"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.publishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "producer",
			Name:      "publish_total",
			Help:      "Total publish attempts by tier and result (success,failure).",
		}, []string{"tier", "result"})

		p.publishLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "producer",
			Name:      "publish_latency_seconds",
			Help:      "Latency of publish calls in seconds by tier.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"tier"})

		p.partitionSelected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "producer",
			Name:      "partition_selected_total",
			Help:      "Partitions chosen by the tier partitioner.",
		}, []string{"tier", "partition"})

		p.invalidKeys = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "producer",
			Name:      "invalid_keys_total",
			Help:      "Message keys that did not decode to a priority.",
		})

		p.tableDesyncs = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "tiering",
			Name:      "desync_total",
			Help:      "Publishes whose actual partition count differed from the startup table.",
		})

		p.tableComputed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "tiering",
			Name:      "tables_computed_total",
			Help:      "Tier tables computed by the registry.",
		})

		p.tableVersion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "tiering",
			Name:      "table_version",
			Help:      "Version of the most recently computed tier table.",
		})

		p.tierPartitions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "tiering",
			Name:      "tier_partitions",
			Help:      "Partitions owned by each tier in the startup table.",
		}, []string{"tier"})

		p.workerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "state",
			Help:      "Current tier worker state (0=Running,1=Polling,2=Processing,3=Draining,4=Closed).",
		}, []string{"tier"})

		p.processedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "processed_total",
			Help:      "Handler invocations by tier and result (success,failure).",
		}, []string{"tier", "result"})

		p.processLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "process_latency_seconds",
			Help:      "Handler latency in seconds by tier.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"tier"})

		p.consumeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "consume_errors_total",
			Help:      "Failed polls by tier.",
		}, []string{"tier"})

		p.endOfPartition = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "end_of_partition_total",
			Help:      "End-of-partition markers skipped by tier.",
		}, []string{"tier"})

		p.tierViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "tier_violations_total",
			Help:      "Records consumed on a tier they do not belong to.",
		}, []string{"tier"})

		p.controlRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "substrate",
			Name:      "control_retries_total",
			Help:      "Total control-plane retry attempts by operation.",
		}, []string{"op"})

		p.controlBackoff = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "substrate",
			Name:      "retry_backoff_seconds",
			Help:      "Observed control-plane backoff durations in seconds by operation.",
			Buckets:   []float64{0.05, 0.1, 0.15, 0.25, 0.5, 1, 2, 5},
		}, []string{"op"})

		p.reg.MustRegister(
			p.publishTotal,
			p.publishLatency,
			p.partitionSelected,
			p.invalidKeys,
			p.tableDesyncs,
			p.tableComputed,
			p.tableVersion,
			p.tierPartitions,
			p.workerState,
			p.processedTotal,
			p.processLatency,
			p.consumeErrors,
			p.endOfPartition,
			p.tierViolations,
			p.controlRetries,
			p.controlBackoff,
		)
	})
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}

// RecordPublish counts a publish attempt and observes its latency.
func (p *PrometheusCollector) RecordPublish(priority string, success bool, duration float64) {
	p.ensureRegistered()
	p.publishTotal.WithLabelValues(priority, resultLabel(success)).Inc()
	p.publishLatency.WithLabelValues(priority).Observe(duration)
}

// RecordPartitionSelected counts a partition chosen for priority.
func (p *PrometheusCollector) RecordPartitionSelected(priority string, partition int) {
	p.ensureRegistered()
	p.partitionSelected.WithLabelValues(priority, strconv.Itoa(partition)).Inc()
}

// RecordInvalidKey counts an undecodable message key.
func (p *PrometheusCollector) RecordInvalidKey() {
	p.ensureRegistered()
	p.invalidKeys.Inc()
}

// RecordWorkerState sets the worker state gauge.
func (p *PrometheusCollector) RecordWorkerState(priority string, state types.WorkerState) {
	p.ensureRegistered()
	p.workerState.WithLabelValues(priority).Set(float64(state))
}

// RecordProcessed counts a handler invocation and observes its latency.
func (p *PrometheusCollector) RecordProcessed(priority string, success bool, duration float64) {
	p.ensureRegistered()
	p.processedTotal.WithLabelValues(priority, resultLabel(success)).Inc()
	p.processLatency.WithLabelValues(priority).Observe(duration)
}

// RecordConsumeError counts a failed poll.
func (p *PrometheusCollector) RecordConsumeError(priority string) {
	p.ensureRegistered()
	p.consumeErrors.WithLabelValues(priority).Inc()
}

// RecordEndOfPartition counts a skipped end-of-partition marker.
func (p *PrometheusCollector) RecordEndOfPartition(priority string) {
	p.ensureRegistered()
	p.endOfPartition.WithLabelValues(priority).Inc()
}

// RecordTierViolation counts a misrouted record.
func (p *PrometheusCollector) RecordTierViolation(priority string) {
	p.ensureRegistered()
	p.tierViolations.WithLabelValues(priority).Inc()
}

// RecordTableComputed counts a computed table and tracks its version.
func (p *PrometheusCollector) RecordTableComputed(_ /* totalPartitions */ int, version int64) {
	p.ensureRegistered()
	p.tableComputed.Inc()
	p.tableVersion.Set(float64(version))
}

// RecordTierSize sets the tier partition gauge.
func (p *PrometheusCollector) RecordTierSize(priority string, partitions int) {
	p.ensureRegistered()
	p.tierPartitions.WithLabelValues(priority).Set(float64(partitions))
}

// RecordTableDesync counts a partition count mismatch.
func (p *PrometheusCollector) RecordTableDesync(_ /* expected */, _ /* actual */ int) {
	p.ensureRegistered()
	p.tableDesyncs.Inc()
}

// RecordControlRetry increments retry attempts for the given op.
func (p *PrometheusCollector) RecordControlRetry(op string) {
	p.ensureRegistered()
	p.controlRetries.WithLabelValues(op).Inc()
}

// RecordRetryBackoff observes a backoff delay (seconds) for the given op.
func (p *PrometheusCollector) RecordRetryBackoff(op string, seconds float64) {
	p.ensureRegistered()
	p.controlBackoff.WithLabelValues(op).Observe(seconds)
}
