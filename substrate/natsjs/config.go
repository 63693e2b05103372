package natsjs

import (
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/no0law1/kafka-prioritization/internal/backoff"
	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/metrics"
	"github.com/no0law1/kafka-prioritization/types"
)

// Default configuration values.
const (
	// DefaultBatchSize is the number of messages requested per fetch.
	DefaultBatchSize = 16

	// DefaultFetchMaxWait bounds one fetch; an empty fetch reports end of partition.
	DefaultFetchMaxWait = 500 * time.Millisecond

	// DefaultMaxWaiting is the maximum number of outstanding pull requests.
	DefaultMaxWaiting = 512

	// DefaultAckWait is the redelivery delay for unacknowledged messages.
	DefaultAckWait = 30 * time.Second

	// DefaultMaxDeliver is the maximum delivery attempts per message.
	DefaultMaxDeliver = -1

	// DefaultInactiveThreshold is the idle time after which the server removes a durable.
	DefaultInactiveThreshold = 24 * time.Hour

	// DefaultMaxRetries is the number of retries for control-plane calls.
	DefaultMaxRetries = 3

	// HeaderTierKey carries the message key on published messages.
	HeaderTierKey = "Tier-Key"

	// MetadataPartitions is the stream metadata key holding the partition count.
	MetadataPartitions = "partitions"
)

// Config tunes the JetStream substrate. Zero values are replaced by defaults.
type Config struct {
	// Storage and Replicas apply to streams created by EnsureTopic.
	Storage  jetstream.StorageType
	Replicas int

	BatchSize    int
	FetchMaxWait time.Duration

	AckWait           time.Duration
	MaxDeliver        int
	MaxWaiting        int
	InactiveThreshold time.Duration

	// DeliverPolicy applies when a durable is created for the first time.
	DeliverPolicy jetstream.DeliverPolicy

	// MaxRetries, RetryBase and RetryMax bound stream/consumer create retries.
	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration

	Logger  types.Logger
	Metrics types.SubstrateMetrics
}

func (cfg *Config) applyDefaults() {
	if cfg.Replicas <= 0 {
		cfg.Replicas = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FetchMaxWait <= 0 {
		cfg.FetchMaxWait = DefaultFetchMaxWait
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = DefaultAckWait
	}
	if cfg.MaxDeliver == 0 {
		cfg.MaxDeliver = DefaultMaxDeliver
	}
	if cfg.MaxWaiting <= 0 {
		cfg.MaxWaiting = DefaultMaxWaiting
	}
	if cfg.InactiveThreshold <= 0 {
		cfg.InactiveThreshold = DefaultInactiveThreshold
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = backoff.DefaultBase
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}
}
