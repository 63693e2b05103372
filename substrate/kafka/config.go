package kafka

import (
	"fmt"

	"github.com/IBM/sarama"

	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/types"
)

// Config tunes the Kafka substrate.
type Config struct {
	// ClientID is reported to the brokers ("prioritization" if empty).
	ClientID string

	// Version is the Kafka protocol version, e.g. "3.6.0". Empty uses
	// Sarama's default.
	Version string

	// InitialOffset is where a binding starts when no committed offset
	// exists: sarama.OffsetOldest (default) or sarama.OffsetNewest.
	InitialOffset int64

	// CommitOffsets marks consumed offsets under the binding group and
	// resumes from them on the next bind.
	CommitOffsets bool

	Logger types.Logger
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "prioritization"
	}
	if c.InitialOffset == 0 {
		c.InitialOffset = sarama.OffsetOldest
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
}

// NewConfig builds the Sarama configuration used by the substrate.
//
// The producer partitioner delegates to reg, waits for all in-sync
// replicas and returns successes so SyncProducer can report offsets.
// Partition consumers return errors so poll failures reach the tier worker.
//
// Parameters:
//   - cfg: Substrate configuration
//   - reg: Registry the producer partitioner reads from
//
// Returns:
//   - *sarama.Config: Validated configuration
//   - error: ErrConfiguration for an unknown version or an invalid result
func NewConfig(cfg Config, reg *PartitionerRegistry) (*sarama.Config, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: partitioner registry is required", types.ErrConfiguration)
	}
	cfg.applyDefaults()

	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	if cfg.Version != "" {
		v, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: kafka version %q: %w", types.ErrConfiguration, cfg.Version, err)
		}
		sc.Version = v
	}

	sc.Producer.Partitioner = reg.Constructor
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true

	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = cfg.InitialOffset
	sc.Consumer.Offsets.AutoCommit.Enable = true

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}

	return sc, nil
}
