package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/no0law1/kafka-prioritization/types"
)

// PartitionerRegistry maps topics to the types.Partitioner used when
// producing to them. Its Constructor is installed as the Sarama producer
// partitioner.
type PartitionerRegistry struct {
	byTopic *xsync.Map[string, types.Partitioner]
}

// NewPartitionerRegistry creates an empty registry.
func NewPartitionerRegistry() *PartitionerRegistry {
	return &PartitionerRegistry{byTopic: xsync.NewMap[string, types.Partitioner]()}
}

// Set registers p for topic, replacing any previous partitioner.
func (r *PartitionerRegistry) Set(topic string, p types.Partitioner) {
	r.byTopic.Store(topic, p)
}

// Get returns the partitioner registered for topic.
func (r *PartitionerRegistry) Get(topic string) (types.Partitioner, bool) {
	return r.byTopic.Load(topic)
}

// Constructor is a sarama.PartitionerConstructor.
func (r *PartitionerRegistry) Constructor(topic string) sarama.Partitioner {
	return &tierPartitioner{topic: topic, reg: r}
}

// tierPartitioner adapts a registered types.Partitioner to Sarama. The
// lookup happens per message so partitioners registered after the producer
// was created still apply.
type tierPartitioner struct {
	topic string
	reg   *PartitionerRegistry
}

var _ sarama.Partitioner = (*tierPartitioner)(nil)

func (p *tierPartitioner) Partition(msg *sarama.ProducerMessage, numPartitions int32) (int32, error) {
	delegate, ok := p.reg.Get(p.topic)
	if !ok {
		return -1, fmt.Errorf("%w: %s", types.ErrNoPartitioner, p.topic)
	}

	var key []byte
	if msg.Key != nil {
		encoded, err := msg.Key.Encode()
		if err != nil {
			return -1, fmt.Errorf("failed to encode message key: %w", err)
		}
		key = encoded
	}

	idx, err := delegate.Partition(p.topic, int(numPartitions), key)
	if err != nil {
		return -1, err
	}
	if idx < 0 || idx >= int(numPartitions) {
		return -1, fmt.Errorf("partitioner returned %d of %d", idx, numPartitions)
	}

	return int32(idx), nil //nolint:gosec // bounded by numPartitions
}

// RequiresConsistency makes Sarama pass the full partition count, not only
// the partitions that currently have a leader. Tier ranges are computed over
// the full count.
func (p *tierPartitioner) RequiresConsistency() bool {
	return true
}
