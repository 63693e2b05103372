package types

import "context"

// Partitioner selects a partition for an outbound message.
//
// Implementations must be safe for concurrent use: the substrate may call
// Partition from many publishing goroutines at once.
type Partitioner interface {
	// Partition returns the index in [0, partitionCount) for a message with
	// the given key. partitionCount is the actual partition count the
	// substrate reports for topic at publish time.
	Partition(topic string, partitionCount int, key []byte) (int, error)
}

// PartitionerFunc adapts a function to the Partitioner interface.
type PartitionerFunc func(topic string, partitionCount int, key []byte) (int, error)

// Partition calls f(topic, partitionCount, key).
func (f PartitionerFunc) Partition(topic string, partitionCount int, key []byte) (int, error) {
	return f(topic, partitionCount, key)
}

// Publisher is the producer face of a messaging substrate.
type Publisher interface {
	// SetPartitioner registers the partitioner used for every publish to topic.
	SetPartitioner(topic string, p Partitioner) error

	// Publish sends value keyed by key. The registered partitioner picks the
	// partition. Errors wrap ErrPublishFailure; a partitioner error is kept
	// in the chain.
	Publish(ctx context.Context, topic string, key, value []byte) (PublishResult, error)

	// Close releases producer resources.
	Close() error
}

// Binding describes one static consumer binding: an explicit partition list,
// no group rebalancing.
type Binding struct {
	// Group is the consumer group identifier shared by all tiers.
	Group string

	// Priority is the tier the binding serves. Substrates use it to name
	// per-tier durable consumers.
	Priority Priority

	// Partitions is the exact partition list to bind, in ascending order.
	Partitions []TopicPartition
}

// Binder creates static consumer bindings.
type Binder interface {
	// Bind attaches a consumer to exactly the partitions in b.
	Bind(ctx context.Context, b Binding) (PartitionConsumer, error)
}

// PartitionConsumer is a bound consumer handle owned by exactly one tier
// worker.
type PartitionConsumer interface {
	// Consume blocks until a record or end-of-partition marker is available,
	// ctx is cancelled, or the poll fails. Failures wrap ErrConsumeFailure;
	// after Close it returns ErrBindingClosed.
	Consume(ctx context.Context) (Record, error)

	// Close releases the binding. Safe to call more than once.
	Close() error
}

// TopicInspector reports topic metadata.
type TopicInspector interface {
	// PartitionCount returns the actual number of partitions of topic.
	// Returns ErrTopicNotFound (wrapped) for unknown topics.
	PartitionCount(ctx context.Context, topic string) (int, error)
}

// Substrate composes the three faces a router needs.
type Substrate interface {
	Publisher
	Binder
	TopicInspector
}
