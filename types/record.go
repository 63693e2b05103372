package types

import "time"

// Record is one consumed message, or an end-of-partition marker.
//
// Marker records carry only Topic, Partition and EndOfPartition; tier
// workers skip them without invoking the handler.
type Record struct {
	Topic     string
	Partition int
	Offset    int64

	Key   []byte
	Value []byte

	// Priority is the class decoded from Key. Zero value (High) when the key
	// did not decode; check PriorityValid.
	Priority Priority

	// PriorityValid reports whether Key decoded to a known class.
	PriorityValid bool

	Timestamp time.Time

	// EndOfPartition marks "no more data right now" on the partition.
	EndOfPartition bool
}

// TopicPartition returns the (topic, partition) pair the record came from.
func (r Record) TopicPartition() TopicPartition {
	return TopicPartition{Topic: r.Topic, Partition: r.Partition}
}

// NewRecord builds a data record and decodes its priority from key.
func NewRecord(topic string, partition int, offset int64, key, value []byte, ts time.Time) Record {
	rec := Record{
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
		Key:       key,
		Value:     value,
		Timestamp: ts,
	}
	if p, err := DecodeKey(key); err == nil {
		rec.Priority = p
		rec.PriorityValid = true
	}

	return rec
}

// EndOfPartitionRecord builds a marker record for the given partition.
func EndOfPartitionRecord(topic string, partition int) Record {
	return Record{Topic: topic, Partition: partition, EndOfPartition: true}
}

// PublishResult is what the substrate reports for an accepted publish.
type PublishResult struct {
	Topic     string
	Partition int
	Offset    int64
}
