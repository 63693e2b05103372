package types

import (
	"fmt"
	"strconv"
)

// PartitionRange is a contiguous half-open interval [Start, End) of partition
// indices owned by exactly one priority tier.
//
// An empty range (Start == End) is legal: small topics may leave a non-last
// tier without partitions after floor rounding.
type PartitionRange struct {
	// Start is the first partition index (inclusive).
	Start int `json:"start"`

	// End is one past the last partition index (exclusive).
	End int `json:"end"`
}

// Len returns the number of partitions in the range.
func (r PartitionRange) Len() int {
	if r.End <= r.Start {
		return 0
	}

	return r.End - r.Start
}

// Empty reports whether the range owns no partitions.
func (r PartitionRange) Empty() bool {
	return r.Len() == 0
}

// Contains reports whether partition index i falls inside the range.
func (r PartitionRange) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Partitions expands the range into its partition indices in ascending order.
//
// Returns:
//   - []int: Indices Start..End-1 (empty slice for an empty range)
func (r PartitionRange) Partitions() []int {
	out := make([]int, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		out = append(out, i)
	}

	return out
}

// Overlaps reports whether two ranges share at least one partition.
func (r PartitionRange) Overlaps(o PartitionRange) bool {
	if r.Empty() || o.Empty() {
		return false
	}

	return r.Start < o.End && o.Start < r.End
}

// String renders the range in interval notation, e.g. "[9,14)".
func (r PartitionRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// TierRange pairs a priority class with the partition range it owns.
type TierRange struct {
	Priority Priority       `json:"priority"`
	Range    PartitionRange `json:"range"`
}

// TopicPartition identifies one partition of a topic.
//
// This is the unit of static consumer assignment: a consumer binding is an
// explicit list of TopicPartition values.
type TopicPartition struct {
	// Topic is the topic name.
	Topic string `json:"topic"`

	// Partition is the zero-based partition index.
	Partition int `json:"partition"`
}

// SubjectKey returns the canonical dot-joined identifier of the partition
// ("<topic>.<partition>"). Subject-addressed substrates use it verbatim.
//
// Returns:
//   - string: Dot-joined identifier ("" if the topic is empty)
func (tp TopicPartition) SubjectKey() string {
	if tp.Topic == "" {
		return ""
	}

	return tp.Topic + "." + strconv.Itoa(tp.Partition)
}

// String returns a human-readable identifier, e.g. "communications/14".
func (tp TopicPartition) String() string {
	return tp.Topic + "/" + strconv.Itoa(tp.Partition)
}

// Compare orders partitions by topic, then by partition index.
//
// Returns:
//   - int: -1 if tp < o, 0 if equal, +1 if tp > o
func (tp TopicPartition) Compare(o TopicPartition) int {
	switch {
	case tp.Topic < o.Topic:
		return -1
	case tp.Topic > o.Topic:
		return 1
	case tp.Partition < o.Partition:
		return -1
	case tp.Partition > o.Partition:
		return 1
	default:
		return 0
	}
}
