// Package assignor turns a tier's partition range into the explicit
// (topic, partition) list a consumer binds to.
//
// Binding is static: each tier's consumer receives exactly its range and
// no group rebalancing takes place.
package assignor

import (
	"fmt"

	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

// AssignPartitions returns the partitions a consumer of priority must bind to.
//
// Parameters:
//   - priority: Tier to assign
//   - table: Partition tier table for the topic
//   - topic: Topic name
//
// Returns:
//   - []types.TopicPartition: The tier's partitions in ascending order (empty for an empty tier)
//   - error: ErrInvalidPriority (wrapped) for an unknown priority,
//     ErrConfiguration (wrapped) for a nil table or empty topic
//
// Example:
//
//	tps, _ := assignor.AssignPartitions(types.PriorityHigh, reg.Current(), "communications")
//	// communications/0 .. communications/8
func AssignPartitions(priority types.Priority, table *tiering.Table, topic string) ([]types.TopicPartition, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil partition tier table", types.ErrConfiguration)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", types.ErrConfiguration)
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidPriority, int(priority))
	}

	r, err := table.Range(priority)
	if err != nil {
		return nil, err
	}

	out := make([]types.TopicPartition, 0, r.Len())
	for _, p := range r.Partitions() {
		out = append(out, types.TopicPartition{Topic: topic, Partition: p})
	}

	return out, nil
}

// AssignAll returns the binding for every tier in the table.
//
// Returns:
//   - map[types.Priority][]types.TopicPartition: One entry per tier, keyed by priority
//   - error: ErrConfiguration (wrapped) for a nil table or empty topic
func AssignAll(table *tiering.Table, topic string) (map[types.Priority][]types.TopicPartition, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil partition tier table", types.ErrConfiguration)
	}

	ranges := table.Ranges()
	out := make(map[types.Priority][]types.TopicPartition, len(ranges))
	for _, tr := range ranges {
		tps, err := AssignPartitions(tr.Priority, table, topic)
		if err != nil {
			return nil, err
		}
		out[tr.Priority] = tps
	}

	return out, nil
}
