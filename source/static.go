package source

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/no0law1/kafka-prioritization/types"
)

// Static implements a topic inspector with fixed partition counts.
type Static struct {
	mu     sync.RWMutex
	counts map[string]int
}

var _ types.TopicInspector = (*Static)(nil)

// NewStatic creates a new static topic inspector.
//
// The inspector reports the given counts until Update changes them.
// Useful for tests and for tooling that renders tier tables without a
// broker connection.
//
// Parameters:
//   - counts: Partition count per topic
//
// Returns:
//   - *Static: Initialized static inspector
//
// Example:
//
//	src := source.NewStatic(map[string]int{"communications": 18})
//	n, _ := src.PartitionCount(ctx, "communications") // 18
func NewStatic(counts map[string]int) *Static {
	return &Static{
		counts: maps.Clone(counts),
	}
}

// PartitionCount returns the configured count of topic.
//
// Returns:
//   - int: Partition count
//   - error: ErrTopicNotFound (wrapped) for unknown topics
func (s *Static) PartitionCount(_ context.Context, topic string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.counts[topic]
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrTopicNotFound, topic)
	}

	return n, nil
}

// Update sets the partition count of topic.
//
// This allows the static inspector to simulate a topic resized under a
// running process, which is useful for testing desync handling.
//
// Parameters:
//   - topic: Topic name
//   - partitions: New partition count
//
// Example:
//
//	src := source.NewStatic(map[string]int{"communications": 18})
//	// Later: the topic grows
//	src.Update("communications", 24)
func (s *Static) Update(topic string, partitions int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[topic] = partitions
}
