// Package types provides core type definitions and interfaces for the
// prioritization library.
//
// This package contains shared types used across the tiering, assignor,
// partitioner, worker and substrate packages. Keeping them in a separate
// package avoids import cycles between the root package and its
// implementations.
//
// Key types:
//   - Priority: Closed urgency class (High, Medium, Low)
//   - PartitionRange, TopicPartition: Tier ranges and explicit bindings
//   - Record: Consumed message or end-of-partition marker
//   - Publisher, Binder, TopicInspector, PartitionConsumer: Substrate faces
//   - WorkerState: Tier worker lifecycle state
//   - Logger, MetricsCollector, Hooks: Ambient interfaces
package types
