package natsjs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/no0law1/kafka-prioritization/internal/kvutil"
	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/natsutil"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

// DefaultTableBucket is the KV bucket holding tier table descriptors.
const DefaultTableBucket = "prioritization-tables"

// TableStore shares tier table descriptors across processes through a
// JetStream KV bucket, one key per topic.
//
// The first process to start for a topic records its descriptor; later
// processes compare theirs against it.
type TableStore struct {
	kv     jetstream.KeyValue
	logger types.Logger
}

// NewTableStore opens (or creates) the descriptor bucket.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - bucket: Bucket name (DefaultTableBucket if empty)
//   - logger: Optional logger (nil for no-op)
//
// Returns:
//   - *TableStore: Ready store
//   - error: Bucket creation error after retries
func NewTableStore(ctx context.Context, js jetstream.JetStream, bucket string, logger types.Logger) (*TableStore, error) {
	if bucket == "" {
		bucket = DefaultTableBucket
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "prioritization tier tables",
		History:     1,
	}, 3)
	if err != nil {
		return nil, natsutil.Classify(err)
	}

	return &TableStore{kv: kv, logger: logger}, nil
}

// Reconcile records table as the layout of topic, or verifies it against
// the layout already recorded.
//
// Returns:
//   - error: ErrTableMismatch when another process recorded a different
//     layout, or the KV error
func (s *TableStore) Reconcile(ctx context.Context, topic string, table *tiering.Table) error {
	if table == nil {
		return fmt.Errorf("%w: nil table", types.ErrConfiguration)
	}

	data, err := json.Marshal(table.Descriptor())
	if err != nil {
		return fmt.Errorf("failed to encode table descriptor: %w", err)
	}

	key := sanitizeConsumerName(topic)
	if _, err := s.kv.Create(ctx, key, data); err == nil {
		s.logger.Info("recorded tier table", "topic", topic, "table", table.String())

		return nil
	} else if !errors.Is(err, jetstream.ErrKeyExists) {
		return fmt.Errorf("failed to record tier table for %s: %w", topic, natsutil.Classify(err))
	}

	stored, err := s.Load(ctx, topic)
	if err != nil {
		return err
	}
	if !stored.Matches(table) {
		return fmt.Errorf("%w: topic %s recorded %d partitions (fingerprint %x), local table %s (fingerprint %x)",
			types.ErrTableMismatch, topic, stored.TotalPartitions, stored.Fingerprint, table.String(), table.Fingerprint())
	}
	s.logger.Debug("tier table matches recorded layout", "topic", topic)

	return nil
}

// Load returns the descriptor recorded for topic.
//
// Returns:
//   - tiering.Descriptor: Recorded descriptor
//   - error: ErrNoKeysFound if nothing is recorded, or the KV/decode error
func (s *TableStore) Load(ctx context.Context, topic string) (tiering.Descriptor, error) {
	entry, err := s.kv.Get(ctx, sanitizeConsumerName(topic))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return tiering.Descriptor{}, fmt.Errorf("%w: no tier table recorded for %s", types.ErrNoKeysFound, topic)
		}

		return tiering.Descriptor{}, natsutil.Classify(err)
	}

	var d tiering.Descriptor
	if err := json.Unmarshal(entry.Value(), &d); err != nil {
		return tiering.Descriptor{}, fmt.Errorf("failed to decode tier table for %s: %w", topic, err)
	}

	return d, nil
}

// Delete removes the descriptor recorded for topic.
func (s *TableStore) Delete(ctx context.Context, topic string) error {
	if err := s.kv.Delete(ctx, sanitizeConsumerName(topic)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return natsutil.Classify(err)
	}

	return nil
}
