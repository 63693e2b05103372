package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/types"
)

func fixedPartitioner(idx int) types.Partitioner {
	return types.PartitionerFunc(func(string, int, []byte) (int, error) { return idx, nil })
}

func binding(topic string, parts ...int) types.Binding {
	tps := make([]types.TopicPartition, 0, len(parts))
	for _, p := range parts {
		tps = append(tps, types.TopicPartition{Topic: topic, Partition: p})
	}

	return types.Binding{Group: "consumer", Priority: types.PriorityHigh, Partitions: tps}
}

func TestBroker_PublishAndConsume(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.CreateTopic("communications", 4))
	require.NoError(t, b.SetPartitioner("communications", fixedPartitioner(2)))

	res, err := b.Publish(ctx, "communications", []byte("High"), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, types.PublishResult{Topic: "communications", Partition: 2, Offset: 0}, res)

	c, err := b.BindConsumer(binding("communications", 2, 3))
	require.NoError(t, err)

	rec, err := c.Consume(ctx)
	require.NoError(t, err)
	require.False(t, rec.EndOfPartition)
	require.Equal(t, "hello", string(rec.Value))
	require.Equal(t, types.PriorityHigh, rec.Priority)
	require.True(t, rec.PriorityValid)

	// both partitions are caught up: one marker each
	eof1, err := c.Consume(ctx)
	require.NoError(t, err)
	require.True(t, eof1.EndOfPartition)
	eof2, err := c.Consume(ctx)
	require.NoError(t, err)
	require.True(t, eof2.EndOfPartition)
	require.NotEqual(t, eof1.Partition, eof2.Partition)
}

func TestConsumer_BlocksUntilPublish(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.CreateTopic("communications", 1))
	require.NoError(t, b.SetPartitioner("communications", fixedPartitioner(0)))

	c, err := b.BindConsumer(binding("communications", 0))
	require.NoError(t, err)

	eof, err := c.Consume(ctx)
	require.NoError(t, err)
	require.True(t, eof.EndOfPartition)

	got := make(chan types.Record, 1)
	go func() {
		rec, err := c.Consume(ctx)
		if err == nil {
			got <- rec
		}
	}()

	time.Sleep(20 * time.Millisecond)
	_, err = b.Publish(ctx, "communications", []byte("Low"), []byte("late"))
	require.NoError(t, err)

	select {
	case rec := <-got:
		require.Equal(t, "late", string(rec.Value))
	case <-time.After(2 * time.Second):
		t.Fatal("consumer was not woken by publish")
	}
}

func TestConsumer_CancelAndClose(t *testing.T) {
	b := New()
	require.NoError(t, b.CreateTopic("communications", 1))
	c, err := b.BindConsumer(binding("communications", 0))
	require.NoError(t, err)

	_, _ = c.Consume(context.Background()) // marker

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Consume(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.Equal(t, 2, c.CloseCount())

	_, err = c.Consume(context.Background())
	require.ErrorIs(t, err, types.ErrBindingClosed)
}

func TestConsumer_FailNext(t *testing.T) {
	b := New()
	require.NoError(t, b.CreateTopic("communications", 1))
	c, err := b.BindConsumer(binding("communications", 0))
	require.NoError(t, err)

	boom := errors.New("broker unavailable")
	c.FailNext(boom)

	_, err = c.Consume(context.Background())
	require.ErrorIs(t, err, types.ErrConsumeFailure)
	require.ErrorIs(t, err, boom)

	rec, err := c.Consume(context.Background())
	require.NoError(t, err)
	require.True(t, rec.EndOfPartition)
}

func TestBroker_Errors(t *testing.T) {
	ctx := context.Background()
	b := New()

	require.ErrorIs(t, b.CreateTopic("", 3), types.ErrConfiguration)
	require.NoError(t, b.CreateTopic("communications", 3))
	require.NoError(t, b.CreateTopic("communications", 3))
	require.ErrorIs(t, b.CreateTopic("communications", 4), types.ErrConfiguration)

	_, err := b.PartitionCount(ctx, "missing")
	require.ErrorIs(t, err, types.ErrTopicNotFound)

	_, err = b.Publish(ctx, "communications", []byte("High"), nil)
	require.ErrorIs(t, err, types.ErrNoPartitioner)
	require.ErrorIs(t, err, types.ErrPublishFailure)

	require.NoError(t, b.SetPartitioner("communications", types.PartitionerFunc(func(string, int, []byte) (int, error) {
		return 0, types.ErrInvalidPriority
	})))
	_, err = b.Publish(ctx, "communications", []byte("urgent"), nil)
	require.ErrorIs(t, err, types.ErrInvalidPriority)
	require.ErrorIs(t, err, types.ErrPublishFailure)

	require.NoError(t, b.SetPartitioner("communications", fixedPartitioner(7)))
	_, err = b.Publish(ctx, "communications", []byte("High"), nil)
	require.ErrorIs(t, err, types.ErrPublishFailure)

	_, err = b.Bind(ctx, types.Binding{Priority: types.PriorityMedium})
	require.ErrorIs(t, err, types.ErrEmptyTier)

	_, err = b.Bind(ctx, binding("communications", 5))
	require.ErrorIs(t, err, types.ErrConfiguration)

	require.NoError(t, b.Close())
	require.NoError(t, b.SetPartitioner("communications", fixedPartitioner(0)))
	_, err = b.Publish(ctx, "communications", []byte("High"), nil)
	require.ErrorIs(t, err, types.ErrPublishFailure)
}

func TestBroker_Messages(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.CreateTopic("communications", 2))
	require.NoError(t, b.SetPartitioner("communications", fixedPartitioner(1)))

	for range 3 {
		_, err := b.Publish(ctx, "communications", []byte("Medium"), []byte("m"))
		require.NoError(t, err)
	}

	require.Len(t, b.Messages("communications", 1), 3)
	require.Empty(t, b.Messages("communications", 0))
	require.Nil(t, b.Messages("communications", 9))
}
