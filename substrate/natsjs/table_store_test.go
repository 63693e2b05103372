package natsjs

import (
	"testing"

	"github.com/stretchr/testify/require"

	priotest "github.com/no0law1/kafka-prioritization/testing"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

func TestTableStore_Reconcile(t *testing.T) {
	ctx := t.Context()
	_, js := priotest.StartEmbeddedJetStream(t)

	store, err := NewTableStore(ctx, js, "", priotest.NewTestLogger(t))
	require.NoError(t, err)

	table, err := tiering.New(18, types.DefaultWeights())
	require.NoError(t, err)

	_, err = store.Load(ctx, topic)
	require.ErrorIs(t, err, types.ErrNoKeysFound)
	require.True(t, types.IsNoKeysFoundError(err))

	require.NoError(t, store.Reconcile(ctx, topic, table))

	desc, err := store.Load(ctx, topic)
	require.NoError(t, err)
	require.Equal(t, 18, desc.TotalPartitions)
	require.Equal(t, table.Fingerprint(), desc.Fingerprint)
	require.True(t, desc.Matches(table))

	// a second process with the same layout, opening the bucket again
	again, err := NewTableStore(ctx, js, DefaultTableBucket, nil)
	require.NoError(t, err)
	same, err := tiering.New(18, types.DefaultWeights())
	require.NoError(t, err)
	require.NoError(t, again.Reconcile(ctx, topic, same))

	other, err := tiering.New(18, types.Weights{
		{Priority: types.PriorityHigh, Fraction: 0.3},
		{Priority: types.PriorityMedium, Fraction: 0.3},
		{Priority: types.PriorityLow, Fraction: 0.4},
	})
	require.NoError(t, err)
	err = again.Reconcile(ctx, topic, other)
	require.ErrorIs(t, err, types.ErrTableMismatch)
	require.ErrorIs(t, err, types.ErrConfiguration)

	resized, err := tiering.New(24, types.DefaultWeights())
	require.NoError(t, err)
	require.ErrorIs(t, again.Reconcile(ctx, topic, resized), types.ErrTableMismatch)

	require.ErrorIs(t, store.Reconcile(ctx, topic, nil), types.ErrConfiguration)

	// topics are independent keys
	require.NoError(t, store.Reconcile(ctx, "orders", other))

	require.NoError(t, store.Delete(ctx, topic))
	require.NoError(t, store.Delete(ctx, topic))
	require.NoError(t, again.Reconcile(ctx, topic, other))
}
