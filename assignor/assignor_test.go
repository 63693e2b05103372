package assignor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

func defaultTable(t *testing.T, total int) *tiering.Table {
	t.Helper()

	tbl, err := tiering.New(total, types.DefaultWeights())
	require.NoError(t, err)

	return tbl
}

func TestAssignPartitions_High(t *testing.T) {
	t.Parallel()

	tps, err := AssignPartitions(types.PriorityHigh, defaultTable(t, 18), "communications")
	require.NoError(t, err)
	require.Len(t, tps, 9)
	for i, tp := range tps {
		require.Equal(t, types.TopicPartition{Topic: "communications", Partition: i}, tp)
	}
}

func TestAssignPartitions_MediumAndLow(t *testing.T) {
	t.Parallel()

	tbl := defaultTable(t, 18)

	medium, err := AssignPartitions(types.PriorityMedium, tbl, "communications")
	require.NoError(t, err)
	require.Equal(t, 9, medium[0].Partition)
	require.Equal(t, 13, medium[len(medium)-1].Partition)

	low, err := AssignPartitions(types.PriorityLow, tbl, "communications")
	require.NoError(t, err)
	require.Equal(t, []types.TopicPartition{
		{Topic: "communications", Partition: 14},
		{Topic: "communications", Partition: 15},
		{Topic: "communications", Partition: 16},
		{Topic: "communications", Partition: 17},
	}, low)
}

func TestAssignPartitions_EmptyTier(t *testing.T) {
	t.Parallel()

	tps, err := AssignPartitions(types.PriorityMedium, defaultTable(t, 2), "communications")
	require.NoError(t, err)
	require.Empty(t, tps)
}

func TestAssignPartitions_Errors(t *testing.T) {
	t.Parallel()

	tbl := defaultTable(t, 18)

	_, err := AssignPartitions(types.Priority(5), tbl, "communications")
	require.ErrorIs(t, err, types.ErrInvalidPriority)

	_, err = AssignPartitions(types.PriorityHigh, nil, "communications")
	require.ErrorIs(t, err, types.ErrConfiguration)

	_, err = AssignPartitions(types.PriorityHigh, tbl, "")
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestAssignAll_CoversEveryPartitionOnce(t *testing.T) {
	t.Parallel()

	for _, total := range []int{3, 7, 18, 64, 100} {
		all, err := AssignAll(defaultTable(t, total), "communications")
		require.NoError(t, err)
		require.Len(t, all, 3)

		seen := make(map[int]types.Priority, total)
		for p, tps := range all {
			for _, tp := range tps {
				prev, dup := seen[tp.Partition]
				require.False(t, dup, "partition %d assigned to %s and %s", tp.Partition, prev, p)
				seen[tp.Partition] = p
			}
		}
		require.Len(t, seen, total)
	}
}

func TestAssignAll_NilTable(t *testing.T) {
	t.Parallel()

	_, err := AssignAll(nil, "communications")
	require.ErrorIs(t, err, types.ErrConfiguration)
}
