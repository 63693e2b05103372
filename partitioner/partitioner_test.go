package partitioner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/assignor"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

func newPartitioner(t *testing.T, total int, opts ...Option) *TierPartitioner {
	t.Helper()

	reg, err := tiering.NewRegistry(total, types.DefaultWeights())
	require.NoError(t, err)

	p, err := New(reg, opts...)
	require.NoError(t, err)

	return p
}

func TestPartition_LowStaysInRange(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18)
	seen := make(map[int]int)
	for range 10_000 {
		idx, err := p.Partition("communications", 18, []byte("Low"))
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx, 14)
		require.Less(t, idx, 18)
		seen[idx]++
	}

	// every partition of the tier is reachable
	require.Len(t, seen, 4)
}

func TestPartition_EveryTierStaysInRange(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18, WithSeed(7))
	tbl := p.registry.Current()
	for _, prio := range types.AllPriorities() {
		r, err := tbl.Range(prio)
		require.NoError(t, err)
		for range 1000 {
			idx, err := p.Partition("communications", 18, prio.Key())
			require.NoError(t, err)
			require.True(t, r.Contains(idx), "%s drew %d outside %s", prio, idx, r)
		}
	}
}

func TestPartition_InvalidKey(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18)
	for _, key := range [][]byte{[]byte("urgent"), nil, {}, []byte("1")} {
		_, err := p.Partition("communications", 18, key)
		require.ErrorIs(t, err, types.ErrInvalidPriority)
	}
}

func TestPartition_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	a := newPartitioner(t, 18, WithSeed(42))
	b := newPartitioner(t, 18, WithSeed(42))
	for range 100 {
		x, err := a.Partition("communications", 18, []byte("High"))
		require.NoError(t, err)
		y, err := b.Partition("communications", 18, []byte("High"))
		require.NoError(t, err)
		require.Equal(t, x, y)
	}
}

func TestPartition_ResizedTopic(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18)

	// 24 partitions: High [0,12) Medium [12,19) Low [19,24)
	for range 500 {
		idx, err := p.Partition("communications", 24, []byte("Low"))
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx, 19)
		require.Less(t, idx, 24)
	}
	require.Equal(t, 2, p.registry.Size())
}

func TestPartition_EmptyTier(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18)

	// 2 partitions leave Medium empty
	_, err := p.Partition("communications", 2, []byte("Medium"))
	require.ErrorIs(t, err, types.ErrEmptyTier)
	require.ErrorIs(t, err, types.ErrConfiguration)

	_, err = p.Partition("communications", 0, []byte("High"))
	require.ErrorIs(t, err, types.ErrConfiguration)
}

// TestPartition_RoundTripWithAssignor checks that every partition a producer
// picks for a priority is bound by that priority's consumer.
func TestPartition_RoundTripWithAssignor(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18)
	all, err := assignor.AssignAll(p.registry.Current(), "communications")
	require.NoError(t, err)

	for _, prio := range types.AllPriorities() {
		bound := make(map[int]struct{})
		for _, tp := range all[prio] {
			bound[tp.Partition] = struct{}{}
		}
		for range 500 {
			idx, err := p.Partition("communications", 18, prio.Key())
			require.NoError(t, err)
			require.Contains(t, bound, idx)
		}
	}
}

func TestPartition_Concurrent(t *testing.T) {
	t.Parallel()

	p := newPartitioner(t, 18)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Go(func() {
			for range 500 {
				idx, err := p.Partition("communications", 18, []byte("Medium"))
				if err != nil {
					errs <- err
					return
				}
				if idx < 9 || idx >= 14 {
					errs <- types.ErrConfiguration
					return
				}
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func TestNew_NilRegistry(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func BenchmarkPartition(b *testing.B) {
	reg, err := tiering.NewRegistry(18, types.DefaultWeights())
	require.NoError(b, err)
	p, err := New(reg)
	require.NoError(b, err)

	key := []byte("High")
	for b.Loop() {
		_, _ = p.Partition("communications", 18, key)
	}
}
