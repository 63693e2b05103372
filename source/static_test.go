package source

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/types"
)

func TestStatic_PartitionCount(t *testing.T) {
	t.Run("returns configured count", func(t *testing.T) {
		src := NewStatic(map[string]int{"communications": 18, "orders": 6})

		n, err := src.PartitionCount(context.Background(), "communications")
		require.NoError(t, err)
		require.Equal(t, 18, n)

		n, err = src.PartitionCount(context.Background(), "orders")
		require.NoError(t, err)
		require.Equal(t, 6, n)
	})

	t.Run("unknown topic", func(t *testing.T) {
		src := NewStatic(nil)

		_, err := src.PartitionCount(context.Background(), "communications")
		require.ErrorIs(t, err, types.ErrTopicNotFound)
	})

	t.Run("does not alias the input map", func(t *testing.T) {
		counts := map[string]int{"communications": 18}
		src := NewStatic(counts)

		counts["communications"] = 99

		n, err := src.PartitionCount(context.Background(), "communications")
		require.NoError(t, err)
		require.Equal(t, 18, n)
	})
}

func TestStatic_Update(t *testing.T) {
	src := NewStatic(nil)
	src.Update("communications", 18)
	src.Update("communications", 24)

	n, err := src.PartitionCount(context.Background(), "communications")
	require.NoError(t, err)
	require.Equal(t, 24, n)
}

func TestStatic_ConcurrentAccess(t *testing.T) {
	src := NewStatic(map[string]int{"communications": 18})

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() { src.Update("communications", 18+i) })
		wg.Go(func() {
			n, err := src.PartitionCount(context.Background(), "communications")
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, n, 18)
		})
	}
	wg.Wait()
}
