package partition

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_CoversEveryItemOnce(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	parts := Split(items, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, []int{1, 2, 3}, parts[0])
	assert.Equal(t, []int{4, 5}, parts[1])
	assert.Equal(t, []int{6, 7}, parts[2])

	assert.Len(t, Split(items, 20), 7)
	assert.Nil(t, Split([]int{}, 4))
}

func TestMap_PreservesOrderAndBoundsConcurrency(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var inFlight, peak int32
	out, err := Map(context.Background(), items, 4, func(_ context.Context, v int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		defer atomic.AddInt32(&inFlight, -1)
		return v * v, nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestMap_PropagatesError(t *testing.T) {
	boom := errors.New("store unreachable")
	_, err := Map(context.Background(), []int{1, 2, 3}, 2, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMapReduce_SameResultForAnyWorkerCount(t *testing.T) {
	items := make([]int, 101)
	for i := range items {
		items[i] = i + 1
	}
	zero := func() int { return 0 }
	fold := func(acc, v int) int { return acc + v }

	for _, workers := range []int{1, 2, 3, 7, 101, 500} {
		sum, err := MapReduce(context.Background(), items, workers, zero, fold, fold)
		require.NoError(t, err)
		assert.Equal(t, 5151, sum, "workers=%d", workers)
	}
}

func TestWorkers_DefaultsToCPUCount(t *testing.T) {
	assert.Greater(t, Workers(0), 0)
	assert.Equal(t, 3, Workers(3))
}
