package fetchworker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPool(t *testing.T, workers, queue int) *Pool {
	t.Helper()
	pool := NewPool(workers, queue)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})
	return pool
}

func TestSubmitDeliversResult(t *testing.T) {
	pool := startPool(t, 2, 4)

	res := <-pool.Submit("key", func(ctx context.Context) (any, error) {
		return 42, nil
	})

	require.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)
}

func TestSubmitDeliversError(t *testing.T) {
	pool := startPool(t, 2, 4)

	boom := errors.New("boom")
	res := <-pool.Submit("key", func(ctx context.Context) (any, error) {
		return nil, boom
	})

	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, int64(1), pool.Stats().TotalErrors)
}

func TestSubmitNeverBlocksCaller(t *testing.T) {
	pool := startPool(t, 1, 1)

	block := make(chan struct{})
	var outs []<-chan Result
	// Saturate the single worker and its queue, then keep submitting.
	for i := 0; i < 10; i++ {
		outs = append(outs, pool.Submit("same-key", func(ctx context.Context) (any, error) {
			<-block
			return nil, nil
		}))
	}
	close(block)

	for _, out := range outs {
		select {
		case res := <-out:
			require.NoError(t, res.Err)
		case <-time.After(5 * time.Second):
			t.Fatal("task result never delivered")
		}
	}

	assert.Greater(t, pool.Stats().TotalOverflow, int64(0), "saturated queue must spill to detached goroutines")
}

func TestSameKeyTasksShareAWorker(t *testing.T) {
	pool := startPool(t, 4, 16)

	shard := pool.shardForKey("download|abc")
	for i := 0; i < 10; i++ {
		assert.Equal(t, shard, pool.shardForKey("download|abc"))
	}
}

func TestTasksRunConcurrentlyAcrossKeys(t *testing.T) {
	pool := startPool(t, 4, 4)

	var running int32
	var peak int32
	var mu sync.Mutex

	keys := []string{"a", "b", "c", "d"}
	var outs []<-chan Result
	for _, key := range keys {
		outs = append(outs, pool.Submit(key, func(ctx context.Context) (any, error) {
			n := atomic.AddInt32(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil, nil
		}))
	}
	for _, out := range outs {
		<-out
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, peak, int32(1), "distinct keys should run in parallel")
}

func TestPanicBecomesError(t *testing.T) {
	pool := startPool(t, 2, 4)

	res := <-pool.Submit("key", func(ctx context.Context) (any, error) {
		panic("kaboom")
	})

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "kaboom")
}

func TestStopDrainsQueuedTasks(t *testing.T) {
	pool := NewPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	block := make(chan struct{})
	first := pool.Submit("key", func(ctx context.Context) (any, error) {
		<-block
		return "first", nil
	})
	queued := pool.Submit("key", func(ctx context.Context) (any, error) {
		return "queued", nil
	})

	cancel()
	close(block)
	pool.Stop()

	res := <-first
	assert.Equal(t, "first", res.Value)
	res = <-queued
	require.NoError(t, res.Err)
	assert.Equal(t, "queued", res.Value)
}

func TestSubmitAfterStopStillRuns(t *testing.T) {
	pool := NewPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()
	pool.Stop()

	res := <-pool.Submit("key", func(ctx context.Context) (any, error) {
		return "late", nil
	})
	require.NoError(t, res.Err)
	assert.Equal(t, "late", res.Value)
}

func TestStatsCounters(t *testing.T) {
	pool := startPool(t, 2, 4)

	for i := 0; i < 5; i++ {
		<-pool.Submit("key", func(ctx context.Context) (any, error) {
			return nil, nil
		})
	}

	stats := pool.Stats()
	assert.Equal(t, int64(5), stats.TotalDispatched)
	assert.Equal(t, int64(5), stats.TotalProcessed)
	assert.Equal(t, 2, stats.NumWorkers)
}
