package jobs

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

func TestQueueProcessesJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		wg   sync.WaitGroup
	)
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		wg.Done()
		return nil
	}, QueueConfig{Workers: 2})
	queue.Start(context.Background())
	defer queue.Stop()

	wg.Add(3)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, queue.Enqueue(Job{ID: id}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var attempts int32
	failed := make(chan Job, 1)
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnFailure:  func(job Job, err error) { failed <- job },
	})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "retry"}))
	select {
	case job := <-failed:
		assert.Equal(t, "retry", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("failure handler not called")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueuePermanentErrorSkipsRetry(t *testing.T) {
	var attempts int32
	failed := make(chan error, 1)
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return Permanent(errors.New("bad input"))
	}, QueueConfig{
		RetryDelay: time.Millisecond,
		OnFailure:  func(job Job, err error) { failed <- err },
	})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "once"}))
	select {
	case err := <-failed:
		assert.True(t, IsPermanent(err))
		assert.EqualError(t, err, "bad input")
	case <-time.After(2 * time.Second):
		t.Fatal("failure handler not called")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, queue.Enqueue(Job{ID: "x"}))
	assert.Nil(t, Permanent(nil))
}
