package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("reports", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "job-1"})
	require.Error(t, err)
}

func TestQueueDeliversAndStampsJobs(t *testing.T) {
	received := make(chan Job, 1)
	q := NewQueue("reports", func(ctx context.Context, job Job) error {
		received <- job
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "registrations"}))

	select {
	case job := <-received:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, "registrations", job.Type)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not delivered")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("reports", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("disk full")
		}
		close(done)
		return nil
	}, QueueConfig{RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))

	select {
	case <-done:
		assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueDropsJobAfterMaxRetries(t *testing.T) {
	var calls int32
	q := NewQueue("reports", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("disk full")
	}, QueueConfig{MaxRetries: 1, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))

	// First delivery plus one retry, then the job is dropped.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
