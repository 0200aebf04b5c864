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

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{Type: "mail"}))

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "mail", Payload: "hello"}))
	select {
	case job := <-done:
		assert.Equal(t, "mail", job.Type)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "hello", job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("temporary")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "mail"}))
	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job not retried")
	}
}

func TestQueueStopRejectsNewJobs(t *testing.T) {
	q := NewQueue("stop", func(context.Context, Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	q.Stop()

	assert.Error(t, q.Enqueue(Job{Type: "mail"}))
}
