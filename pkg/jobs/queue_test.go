package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "job-1"})
	require.Error(t, err)
}

func TestQueueDeliversJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.ID)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	require.NoError(t, q.Enqueue(Job{ID: "job-2"}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("jobs not delivered in time")
}

func TestQueueFailureLogsCarryWorkerID(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	q := NewQueue("test", func(context.Context, Job) error {
		return errors.New("boom")
	}, QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: 5 * time.Millisecond, Logger: zap.New(core)})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "test"}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if logs.Len() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	entries := logs.All()
	require.NotEmpty(t, entries)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["worker"])
	assert.Equal(t, "job-1", fields["job_id"])
}
