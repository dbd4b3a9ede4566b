package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/marcelsud/webhook-outbox/webhook/memory"
	"github.com/marcelsud/webhook-outbox/webhook/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Schedule(t *testing.T) {
	ctx := context.Background()
	body := json.RawMessage(`{"id":1}`)

	t.Run("success - backoff from the failure time", func(t *testing.T) {
		queue := memory.NewRetryQueue()
		s := webhook.NewScheduler(queue, webhook.WithSchedulerClock(func() time.Time { return t0 }))

		for failures := 1; failures < webhook.MaxAttempts; failures++ {
			job, ok, err := s.Schedule(ctx, "sub-1", "order.created", body, failures, t0)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, failures, job.Attempt)
			assert.True(t, job.RunAt.Equal(t0.Add(webhook.Backoff(failures))))
			assert.NotEmpty(t, job.ID)
		}

		n, err := queue.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(webhook.MaxAttempts-1), n)
	})

	t.Run("success - no job at the attempt cap", func(t *testing.T) {
		queue := mocks.NewRetryQueue(t)
		s := webhook.NewScheduler(queue)

		_, ok, err := s.Schedule(ctx, "sub-1", "order.created", body, webhook.MaxAttempts, t0)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("success - custom attempt cap", func(t *testing.T) {
		s := webhook.NewScheduler(memory.NewRetryQueue(), webhook.WithMaxAttempts(3))

		_, ok, err := s.Schedule(ctx, "sub-1", "order.created", body, 2, t0)
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = s.Schedule(ctx, "sub-1", "order.created", body, 3, t0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 3, s.MaxAttempts())
	})

	t.Run("error - enqueue failure", func(t *testing.T) {
		queue := mocks.NewRetryQueue(t)
		queue.On("Enqueue", ctx, mock.Anything).Return(errors.New("redis down")).Once()
		s := webhook.NewScheduler(queue)

		_, ok, err := s.Schedule(ctx, "sub-1", "order.created", body, 1, t0)

		require.Error(t, err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "enqueueing retry")
	})
}

func TestScheduler_Poll(t *testing.T) {
	ctx := context.Background()

	t.Run("success - one failing job does not stop the others", func(t *testing.T) {
		queue := memory.NewRetryQueue()
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, queue.Enqueue(ctx, webhook.RetryJob{ID: id, SubscriberID: id, RunAt: t0}))
		}

		r := mocks.NewRedeliverer(t)
		r.On("ExecuteRetry", mock.Anything, mock.MatchedBy(func(j webhook.RetryJob) bool { return j.ID == "b" })).Return(errors.New("boom")).Once()
		r.On("ExecuteRetry", mock.Anything, mock.MatchedBy(func(j webhook.RetryJob) bool { return j.ID != "b" })).Return(nil).Twice()

		n, err := webhook.NewScheduler(queue).Poll(ctx, r, t0)

		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("success - a panicking job is isolated", func(t *testing.T) {
		queue := memory.NewRetryQueue()
		require.NoError(t, queue.Enqueue(ctx, webhook.RetryJob{ID: "a", RunAt: t0}))
		require.NoError(t, queue.Enqueue(ctx, webhook.RetryJob{ID: "b", RunAt: t0}))

		var ran atomic.Int32
		r := redelivererFunc(func(_ context.Context, job webhook.RetryJob) error {
			if job.ID == "a" {
				panic("unexpected")
			}
			ran.Add(1)
			return nil
		})

		n, err := webhook.NewScheduler(queue).Poll(ctx, r, t0)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, int32(1), ran.Load())
	})

	t.Run("success - batch size limits one cycle", func(t *testing.T) {
		queue := memory.NewRetryQueue()
		for range 5 {
			require.NoError(t, queue.Enqueue(ctx, webhook.RetryJob{RunAt: t0}))
		}
		r := redelivererFunc(func(context.Context, webhook.RetryJob) error { return nil })
		s := webhook.NewScheduler(queue, webhook.WithBatchSize(2), webhook.WithConcurrency(1))

		n, err := s.Poll(ctx, r, t0)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		left, err := queue.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), left)
	})

	t.Run("error - jobs claimed before a claim error still run", func(t *testing.T) {
		queue := mocks.NewRetryQueue(t)
		claimed := []webhook.RetryJob{{ID: "a", SubscriberID: "sub-1", RunAt: t0}}
		queue.On("PopDue", ctx, t0, webhook.DefaultBatchSize).Return(claimed, errors.New("ZREM failed")).Once()

		r := mocks.NewRedeliverer(t)
		r.On("ExecuteRetry", mock.Anything, claimed[0]).Return(nil).Once()

		n, err := webhook.NewScheduler(queue).Poll(ctx, r, t0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "claiming due retries")
		assert.Equal(t, 1, n)
	})

	t.Run("error - queue failure", func(t *testing.T) {
		queue := mocks.NewRetryQueue(t)
		queue.On("PopDue", ctx, t0, webhook.DefaultBatchSize).Return(nil, errors.New("redis down")).Once()

		_, err := webhook.NewScheduler(queue).Poll(ctx, mocks.NewRedeliverer(t), t0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "claiming due retries")
	})
}

func TestScheduler_StartStop(t *testing.T) {
	ctx := context.Background()

	t.Run("success - runs due jobs on every tick until stopped", func(t *testing.T) {
		queue := memory.NewRetryQueue()
		heartbeat := mocks.NewHeartbeater(t)
		s := webhook.NewScheduler(queue, webhook.WithPollInterval(10*time.Millisecond), webhook.WithHeartbeater(heartbeat))

		heartbeat.On("SetPollerHeartbeat", mock.Anything, s.PollerID(), mock.Anything).Return(nil)

		done := make(chan string, 1)
		r := redelivererFunc(func(_ context.Context, job webhook.RetryJob) error {
			done <- job.ID
			return nil
		})

		require.NoError(t, s.Start(ctx, r))
		require.ErrorIs(t, s.Start(ctx, r), webhook.ErrSchedulerRunning)

		require.NoError(t, queue.Enqueue(ctx, webhook.RetryJob{ID: "late-arrival", RunAt: time.Now()}))

		select {
		case id := <-done:
			assert.Equal(t, "late-arrival", id)
		case <-time.After(2 * time.Second):
			t.Fatal("retry was not executed")
		}

		require.NoError(t, s.Stop(ctx))
		require.NoError(t, s.Stop(ctx))
		heartbeat.AssertCalled(t, "SetPollerHeartbeat", mock.Anything, s.PollerID(), webhook.PollerStopped)
	})

	t.Run("success - restart after stop", func(t *testing.T) {
		s := webhook.NewScheduler(memory.NewRetryQueue(), webhook.WithPollInterval(time.Hour))
		r := redelivererFunc(func(context.Context, webhook.RetryJob) error { return nil })

		require.NoError(t, s.Start(ctx, r))
		require.NoError(t, s.Stop(ctx))
		require.NoError(t, s.Start(ctx, r))
		require.NoError(t, s.Stop(ctx))
	})
}

type redelivererFunc func(ctx context.Context, job webhook.RetryJob) error

func (f redelivererFunc) ExecuteRetry(ctx context.Context, job webhook.RetryJob) error {
	return f(ctx, job)
}
