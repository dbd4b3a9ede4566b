package memory

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
)

// jobHeap is a min-heap of retry jobs ordered by RunAt, then by insertion
type jobHeap []queuedJob

type queuedJob struct {
	job webhook.RetryJob
	seq uint64
}

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].job.RunAt.Equal(h[j].job.RunAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].job.RunAt.Before(h[j].job.RunAt)
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(queuedJob)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RetryQueue is a process-local retry queue
type RetryQueue struct {
	mu   sync.Mutex
	jobs jobHeap
	seq  uint64
}

// NewRetryQueue creates an empty queue
func NewRetryQueue() *RetryQueue {
	return &RetryQueue{}
}

// Enqueue adds a job
func (q *RetryQueue) Enqueue(_ context.Context, job webhook.RetryJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.jobs, queuedJob{job: job, seq: q.seq})
	return nil
}

// PopDue removes and returns up to limit jobs due at now, earliest first
func (q *RetryQueue) PopDue(_ context.Context, now time.Time, limit int) ([]webhook.RetryJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []webhook.RetryJob
	for q.jobs.Len() > 0 && (limit <= 0 || len(due) < limit) {
		if !q.jobs[0].job.Due(now) {
			break
		}
		due = append(due, heap.Pop(&q.jobs).(queuedJob).job)
	}
	return due, nil
}

// Len returns the number of pending jobs
func (q *RetryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(q.jobs.Len()), nil
}

// CountDue returns the number of jobs due at now without claiming them
func (q *RetryQueue) CountDue(_ context.Context, now time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var n int64
	for _, j := range q.jobs {
		if j.job.Due(now) {
			n++
		}
	}
	return n, nil
}
