// Package queue provides a bounded worker pool shared by every caller that
// talks to the scraping backend. All searches funnel their fetches through
// one Queue so that total upstream concurrency stays at the configured
// limit no matter how many searches run at once.
package queue

import (
	"context"
	"sync"
)

// Queue runs submitted tasks on a fixed number of workers. Submission
// blocks while all workers are busy; blocked submitters are admitted in
// arrival order.
type Queue struct {
	jobs      chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
	limit     int
}

// New starts a Queue with the given worker count. A limit below one is
// treated as one.
func New(limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	q := &Queue{
		jobs:  make(chan func()),
		limit: limit,
	}
	for range limit {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		job()
	}
}

// Limit returns the worker count the Queue was started with.
func (q *Queue) Limit() int { return q.limit }

// Close stops accepting new tasks and waits for in-flight tasks to finish.
// Submitting after Close panics.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

// Submit runs fn on q and returns its result. It blocks until a worker is
// free; ctx cancellation aborts the wait for admission but never a task
// that has already started. Each task's error is returned only to its own
// submitter.
func Submit[T any](ctx context.Context, q *Queue, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	job := func() {
		val, err := fn(ctx)
		done <- result{val: val, err: err}
	}

	select {
	case q.jobs <- job:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	res := <-done
	return res.val, res.err
}
