// Package queue carries jobs from the load producer to delivery workers.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/EEWBot/webhook-benchmark/model"
)

// ErrClosed is returned once a queue has been closed.
var ErrClosed = errors.New("queue closed")

// Queue is a multi-producer, multi-consumer job channel.
type Queue interface {
	Enqueue(ctx context.Context, job model.Job) error
	Dequeue(ctx context.Context) (model.Job, error)
	Close() error
}

// ChanQueue is a bounded in-process queue. Enqueue blocks while it is full.
type ChanQueue struct {
	jobs   chan model.Job
	done   chan struct{}
	once   sync.Once
	sendMu sync.RWMutex
}

// NewChanQueue creates a queue holding up to size jobs; size < 1 is treated as 1.
func NewChanQueue(size int) *ChanQueue {
	if size < 1 {
		size = 1
	}
	return &ChanQueue{
		jobs: make(chan model.Job, size),
		done: make(chan struct{}),
	}
}

// Enqueue adds a job, waiting for room. It fails with ErrClosed after Close.
func (q *ChanQueue) Enqueue(ctx context.Context, job model.Job) error {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()

	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue waits for the next job. Jobs already buffered are still handed
// out after Close; ErrClosed is returned once the buffer is drained.
func (q *ChanQueue) Dequeue(ctx context.Context) (model.Job, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return model.Job{}, ErrClosed
		}
		return job, nil
	case <-ctx.Done():
		return model.Job{}, ctx.Err()
	}
}

// Close stops accepting jobs. Pending senders are released with ErrClosed.
func (q *ChanQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
		// wait for in-flight senders to observe done before closing jobs
		q.sendMu.Lock()
		close(q.jobs)
		q.sendMu.Unlock()
	})
	return nil
}

// Len returns the number of buffered jobs.
func (q *ChanQueue) Len() int {
	return len(q.jobs)
}
