package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStopped is returned by Do after Stop.
var ErrStopped = errors.New("worker pool stopped")

type job struct {
	fn   func() (any, error)
	done chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// Worker runs submitted functions on a fixed number of goroutines, so the
// number of programs executing at once is bounded no matter how many
// requests arrive.
type Worker struct {
	jobs chan job
	quit chan struct{}

	mu       sync.RWMutex // held for reading while a job is queued
	stopped  bool
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts n goroutines.
func NewWorker(n int) *Worker {
	if n < 1 {
		n = 1
	}
	w := &Worker{
		jobs: make(chan job, 64),
		quit: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		go w.loop()
	}
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case j := <-w.jobs:
			j.done <- w.execute(j.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics.
func (w *Worker) execute(fn func() (any, error)) (result jobResult) {
	defer func() {
		if r := recover(); r != nil {
			result.err = fmt.Errorf("%v", r)
		}
	}()
	result.value, result.err = fn()
	return result
}

// Do submits fn and blocks until it completes or ctx is done. A function
// abandoned because of ctx still runs to completion in the background.
func (w *Worker) Do(ctx context.Context, fn func() (any, error)) (any, error) {
	j := job{fn: fn, done: make(chan jobResult, 1)}
	if err := w.enqueue(ctx, j); err != nil {
		return nil, err
	}

	select {
	case r := <-j.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Worker) enqueue(ctx context.Context, j job) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrStopped
	}
}

// Stop shuts down the worker goroutines. Jobs already running finish, and
// jobs still queued fail with ErrStopped. Stop may be called more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
		for {
			select {
			case j := <-w.jobs:
				j.done <- jobResult{err: ErrStopped}
			default:
				return
			}
		}
	})
}
