package persistence

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/worldgen/internal/config"
)

// Job is one unit of write-back work.
type Job func(ctx context.Context) error

type queued struct {
	name string
	fn   Job
}

// WriterStats counts what happened to submitted jobs.
type WriterStats struct {
	Done    int64
	Failed  int64
	Dropped int64
}

// Writer runs store writes in the background so generation never waits on the
// store. Jobs are best effort: a full queue drops the job and a failed job is
// logged once and forgotten, since the data can always be regenerated.
type Writer struct {
	jobs    chan queued
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	done    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewWriter starts the worker pool.
func NewWriter(cfg config.WriterConfig) *Writer {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	w := &Writer{
		jobs:    make(chan queued, size),
		timeout: timeout,
		log:     slog.With("component", "writer"),
	}
	w.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go w.work()
	}
	return w
}

func (w *Writer) work() {
	defer w.wg.Done()
	for j := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := j.fn(ctx)
		cancel()
		if err != nil {
			w.failed.Add(1)
			w.log.Warn("write-back failed", "job", j.name, "error", err)
			continue
		}
		w.done.Add(1)
	}
}

// Submit enqueues a job without blocking. It reports false when the job was
// dropped because the queue is full or the writer is closed.
func (w *Writer) Submit(name string, fn Job) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		return false
	}
	select {
	case w.jobs <- queued{name: name, fn: fn}:
		return true
	default:
		w.dropped.Add(1)
		w.log.Warn("write-back queue full, dropping job", "job", name)
		return false
	}
}

// Close stops intake and waits for queued jobs to finish or ctx to expire.
// Safe to call more than once.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		w.log.Warn("write-back drain interrupted", "pending", len(w.jobs))
		return ctx.Err()
	}
}

// Stats returns a snapshot of the job counters.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		Done:    w.done.Load(),
		Failed:  w.failed.Load(),
		Dropped: w.dropped.Load(),
	}
}
