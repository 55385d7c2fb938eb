package writer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lbryio/comment-server/internal/observability"
)

// DefaultQueueSize bounds the number of accepted jobs waiting to run.
const DefaultQueueSize = 64

// ErrStopped is returned for jobs submitted after Stop.
var ErrStopped = errors.New("writer stopped")

// Job is one unit of work run inside its own transaction. Returning an error
// rolls the transaction back.
type Job func(ctx context.Context, tx *sqlx.Tx) error

type request struct {
	ctx      context.Context
	name     string
	job      Job
	enqueued time.Time
	done     chan error
}

// Writer owns the only read-write connection to the store and runs jobs one
// at a time in submission order.
type Writer struct {
	db   *sqlx.DB
	jobs chan request

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// New takes ownership of db. Nothing else may write through it.
func New(db *sqlx.DB, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Writer{
		db:   db,
		jobs: make(chan request, queueSize),
	}
}

// Start launches the writer goroutine.
func (w *Writer) Start() {
	w.wg.Add(1)
	go w.run()
	log.Printf("[Writer] Started (queue=%d)", cap(w.jobs))
}

// Stop rejects new jobs, runs every job already accepted and closes the
// connection.
func (w *Writer) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()

	log.Printf("[Writer] Stopping, draining %d jobs...", len(w.jobs))
	w.wg.Wait()
	log.Printf("[Writer] Stopped")
	return w.db.Close()
}

// Do submits job and waits for its result. When the queue is full Do blocks
// until there is room or ctx is done. Once accepted, the job is never
// abandoned: Do waits for it even if ctx is cancelled meanwhile.
func (w *Writer) Do(ctx context.Context, name string, job Job) error {
	req := request{
		ctx:      context.WithoutCancel(ctx),
		name:     name,
		job:      job,
		enqueued: time.Now(),
		done:     make(chan error, 1),
	}

	if err := w.submit(ctx, req); err != nil {
		return err
	}
	return <-req.done
}

func (w *Writer) submit(ctx context.Context, req request) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}

	select {
	case w.jobs <- req:
		observability.WriterQueueDepth.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer w.wg.Done()
	for req := range w.jobs {
		observability.WriterQueueDepth.Dec()
		observability.WriterQueueWait.Observe(time.Since(req.enqueued).Seconds())

		err := w.execute(req)
		observability.WriterJobs.WithLabelValues(req.name, observability.Outcome(err)).Inc()
		if err != nil {
			log.Printf("[Writer] Job failed: job=%s err=%v", req.name, err)
		}
		req.done <- err
	}
}

// execute runs one job in a transaction. A panicking job is rolled back and
// reported as an error so the writer keeps serving.
func (w *Writer) execute(req request) (err error) {
	tx, err := w.db.BeginTxx(req.ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", req.name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("job %s panicked: %v", req.name, r)
		}
	}()

	if err := req.job(req.ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[Writer] Rollback failed: job=%s err=%v", req.name, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", req.name, err)
	}
	return nil
}
