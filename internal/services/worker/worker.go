// Package worker runs operations on a fixed pool of goroutines.
//
// Go Pattern: Goroutines and channels are Go's concurrency primitives.
// A goroutine is like a lightweight thread (thousands are fine), and
// channels are typed pipes for communication between goroutines.
//
// This worker pool pattern is very common in Go:
// 1. Create a buffered channel as a job queue
// 2. Spawn N worker goroutines that read from the channel
// 3. Send jobs to the channel from your HTTP handlers
// 4. Each handler waits on its job's done channel for the response
//
// With the default of one worker, operations run strictly one at a time,
// which keeps Tesseract and MuPDF from competing for CPU and memory.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// ErrQueueFull is returned when a job can't be queued without blocking.
var ErrQueueFull = errors.New("job queue is full; try again later")

// ErrStopped is returned for jobs submitted after Stop.
var ErrStopped = errors.New("worker pool is stopped")

// Processor handles one request. *app.App satisfies it.
type Processor interface {
	Handle(ctx context.Context, req models.Request) models.Response
}

// Job represents a unit of work to be processed by a worker.
type Job struct {
	ID        string
	Request   models.Request
	CreatedAt time.Time

	ctx  context.Context
	done chan models.Response // Buffered(1) so a worker never blocks on an abandoned job
}

// Pool manages a pool of worker goroutines.
type Pool struct {
	// Go Pattern: This buffered channel acts as our job queue.
	// Buffered means it can hold `queueSize` jobs before Submit fails.
	jobs      chan Job
	workers   int
	processor Processor
	logger    zerolog.Logger

	// Go Pattern: sync.WaitGroup tracks running goroutines for graceful shutdown.
	wg sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool.
func NewPool(workers, queueSize int, processor Processor, logger zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		jobs:      make(chan Job, queueSize),
		workers:   workers,
		processor: processor,
		logger:    logger.With().Str("component", "worker").Logger(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.logger.Info().Int("workers", p.workers).Msg("🚀 starting workers")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.logger.Info().Msg("⏹️ stopping workers")
	p.wg.Wait()
	p.logger.Info().Msg("✅ all workers stopped")
}

// Submit queues req and returns a channel that receives its response.
// It fails immediately with ErrQueueFull when the queue has no room.
func (p *Pool) Submit(ctx context.Context, req models.Request) (<-chan models.Response, error) {
	job := Job{
		ID:        uuid.New().String(),
		Request:   req,
		CreatedAt: time.Now(),
		ctx:       ctx,
		done:      make(chan models.Response, 1),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return nil, ErrStopped
	}

	// Go Pattern: `select` with `default` makes channel operations non-blocking.
	// Without default, sending to a full channel would block the HTTP handler.
	select {
	case p.jobs <- job:
		p.logger.Debug().Str("job", job.ID).Str("operation", string(req.Operation)).Msg("📥 job queued")
		return job.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// Run submits req and waits for its response.
// If ctx ends first, Run returns ctx.Err(). A job that already started runs
// to completion; one still queued is skipped.
func (p *Pool) Run(ctx context.Context, req models.Request) (models.Response, error) {
	done, err := p.Submit(ctx, req)
	if err != nil {
		return models.Response{}, err
	}

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return models.Response{}, ctx.Err()
	}
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := p.logger.With().Int("worker", id).Logger()
	log.Debug().Msg("👷 worker started")

	// Go Pattern: `range` over a channel reads values until the channel is closed.
	for job := range p.jobs {
		// The caller gave up while the job was queued, and its upload may
		// already be gone.
		if err := job.ctx.Err(); err != nil {
			log.Info().Str("job", job.ID).Err(err).Msg("⏭️ skipping abandoned job")
			job.done <- abandoned(job, err)
			continue
		}

		log.Debug().Str("job", job.ID).Dur("waited", time.Since(job.CreatedAt)).Msg("processing job")
		job.done <- p.process(job)
	}

	log.Debug().Msg("👷 worker stopped")
}

func abandoned(job Job, err error) models.Response {
	return models.Response{
		Operation: job.Request.Operation,
		Result: models.Result{
			Status: models.StatusError,
			Text:   "The request was cancelled before it started: " + err.Error(),
		},
	}
}

// process runs one job, turning a panic into an error result so a single
// bad document can't take a worker down.
func (p *Pool) process(job Job) (resp models.Response) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("job", job.ID).Interface("panic", r).Msg("❌ job panicked")
			resp = models.Response{
				Operation: job.Request.Operation,
				Result: models.Result{
					Status: models.StatusError,
					Text:   "An unexpected error occurred while processing the PDF.",
				},
			}
		}
	}()

	// The job keeps running even if the caller stopped waiting.
	ctx := context.WithoutCancel(job.ctx)
	return p.processor.Handle(ctx, job.Request)
}
