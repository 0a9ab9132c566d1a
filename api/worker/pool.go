// Package worker provides an asynchronous worker pool for publishing
// exchange events using the provided eventstream.Publisher.
//
// The pool decouples event publishing from the API's HTTP hot path so that
// responses return as soon as the exchange is persisted.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finpersona/finchat/pkg/eventstream"
	"github.com/finpersona/finchat/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	UserID      string
	User        storage.Message
	Assistant   storage.Message
	Path        string
	StartedAt   time.Time
	CompletedAt time.Time
	Streaming   bool
	HTTPStatus  int
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher is the event stream backend for emitting exchange events.
	Publisher eventstream.Publisher

	// Source identifies the emitting service on every event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes exchange events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("user_id", job.UserID),
			zap.Bool("streaming", job.Streaming),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("user_id", job.UserID),
			zap.Bool("streaming", job.Streaming),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("event worker stopped", zap.Uint("worker_id", id))
}

// processJob builds the exchange event for a Job and publishes it.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	event := &eventstream.ExchangePersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeExchangePersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        p.config.Source,
		RequestMeta: eventstream.ExchangeRequestMeta{
			Path:        job.Path,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			DurationMs:  job.CompletedAt.Sub(job.StartedAt).Milliseconds(),
			Streaming:   job.Streaming,
			HTTPStatus:  job.HTTPStatus,
		},
		Exchange: eventstream.Exchange{
			UserID:    job.UserID,
			User:      job.User,
			Assistant: job.Assistant,
		},
	}

	if err := p.config.Publisher.PublishExchange(ctx, event); err != nil {
		p.logger.Error("async event publish failed",
			zap.String("user_id", job.UserID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("exchange event published",
		zap.String("event_id", event.EventID),
		zap.String("user_id", job.UserID),
	)
}
