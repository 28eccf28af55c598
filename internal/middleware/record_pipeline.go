package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CoinSense/internal/domain/models"
	domrepo "CoinSense/internal/domain/repository"
	applogger "CoinSense/pkg/logger"
)

// ErrBufferFull is returned when the pipeline cannot take more records.
var ErrBufferFull = errors.New("record pipeline buffer full")

// BatchProc is the downstream the pipeline flushes into.
type BatchProc interface {
	ProcessBatch(ctx context.Context, records []*models.DecisionRecord) error
}

// RecordPipeline sits between the decision flow and the recorder backend.
// It validates records, buffers them without blocking the caller and flushes in batches.
type RecordPipeline struct {
	proc      BatchProc
	metrics   domrepo.Metrics
	log       *applogger.Logger
	bufSize   int
	batchSize int
	interval  time.Duration
	retries   int
	bufCh     chan *models.DecisionRecord
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	mu        sync.Mutex
}

type PipelineOption func(*RecordPipeline)

// WithBufferSize sets how many records may wait for a flush.
func WithBufferSize(n int) PipelineOption {
	return func(p *RecordPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatch sets the batch size and the longest a partial batch waits.
func WithBatch(size int, interval time.Duration) PipelineOption {
	return func(p *RecordPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithRetries sets flush attempts per batch before it is dropped.
func WithRetries(n int) PipelineOption {
	return func(p *RecordPipeline) {
		if n > 0 {
			p.retries = n
		}
	}
}

func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *RecordPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewRecordPipeline creates a pipeline. Call Start before Record.
func NewRecordPipeline(proc BatchProc, metrics domrepo.Metrics, opts ...PipelineOption) *RecordPipeline {
	p := &RecordPipeline{
		proc:      proc,
		metrics:   metrics,
		log:       applogger.NewNop(),
		bufSize:   256,
		batchSize: 50,
		interval:  2 * time.Second,
		retries:   3,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.DecisionRecord, p.bufSize)
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	return p
}

// Start launches the flush loop. ctx bounds downstream calls.
// A stopped pipeline cannot be restarted.
func (p *RecordPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.loop(ctx)
}

// Stop flushes what is buffered and waits for the loop to exit or ctx to expire.
func (p *RecordPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("record pipeline stop: %w", ctx.Err())
	}
}

// Record validates r and queues it. It never blocks on the backend.
func (p *RecordPipeline) Record(_ context.Context, r *models.DecisionRecord) error {
	if err := validateRecord(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- r:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return ErrBufferFull
	}
}

// Depth returns the number of queued records.
func (p *RecordPipeline) Depth() int { return len(p.bufCh) }

func (p *RecordPipeline) loop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	batch := make([]*models.DecisionRecord, 0, p.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.flush(ctx, batch)
		batch = make([]*models.DecisionRecord, 0, p.batchSize)
	}

	for {
		select {
		case r := <-p.bufCh:
			batch = append(batch, r)
			if len(batch) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.stopCh:
			for {
				select {
				case r := <-p.bufCh:
					batch = append(batch, r)
					if len(batch) >= p.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// flush retries with exponential backoff, then drops the batch.
func (p *RecordPipeline) flush(ctx context.Context, batch []*models.DecisionRecord) {
	start := time.Now()
	backoff := 50 * time.Millisecond
	var err error
	for attempt := 1; attempt <= p.retries; attempt++ {
		if err = p.proc.ProcessBatch(ctx, batch); err == nil {
			p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_flush")
		if attempt == p.retries {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			err = ctx.Err()
			attempt = p.retries
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	p.metrics.RecordError("pipeline_drop")
	p.log.Error("decision records dropped",
		applogger.Int("count", len(batch)),
		applogger.Error(err),
	)
}

func validateRecord(r *models.DecisionRecord) error {
	if r == nil {
		return fmt.Errorf("decision record nil")
	}
	if r.ID == "" || r.CoinID == "" {
		return fmt.Errorf("decision record missing id or coin")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("decision record missing timestamp")
	}
	switch r.Outcome {
	case models.OutcomeBuy, models.OutcomeAvoid, models.OutcomeIndeterminate:
	default:
		return fmt.Errorf("decision record outcome %q invalid", r.Outcome)
	}
	return nil
}
