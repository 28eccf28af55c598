package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
)

// Recorder backends.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendNone       = "none"
)

// DecisionRecorder routes decision records to the configured backend.
type DecisionRecorder struct {
	pub     drepo.DecisionPublisher
	store   drepo.DecisionStore
	metrics drepo.Metrics
	backend string
}

// NewDecisionRecorder creates a recorder. pub or store may be nil when their backend is not selected.
func NewDecisionRecorder(
	pub drepo.DecisionPublisher,
	store drepo.DecisionStore,
	metrics drepo.Metrics,
	backend string,
) *DecisionRecorder {
	if backend == "" {
		backend = BackendNone
	}
	return &DecisionRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Backend returns the configured backend name.
func (p *DecisionRecorder) Backend() string { return p.backend }

// Process records a single decision.
func (p *DecisionRecorder) Process(ctx context.Context, r *models.DecisionRecord) error {
	if r == nil {
		return fmt.Errorf("decision record is nil")
	}
	return p.ProcessBatch(ctx, []*models.DecisionRecord{r})
}

// ProcessBatch records decisions in one backend call.
func (p *DecisionRecorder) ProcessBatch(ctx context.Context, records []*models.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			return fmt.Errorf("record decisions: kafka publisher not configured")
		}
		err = p.pub.PublishBatch(ctx, records)
	case BackendClickHouse:
		if p.store == nil {
			return fmt.Errorf("record decisions: clickhouse store not configured")
		}
		err = p.store.StoreBatch(ctx, records)
	case BackendNone:
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("record_batch")
		return fmt.Errorf("record %d decisions: %w", len(records), err)
	}

	for range records {
		p.metrics.RecordMessageSent(p.backend)
	}
	p.metrics.RecordLatency("record_batch", time.Since(start).Seconds())
	return nil
}

// History returns recent decisions for a coin. Only the ClickHouse backend keeps history.
func (p *DecisionRecorder) History(ctx context.Context, coinID string, limit int) ([]*models.DecisionRecord, error) {
	if p.store == nil {
		return nil, ErrHistoryUnavailable
	}
	return p.store.Query(ctx, coinID, limit)
}

// Close closes underlying resources if available.
func (p *DecisionRecorder) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
