package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
)

type fakeDecisionSink struct {
	published []*models.DecisionRecord
	stored    []*models.DecisionRecord
	err       error
	closed    int
}

func (f *fakeDecisionSink) Publish(ctx context.Context, r *models.DecisionRecord) error {
	return f.PublishBatch(ctx, []*models.DecisionRecord{r})
}

func (f *fakeDecisionSink) PublishBatch(_ context.Context, rs []*models.DecisionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, rs...)
	return nil
}

func (f *fakeDecisionSink) Init(context.Context) error   { return nil }
func (f *fakeDecisionSink) Health(context.Context) error { return nil }

func (f *fakeDecisionSink) Store(ctx context.Context, r *models.DecisionRecord) error {
	return f.StoreBatch(ctx, []*models.DecisionRecord{r})
}

func (f *fakeDecisionSink) StoreBatch(_ context.Context, rs []*models.DecisionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, rs...)
	return nil
}

func (f *fakeDecisionSink) Query(_ context.Context, coinID string, limit int) ([]*models.DecisionRecord, error) {
	var out []*models.DecisionRecord
	for _, r := range f.stored {
		if r.CoinID == coinID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDecisionSink) Close() error {
	f.closed++
	return nil
}

func TestRecorderRoutesByBackend(t *testing.T) {
	rec := &models.DecisionRecord{ID: "1", CoinID: "bitcoin", Outcome: models.OutcomeBuy}

	sink := &fakeDecisionSink{}
	metrics := &fakeMetrics{}
	require.NoError(t, NewDecisionRecorder(sink, nil, metrics, BackendKafka).Process(context.Background(), rec))
	assert.Len(t, sink.published, 1)
	assert.Equal(t, 1, metrics.sent)

	sink = &fakeDecisionSink{}
	p := NewDecisionRecorder(nil, sink, &fakeMetrics{}, BackendClickHouse)
	require.NoError(t, p.ProcessBatch(context.Background(), []*models.DecisionRecord{rec, rec}))
	assert.Len(t, sink.stored, 2)

	history, err := p.History(context.Background(), "bitcoin", 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	require.NoError(t, NewDecisionRecorder(nil, nil, &fakeMetrics{}, "").Process(context.Background(), rec))
}

func TestRecorderErrors(t *testing.T) {
	rec := &models.DecisionRecord{ID: "1", CoinID: "bitcoin"}

	assert.Error(t, NewDecisionRecorder(nil, nil, &fakeMetrics{}, "s3").Process(context.Background(), rec))
	assert.Error(t, NewDecisionRecorder(nil, nil, &fakeMetrics{}, BackendKafka).Process(context.Background(), rec))
	assert.Error(t, NewDecisionRecorder(nil, nil, &fakeMetrics{}, BackendNone).Process(context.Background(), nil))

	boom := errors.New("insert failed")
	metrics := &fakeMetrics{}
	err := NewDecisionRecorder(nil, &fakeDecisionSink{err: boom}, metrics, BackendClickHouse).Process(context.Background(), rec)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"record_batch"}, metrics.errors)

	_, err = NewDecisionRecorder(nil, nil, &fakeMetrics{}, BackendKafka).History(context.Background(), "bitcoin", 5)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}
