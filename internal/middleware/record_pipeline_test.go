package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
)

type batchSink struct {
	mu      sync.Mutex
	batches [][]*models.DecisionRecord
	fails   int
}

func (s *batchSink) ProcessBatch(_ context.Context, rs []*models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("downstream unavailable")
	}
	s.batches = append(s.batches, rs)
	return nil
}

func (s *batchSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

type nopMetrics struct {
	mu     sync.Mutex
	errors []string
}

func (m *nopMetrics) RecordDecision(string, string, float64) {}
func (m *nopMetrics) RecordAction(string, bool)              {}
func (m *nopMetrics) RecordMessageSent(string)               {}
func (m *nopMetrics) RecordLatency(string, float64)          {}

func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func record(id string) *models.DecisionRecord {
	return &models.DecisionRecord{ID: id, CoinID: "bitcoin", Outcome: models.OutcomeBuy, CreatedAt: time.Now()}
}

func TestPipelineFlushesFullBatches(t *testing.T) {
	sink := &batchSink{}
	p := NewRecordPipeline(sink, &nopMetrics{}, WithBatch(2, time.Hour))
	p.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Record(context.Background(), record(id)))
	}
	assert.Eventually(t, func() bool { return sink.total() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, 3, sink.total(), "stop drains the partial batch")
}

func TestPipelineFlushesOnInterval(t *testing.T) {
	sink := &batchSink{}
	p := NewRecordPipeline(sink, &nopMetrics{}, WithBatch(100, 10*time.Millisecond))
	p.Start(context.Background())
	defer func() { _ = p.Stop(context.Background()) }()

	require.NoError(t, p.Record(context.Background(), record("a")))
	assert.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPipelineRetriesThenSucceeds(t *testing.T) {
	sink := &batchSink{fails: 1}
	metrics := &nopMetrics{}
	p := NewRecordPipeline(sink, metrics, WithBatch(1, time.Hour), WithRetries(3))
	p.Start(context.Background())

	require.NoError(t, p.Record(context.Background(), record("a")))
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, 1, sink.total())
	assert.Equal(t, []string{"pipeline_flush"}, metrics.errors)
}

func TestPipelineRejectsInvalidAndOverflow(t *testing.T) {
	p := NewRecordPipeline(&batchSink{}, &nopMetrics{}, WithBufferSize(1))

	assert.Error(t, p.Record(context.Background(), nil))
	assert.Error(t, p.Record(context.Background(), &models.DecisionRecord{ID: "x"}))
	bad := record("x")
	bad.Outcome = "MAYBE"
	assert.Error(t, p.Record(context.Background(), bad))

	// not started: the single slot fills and the next record is refused
	require.NoError(t, p.Record(context.Background(), record("a")))
	assert.ErrorIs(t, p.Record(context.Background(), record("b")), ErrBufferFull)
	assert.Equal(t, 1, p.Depth())
}

func TestPipelineStopIsTerminal(t *testing.T) {
	sink := &batchSink{}
	p := NewRecordPipeline(sink, &nopMetrics{}, WithBatch(1, time.Hour))
	p.Start(context.Background())
	require.NoError(t, p.Stop(context.Background()))

	assert.NotPanics(t, func() { p.Start(context.Background()) })
	require.NoError(t, p.Stop(context.Background()))

	// the record stays queued because no loop runs after Stop
	require.NoError(t, p.Record(context.Background(), record("late")))
	assert.Equal(t, 1, p.Depth())
	assert.Equal(t, 0, sink.total())
}
