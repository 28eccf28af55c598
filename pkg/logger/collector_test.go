package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (f *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topic = topic
	f.batches = append(f.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (f *fakePublisher) all() []AggregatedLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorDeduplicates(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "errors", Service: "coinsense", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "upstream failed", map[string]interface{}{"provider": "coingecko"}, "x.go:1")
	}
	c.AddLog("error", "upstream failed", map[string]interface{}{"provider": "codex"}, "x.go:1")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	entries := pub.all()
	require.Len(t, entries, 2)
	assert.Equal(t, "errors", pub.topic)
	counts := map[interface{}]int{}
	for _, e := range entries {
		counts[e.Fields["provider"]] = e.Count
		assert.Equal(t, "coinsense", e.Service)
	}
	assert.Equal(t, 3, counts["coingecko"])
	assert.Equal(t, 1, counts["codex"])
}

func TestCollectorFlushesOnThreshold(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	assert.Eventually(t, func() bool { return len(pub.all()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, c.Pending())
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &fakePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	l.Error("decision record failed", String("coin", "bitcoin"), Error(errors.New("boom")))
	l.Warn("not collected")
	l.RemoveCollector()

	entries := pub.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "decision record failed", entries[0].Message)
	assert.Equal(t, "bitcoin", entries[0].Fields["coin"])
	assert.Equal(t, "boom", entries[0].Fields["error"])
}
