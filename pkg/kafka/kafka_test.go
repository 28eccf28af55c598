package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type fakeReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type handlerFunc struct {
	topic string
	fn    func(context.Context, []byte) error
}

func (h handlerFunc) Topic() string { return h.topic }
func (h handlerFunc) Handle(ctx context.Context, b []byte) error { return h.fn(ctx, b) }

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "gzip")

	err := p.PublishBatch(context.Background(), "decisions", []Message{
		{ID: "m-1", Key: []byte("bitcoin"), Value: map[string]string{"outcome": "BUY"}},
		{Value: "raw text"},
	})
	require.NoError(t, err)

	msgs := w.written()
	require.Len(t, msgs, 2)
	assert.Equal(t, "decisions", msgs[0].Topic)
	assert.Equal(t, "m-1", HeaderValue(msgs[0], HeaderMessageID))
	assert.Equal(t, "application/json", HeaderValue(msgs[0], HeaderContentType))

	var body map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Value, &body))
	assert.Equal(t, "BUY", body["outcome"])
	assert.Equal(t, "raw text", string(msgs[1].Value))
	assert.Empty(t, HeaderValue(msgs[1], HeaderMessageID))
}

func TestProducerWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&fakeWriter{err: boom}, "gzip")
	err := p.PublishMessage(context.Background(), "logs", []string{"a"})
	assert.ErrorIs(t, err, boom)
}

func TestConsumerRetriesThenCommits(t *testing.T) {
	reader := newFakeReader(
		kafka.Message{Topic: "chat.requests", Offset: 1, Value: []byte("ok"),
			Headers: []kafka.Header{{Key: HeaderMessageID, Value: []byte("abc")}}},
		kafka.Message{Topic: "chat.requests", Offset: 2, Value: []byte("flaky")},
	)
	dlq := &fakeWriter{}

	var mu sync.Mutex
	attempts := map[string]int{}
	var seenID string
	c := newConsumer(&ConsumerConfig{
		WorkerCount: 1,
		BufferSize:  4,
		RetryMax:    2,
		BackoffMin:  time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		DLQTopic:    "chat.dlq",
	}, func(string) messageReader { return reader })
	c.dlq = dlq
	c.WithConsumerHook(NewHookChain(CorrelationHook))
	c.RegisterHandler(handlerFunc{topic: "chat.requests", fn: func(ctx context.Context, b []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[string(b)]++
		if string(b) == "ok" {
			seenID = MessageID(ctx)
		}
		if string(b) == "flaky" && attempts["flaky"] < 2 {
			return errors.New("transient")
		}
		return nil
	}})

	require.NoError(t, c.Start())
	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts["ok"])
	assert.Equal(t, 2, attempts["flaky"])
	assert.Equal(t, "abc", seenID)
	assert.Empty(t, dlq.written())
}

func TestConsumerSendsPermanentFailuresToDLQ(t *testing.T) {
	reader := newFakeReader(kafka.Message{Topic: "chat.requests", Offset: 7, Value: []byte("{bad")})
	dlq := &fakeWriter{}

	calls := 0
	c := newConsumer(&ConsumerConfig{
		WorkerCount: 1,
		BufferSize:  1,
		RetryMax:    5,
		BackoffMin:  time.Millisecond,
		BackoffMax:  time.Millisecond,
		DLQTopic:    "chat.dlq",
	}, func(string) messageReader { return reader })
	c.dlq = dlq
	c.RegisterHandler(handlerFunc{topic: "chat.requests", fn: func(context.Context, []byte) error {
		calls++
		return ErrPermanent
	}})

	require.NoError(t, c.Start())
	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	assert.Equal(t, 1, calls)
	out := dlq.written()
	require.Len(t, out, 1)
	assert.Equal(t, "chat.dlq", out[0].Topic)
	assert.Equal(t, "chat.requests", HeaderValue(out[0], "source_topic"))
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c := newConsumer(&ConsumerConfig{WorkerCount: 1, BufferSize: 1}, nil)
	assert.Error(t, c.Start())
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}
