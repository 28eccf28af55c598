package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
	pkgkafka "CoinSense/pkg/kafka"
)

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
	err   error
}

func (p *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func TestPublisherKeysByCoinAndCarriesID(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaDecisionPublisher(fp, "")

	require.NoError(t, pub.Publish(context.Background(), sampleRecord("rec-1", time.Now())))
	assert.Equal(t, DefaultDecisionTopic, fp.topic)
	require.Len(t, fp.msgs, 1)
	assert.Equal(t, "rec-1", fp.msgs[0].ID)
	assert.Equal(t, []byte("pepe"), fp.msgs[0].Key)

	require.NoError(t, pub.Close())
}

func TestPublishBatchSkipsNil(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaDecisionPublisher(fp, "custom")

	require.NoError(t, pub.PublishBatch(context.Background(), []*models.DecisionRecord{nil, sampleRecord("a", time.Now())}))
	assert.Equal(t, "custom", fp.topic)
	assert.Len(t, fp.msgs, 1)

	require.NoError(t, pub.PublishBatch(context.Background(), nil))
	assert.Len(t, fp.msgs, 1)
}

func TestPublishErrorPropagates(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewKafkaDecisionPublisher(&fakeProducer{err: boom}, "t")
	assert.ErrorIs(t, pub.Publish(context.Background(), sampleRecord("a", time.Now())), boom)
}
