package repository

import (
	"context"

	"CoinSense/internal/domain/models"
	pkgkafka "CoinSense/pkg/kafka"
)

// DefaultDecisionTopic receives one message per decision, keyed by coin id.
const DefaultDecisionTopic = "coinsense.decisions"

// Producer is the part of pkg/kafka.Producer the publisher needs.
type Producer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaDecisionPublisher ships decision records as JSON. The record id travels as the message_id header.
type KafkaDecisionPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaDecisionPublisher(producer Producer, topic string) *KafkaDecisionPublisher {
	if topic == "" {
		topic = DefaultDecisionTopic
	}
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

func (p *KafkaDecisionPublisher) Publish(ctx context.Context, r *models.DecisionRecord) error {
	return p.PublishBatch(ctx, []*models.DecisionRecord{r})
}

func (p *KafkaDecisionPublisher) PublishBatch(ctx context.Context, records []*models.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{ID: r.ID, Key: []byte(r.CoinID), Value: r})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close is a no-op; the producer is shared with the chat replies and closed by the app.
func (p *KafkaDecisionPublisher) Close() error { return nil }
