package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"CoinSense/internal/domain/models"
	domrepo "CoinSense/internal/domain/repository"
	pkgkafka "CoinSense/pkg/kafka"
)

// ReplyPublisher sends a keyed message to a topic.
type ReplyPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// Chatter answers a chat message with text, never failing.
type Chatter interface {
	Reply(ctx context.Context, msg models.ChatMessage) *models.Reply
}

// KafkaChatHandler consumes chat requests and publishes the replies.
type KafkaChatHandler struct {
	topic      string
	replyTopic string
	chat       Chatter
	pub        ReplyPublisher
	metrics    domrepo.Metrics
}

func NewKafkaChatHandler(topic, replyTopic string, chat Chatter, pub ReplyPublisher, metrics domrepo.Metrics) *KafkaChatHandler {
	return &KafkaChatHandler{topic: topic, replyTopic: replyTopic, chat: chat, pub: pub, metrics: metrics}
}

func (h *KafkaChatHandler) Topic() string { return h.topic }

// Handle expects a ChatMessage JSON. Malformed payloads are permanent failures.
func (h *KafkaChatHandler) Handle(ctx context.Context, b []byte) error {
	var msg models.ChatMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("%w: decode chat message: %v", pkgkafka.ErrPermanent, err)
	}
	if strings.TrimSpace(msg.Text) == "" {
		h.metrics.RecordError("consumer_empty")
		return fmt.Errorf("%w: empty chat message", pkgkafka.ErrPermanent)
	}
	if msg.ID == "" {
		msg.ID = pkgkafka.MessageID(ctx)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if !msg.SentAt.IsZero() {
		h.metrics.RecordLatency("chat_queue_seconds", time.Since(msg.SentAt).Seconds())
	}

	reply := h.chat.Reply(ctx, msg)

	start := time.Now()
	err := h.pub.Publish(ctx, h.replyTopic, []byte(msg.UserID), reply)
	h.metrics.RecordLatency("chat_reply_publish", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_reply")
		return fmt.Errorf("publish reply %s: %w", msg.ID, err)
	}
	h.metrics.RecordMessageSent("kafka")
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaChatHandler)(nil)
