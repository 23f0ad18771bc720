package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"podium/internal/platform/kafka/producer"
)

// DefaultTopic receives auth audit events.
const DefaultTopic = "podium.auth.audit"

// MessageProducer is the part of the Kafka producer the sink uses.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaStore publishes events as JSON records keyed by browser session, so
// one session's events stay ordered within a partition.
type KafkaStore struct {
	producer MessageProducer
	topic    string
}

func NewKafkaStore(p MessageProducer, topic string) *KafkaStore {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaStore{producer: p, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	err = s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.SessionID),
		Value: value,
		Headers: map[string]string{
			"event_type": event.Action,
		},
	})
	if err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
