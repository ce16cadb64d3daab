package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Publisher is the slice of pkg/pubsub.Client the Pub/Sub sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// PubSubSink hands messages to a mail worker through a Pub/Sub topic.
type PubSubSink struct {
	publisher Publisher
	topic     string
	from      string
	now       func() time.Time
}

type notificationEvent struct {
	Kind       string    `json:"kind"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewPubSubSink(publisher Publisher, topic, from string) (*PubSubSink, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return &PubSubSink{publisher: publisher, topic: topic, from: from, now: time.Now}, nil
}

func (s *PubSubSink) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	payload, err := json.Marshal(notificationEvent{
		Kind:       msg.Kind,
		From:       s.from,
		To:         msg.To,
		Subject:    msg.Subject,
		Body:       msg.Body,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload, map[string]string{"kind": msg.Kind}); err != nil {
		return err
	}
	return nil
}
