package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher encodes events as JSON and publishes them under
// "<prefix>.<topic>".
type Publisher struct {
	mq     MessageQueue
	prefix string
}

func NewPublisher(mq MessageQueue, prefix string) *Publisher {
	return &Publisher{mq: mq, prefix: prefix}
}

// Subject returns the full subject for a topic.
func (p *Publisher) Subject(topic string) string {
	return Subject(p.prefix, topic)
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}
	return p.mq.Publish(p.Subject(topic), data)
}

// Subscribe registers handler for topic under the publisher's prefix.
func (p *Publisher) Subscribe(topic string, handler func(data []byte) error) error {
	return p.mq.Subscribe(p.Subject(topic), handler)
}

// Subject joins a prefix and a topic.
func Subject(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}

// NoopPublisher drops every event. Used when no bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, payload any) error {
	return nil
}
