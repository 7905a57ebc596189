package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/mocks"
)

func TestPublisher_Publish(t *testing.T) {
	// Arrange
	mq := mocks.NewMockMessageQueue()
	publisher := NewPublisher(mq, "bloquito")
	event := domain.MessageEvent{
		ClientID:  "client-1",
		SessionID: "chat_1",
		Message:   domain.ChatMessage{Content: "bom dia", Role: domain.RoleUser},
		MatchKey:  "saudacao",
		Score:     3,
	}

	// Act
	err := publisher.Publish(context.Background(), "chat.message", event)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	published := mq.GetPublishedMessages("bloquito.chat.message")
	if len(published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(published))
	}

	var decoded domain.MessageEvent
	if err := json.Unmarshal(published[0], &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.MatchKey != "saudacao" || decoded.Message.Content != "bom dia" {
		t.Errorf("unexpected event %+v", decoded)
	}
}

func TestPublisher_CancelledContext(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	publisher := NewPublisher(mq, "bloquito")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := publisher.Publish(ctx, "chat.message", struct{}{}); err == nil {
		t.Error("expected error")
	}
	if len(mq.GetPublishedMessages("bloquito.chat.message")) != 0 {
		t.Error("nothing should be published")
	}
}

func TestSubject(t *testing.T) {
	if got := Subject("", "knowledge.reload"); got != "knowledge.reload" {
		t.Errorf("unexpected subject %q", got)
	}
	if got := Subject("bloquito", "knowledge.reload"); got != "bloquito.knowledge.reload" {
		t.Errorf("unexpected subject %q", got)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	// Arrange
	mq := mocks.NewMockMessageQueue()
	publisher := NewPublisher(mq, "bloquito")
	var received []string
	err := publisher.Subscribe("knowledge.reload", func(data []byte) error {
		received = append(received, string(data))
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	mq.Deliver("bloquito.knowledge.reload", []byte("{}"))
	mq.Deliver("knowledge.reload", []byte("ignored"))

	// Assert
	if len(received) != 1 || received[0] != "{}" {
		t.Errorf("expected one delivery on the prefixed subject, got %v", received)
	}
}
