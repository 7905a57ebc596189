package ports

import (
	"context"
	"time"

	"github.com/seu-repo/bloquito/internal/domain"
)

// Recognizer is the client's speech recognition capability. Results arrive
// asynchronously as events, never as return values.
type Recognizer interface {
	Start() error
	Stop() error
}

// Synthesizer is the client's speech synthesis capability. Utterances are
// queued; completion arrives as an end or error event.
type Synthesizer interface {
	Speak(text string, opts domain.VoiceOptions) error
	Cancel() error
}

// View receives rendering instructions. Nothing is ever read back from it.
type View interface {
	RenderMessage(msg domain.ChatMessage, userName string)
	RenderConversation(messages []domain.ChatMessage, userName string)
	RenderChatHistory(chats []domain.ChatSummary, currentID string)
	UpdateChatTitle(title string)
	UpdateUserDisplay(name string)
	ShowWelcomePrompt()
	SetVoiceMode(active bool)
	UpdateVoiceStatus(status, detail string)
	SetVoiceAnimation(anim domain.VoiceAnimation)
	UpdateMuteButton(muted bool)
}

// Scheduler runs fn once after d. There is no cancellation: callbacks must
// check whether they are still current when they fire.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// SourceFetcher reads a document from a file path or URL.
type SourceFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// EventPublisher fans domain events out to other services.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}
