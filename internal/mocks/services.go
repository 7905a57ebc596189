package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seu-repo/bloquito/internal/domain"
)

// MockRecognizer is a mock implementation of Recognizer interface
type MockRecognizer struct {
	StartCalls int
	StopCalls  int
	StartFunc  func() error
	StopFunc   func() error
}

func (m *MockRecognizer) Start() error {
	m.StartCalls++
	if m.StartFunc != nil {
		return m.StartFunc()
	}
	return nil
}

func (m *MockRecognizer) Stop() error {
	m.StopCalls++
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

// MockSynthesizer is a mock implementation of Synthesizer interface
type MockSynthesizer struct {
	Spoken      []string
	Options     []domain.VoiceOptions
	CancelCalls int
	SpeakFunc   func(text string, opts domain.VoiceOptions) error
	CancelFunc  func() error
}

func (m *MockSynthesizer) Speak(text string, opts domain.VoiceOptions) error {
	if m.SpeakFunc != nil {
		if err := m.SpeakFunc(text, opts); err != nil {
			return err
		}
	}
	m.Spoken = append(m.Spoken, text)
	m.Options = append(m.Options, opts)
	return nil
}

func (m *MockSynthesizer) Cancel() error {
	m.CancelCalls++
	if m.CancelFunc != nil {
		return m.CancelFunc()
	}
	return nil
}

// VoiceStatus is one status line sent to a MockView.
type VoiceStatus struct {
	Status string
	Detail string
}

// MockView records every rendering call.
type MockView struct {
	Messages       []domain.ChatMessage
	Conversations  [][]domain.ChatMessage
	Histories      [][]domain.ChatSummary
	Titles         []string
	UserDisplays   []string
	WelcomePrompts int
	VoiceModes     []bool
	Statuses       []VoiceStatus
	Animations     []domain.VoiceAnimation
	MuteButtons    []bool
}

func (m *MockView) RenderMessage(msg domain.ChatMessage, userName string) {
	m.Messages = append(m.Messages, msg)
}

func (m *MockView) RenderConversation(messages []domain.ChatMessage, userName string) {
	m.Conversations = append(m.Conversations, messages)
}

func (m *MockView) RenderChatHistory(chats []domain.ChatSummary, currentID string) {
	m.Histories = append(m.Histories, chats)
}

func (m *MockView) UpdateChatTitle(title string) {
	m.Titles = append(m.Titles, title)
}

func (m *MockView) UpdateUserDisplay(name string) {
	m.UserDisplays = append(m.UserDisplays, name)
}

func (m *MockView) ShowWelcomePrompt() {
	m.WelcomePrompts++
}

func (m *MockView) SetVoiceMode(active bool) {
	m.VoiceModes = append(m.VoiceModes, active)
}

func (m *MockView) UpdateVoiceStatus(status, detail string) {
	m.Statuses = append(m.Statuses, VoiceStatus{Status: status, Detail: detail})
}

func (m *MockView) SetVoiceAnimation(anim domain.VoiceAnimation) {
	m.Animations = append(m.Animations, anim)
}

func (m *MockView) UpdateMuteButton(muted bool) {
	m.MuteButtons = append(m.MuteButtons, muted)
}

// LastStatus returns the most recent status line, or the zero value.
func (m *MockView) LastStatus() VoiceStatus {
	if len(m.Statuses) == 0 {
		return VoiceStatus{}
	}
	return m.Statuses[len(m.Statuses)-1]
}

// LastMessage returns the most recent rendered message, or the zero value.
func (m *MockView) LastMessage() domain.ChatMessage {
	if len(m.Messages) == 0 {
		return domain.ChatMessage{}
	}
	return m.Messages[len(m.Messages)-1]
}

// ManualScheduler is a Scheduler driven by a virtual clock. Callbacks run
// on the goroutine calling Advance.
type ManualScheduler struct {
	now     time.Duration
	seq     int
	pending []scheduledFunc
}

type scheduledFunc struct {
	at  time.Duration
	seq int
	fn  func()
}

func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) {
	m.seq++
	m.pending = append(m.pending, scheduledFunc{at: m.now + d, seq: m.seq, fn: fn})
}

// Advance moves the clock forward and runs every callback that became due,
// including callbacks scheduled while advancing.
func (m *ManualScheduler) Advance(d time.Duration) {
	target := m.now + d
	for {
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].at == m.pending[j].at {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].at < m.pending[j].at
		})
		if len(m.pending) == 0 || m.pending[0].at > target {
			break
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.now = next.at
		next.fn()
	}
	m.now = target
}

// Pending returns the number of callbacks that have not fired yet.
func (m *ManualScheduler) Pending() int {
	return len(m.pending)
}

// MockSourceFetcher is a mock implementation of SourceFetcher interface
type MockSourceFetcher struct {
	FetchFunc func(ctx context.Context, location string) ([]byte, error)
}

func (m *MockSourceFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, location)
	}
	return nil, nil
}

// PublishedEvent is one call recorded by MockEventPublisher.
type PublishedEvent struct {
	Topic   string
	Payload any
}

// MockEventPublisher is a mock implementation of EventPublisher interface
type MockEventPublisher struct {
	mu          sync.Mutex
	Events      []PublishedEvent
	PublishFunc func(ctx context.Context, topic string, payload any) error
}

func (m *MockEventPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Topic: topic, Payload: payload})
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockEventPublisher) Published() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.Events...)
}
