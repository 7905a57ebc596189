package domain

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Source tells how a user message was produced.
type Source string

const (
	SourceText  Source = "text"
	SourceVoice Source = "voice"
)

// ChatMessage is one entry of a conversation. Confidence is only set for
// recognized speech.
type ChatMessage struct {
	Content    string    `json:"content"`
	Role       Role      `json:"type"`
	Source     Source    `json:"source,omitempty"`
	Confidence *float64  `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatSession is an append-only conversation.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ChatSummary is what the history sidebar needs.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *ChatSession) Summary() ChatSummary {
	return ChatSummary{
		ID:           s.ID,
		Title:        s.Title,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
	}
}

// MessageEvent is published whenever a message is appended to a session.
type MessageEvent struct {
	ClientID  string      `json:"client_id"`
	SessionID string      `json:"session_id"`
	Message   ChatMessage `json:"message"`
	MatchKey  string      `json:"match_key,omitempty"`
	Score     float64     `json:"score,omitempty"`
}
