package websocket

import (
	"encoding/json"

	"github.com/seu-repo/bloquito/internal/domain"
)

// Frames sent by the browser.
const (
	FrameHello             = "hello"
	FrameSubmit            = "submit"
	FrameChatNew           = "chat.new"
	FrameChatLoad          = "chat.load"
	FrameChatDelete        = "chat.delete"
	FrameUserName          = "user.name"
	FrameUserSkip          = "user.skip"
	FrameUserEdit          = "user.edit"
	FrameVoiceEnter        = "voice.enter"
	FrameVoiceExit         = "voice.exit"
	FrameVoiceMuteToggle   = "voice.mute_toggle"
	FrameVoiceVoices       = "voice.voices"
	FrameVoiceSelect       = "voice.select"
	FrameVoiceRate         = "voice.rate"
	FrameRecognizerStarted = "recognizer.started"
	FrameRecognizerInterim = "recognizer.interim"
	FrameRecognizerFinal   = "recognizer.final"
	FrameRecognizerError   = "recognizer.error"
	FrameRecognizerEnd     = "recognizer.end"
	FrameSynthStart        = "synth.start"
	FrameSynthEnd          = "synth.end"
	FrameSynthError        = "synth.error"
)

// Events and commands sent to the browser.
const (
	EventRenderMessage      = "render_message"
	EventRenderConversation = "render_conversation"
	EventRenderHistory      = "render_history"
	EventChatTitle          = "chat_title"
	EventUserDisplay        = "user_display"
	EventWelcomePrompt      = "welcome_prompt"
	EventVoiceMode          = "voice_mode"
	EventVoiceStatus        = "voice_status"
	EventVoiceAnimation     = "voice_animation"
	EventMuteButton         = "mute_button"
	EventVoices             = "voices"
	EventKnowledgeReloaded  = "knowledge_reloaded"
	EventError              = "error"

	CommandRecognizerStart = "recognizer.start"
	CommandRecognizerStop  = "recognizer.stop"
	CommandSynthSpeak      = "synth.speak"
	CommandSynthCancel     = "synth.cancel"
)

// InboundFrame is the union of every browser frame; each type uses a
// subset of the fields.
type InboundFrame struct {
	Type         string              `json:"type"`
	Capabilities domain.Capabilities `json:"capabilities"`
	Text         string              `json:"text,omitempty"`
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name,omitempty"`
	Rate         float64             `json:"rate,omitempty"`
	Confidence   float64             `json:"confidence,omitempty"`
	Error        string              `json:"error,omitempty"`
	Voices       []domain.Voice      `json:"voices,omitempty"`
}

// OutboundFrame wraps every event and command sent to the browser.
type OutboundFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func encodeFrame(eventType string, data any) ([]byte, error) {
	return json.Marshal(OutboundFrame{Type: eventType, Data: data})
}

func decodeFrame(data []byte) (InboundFrame, error) {
	var frame InboundFrame
	err := json.Unmarshal(data, &frame)
	return frame, err
}
