package domain

// VoiceState is the state of a voice-mode session.
type VoiceState int

const (
	// VoiceIdle means voice mode is off.
	VoiceIdle VoiceState = iota
	// VoiceStarting is the settle window between entering voice mode and listening.
	VoiceStarting
	// VoiceListening means the recognizer may be running and nothing is being spoken.
	VoiceListening
	// VoiceSpeaking means the synthesizer owns the turn and the recognizer is stopped.
	VoiceSpeaking
	// VoiceMuted means the user stopped the microphone.
	VoiceMuted
)

func (s VoiceState) String() string {
	switch s {
	case VoiceIdle:
		return "idle"
	case VoiceStarting:
		return "starting"
	case VoiceListening:
		return "listening"
	case VoiceSpeaking:
		return "speaking"
	case VoiceMuted:
		return "muted"
	default:
		return "unknown"
	}
}

// VoiceAnimation is the indicator shown by the voice overlay.
type VoiceAnimation string

const (
	AnimationNone      VoiceAnimation = ""
	AnimationListening VoiceAnimation = "listening"
	AnimationSpeaking  VoiceAnimation = "speaking"
)

// RecognitionErrorNoSpeech is reported when the recognizer heard nothing.
const RecognitionErrorNoSpeech = "no-speech"

// Capabilities describes which speech APIs the client has.
type Capabilities struct {
	Recognition bool `json:"recognition"`
	Synthesis   bool `json:"synthesis"`
}
