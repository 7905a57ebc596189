package voice

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/internal/service/speech"
)

var (
	ErrNotInVoiceMode         = errors.New("voice mode is not active")
	ErrRecognitionUnavailable = errors.New("speech recognition is not available")
	ErrSynthesisUnavailable   = errors.New("speech synthesis is not available")
	ErrUnknownVoice           = errors.New("unknown voice")
)

// Status lines shown by the voice overlay.
const (
	statusStarting       = "Iniciando..."
	detailStarting       = "Preparando o sistema de reconhecimento de voz"
	statusListening      = "Ouvindo"
	detailListening      = "Fale naturalmente para conversar comigo"
	statusSpeaking       = "Respondendo"
	detailSpeaking       = "Aguarde enquanto processo sua resposta"
	statusRecognitionErr = "Erro no reconhecimento"
	detailRecognitionErr = "Tente falar novamente ou verifique o microfone"
	statusMuted          = "Microfone desativado"
	detailMuted          = "Clique em \"Ativar\" para continuar ouvindo"
)

type Config struct {
	SettleDelay         time.Duration
	ResumeDelay         time.Duration
	RestartDelay        time.Duration
	ErrorRestartDelay   time.Duration
	MinTranscriptLength int
	MinConfidence       float64
	Rate                float64
	Pitch               float64
	Volume              float64
	Language            string
}

func DefaultConfig() Config {
	return Config{
		SettleDelay:         1500 * time.Millisecond,
		ResumeDelay:         500 * time.Millisecond,
		RestartDelay:        1500 * time.Millisecond,
		ErrorRestartDelay:   2 * time.Second,
		MinTranscriptLength: 3,
		MinConfidence:       0.3,
		Rate:                0.9,
		Pitch:               1.0,
		Volume:              0.8,
		Language:            "pt-BR",
	}
}

// TranscriptHandler receives accepted final transcripts.
type TranscriptHandler func(text string, confidence float64)

// Session coordinates the recognizer and the synthesizer of one client.
//
// The recognizer and the synthesizer never run at the same time: the
// recognizer is stopped before every utterance and only restarted after the
// synthesizer reported the end of its last queued utterance.
//
// Session is not safe for concurrent use. Every method, event handler and
// scheduled callback must run on the same goroutine; the scheduler passed to
// NewSession is expected to deliver callbacks there.
type Session struct {
	cfg         Config
	recognizer  ports.Recognizer
	synthesizer ports.Synthesizer
	transformer *speech.Transformer
	view        ports.View
	scheduler   ports.Scheduler
	log         *zap.Logger

	state        domain.VoiceState
	muted        bool
	listening    bool
	pending      int
	generation   uint64
	onTranscript TranscriptHandler

	voices []domain.Voice
	voice  string
	rate   float64
}

// NewSession builds a session. A nil recognizer makes voice mode
// unavailable; a nil synthesizer keeps voice mode silent.
func NewSession(
	cfg Config,
	recognizer ports.Recognizer,
	synthesizer ports.Synthesizer,
	transformer *speech.Transformer,
	view ports.View,
	scheduler ports.Scheduler,
	log *zap.Logger,
) *Session {
	return &Session{
		cfg:         cfg,
		recognizer:  recognizer,
		synthesizer: synthesizer,
		transformer: transformer,
		view:        view,
		scheduler:   scheduler,
		log:         log,
		state:       domain.VoiceIdle,
		rate:        cfg.Rate,
	}
}

// OnTranscript registers the consumer of final transcripts.
func (s *Session) OnTranscript(fn TranscriptHandler) {
	s.onTranscript = fn
}

func (s *Session) State() domain.VoiceState {
	return s.state
}

// Active reports whether voice mode is on.
func (s *Session) Active() bool {
	return s.state != domain.VoiceIdle
}

// Muted reports whether the user asked for the microphone to stay off,
// including a mute requested in the middle of an utterance.
func (s *Session) Muted() bool {
	return s.state == domain.VoiceMuted || s.muted
}

func (s *Session) CanListen() bool {
	return s.recognizer != nil
}

func (s *Session) CanSpeak() bool {
	return s.synthesizer != nil
}

// Enter switches voice mode on. Listening starts after the settle delay.
func (s *Session) Enter() error {
	if s.recognizer == nil {
		return ErrRecognitionUnavailable
	}
	if s.state != domain.VoiceIdle {
		return nil
	}

	s.muted = false
	s.setState(domain.VoiceStarting)
	telemetry.ActiveVoiceSessions.Inc()

	s.view.SetVoiceMode(true)
	s.view.UpdateVoiceStatus(statusStarting, detailStarting)

	s.after(s.cfg.SettleDelay, func() {
		if s.state != domain.VoiceStarting {
			return
		}
		s.setState(domain.VoiceListening)
		s.showListening()
		s.startRecognizer()
	})
	return nil
}

// Exit switches voice mode off from any state, stopping the recognizer and
// dropping any queued speech.
func (s *Session) Exit() {
	if s.state == domain.VoiceIdle {
		return
	}

	s.stopRecognizer()
	if s.synthesizer != nil {
		if err := s.synthesizer.Cancel(); err != nil {
			s.log.Warn("Failed to cancel speech", zap.Error(err))
		}
	}
	s.pending = 0
	s.muted = false
	s.setState(domain.VoiceIdle)
	telemetry.ActiveVoiceSessions.Dec()

	s.view.SetVoiceMode(false)
	s.view.UpdateMuteButton(false)
}

// Mute stops listening. While an utterance is playing it only records the
// request; the session moves to Muted when the utterance ends.
func (s *Session) Mute() {
	switch s.state {
	case domain.VoiceListening, domain.VoiceStarting:
		s.stopRecognizer()
		s.muted = true
		s.setState(domain.VoiceMuted)
		s.showMuted()
	case domain.VoiceSpeaking:
		s.muted = true
		s.view.UpdateMuteButton(true)
	}
}

// Unmute resumes listening.
func (s *Session) Unmute() {
	switch s.state {
	case domain.VoiceMuted:
		s.muted = false
		s.setState(domain.VoiceListening)
		s.view.UpdateMuteButton(false)
		s.showListening()
		s.startRecognizer()
	case domain.VoiceSpeaking:
		s.muted = false
		s.view.UpdateMuteButton(false)
	}
}

// ToggleMute flips the mute flag and returns the new value.
func (s *Session) ToggleMute() bool {
	if s.Muted() {
		s.Unmute()
	} else {
		s.Mute()
	}
	return s.Muted()
}

// BeginSpeaking stops the recognizer and queues text on the synthesizer
// after pronunciation rewriting.
func (s *Session) BeginSpeaking(text string) error {
	if s.state == domain.VoiceIdle {
		return ErrNotInVoiceMode
	}
	if s.synthesizer == nil {
		return ErrSynthesisUnavailable
	}

	spoken := strings.TrimSpace(s.transformer.Speakable(text))
	if spoken == "" {
		return nil
	}

	if s.state == domain.VoiceMuted {
		s.muted = true
	}
	s.stopRecognizer()
	s.setState(domain.VoiceSpeaking)

	s.pending++
	if err := s.synthesizer.Speak(spoken, s.Options()); err != nil {
		s.pending--
		telemetry.SynthesisErrorsTotal.WithLabelValues("speak").Inc()
		s.log.Warn("Speech synthesis failed, continuing without audio", zap.Error(err))
		if s.pending == 0 {
			s.finishSpeaking()
		}
	}
	return nil
}

// HandleSpeechStart is called when the synthesizer starts an utterance.
func (s *Session) HandleSpeechStart() {
	if s.state != domain.VoiceSpeaking {
		return
	}
	s.view.SetVoiceAnimation(domain.AnimationSpeaking)
	s.view.UpdateVoiceStatus(statusSpeaking, detailSpeaking)
	s.stopRecognizer()
}

// HandleSpeechEnd is called when the synthesizer finished an utterance.
func (s *Session) HandleSpeechEnd() {
	if s.state != domain.VoiceSpeaking {
		return
	}
	if s.pending > 0 {
		s.pending--
	}
	if s.pending > 0 {
		return
	}
	s.finishSpeaking()
}

// HandleSpeechError is treated as the end of the utterance so the loop
// never stalls on a broken synthesizer.
func (s *Session) HandleSpeechError(code string) {
	telemetry.SynthesisErrorsTotal.WithLabelValues(code).Inc()
	s.log.Warn("Speech synthesis error", zap.String("error", code))
	s.HandleSpeechEnd()
}

// HandleRecognizerStart confirms the recognizer is running.
func (s *Session) HandleRecognizerStart() {
	s.listening = true
}

// HandleInterim shows a partial transcript while listening.
func (s *Session) HandleInterim(text string) {
	if s.state != domain.VoiceListening || text == "" {
		return
	}
	s.view.UpdateVoiceStatus(statusListening, "\""+text+"\"")
}

// HandleFinal forwards a final transcript unless it is too short, too
// uncertain, or arrived outside of the listening state.
func (s *Session) HandleFinal(text string, confidence float64) {
	clean := strings.TrimSpace(text)
	if utf8.RuneCountInString(clean) < s.cfg.MinTranscriptLength || confidence <= s.cfg.MinConfidence {
		telemetry.DiscardedTranscriptsTotal.Inc()
		s.log.Debug("Discarding transcript",
			zap.String("text", clean),
			zap.Float64("confidence", confidence),
		)
		return
	}
	if s.state != domain.VoiceListening {
		return
	}
	if s.onTranscript != nil {
		s.onTranscript(clean, confidence)
	}
}

// HandleRecognizerError surfaces the error and restarts the recognizer
// later. "no-speech" is expected and ignored.
func (s *Session) HandleRecognizerError(code string) {
	if code == domain.RecognitionErrorNoSpeech || s.state == domain.VoiceIdle {
		return
	}

	telemetry.RecognitionErrorsTotal.WithLabelValues(code).Inc()
	s.log.Warn("Speech recognition error", zap.String("error", code))
	s.listening = false
	s.view.UpdateVoiceStatus(statusRecognitionErr, detailRecognitionErr)

	if s.state != domain.VoiceListening {
		return
	}
	s.after(s.cfg.ErrorRestartDelay, func() {
		if s.state != domain.VoiceListening {
			return
		}
		s.view.UpdateVoiceStatus(statusListening, detailListening)
		s.startRecognizer()
	})
}

// HandleRecognizerEnd relaunches the recognizer after the platform stopped
// it on its own.
func (s *Session) HandleRecognizerEnd() {
	s.listening = false
	if s.state != domain.VoiceListening {
		return
	}
	s.after(s.cfg.RestartDelay, func() {
		if s.state == domain.VoiceListening {
			s.startRecognizer()
		}
	})
}

// SetVoices keeps the Portuguese and English voices the client reported
// and selects the first Portuguese one unless a listed voice is selected.
func (s *Session) SetVoices(voices []domain.Voice) []domain.Voice {
	s.voices = s.voices[:0]
	for _, v := range voices {
		if strings.HasPrefix(v.Lang, "pt") || strings.HasPrefix(v.Lang, "en") {
			s.voices = append(s.voices, v)
		}
	}

	if s.voice != "" && s.hasVoice(s.voice) {
		return s.voices
	}
	s.voice = ""
	for _, v := range s.voices {
		if strings.HasPrefix(v.Lang, "pt") {
			s.voice = v.Name
			break
		}
	}
	return s.voices
}

// SelectVoice picks a reported voice; an empty name means the system default.
func (s *Session) SelectVoice(name string) error {
	if name != "" && !s.hasVoice(name) {
		return ErrUnknownVoice
	}
	s.voice = name
	return nil
}

// SetRate changes the speaking rate; non-positive values restore the default.
func (s *Session) SetRate(rate float64) {
	if rate <= 0 {
		rate = s.cfg.Rate
	}
	s.rate = rate
}

// Options returns the options sent with each utterance.
func (s *Session) Options() domain.VoiceOptions {
	return domain.VoiceOptions{
		Voice:  s.voice,
		Rate:   s.rate,
		Pitch:  s.cfg.Pitch,
		Volume: s.cfg.Volume,
		Lang:   s.cfg.Language,
	}
}

func (s *Session) hasVoice(name string) bool {
	for _, v := range s.voices {
		if v.Name == name {
			return true
		}
	}
	return false
}

func (s *Session) finishSpeaking() {
	if s.muted {
		s.setState(domain.VoiceMuted)
		s.showMuted()
		return
	}

	s.setState(domain.VoiceListening)
	s.showListening()
	s.after(s.cfg.ResumeDelay, func() {
		if s.state == domain.VoiceListening {
			s.startRecognizer()
		}
	})
}

func (s *Session) showListening() {
	s.view.SetVoiceAnimation(domain.AnimationListening)
	s.view.UpdateVoiceStatus(statusListening, detailListening)
}

func (s *Session) showMuted() {
	s.view.UpdateMuteButton(true)
	s.view.UpdateVoiceStatus(statusMuted, detailMuted)
	s.view.SetVoiceAnimation(domain.AnimationNone)
}

// setState moves to a new state and invalidates every pending callback.
func (s *Session) setState(next domain.VoiceState) {
	prev := s.state
	s.state = next
	s.generation++

	if prev != next {
		telemetry.VoiceTransitionsTotal.WithLabelValues(prev.String(), next.String()).Inc()
		s.log.Debug("Voice state changed",
			zap.String("from", prev.String()),
			zap.String("to", next.String()),
		)
	}
}

// after schedules fn, dropping it if any transition happens before it fires.
func (s *Session) after(d time.Duration, fn func()) {
	token := s.generation
	s.scheduler.AfterFunc(d, func() {
		if token != s.generation {
			return
		}
		fn()
	})
}

func (s *Session) startRecognizer() {
	if s.recognizer == nil || s.listening {
		return
	}
	s.listening = true
	if err := s.recognizer.Start(); err != nil {
		s.listening = false
		s.log.Warn("Failed to start speech recognition", zap.Error(err))
	}
}

func (s *Session) stopRecognizer() {
	if s.recognizer == nil || !s.listening {
		return
	}
	s.listening = false
	if err := s.recognizer.Stop(); err != nil {
		s.log.Warn("Failed to stop speech recognition", zap.Error(err))
	}
}
