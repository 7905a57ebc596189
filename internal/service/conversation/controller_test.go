package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/mocks"
	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/knowledge"
	"github.com/seu-repo/bloquito/internal/service/speech"
	"github.com/seu-repo/bloquito/internal/service/voice"
)

const testKnowledge = `{
	"saudacao": {"keywords": ["bom dia"], "response": "Bom dia{userName}! Agora são {time}.", "speech": "Bom dia{userName}"},
	"parar": {"keywords": ["parar voz"], "response": "Tudo bem. {stopAction}", "action": "stop_voice"},
	"default": {"response": "Olá{userName}! São {time}. Não entendi.", "speech": "Não entendi{userName}"}
}`

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type baseMatcher struct {
	kb *domain.KnowledgeBase
}

func (m baseMatcher) Match(input string) domain.MatchResult {
	return knowledge.Match(input, m.kb)
}

type controllerFixture struct {
	controller  *Controller
	session     *voice.Session
	view        *mocks.MockView
	clock       *mocks.ManualScheduler
	recognizer  *mocks.MockRecognizer
	synthesizer *mocks.MockSynthesizer
	profiles    *mocks.MockProfileRepository
	publisher   *mocks.MockEventPublisher
}

func newFixture(t *testing.T) *controllerFixture {
	t.Helper()
	kb, err := knowledge.Parse([]byte(testKnowledge))
	if err != nil {
		t.Fatalf("failed to parse knowledge: %v", err)
	}

	f := &controllerFixture{
		view:        &mocks.MockView{},
		clock:       &mocks.ManualScheduler{},
		recognizer:  &mocks.MockRecognizer{},
		synthesizer: &mocks.MockSynthesizer{},
		profiles:    mocks.NewMockProfileRepository(),
		publisher:   &mocks.MockEventPublisher{},
	}
	logger := newTestLogger()
	chats := chat.NewService(mocks.NewMockChatRepository(), f.profiles, 30, logger)
	f.session = voice.NewSession(voice.DefaultConfig(), f.recognizer, f.synthesizer,
		speech.NewTransformer(speech.DefaultTable()), f.view, f.clock, logger)

	cfg := DefaultConfig()
	cfg.Location = time.UTC
	f.controller = NewController("client-1", cfg, chats, baseMatcher{kb: kb}, f.session,
		f.view, f.clock, f.publisher, logger)
	f.controller.now = func() time.Time {
		return time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	}
	return f
}

// named starts the controller for a client that already chose a name.
func (f *controllerFixture) named(t *testing.T, name string) {
	t.Helper()
	f.profiles.SaveUserName(context.Background(), "client-1", name)
	if err := f.controller.Start(context.Background()); err != nil {
		t.Fatalf("expected no error starting, got %v", err)
	}
}

func TestStart_AsksForNameOnce(t *testing.T) {
	f := newFixture(t)

	if err := f.controller.Start(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if f.view.WelcomePrompts != 1 {
		t.Errorf("expected welcome prompt, got %d", f.view.WelcomePrompts)
	}
	if f.controller.CurrentSessionID() != "" {
		t.Error("no session should be open before the name is answered")
	}

	if err := f.controller.SkipName(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.controller.UserName() != chat.DeclinedName {
		t.Errorf("expected '%s', got '%s'", chat.DeclinedName, f.controller.UserName())
	}
	if !strings.HasPrefix(f.view.LastMessage().Content, "Olá! Eu sou o Bloquito") {
		t.Errorf("unexpected welcome %q", f.view.LastMessage().Content)
	}
}

func TestSubmit_DefaultResponseHasNoPlaceholders(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.named(t, "Bia")

	// Act
	err := f.controller.Submit(context.Background(), "oi", domain.SourceText, nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.view.LastMessage().Role != domain.RoleUser {
		t.Fatalf("user message should render immediately")
	}

	f.clock.Advance(799 * time.Millisecond)
	if f.view.LastMessage().Role != domain.RoleUser {
		t.Fatalf("responded before the thinking delay")
	}

	f.clock.Advance(time.Millisecond)
	got := f.view.LastMessage()
	if got.Role != domain.RoleBot {
		t.Fatalf("expected bot response, got %+v", got)
	}
	if got.Content != "Olá, Bia! São 9:05. Não entendi." {
		t.Errorf("unexpected response %q", got.Content)
	}
	if strings.Contains(got.Content, "{userName}") || strings.Contains(got.Content, "{time}") {
		t.Errorf("placeholders left in %q", got.Content)
	}
	if len(f.synthesizer.Spoken) != 0 {
		t.Error("text mode must not speak")
	}
}

func TestSubmit_DeclinedNameLeavesNoSalutation(t *testing.T) {
	f := newFixture(t)
	f.named(t, chat.DeclinedName)

	f.controller.Submit(context.Background(), "bom dia", domain.SourceText, nil)
	f.clock.Advance(800 * time.Millisecond)

	if got := f.view.LastMessage().Content; got != "Bom dia! Agora são 9:05." {
		t.Errorf("unexpected response %q", got)
	}
}

func TestSubmit_RetitlesSession(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")

	f.controller.Submit(context.Background(), "Quais sensores acompanham os kit de robótica?", domain.SourceText, nil)

	want := "Quais sensores acompanham os k..."
	if got := f.view.Titles[len(f.view.Titles)-1]; got != want {
		t.Errorf("expected '%s', got '%s'", want, got)
	}
}

func TestSubmit_EmptyText(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")

	if err := f.controller.Submit(context.Background(), "   ", domain.SourceText, nil); err == nil {
		t.Error("expected error for blank input")
	}
}

func TestStopVoice_InTextMode(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")

	f.controller.Submit(context.Background(), "parar voz", domain.SourceText, nil)
	f.clock.Advance(800 * time.Millisecond)

	want := "Tudo bem. " + stopActionText
	if got := f.view.LastMessage().Content; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestStopVoice_InVoiceModeExitsLater(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.named(t, "Bia")
	if err := f.controller.EnterVoiceMode(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	f.clock.Advance(1500 * time.Millisecond)

	// Act
	f.session.HandleFinal("parar voz agora", 0.92)
	f.clock.Advance(800 * time.Millisecond)

	// Assert
	want := "Tudo bem. " + stopActionVoice
	if got := f.view.LastMessage().Content; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if len(f.synthesizer.Spoken) != 1 {
		t.Fatalf("expected the closing phrase to be spoken, got %v", f.synthesizer.Spoken)
	}
	if f.session.State() != domain.VoiceSpeaking {
		t.Errorf("expected speaking, got %s", f.session.State())
	}

	f.clock.Advance(3 * time.Second)
	if f.session.Active() {
		t.Errorf("expected voice mode to end, got %s", f.session.State())
	}
}

func TestStopVoice_ReenteredVoiceModeSurvives(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")
	f.controller.EnterVoiceMode()
	f.clock.Advance(1500 * time.Millisecond)
	f.session.HandleFinal("parar voz", 0.9)
	f.clock.Advance(800 * time.Millisecond)

	f.controller.ExitVoiceMode()
	f.controller.EnterVoiceMode()
	f.clock.Advance(3 * time.Second)

	if !f.session.Active() {
		t.Error("an old stop request ended the new voice session")
	}
}

func TestVoiceTranscript_RecordedAndSpoken(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")
	f.controller.EnterVoiceMode()
	f.clock.Advance(1500 * time.Millisecond)

	f.session.HandleFinal("bom dia", 0.85)

	user := f.view.LastMessage()
	if user.Role != domain.RoleUser || user.Source != domain.SourceVoice {
		t.Fatalf("expected voice user message, got %+v", user)
	}
	if user.Confidence == nil || *user.Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", user.Confidence)
	}

	f.clock.Advance(800 * time.Millisecond)
	if f.synthesizer.Spoken[0] != "Bom dia, Bia" {
		t.Errorf("unexpected speech %q", f.synthesizer.Spoken[0])
	}
	if f.view.LastMessage().Content != "Bom dia, Bia! Agora são 9:05." {
		t.Errorf("unexpected response %q", f.view.LastMessage().Content)
	}
}

func TestToggleMute_OutsideVoiceMode(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")

	if _, err := f.controller.ToggleMute(); err == nil {
		t.Error("expected error outside voice mode")
	}
}

func TestDeleteChat_CurrentOpensNew(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.named(t, "Bia")
	first := f.controller.CurrentSessionID()

	if err := f.controller.DeleteChat(ctx, first); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if f.controller.CurrentSessionID() == first || f.controller.CurrentSessionID() == "" {
		t.Error("expected a new current session")
	}
	if err := f.controller.LoadChat(ctx, first); err == nil {
		t.Error("deleted session should not load")
	}
}

func TestLoadChat_RendersConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.named(t, "Bia")
	first := f.controller.CurrentSessionID()
	f.controller.Submit(ctx, "bom dia", domain.SourceText, nil)
	f.clock.Advance(800 * time.Millisecond)
	f.controller.NewChat(ctx)

	if err := f.controller.LoadChat(ctx, first); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	conversation := f.view.Conversations[len(f.view.Conversations)-1]
	if len(conversation) != 3 {
		t.Errorf("expected welcome, question and answer, got %d messages", len(conversation))
	}
	if f.view.Titles[len(f.view.Titles)-1] != "bom dia" {
		t.Errorf("unexpected title %q", f.view.Titles[len(f.view.Titles)-1])
	}
}

func TestSubmit_PublishesMessageEvents(t *testing.T) {
	f := newFixture(t)
	f.named(t, "Bia")

	f.controller.Submit(context.Background(), "bom dia", domain.SourceText, nil)
	f.clock.Advance(800 * time.Millisecond)

	events := f.publisher.Published()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	answer, ok := events[1].Payload.(domain.MessageEvent)
	if !ok || events[1].Topic != TopicMessages {
		t.Fatalf("unexpected event %+v", events[1])
	}
	if answer.MatchKey != "saudacao" || answer.Score < 2 {
		t.Errorf("unexpected match %q (%v)", answer.MatchKey, answer.Score)
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC), "9:05"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "0:00"},
		{time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), "23:59"},
	}

	for _, tt := range tests {
		if got := FormatTime(tt.at); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
