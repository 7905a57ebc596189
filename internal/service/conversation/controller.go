package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/voice"
)

const (
	placeholderUserName   = "{userName}"
	placeholderTime       = "{time}"
	placeholderStopAction = "{stopAction}"

	stopActionVoice = "Finalizando a conversa por voz. Você pode continuar conversando comigo por texto."
	stopActionText  = "Você pode continuar conversando comigo por texto."

	// TopicMessages receives a domain.MessageEvent for every appended message.
	TopicMessages = "chat.message"
)

var ErrNoSession = errors.New("no chat session is open")

// Matcher picks the knowledge entry answering an input.
type Matcher interface {
	Match(input string) domain.MatchResult
}

type Config struct {
	ThinkingDelay  time.Duration
	StopVoiceDelay time.Duration
	Location       *time.Location
}

func DefaultConfig() Config {
	return Config{
		ThinkingDelay:  800 * time.Millisecond,
		StopVoiceDelay: 3 * time.Second,
		Location:       time.Local,
	}
}

// Controller is the application context of one connected client. It turns
// user input into responses, keeps the open chat session, and drives the
// voice session.
//
// Like voice.Session, it is not safe for concurrent use: every call and
// every scheduled callback must run on the client's event loop.
type Controller struct {
	clientID  string
	cfg       Config
	chats     *chat.Service
	matcher   Matcher
	voice     *voice.Session
	view      ports.View
	scheduler ports.Scheduler
	publisher ports.EventPublisher
	tracer    trace.Tracer
	now       func() time.Time
	log       *zap.Logger

	userName   string
	hasName    bool
	currentID  string
	voiceEpoch uint64
}

func NewController(
	clientID string,
	cfg Config,
	chats *chat.Service,
	matcher Matcher,
	session *voice.Session,
	view ports.View,
	scheduler ports.Scheduler,
	publisher ports.EventPublisher,
	log *zap.Logger,
) *Controller {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	c := &Controller{
		clientID:  clientID,
		cfg:       cfg,
		chats:     chats,
		matcher:   matcher,
		voice:     session,
		view:      view,
		scheduler: scheduler,
		publisher: publisher,
		tracer:    otel.Tracer("github.com/seu-repo/bloquito/conversation"),
		now:       time.Now,
		log:       log.With(zap.String("client_id", clientID)),
	}
	return c
}

// Start restores the client's name. Clients that were never asked get the
// welcome prompt; the others get a fresh session.
func (c *Controller) Start(ctx context.Context) error {
	c.voice.OnTranscript(func(text string, confidence float64) {
		conf := confidence
		if err := c.Submit(ctx, text, domain.SourceVoice, &conf); err != nil {
			c.log.Error("Failed to submit transcript", zap.Error(err))
		}
	})

	name, ok, err := c.chats.UserName(ctx, c.clientID)
	if err != nil {
		return err
	}
	if !ok {
		c.view.ShowWelcomePrompt()
		return nil
	}

	c.userName, c.hasName = name, true
	c.view.UpdateUserDisplay(name)
	return c.NewChat(ctx)
}

func (c *Controller) UserName() string {
	return c.userName
}

func (c *Controller) CurrentSessionID() string {
	return c.currentID
}

// SetUserName answers the welcome prompt and opens a session.
func (c *Controller) SetUserName(ctx context.Context, name string) error {
	if err := c.storeName(ctx, name); err != nil {
		return err
	}
	return c.NewChat(ctx)
}

// SkipName answers the welcome prompt without a name.
func (c *Controller) SkipName(ctx context.Context) error {
	return c.SetUserName(ctx, "")
}

// EditUserName renames the user without touching the open session.
func (c *Controller) EditUserName(ctx context.Context, name string) error {
	return c.storeName(ctx, name)
}

func (c *Controller) storeName(ctx context.Context, name string) error {
	stored, err := c.chats.SaveUserName(ctx, c.clientID, name)
	if err != nil {
		return err
	}
	c.userName, c.hasName = stored, true
	c.view.UpdateUserDisplay(stored)
	return nil
}

// NewChat opens a new session and makes it current.
func (c *Controller) NewChat(ctx context.Context) error {
	session, err := c.chats.Create(ctx, c.clientID, c.userName)
	if err != nil {
		return err
	}
	c.currentID = session.ID

	if err := c.renderHistory(ctx); err != nil {
		return err
	}
	c.view.RenderConversation(nil, c.userName)
	c.view.UpdateChatTitle(session.Title)
	for _, msg := range session.Messages {
		c.view.RenderMessage(msg, c.userName)
	}
	return nil
}

// LoadChat makes an existing session current.
func (c *Controller) LoadChat(ctx context.Context, id string) error {
	session, err := c.chats.Get(ctx, c.clientID, id)
	if err != nil {
		return err
	}
	c.currentID = session.ID

	c.view.RenderConversation(session.Messages, c.userName)
	c.view.UpdateChatTitle(session.Title)
	return c.renderHistory(ctx)
}

// DeleteChat removes a session. Deleting the current one opens a new one.
func (c *Controller) DeleteChat(ctx context.Context, id string) error {
	if err := c.chats.Delete(ctx, c.clientID, id); err != nil {
		return err
	}
	if err := c.renderHistory(ctx); err != nil {
		return err
	}
	if id == c.currentID {
		return c.NewChat(ctx)
	}
	return nil
}

// Submit records a user message and schedules the response after the
// thinking delay. Voice transcripts carry a confidence.
func (c *Controller) Submit(ctx context.Context, text string, source domain.Source, confidence *float64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.ErrEmptyMessage
	}
	if c.currentID == "" {
		return ErrNoSession
	}

	msg := domain.ChatMessage{
		Content:    text,
		Role:       domain.RoleUser,
		Source:     source,
		Confidence: confidence,
		Timestamp:  c.now(),
	}
	if err := c.appendMessage(ctx, msg, domain.MatchResult{}); err != nil {
		return err
	}

	sessionID := c.currentID
	received := c.now()
	c.scheduler.AfterFunc(c.cfg.ThinkingDelay, func() {
		if err := c.respond(ctx, sessionID, text, received); err != nil {
			c.log.Error("Failed to respond", zap.Error(err))
		}
	})
	return nil
}

func (c *Controller) respond(ctx context.Context, sessionID, input string, received time.Time) error {
	ctx, span := c.tracer.Start(ctx, "conversation.respond")
	defer span.End()

	result := c.matcher.Match(input)
	span.SetAttributes(
		attribute.String("match.entry", result.Entry.Key),
		attribute.Float64("match.score", result.Score),
	)
	telemetry.MatchesTotal.WithLabelValues(result.Entry.Key, fmt.Sprintf("%t", result.Confident())).Inc()
	telemetry.MatchScore.Observe(result.Score)

	response, speech := c.fill(result.Entry)

	if result.Entry.Action == domain.ActionStopVoice {
		stop := stopActionText
		if c.voice.Active() {
			stop = stopActionVoice
			c.scheduleVoiceExit()
		}
		response = strings.ReplaceAll(response, placeholderStopAction, stop)
		speech = strings.ReplaceAll(speech, placeholderStopAction, stop)
	}

	// The user may have switched sessions during the thinking delay; the
	// answer still belongs to the session that asked.
	msg := domain.ChatMessage{
		Content:   response,
		Role:      domain.RoleBot,
		Timestamp: c.now(),
	}
	if err := c.appendTo(ctx, sessionID, msg, result); err != nil {
		return err
	}
	telemetry.ResponseLatency.Observe(c.now().Sub(received).Seconds())

	if c.voice.Active() && c.voice.CanSpeak() {
		if err := c.voice.BeginSpeaking(speech); err != nil {
			c.log.Warn("Failed to speak response", zap.Error(err))
		}
	}
	return nil
}

// fill substitutes the name and time placeholders in both texts.
func (c *Controller) fill(entry domain.KnowledgeEntry) (response, speech string) {
	replacer := strings.NewReplacer(
		placeholderUserName, chat.Salutation(c.userName),
		placeholderTime, FormatTime(c.now().In(c.cfg.Location)),
	)
	return replacer.Replace(entry.Response), replacer.Replace(entry.SpeechTemplate())
}

// scheduleVoiceExit leaves voice mode after the stop delay unless the user
// left and re-entered it in the meantime.
func (c *Controller) scheduleVoiceExit() {
	epoch := c.voiceEpoch
	c.scheduler.AfterFunc(c.cfg.StopVoiceDelay, func() {
		if epoch != c.voiceEpoch {
			return
		}
		c.ExitVoiceMode()
	})
}

// EnterVoiceMode starts the listen and respond cycle.
func (c *Controller) EnterVoiceMode() error {
	if c.voice.Active() {
		return nil
	}
	c.voiceEpoch++
	return c.voice.Enter()
}

func (c *Controller) ExitVoiceMode() {
	if !c.voice.Active() {
		return
	}
	c.voiceEpoch++
	c.voice.Exit()
}

// ToggleMute returns whether the microphone is now muted.
func (c *Controller) ToggleMute() (bool, error) {
	if !c.voice.Active() {
		return false, voice.ErrNotInVoiceMode
	}
	return c.voice.ToggleMute(), nil
}

func (c *Controller) appendMessage(ctx context.Context, msg domain.ChatMessage, result domain.MatchResult) error {
	return c.appendTo(ctx, c.currentID, msg, result)
}

func (c *Controller) appendTo(ctx context.Context, sessionID string, msg domain.ChatMessage, result domain.MatchResult) error {
	session, retitled, err := c.chats.Append(ctx, c.clientID, sessionID, msg)
	if err != nil {
		return err
	}

	if sessionID == c.currentID {
		if retitled {
			c.view.UpdateChatTitle(session.Title)
		}
		c.view.RenderMessage(msg, c.userName)
	}
	if retitled {
		if err := c.renderHistory(ctx); err != nil {
			return err
		}
	}

	c.publish(ctx, domain.MessageEvent{
		ClientID:  c.clientID,
		SessionID: sessionID,
		Message:   msg,
		MatchKey:  result.Entry.Key,
		Score:     result.Score,
	})
	return nil
}

func (c *Controller) publish(ctx context.Context, event domain.MessageEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, TopicMessages, event); err != nil {
		c.log.Warn("Failed to publish message event", zap.Error(err))
	}
}

func (c *Controller) renderHistory(ctx context.Context) error {
	summaries, err := c.chats.List(ctx, c.clientID)
	if err != nil {
		return err
	}
	c.view.RenderChatHistory(summaries, c.currentID)
	return nil
}

// FormatTime renders t as H:MM on a 24-hour clock.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
