package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/adapter/queue"
	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/infrastructure/eventloop"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/conversation"
	"github.com/seu-repo/bloquito/internal/service/speech"
	"github.com/seu-repo/bloquito/internal/service/voice"
)

var ErrHelloRequired = errors.New("first frame must be hello")

// Dependencies are shared by every connection.
type Dependencies struct {
	Chats        *chat.Service
	Matcher      conversation.Matcher
	Transformer  func() *speech.Transformer
	Publisher    ports.EventPublisher
	Voice        voice.Config
	Conversation conversation.Config
}

type VoiceStreamHandler struct {
	hub  *Hub
	deps Dependencies
	log  *zap.Logger
}

func NewVoiceStreamHandler(hub *Hub, deps Dependencies, log *zap.Logger) *VoiceStreamHandler {
	return &VoiceStreamHandler{
		hub:  hub,
		deps: deps,
		log:  log,
	}
}

// HandleVoiceStream serves one browser. Every frame is handled on the
// connection's own event loop, so the controller and voice session never
// see concurrent calls.
func (h *VoiceStreamHandler) HandleVoiceStream(c *websocket.Conn) {
	clientID, _ := c.Locals("client_id").(string)
	log := h.log.With(zap.String("client_id", clientID))

	client := newClient(h.hub, c, clientID, log)

	_, data, err := c.ReadMessage()
	if err != nil {
		log.Debug("Connection closed before hello", zap.Error(err))
		return
	}
	hello, err := decodeFrame(data)
	if err != nil || hello.Type != FrameHello {
		payload, _ := encodeFrame(EventError, map[string]string{"message": ErrHelloRequired.Error()})
		c.WriteMessage(websocket.TextMessage, payload)
		return
	}

	if err := h.hub.Register(client); err != nil {
		payload, _ := encodeFrame(EventError, map[string]string{"message": err.Error()})
		c.WriteMessage(websocket.TextMessage, payload)
		return
	}

	// The pump must finish before this handler returns: the connection is
	// released to a pool afterwards.
	pumpDone := make(chan struct{})
	go func() {
		client.writePump()
		close(pumpDone)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := eventloop.New(64, log)
	go loop.Run(ctx)

	conn := h.newConnection(client, hello.Capabilities, loop, log)
	if err := loop.Call(func() {
		if err := conn.controller.Start(ctx); err != nil {
			log.Error("Failed to start conversation", zap.Error(err))
			client.sendError(err.Error())
		}
	}); err != nil {
		log.Error("Event loop unavailable", zap.Error(err))
	}

	log.Info("Client connected",
		zap.Bool("recognition", hello.Capabilities.Recognition),
		zap.Bool("synthesis", hello.Capabilities.Synthesis),
	)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("Read failed", zap.Error(err))
			break
		}

		frame, err := decodeFrame(data)
		if err != nil {
			client.sendError("invalid frame")
			continue
		}
		if err := loop.Post(func() { conn.dispatch(ctx, frame) }); err != nil {
			break
		}
	}

	loop.Call(func() { conn.controller.ExitVoiceMode() })
	cancel()
	loop.Close()
	h.hub.Unregister(client)
	<-pumpDone
	log.Info("Client disconnected")
}

// connection is the per-client object graph.
type connection struct {
	client     *Client
	session    *voice.Session
	controller *conversation.Controller
	log        *zap.Logger
}

func (h *VoiceStreamHandler) newConnection(client *Client, caps domain.Capabilities, scheduler ports.Scheduler, log *zap.Logger) *connection {
	// Leave the interfaces nil rather than holding a nil pointer so the
	// session sees a missing capability.
	var recognizer ports.Recognizer
	if caps.Recognition {
		recognizer = remoteRecognizer{client: client}
	}
	var synthesizer ports.Synthesizer
	if caps.Synthesis {
		synthesizer = remoteSynthesizer{client: client}
	}

	var transformer *speech.Transformer
	if h.deps.Transformer != nil {
		transformer = h.deps.Transformer()
	}

	publisher := h.deps.Publisher
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}

	session := voice.NewSession(h.deps.Voice, recognizer, synthesizer, transformer, client, scheduler, log)
	controller := conversation.NewController(
		client.ID(),
		h.deps.Conversation,
		h.deps.Chats,
		h.deps.Matcher,
		session,
		client,
		scheduler,
		publisher,
		log,
	)

	return &connection{
		client:     client,
		session:    session,
		controller: controller,
		log:        log,
	}
}

func (c *connection) dispatch(ctx context.Context, frame InboundFrame) {
	telemetry.FramesTotal.WithLabelValues(frame.Type).Inc()

	if err := c.handle(ctx, frame); err != nil {
		c.log.Warn("Frame failed", zap.String("type", frame.Type), zap.Error(err))
		c.client.sendError(err.Error())
	}
}

func (c *connection) handle(ctx context.Context, frame InboundFrame) error {
	switch frame.Type {
	case FrameSubmit:
		return c.controller.Submit(ctx, frame.Text, domain.SourceText, nil)
	case FrameChatNew:
		return c.controller.NewChat(ctx)
	case FrameChatLoad:
		return c.controller.LoadChat(ctx, frame.ID)
	case FrameChatDelete:
		return c.controller.DeleteChat(ctx, frame.ID)
	case FrameUserName:
		return c.controller.SetUserName(ctx, frame.Name)
	case FrameUserSkip:
		return c.controller.SkipName(ctx)
	case FrameUserEdit:
		return c.controller.EditUserName(ctx, frame.Name)

	case FrameVoiceEnter:
		return c.controller.EnterVoiceMode()
	case FrameVoiceExit:
		c.controller.ExitVoiceMode()
	case FrameVoiceMuteToggle:
		_, err := c.controller.ToggleMute()
		return err
	case FrameVoiceVoices:
		voices := c.session.SetVoices(frame.Voices)
		return c.client.emit(EventVoices, map[string]any{
			"voices":   voices,
			"selected": c.session.Options().Voice,
		})
	case FrameVoiceSelect:
		return c.session.SelectVoice(frame.Name)
	case FrameVoiceRate:
		c.session.SetRate(frame.Rate)

	case FrameRecognizerStarted:
		c.session.HandleRecognizerStart()
	case FrameRecognizerInterim:
		c.session.HandleInterim(frame.Text)
	case FrameRecognizerFinal:
		c.session.HandleFinal(frame.Text, frame.Confidence)
	case FrameRecognizerError:
		c.session.HandleRecognizerError(frame.Error)
	case FrameRecognizerEnd:
		c.session.HandleRecognizerEnd()

	case FrameSynthStart:
		c.session.HandleSpeechStart()
	case FrameSynthEnd:
		c.session.HandleSpeechEnd()
	case FrameSynthError:
		c.session.HandleSpeechError(frame.Error)

	case FrameHello:
		return errors.New("hello already received")
	default:
		return fmt.Errorf("unknown frame type %q", frame.Type)
	}
	return nil
}

// SetupVoiceRoutes mounts the browser endpoint. Clients without a
// client_id get a fresh one, which means a fresh history.
func SetupVoiceRoutes(app *fiber.App, handler *VoiceStreamHandler) {
	app.Use("/ws/voice", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		clientID := c.Query("client_id")
		if clientID == "" {
			clientID = uuid.NewString()
		}
		c.Locals("client_id", clientID)
		return c.Next()
	})

	app.Get("/ws/voice", websocket.New(handler.HandleVoiceStream))
}
