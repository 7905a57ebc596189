package websocket

import (
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
)

var ErrClientClosed = errors.New("websocket client is closed")

// Client is one browser connection. Besides transporting frames it is the
// view of that browser and, when the browser has them, its remote speech
// recognizer and synthesizer.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	clientID string
	log      *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, clientID string, log *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		clientID: clientID,
		log:      log,
	}
}

func (c *Client) ID() string {
	return c.clientID
}

// emit queues a frame. A client whose buffer is full is too slow to keep
// up and the frame is dropped.
func (c *Client) emit(eventType string, data any) error {
	payload, err := encodeFrame(eventType, data)
	if err != nil {
		return err
	}
	return c.enqueue(payload)
}

func (c *Client) enqueue(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.log.Warn("Dropping frame for slow client")
		return errors.New("send buffer full")
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.log.Debug("Write failed", zap.Error(err))
			return
		}
	}
}

func (c *Client) sendError(message string) {
	c.emit(EventError, map[string]string{"message": message})
}

// View

func (c *Client) RenderMessage(msg domain.ChatMessage, userName string) {
	c.emit(EventRenderMessage, map[string]any{"message": msg, "user_name": userName})
}

func (c *Client) RenderConversation(messages []domain.ChatMessage, userName string) {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	c.emit(EventRenderConversation, map[string]any{"messages": messages, "user_name": userName})
}

func (c *Client) RenderChatHistory(chats []domain.ChatSummary, currentID string) {
	c.emit(EventRenderHistory, map[string]any{"chats": chats, "current_id": currentID})
}

func (c *Client) UpdateChatTitle(title string) {
	c.emit(EventChatTitle, map[string]string{"title": title})
}

func (c *Client) UpdateUserDisplay(name string) {
	c.emit(EventUserDisplay, map[string]string{"name": name})
}

func (c *Client) ShowWelcomePrompt() {
	c.emit(EventWelcomePrompt, nil)
}

func (c *Client) SetVoiceMode(active bool) {
	c.emit(EventVoiceMode, map[string]bool{"active": active})
}

func (c *Client) UpdateVoiceStatus(status, detail string) {
	c.emit(EventVoiceStatus, map[string]string{"status": status, "detail": detail})
}

func (c *Client) SetVoiceAnimation(anim domain.VoiceAnimation) {
	c.emit(EventVoiceAnimation, map[string]string{"animation": string(anim)})
}

func (c *Client) UpdateMuteButton(muted bool) {
	c.emit(EventMuteButton, map[string]bool{"muted": muted})
}

// remoteRecognizer drives the browser's SpeechRecognition.
type remoteRecognizer struct {
	client *Client
}

func (r remoteRecognizer) Start() error {
	return r.client.emit(CommandRecognizerStart, nil)
}

func (r remoteRecognizer) Stop() error {
	return r.client.emit(CommandRecognizerStop, nil)
}

// remoteSynthesizer drives the browser's speechSynthesis.
type remoteSynthesizer struct {
	client *Client
}

func (s remoteSynthesizer) Speak(text string, opts domain.VoiceOptions) error {
	return s.client.emit(CommandSynthSpeak, map[string]any{"text": text, "options": opts})
}

func (s remoteSynthesizer) Cancel() error {
	return s.client.emit(CommandSynthCancel, nil)
}
