package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SimulatorConfig holds the simulator configuration
type SimulatorConfig struct {
	ServerURL      string
	ClientID       string
	UserName       string
	Recognition    bool
	Synthesis      bool
	WordsPerSecond float64
}

type outbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Simulator behaves like the widget running in a browser: it renders what
// the server sends and plays the part of the speech APIs.
type Simulator struct {
	config *SimulatorConfig
	conn   *websocket.Conn
	log    *zap.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	listening bool
	voiceMode bool
	speaking  int
	replies   chan string

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSimulator(config *SimulatorConfig, log *zap.Logger) *Simulator {
	if config.WordsPerSecond <= 0 {
		config.WordsPerSecond = 3
	}
	return &Simulator{
		config:   config,
		log:      log,
		replies:  make(chan string, 16),
		stopChan: make(chan struct{}),
	}
}

// Connect opens the socket and announces the simulated capabilities.
func (s *Simulator) Connect() error {
	u, err := url.Parse(s.config.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	q := u.Query()
	q.Set("client_id", s.config.ClientID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	s.conn = conn
	s.log.Info("Connected to Bloquito", zap.String("url", u.String()))

	s.wg.Add(1)
	go s.readMessages()

	return s.send(map[string]any{
		"type": "hello",
		"capabilities": map[string]bool{
			"recognition": s.config.Recognition,
			"synthesis":   s.config.Synthesis,
		},
	})
}

func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.conn != nil {
			s.writeMu.Lock()
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.writeMu.Unlock()
			s.conn.Close()
		}
	})
	s.wg.Wait()
}

func (s *Simulator) send(frame map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(frame)
}

func (s *Simulator) readMessages() {
	defer s.wg.Done()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.log.Error("Read error", zap.Error(err))
			}
			return
		}

		var frame outbound
		if err := json.Unmarshal(message, &frame); err != nil {
			s.log.Error("Invalid frame", zap.Error(err))
			continue
		}
		s.handleFrame(frame)
	}
}

func (s *Simulator) handleFrame(frame outbound) {
	s.log.Debug("Frame received", zap.String("type", frame.Type), zap.ByteString("data", frame.Data))

	switch frame.Type {
	case "welcome_prompt":
		if s.config.UserName != "" {
			s.send(map[string]any{"type": "user.name", "name": s.config.UserName})
		} else {
			s.send(map[string]any{"type": "user.skip"})
		}

	case "render_message":
		var data struct {
			Message struct {
				Content string `json:"content"`
				Type    string `json:"type"`
				Source  string `json:"source"`
			} `json:"message"`
		}
		json.Unmarshal(frame.Data, &data)
		who := "Bloquito"
		if data.Message.Type == "user" {
			who = "Você"
			if data.Message.Source == "voice" {
				who = "Você (voz)"
			}
		}
		fmt.Printf("[%s] %s\n", who, data.Message.Content)
		if data.Message.Type == "bot" {
			select {
			case s.replies <- data.Message.Content:
			default:
			}
		}

	case "chat_title", "user_display", "voice_status", "error":
		fmt.Printf("  (%s) %s\n", frame.Type, frame.Data)

	case "render_history":
		var data struct {
			Chats []struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"chats"`
		}
		json.Unmarshal(frame.Data, &data)
		for _, c := range data.Chats {
			fmt.Printf("  - %s %s\n", c.ID, c.Title)
		}

	case "voice_mode":
		var data struct {
			Active bool `json:"active"`
		}
		json.Unmarshal(frame.Data, &data)
		s.mu.Lock()
		s.voiceMode = data.Active
		s.mu.Unlock()

	case "recognizer.start":
		s.mu.Lock()
		s.listening = true
		s.mu.Unlock()
		s.send(map[string]any{"type": "recognizer.started"})

	case "recognizer.stop":
		s.mu.Lock()
		wasListening := s.listening
		s.listening = false
		s.mu.Unlock()
		if wasListening {
			s.send(map[string]any{"type": "recognizer.end"})
		}

	case "synth.speak":
		var data struct {
			Text string `json:"text"`
		}
		json.Unmarshal(frame.Data, &data)
		s.speak(data.Text)

	case "synth.cancel":
		s.mu.Lock()
		s.speaking = 0
		s.mu.Unlock()
	}
}

// speak plays an utterance for as long as reading it aloud would take.
func (s *Simulator) speak(text string) {
	s.mu.Lock()
	s.speaking++
	s.mu.Unlock()

	fmt.Printf("  🔊 %s\n", text)
	words := len(strings.Fields(text))
	duration := time.Duration(float64(words) / s.config.WordsPerSecond * float64(time.Second))

	s.send(map[string]any{"type": "synth.start"})
	time.AfterFunc(duration, func() {
		s.mu.Lock()
		cancelled := s.speaking == 0
		if !cancelled {
			s.speaking--
		}
		s.mu.Unlock()
		if !cancelled {
			s.send(map[string]any{"type": "synth.end"})
		}
	})
}

// Say sends a typed message.
func (s *Simulator) Say(text string) error {
	return s.send(map[string]any{"type": "submit", "text": text})
}

// Talk sends text as a final transcript, as if the user spoke it.
func (s *Simulator) Talk(text string, confidence float64) error {
	s.mu.Lock()
	listening := s.listening
	s.mu.Unlock()
	if !listening {
		return fmt.Errorf("the recognizer is not running")
	}
	return s.send(map[string]any{"type": "recognizer.final", "text": text, "confidence": confidence})
}

// RunScript sends each message and waits for the bot to answer it.
func (s *Simulator) RunScript(messages []string, voice bool, timeout time.Duration) error {
	if voice {
		if err := s.send(map[string]any{"type": "voice.enter"}); err != nil {
			return err
		}
	}

	for _, m := range messages {
		if voice {
			if err := s.waitListening(timeout); err != nil {
				return err
			}
			if err := s.Talk(m, 0.9); err != nil {
				return err
			}
		} else if err := s.Say(m); err != nil {
			return err
		}

		select {
		case <-s.replies:
		case <-time.After(timeout):
			return fmt.Errorf("no reply to %q", m)
		case <-s.stopChan:
			return nil
		}
	}

	if voice {
		return s.send(map[string]any{"type": "voice.exit"})
	}
	return nil
}

func (s *Simulator) waitListening(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		ready := s.listening && s.speaking == 0
		s.mu.Unlock()
		if ready {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("the recognizer did not start")
}

// RunInteractive runs the interactive command loop
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)

		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		cmd := parts[0]
		args := parts[1:]
		rest := strings.Join(args, " ")

		var err error
		switch cmd {
		case "say":
			err = s.Say(rest)
		case "talk":
			err = s.Talk(rest, 0.9)
		case "interim":
			err = s.send(map[string]any{"type": "recognizer.interim", "text": rest})
		case "voice":
			if len(args) > 0 && args[0] == "off" {
				err = s.send(map[string]any{"type": "voice.exit"})
			} else {
				err = s.send(map[string]any{"type": "voice.enter"})
			}
		case "mute":
			err = s.send(map[string]any{"type": "voice.mute_toggle"})
		case "noise":
			code := "network"
			if len(args) > 0 {
				code = args[0]
			}
			err = s.send(map[string]any{"type": "recognizer.error", "error": code})
		case "new":
			err = s.send(map[string]any{"type": "chat.new"})
		case "load":
			err = s.send(map[string]any{"type": "chat.load", "id": rest})
		case "delete":
			err = s.send(map[string]any{"type": "chat.delete", "id": rest})
		case "name":
			err = s.send(map[string]any{"type": "user.edit", "name": rest})
		case "skip":
			err = s.send(map[string]any{"type": "user.skip"})
		case "voices":
			err = s.send(map[string]any{"type": "voice.voices", "voices": []map[string]string{
				{"name": "Luciana", "lang": "pt-BR"},
				{"name": "Samantha", "lang": "en-US"},
			}})
		case "rate":
			rate, _ := strconv.ParseFloat(rest, 64)
			err = s.send(map[string]any{"type": "voice.rate", "rate": rate})
		case "quit", "exit":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		fmt.Print("> ")
	}
}
