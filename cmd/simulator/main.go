package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	serverURL   = flag.String("server", "ws://localhost:8080/ws/voice", "Bloquito WebSocket URL")
	clientID    = flag.String("id", "simulator", "Client ID (selects the stored history)")
	userName    = flag.String("name", "", "Name to answer the welcome prompt with; empty skips it")
	recognition = flag.Bool("recognition", true, "Report speech recognition support")
	synthesis   = flag.Bool("synthesis", true, "Report speech synthesis support")
	wordsPerSec = flag.Float64("speech-rate", 3, "Simulated speaking speed in words per second")
	script      = flag.String("script", "oi|quais kits vocês têm?|me fale do ESP32", "Messages sent in script mode, separated by |")
	useVoice    = flag.Bool("voice", false, "Send the script as voice transcripts instead of text")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config := &SimulatorConfig{
		ServerURL:      *serverURL,
		ClientID:       *clientID,
		UserName:       *userName,
		Recognition:    *recognition,
		Synthesis:      *synthesis,
		WordsPerSecond: *wordsPerSec,
	}

	simulator := NewSimulator(config, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to server", zap.Error(err))
	}

	if *interactive {
		runInteractiveMode(simulator)
		simulator.Stop()
		return
	}

	fmt.Printf("Bloquito browser simulator\n")
	fmt.Printf("  Client: %s\n", *clientID)
	fmt.Printf("  Server: %s\n", *serverURL)

	var messages []string
	for _, m := range strings.Split(*script, "|") {
		if m = strings.TrimSpace(m); m != "" {
			messages = append(messages, m)
		}
	}
	if err := simulator.RunScript(messages, *useVoice, 3*time.Second); err != nil {
		logger.Error("Script failed", zap.Error(err))
	}
	simulator.Stop()
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nBloquito Browser Simulator - Interactive Mode")
	fmt.Println("============================================")
	fmt.Println("Commands:")
	fmt.Println("  say <text>        - Send a typed message")
	fmt.Println("  talk <text>       - Send a final voice transcript")
	fmt.Println("  interim <text>    - Send an interim transcript")
	fmt.Println("  voice on|off      - Enter or leave voice mode")
	fmt.Println("  mute              - Toggle the microphone")
	fmt.Println("  noise <code>      - Report a recognition error (e.g. no-speech)")
	fmt.Println("  new               - Start a new chat")
	fmt.Println("  load <id>         - Open a stored chat")
	fmt.Println("  delete <id>       - Delete a stored chat")
	fmt.Println("  name <name>       - Answer or edit the user name")
	fmt.Println("  skip              - Skip the name prompt")
	fmt.Println("  voices            - Report a pt-BR and an en-US voice")
	fmt.Println("  rate <value>      - Change the speaking rate")
	fmt.Println("  quit              - Exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
