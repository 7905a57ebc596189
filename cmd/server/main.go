package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/bloquito/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/bloquito/internal/adapter/queue"
	"github.com/seu-repo/bloquito/internal/adapter/source"
	wsAdapter "github.com/seu-repo/bloquito/internal/adapter/websocket"
	"github.com/seu-repo/bloquito/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/conversation"
	"github.com/seu-repo/bloquito/internal/service/health"
	"github.com/seu-repo/bloquito/internal/service/knowledge"
	"github.com/seu-repo/bloquito/internal/service/speech"
	"github.com/seu-repo/bloquito/internal/service/voice"
	"github.com/seu-repo/bloquito/pkg/config"
)

// TopicKnowledgeReload asks every instance to reload its knowledge base.
const TopicKnowledgeReload = "knowledge.reload"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting Bloquito",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize OpenTelemetry
	tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry, cfg.App.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	healthService := health.NewService(cfg.App.Version, logger)

	// 4. Initialize Storage
	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()
	healthService.RegisterChecker(store.name, health.PingChecker(store.ping, logger))

	chatService := chat.NewService(store.chats, store.profiles, cfg.Conversation.TitleMaxLength, logger)

	// 5. Initialize Message Queue
	messageQueue, err := queue.Connect(cfg.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	var publisher ports.EventPublisher = queue.NoopPublisher{}
	var bus *queue.Publisher
	if messageQueue != nil {
		defer messageQueue.Close()
		bus = queue.NewPublisher(messageQueue, cfg.Queue.SubjectPrefix)
		publisher = bus
	}

	// 6. Load Knowledge Base and Voice Replacements
	breaker := circuitbreaker.New("knowledge-source", cfg.CircuitBreaker, logger)
	httpClient := circuitbreaker.NewHTTPClient(&http.Client{Timeout: cfg.Knowledge.FetchTimeout}, breaker, logger)
	fetcher := source.NewFetcher(httpClient, cfg.Knowledge.FetchTimeout, logger)

	knowledgeStore := knowledge.NewStore(knowledge.NewLoader(fetcher, logger), cfg.Knowledge.Source)
	knowledgeStore.Reload(ctx)
	speechRegistry := speech.NewRegistry(fetcher, cfg.Knowledge.ReplacementsSource, logger)
	speechRegistry.Reload(ctx)

	healthService.RegisterChecker("knowledge", health.KnowledgeChecker(
		knowledgeStore.Ready,
		func() int { return knowledgeStore.Current().Len() },
	))

	// 7. Initialize WebSocket Hub
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(ctx)

	knowledgeHandler := handlers.NewKnowledgeHandler(knowledgeStore, speechRegistry, wsHub, logger)

	if bus != nil {
		err := bus.Subscribe(TopicKnowledgeReload, func(data []byte) error {
			knowledgeHandler.ReloadAll(ctx)
			return nil
		})
		if err != nil {
			logger.Error("Failed to subscribe to reload requests",
				zap.String("subject", bus.Subject(TopicKnowledgeReload)),
				zap.Error(err),
			)
		}
	}

	// 8. Initialize Voice Stream Handler
	voiceStreamHandler := wsAdapter.NewVoiceStreamHandler(wsHub, wsAdapter.Dependencies{
		Chats:        chatService,
		Matcher:      knowledgeStore,
		Transformer:  speechRegistry.Current,
		Publisher:    publisher,
		Voice:        voiceConfig(cfg.Voice),
		Conversation: conversationConfig(cfg, logger),
	}, logger)

	// 9. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	v1 := app.Group("/api/v1")
	if cfg.RateLimiting.Enabled {
		v1.Use(middleware.RateLimit(cfg.RateLimiting, logger))
	}
	if cfg.CircuitBreaker.Enabled {
		v1.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))
	}
	handlers.NewChatHandler(chatService, logger).RegisterRoutes(v1)
	knowledgeHandler.RegisterRoutes(v1)

	wsAdapter.SetupVoiceRoutes(app, voiceStreamHandler)

	// 10. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func voiceConfig(cfg config.VoiceConfig) voice.Config {
	return voice.Config{
		SettleDelay:         cfg.SettleDelay,
		ResumeDelay:         cfg.ResumeDelay,
		RestartDelay:        cfg.RestartDelay,
		ErrorRestartDelay:   cfg.ErrorRestartDelay,
		MinTranscriptLength: cfg.MinTranscriptLength,
		MinConfidence:       cfg.MinConfidence,
		Rate:                cfg.Rate,
		Pitch:               cfg.Pitch,
		Volume:              cfg.Volume,
		Language:            cfg.Language,
	}
}

func conversationConfig(cfg *config.Config, logger *zap.Logger) conversation.Config {
	location, err := time.LoadLocation(cfg.Region.Timezone)
	if err != nil {
		logger.Warn("Unknown timezone, using local time",
			zap.String("timezone", cfg.Region.Timezone),
			zap.Error(err),
		)
		location = time.Local
	}
	return conversation.Config{
		ThinkingDelay:  cfg.Conversation.ThinkingDelay,
		StopVoiceDelay: cfg.Conversation.StopVoiceDelay,
		Location:       location,
	}
}
