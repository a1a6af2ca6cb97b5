package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"enculture-be/internal/config"
	"enculture-be/internal/controller"
	"enculture-be/internal/handler"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/repository/memory"
	"enculture-be/internal/service"
	"enculture-be/internal/websocket"
	"enculture-be/pkg/events"
	"enculture-be/pkg/llm"
	"enculture-be/pkg/llm/factory"
	pktNats "enculture-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Controllers
	SurveyController     controller.ISurveyController
	ChatThreadController controller.IChatThreadController
	AssistantController  controller.IAssistantController

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	NotificationService *service.NotificationService
	WebSocketHub        *websocket.Hub

	// Background workers, started by StartWorkers
	TitleWorker service.ITitleWorker

	Bus      events.Bus
	Redis    *redis.Client
	RedisBus *websocket.RedisBus

	// LLM is nil when no provider could be built.
	LLM llm.LLMProvider
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)

	// 2. Store
	backend, err := OpenBackend(cfg.Data, !cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	repos := NewRepositories(backend)
	if _, err := VerifyStore(ctx, repos, backend, cfg.Data.RecoverCorrupt, sysLogger); err != nil {
		return nil, fmt.Errorf("data store failed verification (set DATA_RECOVER_CORRUPT=true to quarantine): %w", err)
	}

	// 3. Event Bus
	bus := newEventBus(cfg.Messaging.NatsURL, sysLogger)

	// 4. WebSocket Hub, optionally fanned out across instances
	wsHub := websocket.NewHub(wsLogger)
	rdb, redisBus := newRedisFanout(ctx, cfg.Messaging, wsLogger, sysLogger)
	if redisBus != nil {
		wsHub.SetFanout(redisBus)
	}

	// 5. AI
	llmProvider := newLLMProvider(ctx, cfg.Ai, sysLogger)
	replyCache := memory.NewReplyCache(cfg.Ai.CacheTTL)

	// 6. Services
	surveyService := service.NewSurveyService(repos.Surveys, repos.Responses, wsHub, bus, sysLogger)
	chatService := service.NewChatThreadService(repos.Threads, llmProvider, bus, sysLogger, cfg.Ai.Timeout)
	assistantService := service.NewAssistantService(
		llmProvider,
		cfg.Ai.LLMProvider,
		chatService,
		replyCache,
		bus,
		sysLogger,
		cfg.Ai.Timeout,
	)
	notifService := service.NewNotificationService(bus, wsHub, wsLogger)
	titleWorker := service.NewTitleWorker(bus, chatService, sysLogger)

	// 7. Controllers
	jwtSecret := cfg.Auth.JwtSecret
	return &Container{
		Config: cfg,
		Logger: sysLogger,

		SurveyController:     controller.NewSurveyController(surveyService, jwtSecret),
		ChatThreadController: controller.NewChatThreadController(chatService, jwtSecret),
		AssistantController:  controller.NewAssistantController(assistantService, chatService, sysLogger, jwtSecret, 0),

		NotificationHandler: handler.NewNotificationHandler(notifService, wsHub, wsLogger, jwtSecret),
		NotificationService: notifService,
		WebSocketHub:        wsHub,

		TitleWorker: titleWorker,

		Bus:      bus,
		Redis:    rdb,
		RedisBus: redisBus,

		LLM: llmProvider,
	}, nil
}

// StartWorkers subscribes the event consumers and the cluster forwarder.
// The forwarder stops when ctx is cancelled.
func (c *Container) StartWorkers(ctx context.Context) error {
	if err := c.NotificationService.Start(); err != nil {
		return fmt.Errorf("notification service: %w", err)
	}
	if err := c.TitleWorker.Start(); err != nil {
		return fmt.Errorf("title worker: %w", err)
	}
	if c.RedisBus != nil {
		if err := c.RedisBus.StartForwarder(ctx, c.WebSocketHub); err != nil {
			return fmt.Errorf("redis forwarder: %w", err)
		}
	}
	return nil
}

// Close releases the bus, Redis and LLM client connections and flushes the
// logger.
func (c *Container) Close() error {
	var errs []error
	if closer, ok := c.LLM.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.Bus != nil {
		errs = append(errs, c.Bus.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}

func newEventBus(natsURL string, log logger.ILogger) events.Bus {
	if natsURL != "" {
		bus, err := pktNats.NewBus(natsURL)
		if err == nil {
			log.Info("Bootstrap", "Using NATS JetStream event bus", map[string]interface{}{"url": natsURL})
			return bus
		}
		log.Warn("Bootstrap", "Failed to connect to NATS, using in-process bus", map[string]interface{}{"error": err.Error()})
	}
	return events.NewLocalBus(watermill.NewStdLogger(false, false))
}

func newRedisFanout(ctx context.Context, cfg config.MessagingConfig, wsLogger, log logger.ILogger) (*redis.Client, *websocket.RedisBus) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis, notifications stay on this instance", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil, nil
	}
	return rdb, websocket.NewRedisBus(rdb, cfg.RedisChannel, wsLogger)
}

// newLLMProvider returns nil when the provider cannot be built; the assistant
// then answers with its fallbacks and reports itself unhealthy.
func newLLMProvider(ctx context.Context, cfg config.AIConfig, log logger.ILogger) llm.LLMProvider {
	provider, err := factory.NewLLMProvider(ctx, factory.Config{
		Provider:      cfg.LLMProvider,
		Model:         cfg.LLMModel,
		OpenAIKey:     cfg.OpenAIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiKey:     cfg.GeminiKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
	})
	if err != nil {
		log.Warn("Bootstrap", "LLM provider unavailable, assistant will use fallbacks", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"error":    err.Error(),
		})
		return nil
	}
	log.Info("Bootstrap", "Using LLM provider", map[string]interface{}{"provider": cfg.LLMProvider, "model": cfg.LLMModel})
	return provider
}
