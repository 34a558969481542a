package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/ramshaali/folio/internal/config"
	"github.com/ramshaali/folio/internal/controller"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/internal/repository/contract"
	"github.com/ramshaali/folio/internal/repository/implementation"
	"github.com/ramshaali/folio/internal/repository/memory"
	"github.com/ramshaali/folio/internal/service"
	"github.com/ramshaali/folio/pkg/agent"
	"github.com/ramshaali/folio/pkg/classifier"
	"github.com/ramshaali/folio/pkg/database"
	"github.com/ramshaali/folio/pkg/llm/factory"
	pktNats "github.com/ramshaali/folio/pkg/nats"
	"github.com/ramshaali/folio/pkg/stream"
)

type Container struct {
	// Controllers
	HealthController   controller.IHealthController
	SessionController  controller.ISessionController
	GenerateController controller.IGenerateController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Loggers
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := logger.NewIsolatedLogger(cfg.App.PipelineLogPath)

	c := &Container{Logger: sysLogger}

	// 2. LLM
	provider, images, err := factory.NewLLMProvider(factory.Params{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		ImageModel:     cfg.Ai.ImageModel,
		OllamaBaseURL:  cfg.Ai.OllamaBaseURL,
		GeminiAPIKey:   cfg.Keys.GoogleGemini,
		HuggingFaceKey: cfg.Keys.HuggingFace,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if images == nil {
		log.Printf("[WARN] Provider %q cannot generate images; image requests will report an error", cfg.Ai.LLMProvider)
	}

	// 3. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	publisherService := service.NewPublisherService(cfg.App.EventsTopic, pubSub)

	var outbound service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		outbound = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventsTopic, outbound, sysLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 4. Session stores
	runtimeStore := memory.NewSessionRepository(cfg.Session.RuntimeTTL)
	durable, err := newDurableStore(cfg, c)
	if err != nil {
		return nil, err
	}
	sessionService := service.NewSessionService(runtimeStore, durable, publisherService, sysLogger)

	// 5. Pipeline
	pipeline := agent.NewPipeline(provider, images, agent.Models{
		Extractor: cfg.Ai.ExtractModel,
		Searcher:  cfg.Ai.SearchModel,
		Writer:    cfg.Ai.WriterModel,
		Refiner:   cfg.Ai.RefineModel,
		Image:     cfg.Ai.WriterModel,
	}, sessionService, pipelineLogger)

	cls := classifier.New(provider, cfg.Ai.ClassifierModel, sysLogger)
	mux := stream.NewMultiplexer(cls, sysLogger)

	generateService := service.NewGenerateService(
		sessionService,
		pipeline,
		mux,
		publisherService,
		sysLogger,
		cfg.App.RequireClientId,
	)

	// 6. Controllers
	c.HealthController = controller.NewHealthController(cfg.App.ApiKey)
	c.SessionController = controller.NewSessionController(generateService)
	c.GenerateController = controller.NewGenerateController(generateService)

	return c, nil
}

func newDurableStore(cfg *config.Config, c *Container) (contract.ClientSessionRepository, error) {
	switch cfg.Session.Backend {
	case "memory":
		log.Println("[WARN] Durable client sessions are kept in memory and lost on restart")
		return memory.NewClientSessionRepository(), nil

	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return implementation.NewClientSessionRepository(db), nil

	case "redis", "":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return implementation.NewClientSessionRedisRepository(rdb), nil

	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
