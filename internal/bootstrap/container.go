package bootstrap

import (
	"context"
	"log"
	"time"

	"chatbots-be/internal/config"
	"chatbots-be/internal/controller"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/pkg/ratelimit"
	"chatbots-be/internal/relay"
	"chatbots-be/internal/repository/memory"
	"chatbots-be/internal/service"
	"chatbots-be/pkg/events"
	"chatbots-be/pkg/llm/factory"

	pktNats "chatbots-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const indexingTopic = "chatbot_files.index"

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	SessionController controller.ISessionController
	FileController    controller.IFileController
	StreamController  controller.IStreamController

	// Background services, started by main
	ConsumerService service.IConsumerService
	ActivityService *service.ActivityService

	Logger logger.ILogger

	stopStreams context.CancelFunc
	closers     []func()
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	return NewContainerWithLogger(cfg, sysLogger)
}

func NewContainerWithLogger(cfg *config.Config, sysLogger logger.ILogger) *Container {
	c := &Container{Logger: sysLogger}
	streamsCtx, stopStreams := context.WithCancel(context.Background())
	c.stopStreams = stopStreams

	// 1. Store
	store := memory.NewEntityStore(memory.NewIdAllocator())
	downloadURLs := memory.NewDownloadURLRepository(time.Minute)

	// 2. Event bus for background jobs
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Domain events (optional)
	var eventPublisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.ActivityService = service.NewActivityService(natsSub, sysLogger)
			c.closers = append(c.closers, natsSub.Close)
		}
	}
	domainEvents := service.NewDomainEventPublisher(eventPublisher, sysLogger)

	// 4. Rate limiting (optional)
	var limiter *ratelimit.FixedWindowLimiter
	if cfg.App.RedisURL != "" && cfg.Stream.RateLimitPerMinute > 0 {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { rdb.Close() })

		limiter, err = ratelimit.NewFixedWindowLimiter(rdb, "chatbots:stream", cfg.Stream.RateLimitPerMinute, time.Minute, sysLogger)
		if err != nil {
			log.Printf("[WARN] Rate limiting disabled: %v", err)
		}
	}

	// 5. Upstream
	provider, err := factory.NewStreamingProvider(cfg.Upstream.Provider, factory.Options{
		BaseURL:       cfg.Upstream.BaseURL,
		APIKey:        cfg.Upstream.APIKey,
		HeaderTimeout: cfg.Upstream.HeaderTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize upstream provider: %v", err)
	}
	if !provider.Configured() {
		log.Printf("[WARN] Upstream API key is not set; stream requests will fail until it is configured")
	}

	streamRelay := relay.NewStreamRelay(
		store,
		provider,
		relay.NewRequestBuilder(cfg.Upstream.DefaultModel),
		sysLogger,
		relay.Options{
			KeepAliveInterval:  cfg.Stream.KeepAliveInterval,
			PreserveEventNames: cfg.Stream.PreserveEventNames,
		},
	)

	// 6. Services
	publisherService := service.NewPublisherService(indexingTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, indexingTopic, store, domainEvents, sysLogger)

	chatbotService := service.NewChatbotService(store, domainEvents, sysLogger)
	chatbotFileService := service.NewChatbotFileService(store, publisherService, domainEvents, sysLogger)
	sessionService := service.NewSessionService(store, domainEvents, sysLogger)
	messageService := service.NewMessageService(store, domainEvents, sysLogger)
	fileService := service.NewFileService(store, downloadURLs, cfg.Storage.BucketHost, cfg.Storage.DownloadURLTTL)

	// 7. Controllers
	c.ChatbotController = controller.NewChatbotController(chatbotService, chatbotFileService)
	c.SessionController = controller.NewSessionController(sessionService, messageService)
	c.FileController = controller.NewFileController(fileService)
	c.StreamController = controller.NewStreamController(streamsCtx, streamRelay, limiter, sysLogger)

	return c
}

// StopStreams cancels every relay in flight. New streams opened afterwards
// are cancelled immediately.
func (c *Container) StopStreams() {
	c.stopStreams()
}

// Close stops streams and releases bus and broker connections in reverse order.
func (c *Container) Close() {
	c.StopStreams()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
