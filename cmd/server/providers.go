package main

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkwell-books/sms-concierge/internal/config"
	"github.com/inkwell-books/sms-concierge/internal/domain/conversation"
	"github.com/inkwell-books/sms-concierge/internal/domain/delivery"
	"github.com/inkwell-books/sms-concierge/internal/domain/ratelimit"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/cache"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/catalog"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/database"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/llmprovider"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/queue"
	conversationrepo "github.com/inkwell-books/sms-concierge/internal/infrastructure/repository/conversation"
	customerrepo "github.com/inkwell-books/sms-concierge/internal/infrastructure/repository/customer"
	ratelimitrepo "github.com/inkwell-books/sms-concierge/internal/infrastructure/repository/ratelimit"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/smsprovider"
	"github.com/inkwell-books/sms-concierge/internal/interfaces/httpserver"
	"github.com/inkwell-books/sms-concierge/internal/interfaces/httpserver/handlers"
	"github.com/inkwell-books/sms-concierge/internal/webhook"
	"github.com/inkwell-books/sms-concierge/internal/worker"
)

// Application bundles the long-lived components main has to start and
// stop.
type Application struct {
	Server *httpserver.Server
	Pool   *worker.Pool
	Queue  queue.TaskQueue
	Cache  *cache.RedisCache
}

func newApplication(server *httpserver.Server, pool *worker.Pool, q queue.TaskQueue, c *cache.RedisCache) *Application {
	return &Application{Server: server, Pool: pool, Queue: q, Cache: c}
}

func provideDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(ctx, database.Config{
		DSN:             cfg.DatabaseURL,
		AutoCreate:      cfg.DBAutoCreate,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormLogLevel(cfg.LogLevel),
	}, log)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug", "trace":
		return gormlogger.Info
	case "warn", "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func provideCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*cache.RedisCache, error) {
	return cache.NewRedisCache(ctx, cfg.RedisURL, log)
}

func provideVerifier(cfg *config.Config) *webhook.Verifier {
	return webhook.NewVerifier(cfg.WebhookSecret, cfg.WebhookMaxAge)
}

func provideLimiter(c *cache.RedisCache, db *gorm.DB, cfg *config.Config, log zerolog.Logger) *ratelimit.Limiter {
	primary := ratelimitrepo.NewRedisStore(c, log)
	fallback := ratelimitrepo.NewPostgresStore(db)
	return ratelimit.NewLimiter(primary, fallback, ratelimit.Config{
		SustainedMax:    int64(cfg.RateSustainedMax),
		SustainedWindow: cfg.RateSustainedWindow,
		BurstMax:        int64(cfg.RateBurstMax),
		BurstWindow:     cfg.RateBurstWindow,
	}, log)
}

func provideStore(db *gorm.DB, c *cache.RedisCache, cfg *config.Config, log zerolog.Logger) *conversation.Store {
	return conversation.NewStore(
		customerrepo.NewRepository(db),
		conversationrepo.NewRepository(db),
		conversationrepo.NewMessageRepository(db),
		c,
		cfg.ContextCacheTTL,
		cfg.ContextWindow,
		log,
	)
}

func provideGenerator(cfg *config.Config, log zerolog.Logger) delivery.Generator {
	return llmprovider.NewClient(llmprovider.Config{
		BaseURL:      cfg.LLMAPIURL,
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.LLMModel,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      cfg.LLMTimeout,
	}, log)
}

// smsTransport adapts the gateway client to the pipeline's transport
// contract.
type smsTransport struct {
	client *smsprovider.Client
}

func (t smsTransport) Send(ctx context.Context, body string, to []string) error {
	_, err := t.client.Send(ctx, body, to)
	return err
}

func provideTransport(cfg *config.Config, log zerolog.Logger) delivery.Transport {
	return smsTransport{client: smsprovider.NewClient(smsprovider.Config{
		BaseURL:    cfg.SMSProviderURL,
		APIKey:     cfg.SMSProviderKey,
		FromNumber: cfg.SMSFromNumber,
		Timeout:    cfg.SMSSendTimeout,
	}, log)}
}

func provideCatalog(cfg *config.Config, log zerolog.Logger) delivery.Catalog {
	if cfg.CatalogAPIURL == "" {
		return nil
	}
	return catalog.NewClient(cfg.CatalogAPIURL, cfg.LLMTimeout, log)
}

func provideQueue(cfg *config.Config) queue.TaskQueue {
	return queue.NewMemoryQueue(cfg.QueueSize)
}

func providePipeline(store *conversation.Store, generator delivery.Generator, transport delivery.Transport, cat delivery.Catalog, cfg *config.Config, log zerolog.Logger) *delivery.Pipeline {
	return delivery.NewPipeline(store, generator, transport, cat, cfg.SegmentLength, log)
}

func providePool(q queue.TaskQueue, pipeline *delivery.Pipeline, cfg *config.Config, log zerolog.Logger) *worker.Pool {
	return worker.NewPool(q, pipeline, cfg.WorkerCount, cfg.TaskTimeout, log)
}

func provideServer(cfg *config.Config, verifier *webhook.Verifier, limiter *ratelimit.Limiter, q queue.TaskQueue, store *conversation.Store, log zerolog.Logger) *httpserver.Server {
	webhookHandler := handlers.NewWebhookHandler(verifier, limiter, q, log)
	conversationHandler := handlers.NewConversationHandler(store, log)
	return httpserver.New(cfg.Addr(), cfg.Environment, cfg.ShutdownTimeout, webhookHandler, conversationHandler, log)
}
