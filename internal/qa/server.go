// Package qa provides the QA service server implementation.
package qa

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/version"

	"github.com/kart-io/clinsop/internal/qa/biz"
	"github.com/kart-io/clinsop/internal/qa/handler"
	"github.com/kart-io/clinsop/internal/qa/router"
	"github.com/kart-io/clinsop/internal/qa/store"
	componentpg "github.com/kart-io/clinsop/pkg/component/postgres"
	"github.com/kart-io/clinsop/pkg/component/storage"
	"github.com/kart-io/clinsop/pkg/llm"

	// Register LLM providers.
	_ "github.com/kart-io/clinsop/pkg/llm/openai"

	httpopts "github.com/kart-io/clinsop/pkg/options/http"
	llmopts "github.com/kart-io/clinsop/pkg/options/llm"
	logopts "github.com/kart-io/clinsop/pkg/options/logger"
	pgopts "github.com/kart-io/clinsop/pkg/options/postgres"
	qaopts "github.com/kart-io/clinsop/pkg/options/qa"
	redisopts "github.com/kart-io/clinsop/pkg/options/redis"

	componentredis "github.com/kart-io/clinsop/pkg/component/redis"
)

// Name is the name of the application.
const Name = "clinsop-qa"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	PostgresOptions  *pgopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	QAOptions        *qaopts.Options
	// RedisOptions enables the embedding cache when non-nil.
	RedisOptions    *redisopts.Options
	ShutdownTimeout time.Duration
}

// Server represents the QA server.
type Server struct {
	srv             *http.Server
	backends        *storage.Manager
	shutdownTimeout time.Duration
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", version.Get().GitVersion)
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting QA service...")

	backends := storage.NewManager()

	vectorStore, err := store.NewPostgresStore(ctx, componentpg.BuildURI(cfg.PostgresOptions))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	backends.MustRegister("postgres", vectorStore)

	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		_ = backends.CloseAll()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	// Optional redis-backed embedding cache. A broken redis disables the
	// cache rather than failing startup.
	if cfg.RedisOptions != nil {
		redisClient, err := componentredis.NewFactory(cfg.RedisOptions).Create(ctx)
		if err != nil {
			logger.Warnw("failed to connect to redis, embedding cache disabled", "error", err.Error())
		} else {
			embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, redisClient.Client(), nil)
			backends.MustRegister("redis", redisClient)
			logger.Infow("Embedding cache initialized", "host", cfg.RedisOptions.Host, "port", cfg.RedisOptions.Port)
		}
	}

	chatConfig := cfg.ChatOptions.ToConfigMap()
	// Deterministic completions suppress hallucination variance, so the
	// temperature is pinned rather than configurable.
	chatConfig["temperature"] = 0.0
	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, chatConfig)
	if err != nil {
		_ = backends.CloseAll()
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	qaService := biz.NewService(embedProvider, chatProvider, vectorStore, &biz.Config{
		TopK:           cfg.QAOptions.TopK,
		EmbeddingModel: cfg.EmbeddingOptions.Model,
		ChatModel:      cfg.ChatOptions.Model,
	})
	logger.Infow("QA pipeline initialized", "top_k", cfg.QAOptions.TopK)

	qaHandler := handler.NewQAHandler(qaService, cfg.QAOptions, backends)
	engine := router.New(qaHandler)

	srv := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("QA service is ready")
	return &Server{
		srv:             srv,
		backends:        backends,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.backends.CloseAll(); err != nil {
			logger.Warnw("failed to close storage backends", "error", err.Error())
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down QA service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
