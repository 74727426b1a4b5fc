// Package sopcenter provides the SOP center server implementation.
package sopcenter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/version"

	"github.com/kart-io/clinsop/internal/sop-center/biz"
	"github.com/kart-io/clinsop/internal/sop-center/handler"
	"github.com/kart-io/clinsop/internal/sop-center/router"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	componentpg "github.com/kart-io/clinsop/pkg/component/postgres"
	componentredis "github.com/kart-io/clinsop/pkg/component/redis"
	"github.com/kart-io/clinsop/pkg/component/storage"
	"github.com/kart-io/clinsop/pkg/llm"

	// Register LLM providers.
	_ "github.com/kart-io/clinsop/pkg/llm/openai"

	httpopts "github.com/kart-io/clinsop/pkg/options/http"
	jwtopts "github.com/kart-io/clinsop/pkg/options/jwt"
	llmopts "github.com/kart-io/clinsop/pkg/options/llm"
	logopts "github.com/kart-io/clinsop/pkg/options/logger"
	pgopts "github.com/kart-io/clinsop/pkg/options/postgres"
	redisopts "github.com/kart-io/clinsop/pkg/options/redis"
	"github.com/kart-io/clinsop/pkg/security/auth/jwt"
)

// Name is the name of the application.
const Name = "clinsop-sop-center"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	PostgresOptions  *pgopts.Options
	JWTOptions       *jwtopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	// RedisOptions enables the redis-backed token revocation store when
	// non-nil; otherwise revocations are kept in process memory.
	RedisOptions    *redisopts.Options
	ReindexWorkers  int
	ShutdownTimeout time.Duration
}

// Server represents the SOP center server.
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
	logger.Info("Starting SOP center...")

	backends := storage.NewManager()

	pgClient, err := componentpg.NewFactory(cfg.PostgresOptions).Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	backends.MustRegister("postgres", pgClient)

	if err := store.AutoMigrate(pgClient.DB()); err != nil {
		_ = backends.CloseAll()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	dataStore := store.NewStore(pgClient.DB())
	logger.Info("Store layer initialized")

	revocationStore, err := newRevocationStore(ctx, cfg.RedisOptions, backends)
	if err != nil {
		_ = backends.CloseAll()
		return nil, err
	}

	authn, err := jwt.New(
		jwt.WithOptions(&jwt.Options{
			DisableAuth:   cfg.JWTOptions.DisableAuth,
			Key:           cfg.JWTOptions.Key,
			SigningMethod: cfg.JWTOptions.SigningMethod,
			Expired:       cfg.JWTOptions.Expired,
			MaxRefresh:    cfg.JWTOptions.MaxRefresh,
			Issuer:        cfg.JWTOptions.Issuer,
			Audience:      cfg.JWTOptions.Audience,
		}),
		jwt.WithStore(revocationStore),
	)
	if err != nil {
		_ = backends.CloseAll()
		return nil, fmt.Errorf("failed to initialize authenticator: %w", err)
	}
	logger.Infow("Authenticator initialized", "expired", cfg.JWTOptions.Expired)

	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		_ = backends.CloseAll()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	authService := biz.NewAuthService(authn, dataStore)
	sopService := biz.NewSOPService(dataStore, embedProvider, cfg.ReindexWorkers)
	logger.Info("Biz layer initialized")

	authHandler := handler.NewAuthHandler(authService)
	sopHandler := handler.NewSOPHandler(sopService)
	engine := router.New(authn, authHandler, sopHandler, backends)

	srv := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("SOP center is ready")
	return &Server{
		srv:             srv,
		backends:        backends,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// newRevocationStore picks the token revocation backend. Redis keeps
// revocations across restarts and process replicas; the in-memory store is
// the single-process fallback.
func newRevocationStore(ctx context.Context, opts *redisopts.Options, backends *storage.Manager) (jwt.Store, error) {
	if opts == nil {
		logger.Info("Using in-memory token revocation store")
		return jwt.NewMemoryStore(), nil
	}

	redisClient, err := componentredis.NewFactory(opts).Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	backends.MustRegister("redis", redisClient)
	logger.Infow("Using redis token revocation store", "host", opts.Host, "port", opts.Port)
	return jwt.NewRedisStore(redisClient, ""), nil
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

	logger.Info("Shutting down SOP center...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
