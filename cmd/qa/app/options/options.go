// Package options contains flags and options for initializing the QA server.
package options

import (
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	qasvc "github.com/kart-io/clinsop/internal/qa"
	httpopts "github.com/kart-io/clinsop/pkg/options/http"
	llmopts "github.com/kart-io/clinsop/pkg/options/llm"
	logopts "github.com/kart-io/clinsop/pkg/options/logger"
	pgopts "github.com/kart-io/clinsop/pkg/options/postgres"
	qaopts "github.com/kart-io/clinsop/pkg/options/qa"
	redisopts "github.com/kart-io/clinsop/pkg/options/redis"
)

// ServerOptions contains the configuration options for the QA server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// PostgresOptions contains PostgreSQL configuration.
	PostgresOptions *pgopts.Options `json:"postgres" mapstructure:"postgres"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// QAOptions contains QA pipeline configuration.
	QAOptions *qaopts.Options `json:"qa" mapstructure:"qa"`

	// CacheEnabled toggles the redis embedding cache.
	CacheEnabled bool `json:"cache-enabled" mapstructure:"cache-enabled"`

	// RedisOptions contains redis configuration for the embedding cache.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8082"

	return &ServerOptions{
		HTTPOptions:      httpOpts,
		LogOptions:       logopts.NewOptions(),
		PostgresOptions:  pgopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		QAOptions:        qaopts.NewOptions(),
		CacheEnabled:     false,
		RedisOptions:     redisopts.NewOptions(),
		ShutdownTimeout:  30 * time.Second,
	}
}

// AddFlags adds all server flags to the given FlagSet.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.PostgresOptions.AddFlags(fs)
	o.EmbeddingOptions.AddFlags(fs, "embedding")
	o.ChatOptions.AddFlags(fs, "chat")
	o.QAOptions.AddFlags(fs)
	o.RedisOptions.AddFlags(fs)

	fs.BoolVar(&o.CacheEnabled, "cache-enabled", o.CacheEnabled, "Enable the redis embedding cache")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return err
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return err
	}
	return o.QAOptions.Complete()
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate())
	errs = append(errs, o.LogOptions.Validate())
	errs = append(errs, o.PostgresOptions.Validate())
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.QAOptions.Validate()...)
	if o.CacheEnabled {
		errs = append(errs, o.RedisOptions.Validate())
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds the runtime configuration from the options.
func (o *ServerOptions) Config() (*qasvc.Config, error) {
	cfg := &qasvc.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		PostgresOptions:  o.PostgresOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		QAOptions:        o.QAOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}
	if o.CacheEnabled {
		cfg.RedisOptions = o.RedisOptions
	}
	return cfg, nil
}
