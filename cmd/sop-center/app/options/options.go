// Package options contains flags and options for initializing the SOP
// center server.
package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	sopsvc "github.com/kart-io/clinsop/internal/sop-center"
	httpopts "github.com/kart-io/clinsop/pkg/options/http"
	jwtopts "github.com/kart-io/clinsop/pkg/options/jwt"
	llmopts "github.com/kart-io/clinsop/pkg/options/llm"
	logopts "github.com/kart-io/clinsop/pkg/options/logger"
	pgopts "github.com/kart-io/clinsop/pkg/options/postgres"
	redisopts "github.com/kart-io/clinsop/pkg/options/redis"
)

// ServerOptions contains the configuration options for the SOP center.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// PostgresOptions contains PostgreSQL configuration.
	PostgresOptions *pgopts.Options `json:"postgres" mapstructure:"postgres"`

	// JWTOptions contains token signing configuration.
	JWTOptions *jwtopts.Options `json:"jwt" mapstructure:"jwt"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// RedisEnabled toggles the redis token revocation store.
	RedisEnabled bool `json:"redis-enabled" mapstructure:"redis-enabled"`

	// RedisOptions contains redis configuration for token revocation.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// ReindexWorkers bounds the background reindex worker pool.
	ReindexWorkers int `json:"reindex-workers" mapstructure:"reindex-workers"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8081"

	return &ServerOptions{
		HTTPOptions:      httpOpts,
		LogOptions:       logopts.NewOptions(),
		PostgresOptions:  pgopts.NewOptions(),
		JWTOptions:       jwtopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		RedisEnabled:     false,
		RedisOptions:     redisopts.NewOptions(),
		ReindexWorkers:   4,
		ShutdownTimeout:  30 * time.Second,
	}
}

// AddFlags adds all server flags to the given FlagSet.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.PostgresOptions.AddFlags(fs)
	o.JWTOptions.AddFlags(fs)
	o.EmbeddingOptions.AddFlags(fs, "embedding")
	o.RedisOptions.AddFlags(fs)

	fs.BoolVar(&o.RedisEnabled, "redis-enabled", o.RedisEnabled, "Store token revocations in redis instead of process memory")
	fs.IntVar(&o.ReindexWorkers, "reindex-workers", o.ReindexWorkers, "Number of background reindex workers")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.JWTOptions.Complete(); err != nil {
		return err
	}
	return o.EmbeddingOptions.Complete()
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate())
	errs = append(errs, o.LogOptions.Validate())
	errs = append(errs, o.PostgresOptions.Validate())
	errs = append(errs, o.JWTOptions.Validate())
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	if o.RedisEnabled {
		errs = append(errs, o.RedisOptions.Validate())
	}
	if o.ReindexWorkers <= 0 {
		errs = append(errs, fmt.Errorf("reindex-workers must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds the runtime configuration from the options.
func (o *ServerOptions) Config() (*sopsvc.Config, error) {
	cfg := &sopsvc.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		PostgresOptions:  o.PostgresOptions,
		JWTOptions:       o.JWTOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ReindexWorkers:   o.ReindexWorkers,
		ShutdownTimeout:  o.ShutdownTimeout,
	}
	if o.RedisEnabled {
		cfg.RedisOptions = o.RedisOptions
	}
	return cfg, nil
}
