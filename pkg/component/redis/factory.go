package redis

import (
	"context"
	"fmt"

	options "github.com/kart-io/clinsop/pkg/options/redis"
)

// Options is re-exported from pkg/options/redis for convenience.
type Options = options.Options

// NewOptions is re-exported from pkg/options/redis for convenience.
var NewOptions = options.NewOptions

// Factory creates Redis clients from a fixed option set.
type Factory struct {
	opts *options.Options
}

// NewFactory creates a Redis client factory.
func NewFactory(opts *options.Options) *Factory {
	return &Factory{opts: opts}
}

// Create builds a connected, verified Redis client.
func (f *Factory) Create(ctx context.Context) (*Client, error) {
	if f.opts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}

	client, err := NewWithContext(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return client, nil
}

// Options returns the options used by this factory.
func (f *Factory) Options() *options.Options {
	return f.opts
}
