package postgres

import (
	"context"
	"fmt"

	options "github.com/kart-io/clinsop/pkg/options/postgres"
)

// Options is re-exported from pkg/options/postgres for convenience.
type Options = options.Options

// NewOptions is re-exported from pkg/options/postgres for convenience.
var NewOptions = options.NewOptions

// Factory creates PostgreSQL clients from a fixed option set.
type Factory struct {
	opts *Options
}

// NewFactory creates a PostgreSQL client factory.
func NewFactory(opts *Options) *Factory {
	return &Factory{opts: opts}
}

// Create builds a connected, verified PostgreSQL client.
func (f *Factory) Create(ctx context.Context) (*Client, error) {
	if f.opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}

	client, err := NewWithContext(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres client: %w", err)
	}

	return client, nil
}

// Options returns the options used by this factory.
func (f *Factory) Options() *Options {
	return f.opts
}
