// Package storage defines the interfaces shared by all storage backends.
// Every backing store (PostgreSQL, Redis) implements Client so connection
// lifecycle and health checks run through one code path.
package storage

import (
	"context"
	"time"
)

// Client is the base interface implemented by every storage backend.
type Client interface {
	// Name returns a lowercase identifier such as "postgres" or "redis".
	Name() string

	// Ping verifies the connection with a lightweight operation.
	Ping(ctx context.Context) error

	// Close releases the connection gracefully. Idempotent.
	Close() error

	// Health returns a HealthChecker bound to this client.
	Health() HealthChecker
}

// HealthChecker performs a health check when invoked. Implementations
// bound the check themselves when ctx carries no deadline.
type HealthChecker func(ctx context.Context) error

// HealthStatus is the result of a single health check.
type HealthStatus struct {
	// Name identifies the storage instance that was checked.
	Name string

	// Healthy reports whether the backend responded normally.
	Healthy bool

	// Latency is how long the check took.
	Latency time.Duration

	// Error holds the failure, nil when Healthy.
	Error error
}
