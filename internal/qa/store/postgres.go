package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kart-io/logger"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/kart-io/clinsop/pkg/component/storage"
)

// Queries for the nearest-neighbour search. <=> is the pgvector cosine
// distance operator; id in the ORDER BY makes ties deterministic.
const (
	nearestChunksSQL = `
SELECT id, title, section, content, embedding <=> $1 AS distance
FROM sop_documents
WHERE is_active
ORDER BY embedding <=> $1, id
LIMIT $2`

	nearestChunksByDepartmentSQL = `
SELECT id, title, section, content, embedding <=> $1 AS distance
FROM sop_documents
WHERE is_active AND department = $3
ORDER BY embedding <=> $1, id
LIMIT $2`

	countActiveSQL = `SELECT COUNT(*) FROM sop_documents WHERE is_active`
)

// PostgresStore is the pgx/pgvector implementation of VectorStore. It also
// implements storage.Client so the server can register it for health checks.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var (
	_ VectorStore    = (*PostgresStore)(nil)
	_ storage.Client = (*PostgresStore)(nil)
)

// NewPostgresStore creates a PostgresStore backed by a fresh pool. It pings
// the database and registers the pgvector types on new connections.
func NewPostgresStore(ctx context.Context, uri string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("parse postgres uri: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Infow("vector store connected", "database", cfg.ConnConfig.Database)

	return &PostgresStore{pool: pool}, nil
}

// NearestChunks implements VectorStore.
func (s *PostgresStore) NearestChunks(ctx context.Context, vec []float32, k int, department string) ([]*RetrievedChunk, error) {
	query := nearestChunksSQL
	args := []any{pgvector.NewVector(vec), k}
	if department != "" {
		query = nearestChunksByDepartmentSQL
		args = append(args, department)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("nearest chunks query: %w", err)
	}
	defer rows.Close()

	var chunks []*RetrievedChunk
	for rows.Next() {
		chunk := &RetrievedChunk{}
		if err := rows.Scan(&chunk.ID, &chunk.Title, &chunk.Section, &chunk.Content, &chunk.Distance); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest chunks rows: %w", err)
	}

	return chunks, nil
}

// CountActive implements VectorStore.
func (s *PostgresStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, countActiveSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active documents: %w", err)
	}
	return count, nil
}

// Name implements storage.Client.
func (s *PostgresStore) Name() string {
	return "postgres"
}

// Ping implements storage.Client.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Health implements storage.Client.
func (s *PostgresStore) Health() storage.HealthChecker {
	return func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.pool.Ping(pingCtx)
	}
}

// Close implements VectorStore and storage.Client.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
