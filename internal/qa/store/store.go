// Package store provides the vector retrieval layer for the QA service.
package store

import (
	"context"
)

// RetrievedChunk is one document chunk returned by a nearest-neighbour
// search, ordered by ascending distance to the query vector.
type RetrievedChunk struct {
	ID       string
	Title    string
	Section  string
	Content  string
	Distance float64
}

// VectorStore retrieves document chunks by vector similarity.
type VectorStore interface {
	// NearestChunks returns up to k active chunks closest to the query
	// vector, ascending by distance. An empty department matches all
	// departments. An empty result is valid, not an error.
	NearestChunks(ctx context.Context, vec []float32, k int, department string) ([]*RetrievedChunk, error)

	// CountActive returns the number of active documents.
	CountActive(ctx context.Context) (int64, error)

	// Close releases the underlying connections.
	Close() error
}
