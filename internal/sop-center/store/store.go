// Package store provides the persistence layer for the SOP center.
package store

import (
	"context"

	"github.com/kart-io/clinsop/internal/model"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Users() UserStore
	SOPs() SOPStore
	Embeddings() EmbeddingStore

	// Tx runs fn inside one database transaction. The Factory passed to fn
	// operates on the transaction; any error rolls it back.
	Tx(ctx context.Context, fn func(Factory) error) error

	Close() error
}

// UserStore defines the user storage interface.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// SOPStore defines the SOP document storage interface.
type SOPStore interface {
	Create(ctx context.Context, doc *model.SOPDocument) error
	Update(ctx context.Context, doc *model.SOPDocument) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.SOPDocument, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.SOPDocument, error)
	ListActive(ctx context.Context) ([]*model.SOPDocument, error)

	// FindSimilar searches active documents by vector similarity, closest
	// first. Similarity is 1 - cosine distance.
	FindSimilar(ctx context.Context, vec []float32, limit int) ([]*model.SimilarSOP, error)
}

// EmbeddingStore defines the vector embedding storage interface.
type EmbeddingStore interface {
	Create(ctx context.Context, emb *model.VectorEmbedding) error
	Update(ctx context.Context, emb *model.VectorEmbedding) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.VectorEmbedding, error)
	ListBySOP(ctx context.Context, sopID string) ([]*model.VectorEmbedding, error)
	DeleteBySOP(ctx context.Context, sopID string) error
}
