package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/clinsop/internal/model"
)

type embeddings struct {
	db *gorm.DB
}

func newEmbeddings(db *gorm.DB) *embeddings {
	return &embeddings{db}
}

// Create creates a new vector embedding.
func (e *embeddings) Create(ctx context.Context, emb *model.VectorEmbedding) error {
	return e.db.WithContext(ctx).Create(emb).Error
}

// Update saves all fields of an existing vector embedding.
func (e *embeddings) Update(ctx context.Context, emb *model.VectorEmbedding) error {
	return e.db.WithContext(ctx).Save(emb).Error
}

// Delete deletes a vector embedding by ID.
func (e *embeddings) Delete(ctx context.Context, id string) error {
	return e.db.WithContext(ctx).Where("id = ?", id).Delete(&model.VectorEmbedding{}).Error
}

// Get retrieves a vector embedding by ID.
func (e *embeddings) Get(ctx context.Context, id string) (*model.VectorEmbedding, error) {
	var emb model.VectorEmbedding
	if err := e.db.WithContext(ctx).Where("id = ?", id).First(&emb).Error; err != nil {
		return nil, err
	}
	return &emb, nil
}

// ListBySOP returns all embeddings attached to one SOP document.
func (e *embeddings) ListBySOP(ctx context.Context, sopID string) ([]*model.VectorEmbedding, error) {
	var embs []*model.VectorEmbedding
	if err := e.db.WithContext(ctx).Where("sop_id = ?", sopID).Order("created_at").Find(&embs).Error; err != nil {
		return nil, err
	}
	return embs, nil
}

// DeleteBySOP removes all embeddings attached to one SOP document.
func (e *embeddings) DeleteBySOP(ctx context.Context, sopID string) error {
	return e.db.WithContext(ctx).Where("sop_id = ?", sopID).Delete(&model.VectorEmbedding{}).Error
}
