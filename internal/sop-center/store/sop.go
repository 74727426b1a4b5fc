package store

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/kart-io/clinsop/internal/model"
)

// findSimilarSQL searches active documents by cosine distance. The id in
// the ORDER BY keeps equally distant rows in a stable order.
const findSimilarSQL = `
SELECT id, title, content, 1 - (embedding <=> ?) AS similarity
FROM sop_documents
WHERE is_active
ORDER BY embedding <=> ?, id
LIMIT ?`

type sops struct {
	db *gorm.DB
}

func newSOPs(db *gorm.DB) *sops {
	return &sops{db}
}

// Create creates a new SOP document.
func (s *sops) Create(ctx context.Context, doc *model.SOPDocument) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

// Update saves all fields of an existing SOP document.
func (s *sops) Update(ctx context.Context, doc *model.SOPDocument) error {
	return s.db.WithContext(ctx).Save(doc).Error
}

// Delete deletes an SOP document by ID.
func (s *sops) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SOPDocument{}).Error
}

// Get retrieves an SOP document by ID.
func (s *sops) Get(ctx context.Context, id string) (*model.SOPDocument, error) {
	var doc model.SOPDocument
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// List lists SOP documents with pagination, newest first.
func (s *sops) List(ctx context.Context, offset, limit int) (int64, []*model.SOPDocument, error) {
	var count int64
	var docs []*model.SOPDocument

	if err := s.db.WithContext(ctx).Model(&model.SOPDocument{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}

	if err := s.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return 0, nil, err
	}

	return count, docs, nil
}

// ListActive returns all active SOP documents.
func (s *sops) ListActive(ctx context.Context) ([]*model.SOPDocument, error) {
	var docs []*model.SOPDocument
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// FindSimilar implements SOPStore.
func (s *sops) FindSimilar(ctx context.Context, vec []float32, limit int) ([]*model.SimilarSOP, error) {
	v := pgvector.NewVector(vec)
	var hits []*model.SimilarSOP
	if err := s.db.WithContext(ctx).Raw(findSimilarSQL, v, v, limit).Scan(&hits).Error; err != nil {
		return nil, err
	}
	return hits, nil
}
