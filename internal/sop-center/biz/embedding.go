package biz

import (
	"context"
	stderrors "errors"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// CreateEmbedding embeds the content and attaches it to an SOP document.
func (s *SOPService) CreateEmbedding(ctx context.Context, sopID, content string) (*model.VectorEmbedding, error) {
	if _, err := s.Get(ctx, sopID); err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, content)
	if err != nil {
		return nil, err
	}

	emb := &model.VectorEmbedding{
		Content:   content,
		Embedding: embedding,
		SOPID:     sopID,
	}
	if err := s.store.Embeddings().Create(ctx, emb); err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	logger.Infow("embedding created", "embedding_id", emb.ID, "sop_id", sopID)
	return emb, nil
}

// UpdateEmbedding re-embeds the new content and writes content and vector
// in one transaction.
func (s *SOPService) UpdateEmbedding(ctx context.Context, id, content string) (*model.VectorEmbedding, error) {
	emb, err := s.getEmbedding(ctx, id)
	if err != nil {
		return nil, err
	}

	if content != emb.Content {
		emb.Content = content
		embedding, err := s.embed(ctx, content)
		if err != nil {
			return nil, err
		}
		emb.Embedding = embedding
	}

	err = s.store.Tx(ctx, func(txStore store.Factory) error {
		return txStore.Embeddings().Update(ctx, emb)
	})
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	logger.Infow("embedding updated", "embedding_id", emb.ID)
	return emb, nil
}

// DeleteEmbedding removes one embedding.
func (s *SOPService) DeleteEmbedding(ctx context.Context, id string) error {
	if _, err := s.getEmbedding(ctx, id); err != nil {
		return err
	}
	if err := s.store.Embeddings().Delete(ctx, id); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	logger.Infow("embedding deleted", "embedding_id", id)
	return nil
}

// ListEmbeddings returns the embeddings attached to an SOP document.
func (s *SOPService) ListEmbeddings(ctx context.Context, sopID string) ([]*model.VectorEmbedding, error) {
	if _, err := s.Get(ctx, sopID); err != nil {
		return nil, err
	}

	embs, err := s.store.Embeddings().ListBySOP(ctx, sopID)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return embs, nil
}

func (s *SOPService) getEmbedding(ctx context.Context, id string) (*model.VectorEmbedding, error) {
	emb, err := s.store.Embeddings().Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrEmbeddingNotFound
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return emb, nil
}
