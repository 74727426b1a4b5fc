package biz

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	"github.com/kart-io/clinsop/pkg/llm"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// DefaultReindexWorkers bounds the background reindex pool.
const DefaultReindexWorkers = 4

// CreateSOPRequest carries the fields for creating an SOP document.
type CreateSOPRequest struct {
	Title      string
	Section    string
	Department string
	Content    string
	IsActive   *bool
}

// UpdateSOPRequest carries the fields for a partial SOP update. Nil fields
// are left unchanged.
type UpdateSOPRequest struct {
	Title      *string
	Section    *string
	Department *string
	Content    *string
	IsActive   *bool
}

// ReindexResult reports what a reindex run scheduled.
type ReindexResult struct {
	Scheduled int `json:"scheduled"`
}

// SOPService handles SOP document and embedding management. Every content
// mutation re-embeds synchronously and persists content and embedding in
// one transaction.
type SOPService struct {
	store      store.Factory
	embedder   llm.EmbeddingProvider
	workers    int
	reindexing atomic.Bool
}

// NewSOPService creates a new SOPService.
func NewSOPService(store store.Factory, embedder llm.EmbeddingProvider, workers int) *SOPService {
	if workers <= 0 {
		workers = DefaultReindexWorkers
	}
	return &SOPService{
		store:    store,
		embedder: embedder,
		workers:  workers,
	}
}

// embed converts text into the stored vector type.
func (s *SOPService) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vec, err := s.embedder.EmbedSingle(ctx, text)
	if err != nil {
		logger.Errorw("content embedding failed", "error", err, "provider", s.embedder.Name())
		return pgvector.Vector{}, errors.ErrSOPEmbedFailed.WithCause(err)
	}
	if len(vec) == 0 {
		logger.Errorw("content embedding empty", "provider", s.embedder.Name())
		return pgvector.Vector{}, errors.ErrSOPEmbedFailed
	}
	return pgvector.NewVector(vec), nil
}

// Create embeds the content and stores the new document.
func (s *SOPService) Create(ctx context.Context, req *CreateSOPRequest) (*model.SOPDocument, error) {
	embedding, err := s.embed(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	doc := &model.SOPDocument{
		Title:      req.Title,
		Section:    req.Section,
		Department: req.Department,
		Content:    req.Content,
		IsActive:   true,
		Embedding:  embedding,
	}
	if req.IsActive != nil {
		doc.IsActive = *req.IsActive
	}

	if err := s.store.SOPs().Create(ctx, doc); err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	logger.Infow("sop created", "sop_id", doc.ID, "section", doc.Section)
	return doc, nil
}

// Update applies a partial update. When the content changes, it is
// re-embedded first and the row is written with both new values in one
// transaction, so the document is never half updated.
func (s *SOPService) Update(ctx context.Context, id string, req *UpdateSOPRequest) (*model.SOPDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Section != nil {
		doc.Section = *req.Section
	}
	if req.Department != nil {
		doc.Department = *req.Department
	}
	if req.IsActive != nil {
		doc.IsActive = *req.IsActive
	}
	if req.Content != nil && *req.Content != doc.Content {
		doc.Content = *req.Content
		embedding, err := s.embed(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		doc.Embedding = embedding
	}

	err = s.store.Tx(ctx, func(txStore store.Factory) error {
		return txStore.SOPs().Update(ctx, doc)
	})
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	logger.Infow("sop updated", "sop_id", doc.ID)
	return doc, nil
}

// Delete removes a document and its attached embeddings.
func (s *SOPService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.store.Tx(ctx, func(txStore store.Factory) error {
		if err := txStore.Embeddings().DeleteBySOP(ctx, id); err != nil {
			return err
		}
		return txStore.SOPs().Delete(ctx, id)
	})
	if err != nil {
		return errors.ErrDatabase.WithCause(err)
	}

	logger.Infow("sop deleted", "sop_id", id)
	return nil
}

// Get retrieves one document.
func (s *SOPService) Get(ctx context.Context, id string) (*model.SOPDocument, error) {
	doc, err := s.store.SOPs().Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSOPNotFound
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return doc, nil
}

// List lists documents with pagination.
func (s *SOPService) List(ctx context.Context, offset, limit int) (*model.SOPDocumentList, error) {
	count, docs, err := s.store.SOPs().List(ctx, offset, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return &model.SOPDocumentList{TotalCount: count, Items: docs}, nil
}

// FindSimilar embeds the query text and searches active documents by
// vector similarity, closest first.
func (s *SOPService) FindSimilar(ctx context.Context, text string, limit int) ([]*model.SimilarSOP, error) {
	embedding, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.SOPs().FindSimilar(ctx, embedding.Slice(), limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return hits, nil
}

// Reindex re-embeds every active document in the background through a
// bounded worker pool. Only one run may be in flight at a time.
func (s *SOPService) Reindex(ctx context.Context) (*ReindexResult, error) {
	if !s.reindexing.CompareAndSwap(false, true) {
		return nil, errors.ErrReindexInProgress
	}

	docs, err := s.store.SOPs().ListActive(ctx)
	if err != nil {
		s.reindexing.Store(false)
		return nil, errors.ErrDatabase.WithCause(err)
	}

	go s.runReindex(docs)

	return &ReindexResult{Scheduled: len(docs)}, nil
}

// runReindex processes the documents on a detached context so the run
// survives the triggering request.
func (s *SOPService) runReindex(docs []*model.SOPDocument) {
	defer s.reindexing.Store(false)

	ctx := context.Background()

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		logger.Errorw("reindex pool creation failed", "error", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, doc := range docs {
		doc := doc
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.reindexOne(ctx, doc); err != nil {
				failed.Add(1)
				logger.Errorw("reindex document failed", "sop_id", doc.ID, "error", err)
			}
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			logger.Errorw("reindex submit failed", "sop_id", doc.ID, "error", submitErr)
		}
	}

	wg.Wait()
	logger.Infow("reindex finished", "total", len(docs), "failed", failed.Load())
}

func (s *SOPService) reindexOne(ctx context.Context, doc *model.SOPDocument) error {
	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return err
	}
	doc.Embedding = embedding

	return s.store.Tx(ctx, func(txStore store.Factory) error {
		return txStore.SOPs().Update(ctx, doc)
	})
}
