package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/qa/store"
	"github.com/kart-io/clinsop/pkg/llm"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// Service defines the question answering service interface.
type Service interface {
	// Query answers a clinical question grounded in the SOP corpus. An
	// empty department matches all departments.
	Query(ctx context.Context, question, department string) (*model.QueryResult, error)
	// Stats returns corpus statistics.
	Stats(ctx context.Context) (*model.QAStats, error)
}

// Config tunes the QA pipeline.
type Config struct {
	// TopK is the number of chunks retrieved per query.
	TopK int
	// EmbeddingModel and ChatModel are reported by Stats.
	EmbeddingModel string
	ChatModel      string
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{TopK: 3}
}

// qaService runs the linear pipeline embed, retrieve, prompt, generate,
// verify. It is stateless and safe for concurrent use.
type qaService struct {
	embedder llm.EmbeddingProvider
	chat     llm.ChatProvider
	store    store.VectorStore
	config   *Config
}

var _ Service = (*qaService)(nil)

// NewService creates a QA service over the given providers and store.
func NewService(
	embedder llm.EmbeddingProvider,
	chat llm.ChatProvider,
	vectorStore store.VectorStore,
	config *Config,
) Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TopK <= 0 {
		config.TopK = 3
	}
	return &qaService{
		embedder: embedder,
		chat:     chat,
		store:    vectorStore,
		config:   config,
	}
}

// Query implements Service. Any stage failure aborts the pipeline and
// surfaces as the single opaque ErrQAUnavailable; the stage detail is only
// logged.
func (s *qaService) Query(ctx context.Context, question, department string) (*model.QueryResult, error) {
	vec, err := s.embedder.EmbedSingle(ctx, question)
	if err != nil {
		logger.Errorw("query embedding failed", "error", err, "provider", s.embedder.Name())
		return nil, errors.ErrQAUnavailable.WithCause(err)
	}
	if len(vec) == 0 {
		logger.Errorw("query embedding empty", "provider", s.embedder.Name())
		return nil, errors.ErrQAUnavailable
	}

	chunks, err := s.store.NearestChunks(ctx, vec, s.config.TopK, department)
	if err != nil {
		logger.Errorw("context retrieval failed", "error", err, "top_k", s.config.TopK)
		return nil, errors.ErrQAUnavailable.WithCause(err)
	}

	systemPrompt := BuildSystemPrompt(chunks)

	resp, err := s.chat.Generate(ctx, question, systemPrompt)
	if err != nil {
		logger.Errorw("answer generation failed", "error", err, "provider", s.chat.Name())
		return nil, errors.ErrQAUnavailable.WithCause(err)
	}

	result := &model.QueryResult{
		Answer:   resp.Content,
		Sources:  sections(chunks),
		Verified: Verified(resp.Content),
	}

	logger.Infow("query answered",
		"chunks", len(chunks),
		"verified", result.Verified,
		"answer_len", len(result.Answer),
	)

	return result, nil
}

// Stats implements Service.
func (s *qaService) Stats(ctx context.Context) (*model.QAStats, error) {
	count, err := s.store.CountActive(ctx)
	if err != nil {
		logger.Errorw("stats query failed", "error", err)
		return nil, errors.ErrQAStatsUnavailable.WithCause(err)
	}
	return &model.QAStats{
		ActiveDocuments: count,
		EmbeddingModel:  s.config.EmbeddingModel,
		ChatModel:       s.config.ChatModel,
	}, nil
}

// sections extracts the section labels in retrieval order. The slice is
// never nil so the JSON sources field is always an array.
func sections(chunks []*store.RetrievedChunk) []string {
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, chunk.Section)
	}
	return out
}
