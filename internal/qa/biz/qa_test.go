package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/clinsop/internal/qa/store"
	"github.com/kart-io/clinsop/pkg/llm"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

type fakeChat struct {
	reply        string
	err          error
	lastSystem   string
	lastPrompt   string
	generateCall int
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return f.reply, f.err
}

func (f *fakeChat) Generate(ctx context.Context, prompt, systemPrompt string) (*llm.GenerateResponse, error) {
	f.generateCall++
	f.lastPrompt = prompt
	f.lastSystem = systemPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Content: f.reply}, nil
}

func (f *fakeChat) Name() string { return "fake-chat" }

type fakeStore struct {
	chunks []*store.RetrievedChunk
	count  int64
	err    error
	lastK  int
	lastDx string
}

func (f *fakeStore) NearestChunks(ctx context.Context, vec []float32, k int, department string) ([]*store.RetrievedChunk, error) {
	f.lastK = k
	f.lastDx = department
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.chunks) {
		return f.chunks[:k], nil
	}
	return f.chunks, nil
}

func (f *fakeStore) CountActive(ctx context.Context) (int64, error) {
	return f.count, f.err
}

func (f *fakeStore) Close() error { return nil }

func sterilizationChunks() []*store.RetrievedChunk {
	return []*store.RetrievedChunk{
		{ID: "a", Section: "4.2", Content: "Autoclave at 134C.", Distance: 0.10},
		{ID: "b", Section: "4.3", Content: "Record each cycle.", Distance: 0.15},
		{ID: "c", Section: "4.1", Content: "Wear sterile gloves.", Distance: 0.22},
	}
}

func TestQuerySourcesFollowRetrievalOrder(t *testing.T) {
	chat := &fakeChat{reply: "- Autoclave at 134C for 18 minutes.\n(Section 4.2)"}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1, 0.2}}, chat, &fakeStore{chunks: sterilizationChunks()}, nil)

	result, err := svc.Query(t.Context(), "What is the sterilization protocol for Suite 3?", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"4.2", "4.3", "4.1"}, result.Sources)
	assert.True(t, result.Verified)
	assert.Equal(t, chat.reply, result.Answer)
	assert.Contains(t, chat.lastSystem, "[Section: 4.2] Autoclave at 134C.")
	assert.Equal(t, "What is the sterilization protocol for Suite 3?", chat.lastPrompt)
}

func TestQueryEmptyRetrievalProducesRefusal(t *testing.T) {
	chat := &fakeChat{reply: RefusalSentinel}
	svc := NewService(&fakeEmbedder{vec: []float32{0.5}}, chat, &fakeStore{}, nil)

	result, err := svc.Query(t.Context(), "What is the dress code on Mars?", "")
	require.NoError(t, err)

	assert.Equal(t, []string{}, result.Sources)
	assert.False(t, result.Verified)
	assert.Contains(t, chat.lastSystem, NoContextPlaceholder)
}

func TestQueryEmbeddingFailureIsOpaque(t *testing.T) {
	svc := NewService(&fakeEmbedder{err: fmt.Errorf("upstream 503")}, &fakeChat{}, &fakeStore{chunks: sterilizationChunks()}, nil)

	result, err := svc.Query(t.Context(), "anything", "")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrQAUnavailable.Code))
	assert.NotContains(t, errors.FromError(err).Message("en"), "embedding")
}

func TestQueryRetrievalFailureIsOpaque(t *testing.T) {
	st := &fakeStore{err: fmt.Errorf("connection refused")}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1}}, &fakeChat{}, st, nil)

	_, err := svc.Query(t.Context(), "anything", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrQAUnavailable.Code))
}

func TestQueryGenerationFailureIsOpaque(t *testing.T) {
	chat := &fakeChat{err: fmt.Errorf("rate limited")}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1}}, chat, &fakeStore{chunks: sterilizationChunks()}, nil)

	_, err := svc.Query(t.Context(), "anything", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrQAUnavailable.Code))
}

func TestQueryEmptyEmbeddingFails(t *testing.T) {
	svc := NewService(&fakeEmbedder{vec: nil}, &fakeChat{}, &fakeStore{}, nil)

	_, err := svc.Query(t.Context(), "anything", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrQAUnavailable.Code))
}

func TestQueryIdempotentSources(t *testing.T) {
	st := &fakeStore{chunks: sterilizationChunks()}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1}}, &fakeChat{reply: "- ok"}, st, nil)

	first, err := svc.Query(t.Context(), "same question", "")
	require.NoError(t, err)
	second, err := svc.Query(t.Context(), "same question", "")
	require.NoError(t, err)

	assert.Equal(t, first.Sources, second.Sources)
}

func TestQueryPassesTopKAndDepartment(t *testing.T) {
	st := &fakeStore{chunks: sterilizationChunks()}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1}}, &fakeChat{reply: "- ok"}, st, &Config{TopK: 2})

	result, err := svc.Query(t.Context(), "question", "surgery")
	require.NoError(t, err)

	assert.Equal(t, 2, st.lastK)
	assert.Equal(t, "surgery", st.lastDx)
	assert.Len(t, result.Sources, 2)
}

func TestStats(t *testing.T) {
	st := &fakeStore{count: 7}
	svc := NewService(&fakeEmbedder{}, &fakeChat{}, st, &Config{TopK: 3, EmbeddingModel: "text-embedding-3-small", ChatModel: "gpt-4o"})

	stats, err := svc.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.ActiveDocuments)
	assert.Equal(t, "text-embedding-3-small", stats.EmbeddingModel)
	assert.Equal(t, "gpt-4o", stats.ChatModel)
}

func TestStatsFailure(t *testing.T) {
	st := &fakeStore{err: fmt.Errorf("db down")}
	svc := NewService(&fakeEmbedder{}, &fakeChat{}, st, nil)

	_, err := svc.Stats(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrQAStatsUnavailable.Code))
}
