package biz

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

type fakeEmbedder struct {
	calls atomic.Int64
	err   error
	// block, when non-nil, holds every EmbedSingle call until closed.
	block chan struct{}
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.EmbedSingle(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.block != nil {
		<-f.block
	}
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	// Derived from the text length so content changes are observable.
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

func newTestSOPService(t *testing.T, embedder *fakeEmbedder) (*SOPService, store.Factory) {
	t.Helper()
	db := newTestDB(t, &model.SOPDocument{}, &model.VectorEmbedding{})
	ds := store.NewStore(db)
	return NewSOPService(ds, embedder, 2), ds
}

func createReq() *CreateSOPRequest {
	return &CreateSOPRequest{
		Title:      "Sterilization Protocol",
		Section:    "4.2",
		Department: "surgery",
		Content:    "Autoclave at 134C for 18 minutes.",
	}
}

func TestCreateEmbedsContent(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	doc, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.True(t, doc.IsActive)
	assert.Equal(t, int64(1), embedder.calls.Load())
	assert.NotEmpty(t, doc.Embedding.Slice())
}

func TestCreateEmbedFailureCreatesNothing(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("upstream 503")}
	svc, ds := newTestSOPService(t, embedder)

	_, err := svc.Create(t.Context(), createReq())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSOPEmbedFailed.Code))

	count, _, err := ds.SOPs().List(t.Context(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateContentReembeds(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	doc, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)
	oldVec := doc.Embedding.Slice()

	newContent := "Autoclave at 121C for 30 minutes instead."
	updated, err := svc.Update(t.Context(), doc.ID, &UpdateSOPRequest{Content: &newContent})
	require.NoError(t, err)

	assert.Equal(t, newContent, updated.Content)
	assert.NotEqual(t, oldVec, updated.Embedding.Slice())
	assert.Equal(t, int64(2), embedder.calls.Load())
}

func TestUpdateMetadataSkipsReembed(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	doc, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)

	title := "Sterilization Protocol v2"
	inactive := false
	updated, err := svc.Update(t.Context(), doc.ID, &UpdateSOPRequest{Title: &title, IsActive: &inactive})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.False(t, updated.IsActive)
	assert.Equal(t, int64(1), embedder.calls.Load())
}

func TestUpdateEmbedFailureLeavesDocumentUnchanged(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	doc, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)

	embedder.err = fmt.Errorf("upstream 503")
	newContent := "changed content"
	_, err = svc.Update(t.Context(), doc.ID, &UpdateSOPRequest{Content: &newContent})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSOPEmbedFailed.Code))

	stored, err := svc.Get(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, createReq().Content, stored.Content)
}

func TestDeleteRemovesAttachedEmbeddings(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, ds := newTestSOPService(t, embedder)

	doc, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)
	_, err = svc.CreateEmbedding(t.Context(), doc.ID, "extra fragment")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(t.Context(), doc.ID))

	_, err = svc.Get(t.Context(), doc.ID)
	assert.True(t, errors.IsCode(err, errors.ErrSOPNotFound.Code))

	embs, err := ds.Embeddings().ListBySOP(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, embs)
}

func TestGetUnknownID(t *testing.T) {
	svc, _ := newTestSOPService(t, &fakeEmbedder{})

	_, err := svc.Get(t.Context(), "no-such-id")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSOPNotFound.Code))
}

func TestEmbeddingCRUD(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	doc, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)

	emb, err := svc.CreateEmbedding(t.Context(), doc.ID, "wash hands first")
	require.NoError(t, err)
	assert.NotEmpty(t, emb.ID)
	assert.Equal(t, doc.ID, emb.SOPID)

	updated, err := svc.UpdateEmbedding(t.Context(), emb.ID, "wash hands for 40 seconds")
	require.NoError(t, err)
	assert.Equal(t, "wash hands for 40 seconds", updated.Content)
	assert.NotEqual(t, emb.Embedding.Slice(), updated.Embedding.Slice())

	list, err := svc.ListEmbeddings(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteEmbedding(t.Context(), emb.ID))
	_, err = svc.UpdateEmbedding(t.Context(), emb.ID, "gone")
	assert.True(t, errors.IsCode(err, errors.ErrEmbeddingNotFound.Code))
}

func TestReindexReembedsActiveDocuments(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	for i := 0; i < 3; i++ {
		req := createReq()
		req.Section = fmt.Sprintf("4.%d", i)
		_, err := svc.Create(t.Context(), req)
		require.NoError(t, err)
	}
	baseline := embedder.calls.Load()

	result, err := svc.Reindex(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scheduled)

	assert.Eventually(t, func() bool {
		return embedder.calls.Load() == baseline+3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReindexRejectsConcurrentRun(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, _ := newTestSOPService(t, embedder)

	_, err := svc.Create(t.Context(), createReq())
	require.NoError(t, err)

	// Hold the background run on the embedder so the second trigger
	// observes it in flight.
	embedder.block = make(chan struct{})

	_, err = svc.Reindex(t.Context())
	require.NoError(t, err)

	_, err = svc.Reindex(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrReindexInProgress.Code))

	close(embedder.block)
	assert.Eventually(t, func() bool {
		_, err := svc.Reindex(t.Context())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}
