package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/clinsop/internal/pkg/httputils"
	"github.com/kart-io/clinsop/internal/sop-center/biz"
	"github.com/kart-io/clinsop/pkg/utils/errors"
	"github.com/kart-io/clinsop/pkg/utils/response"
)

// SOPHandler handles SOP document and embedding requests.
type SOPHandler struct {
	svc *biz.SOPService
}

// NewSOPHandler creates a new SOPHandler.
func NewSOPHandler(svc *biz.SOPService) *SOPHandler {
	return &SOPHandler{svc: svc}
}

// CreateSOPRequest is the request body for POST /v1/sops.
type CreateSOPRequest struct {
	Title      string `json:"title" binding:"required,max=255"`
	Section    string `json:"section" binding:"required,max=64"`
	Department string `json:"department" binding:"omitempty,max=128"`
	Content    string `json:"content" binding:"required"`
	IsActive   *bool  `json:"is_active"`
}

// UpdateSOPRequest is the request body for PUT /v1/sops/:id.
type UpdateSOPRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=255"`
	Section    *string `json:"section" binding:"omitempty,max=64"`
	Department *string `json:"department" binding:"omitempty,max=128"`
	Content    *string `json:"content"`
	IsActive   *bool   `json:"is_active"`
}

// SimilarRequest is the request body for POST /v1/sops/similar.
type SimilarRequest struct {
	Text  string `json:"text" binding:"required"`
	Limit int    `json:"limit" binding:"omitempty,min=1,max=50"`
}

// EmbeddingRequest is the request body for embedding create and update.
type EmbeddingRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create handles POST /v1/sops.
func (h *SOPHandler) Create(c *gin.Context) {
	var req CreateSOPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrValidationFailed.WithMessagef("invalid request body: %v", err), nil)
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), &biz.CreateSOPRequest{
		Title:      req.Title,
		Section:    req.Section,
		Department: req.Department,
		Content:    req.Content,
		IsActive:   req.IsActive,
	})
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, doc)
}

// Update handles PUT /v1/sops/:id.
func (h *SOPHandler) Update(c *gin.Context) {
	var req UpdateSOPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrValidationFailed.WithMessagef("invalid request body: %v", err), nil)
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), &biz.UpdateSOPRequest{
		Title:      req.Title,
		Section:    req.Section,
		Department: req.Department,
		Content:    req.Content,
		IsActive:   req.IsActive,
	})
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, doc)
}

// Delete handles DELETE /v1/sops/:id.
func (h *SOPHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"message": "deleted"})
}

// Get handles GET /v1/sops/:id.
func (h *SOPHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, doc)
}

// List handles GET /v1/sops.
func (h *SOPHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	list, err := h.svc.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, response.Page(list.Items, list.TotalCount, page, pageSize))
}

// Similar handles POST /v1/sops/similar.
func (h *SOPHandler) Similar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrValidationFailed.WithMessagef("invalid request body: %v", err), nil)
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	hits, err := h.svc.FindSimilar(c.Request.Context(), req.Text, req.Limit)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, hits)
}

// Reindex handles POST /v1/sops/reindex.
func (h *SOPHandler) Reindex(c *gin.Context) {
	result, err := h.svc.Reindex(c.Request.Context())
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, result)
}

// CreateEmbedding handles POST /v1/sops/:id/embeddings.
func (h *SOPHandler) CreateEmbedding(c *gin.Context) {
	var req EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrValidationFailed.WithMessagef("invalid request body: %v", err), nil)
		return
	}

	emb, err := h.svc.CreateEmbedding(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, emb)
}

// ListEmbeddings handles GET /v1/sops/:id/embeddings.
func (h *SOPHandler) ListEmbeddings(c *gin.Context) {
	embs, err := h.svc.ListEmbeddings(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, embs)
}

// UpdateEmbedding handles PUT /v1/embeddings/:id.
func (h *SOPHandler) UpdateEmbedding(c *gin.Context) {
	var req EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrValidationFailed.WithMessagef("invalid request body: %v", err), nil)
		return
	}

	emb, err := h.svc.UpdateEmbedding(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, emb)
}

// DeleteEmbedding handles DELETE /v1/embeddings/:id.
func (h *SOPHandler) DeleteEmbedding(c *gin.Context) {
	if err := h.svc.DeleteEmbedding(c.Request.Context(), c.Param("id")); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"message": "deleted"})
}
