// Package handler provides the HTTP handlers for the QA service.
package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/clinsop/internal/pkg/httputils"
	"github.com/kart-io/clinsop/internal/qa/biz"
	"github.com/kart-io/clinsop/pkg/component/storage"
	qaopts "github.com/kart-io/clinsop/pkg/options/qa"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// QAHandler handles question answering requests.
type QAHandler struct {
	svc      biz.Service
	opts     *qaopts.Options
	backends *storage.Manager
}

// NewQAHandler creates a QAHandler.
func NewQAHandler(svc biz.Service, opts *qaopts.Options, backends *storage.Manager) *QAHandler {
	if opts == nil {
		opts = qaopts.NewOptions()
	}
	if backends == nil {
		backends = storage.NewManager()
	}
	return &QAHandler{svc: svc, opts: opts, backends: backends}
}

// QueryRequest is the request body for POST /v1/qa/query.
type QueryRequest struct {
	Query      string `json:"query" binding:"required"`
	Department string `json:"department"`
}

// Query handles POST /v1/qa/query.
func (h *QAHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrQAInvalidQuery.WithMessagef("invalid request body: %v", err), nil)
		return
	}
	if h.opts.MaxQueryLength > 0 && len(req.Query) > h.opts.MaxQueryLength {
		httputils.WriteResponse(c, errors.ErrQAInvalidQuery.WithMessagef("query exceeds %d bytes", h.opts.MaxQueryLength), nil)
		return
	}

	ctx := c.Request.Context()
	if h.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.QueryTimeout)
		defer cancel()
	}

	result, err := h.svc.Query(ctx, req.Query, req.Department)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			httputils.WriteResponse(c, errors.ErrQAQueryTimeout, nil)
			return
		}
		httputils.WriteResponse(c, err, nil)
		return
	}

	httputils.WriteResponse(c, nil, result)
}

// Stats handles GET /v1/qa/stats.
func (h *QAHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, stats)
}

// Healthz handles GET /healthz. It checks every registered storage
// backend and reports 503 when any of them is down.
func (h *QAHandler) Healthz(c *gin.Context) {
	statuses := h.backends.HealthCheckAll(c.Request.Context())

	healthy := true
	backends := make(gin.H, len(statuses))
	for name, status := range statuses {
		if status.Healthy {
			backends[name] = "ok"
			continue
		}
		healthy = false
		backends[name] = status.Error.Error()
	}

	code := http.StatusOK
	state := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		state = "unavailable"
	}
	c.JSON(code, gin.H{
		"status":   state,
		"backends": backends,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
