// Package router provides QA service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/clinsop/internal/pkg/httputils"
	"github.com/kart-io/clinsop/internal/pkg/middleware"
	"github.com/kart-io/clinsop/internal/qa/handler"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// New builds the gin engine for the QA service.
func New(qaHandler *handler.QAHandler) *gin.Engine {
	httputils.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery())

	engine.GET("/healthz", qaHandler.Healthz)

	v1 := engine.Group("/v1")
	{
		qa := v1.Group("/qa")
		{
			qa.POST("/query", qaHandler.Query)
			qa.GET("/stats", qaHandler.Stats)
		}
	}

	engine.NoRoute(func(c *gin.Context) {
		httputils.WriteResponse(c, errors.ErrNotFound.WithMessage("route not found"), nil)
	})

	logger.Info("QA routes registered")

	return engine
}
