// Package router provides SOP center routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/clinsop/internal/pkg/httputils"
	"github.com/kart-io/clinsop/internal/pkg/middleware"
	"github.com/kart-io/clinsop/internal/sop-center/handler"
	"github.com/kart-io/clinsop/pkg/component/storage"
	"github.com/kart-io/clinsop/pkg/security/auth"
	authmw "github.com/kart-io/clinsop/pkg/security/auth/middleware"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// New builds the gin engine for the SOP center.
func New(authn auth.Authenticator, authHandler *handler.AuthHandler, sopHandler *handler.SOPHandler, backends *storage.Manager) *gin.Engine {
	httputils.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery())

	engine.GET("/healthz", healthz(backends))

	requireAuth := authmw.Authn(authn)

	v1 := engine.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
		}

		sops := v1.Group("/sops", requireAuth)
		{
			sops.POST("", sopHandler.Create)
			sops.GET("", sopHandler.List)
			sops.POST("/similar", sopHandler.Similar)
			sops.POST("/reindex", sopHandler.Reindex)
			sops.GET("/:id", sopHandler.Get)
			sops.PUT("/:id", sopHandler.Update)
			sops.DELETE("/:id", sopHandler.Delete)
			sops.POST("/:id/embeddings", sopHandler.CreateEmbedding)
			sops.GET("/:id/embeddings", sopHandler.ListEmbeddings)
		}

		embeddings := v1.Group("/embeddings", requireAuth)
		{
			embeddings.PUT("/:id", sopHandler.UpdateEmbedding)
			embeddings.DELETE("/:id", sopHandler.DeleteEmbedding)
		}
	}

	engine.NoRoute(func(c *gin.Context) {
		httputils.WriteResponse(c, errors.ErrNotFound.WithMessage("route not found"), nil)
	})

	logger.Info("SOP center routes registered")

	return engine
}

// healthz checks every registered storage backend and reports 503 when
// any of them is down.
func healthz(backends *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := backends.HealthCheckAll(c.Request.Context())

		healthy := true
		detail := make(gin.H, len(statuses))
		for name, status := range statuses {
			if status.Healthy {
				detail[name] = "ok"
				continue
			}
			healthy = false
			detail[name] = status.Error.Error()
		}

		code := http.StatusOK
		state := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			state = "unavailable"
		}
		c.JSON(code, gin.H{"status": state, "backends": detail})
	}
}
