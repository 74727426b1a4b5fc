// Package middleware provides HTTP authentication middleware built on the
// auth.Authenticator interface.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/clinsop/pkg/security/auth"
	"github.com/kart-io/clinsop/pkg/utils/errors"
	"github.com/kart-io/clinsop/pkg/utils/response"
)

const bearerPrefix = "Bearer "

// Authn returns a gin middleware that verifies the Authorization header
// and injects the verified claims into the request context. Handlers read
// the identity back with auth.ClaimsFromContext or auth.SubjectFromContext.
func Authn(authn auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortUnauthorized(c, errors.ErrUnauthorized.WithMessage("missing authorization header"))
			return
		}

		claims, err := authn.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warnw("token verification failed",
				"error", err,
				"remote_addr", c.ClientIP(),
				"path", c.Request.URL.Path)
			abortUnauthorized(c, err)
			return
		}

		ctx := auth.InjectAuth(c.Request.Context(), claims, token)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// extractBearerToken pulls the token from "Authorization: Bearer <token>".
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

func abortUnauthorized(c *gin.Context, err error) {
	resp := response.Err(errors.FromError(err))
	c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
}
