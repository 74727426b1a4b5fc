// Package httputils provides HTTP utility functions shared by the services.
package httputils

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/clinsop/internal/pkg/middleware"
	"github.com/kart-io/clinsop/pkg/utils/errors"
	"github.com/kart-io/clinsop/pkg/utils/response"
)

// WriteResponse writes the response to the client.
// It handles both success and error cases, ensuring consistent response format.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		resp := response.Err(errors.FromError(err))
		c.JSON(resp.HTTPStatus(), resp.WithRequestID(middleware.RequestIDFrom(c)))
		return
	}

	// data can be a prepared *response.Response (e.g. from response.Page) or raw data
	resp, ok := data.(*response.Response)
	if !ok {
		resp = response.Success(data)
	}
	c.JSON(resp.HTTPStatus(), resp.WithRequestID(middleware.RequestIDFrom(c)))
}
