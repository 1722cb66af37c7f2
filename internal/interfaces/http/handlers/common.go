// Package handlers contains the HTTP handlers for the topology API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/HexaTopo/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps application errors to HTTP status codes.  Internal
// errors are masked; their detail stays in the logs.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)
	message := err.Error()
	if status >= 500 {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}
