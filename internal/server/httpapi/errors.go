package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a body that names only the error category.
// Authentication failures all look the same to the caller.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	body := gin.H{}
	switch status {
	case http.StatusBadRequest:
		body["error"] = "invalid_request"
	case http.StatusConflict:
		body["error"] = "email_already_registered"
	case http.StatusUnauthorized:
		body["error"] = "unauthorized"
	case http.StatusTooManyRequests:
		body["error"] = "too_many_requests"
	default:
		body["error"] = "internal_error"
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func respondValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":             "invalid_request",
		"error_description": err.Error(),
	})
}
