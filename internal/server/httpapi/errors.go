package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arkadym/sealbox/internal/common"
)

// abortWithServiceError translates a service error into a response. All
// credential-shaped failures share one body so the surface leaks nothing
// about which check failed.
func (s *Server) abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, common.ErrAuthentication), errors.Is(err, common.ErrPINExpired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
	case errors.Is(err, common.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, common.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "invalid state"})
	case errors.Is(err, common.ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
	case errors.Is(err, common.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	default:
		s.logger.Error(c.Request.Context(), "internal error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
