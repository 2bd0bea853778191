package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keymart/keymart/internal/errs"
)

// writeError maps sentinel errors onto HTTP status codes. Unknown errors are
// logged by the caller and reported as a bare 500.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrInvalidAmount),
		errors.Is(err, errs.ErrOutOfStock),
		errors.Is(err, errs.ErrSignatureMismatch),
		errors.Is(err, errs.ErrAlreadyReviewed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, errs.ErrNotEntitled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyExists),
		errors.Is(err, errs.ErrKeySold):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
	default:
		s.logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
