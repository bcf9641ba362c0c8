package handlers

import (
	"errors"
	"log"
	"net/http"
	"resto_manager/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.StateConflictError
		sessionErr    *services.SessionError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": conflictErr.Message})
	case errors.As(err, &sessionErr):
		c.JSON(http.StatusForbidden, gin.H{"error": sessionErr.Message, "code": sessionErr.Code})
	default:
		log.Printf("handler: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
