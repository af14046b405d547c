package handler

import (
	"campusnet/backend/internal/chathub"
	"campusnet/backend/internal/storage"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal error"

// publicError maps a service error to an HTTP status and a message that is
// safe to show to the caller. Unexpected errors are logged and hidden.
func publicError(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrValidation), errors.Is(err, chathub.ErrUnknownSession):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrUnauthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, chathub.ErrHubStopped):
		return http.StatusServiceUnavailable, "server is shutting down"
	default:
		log.Printf("ERROR: %v", err)
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func respondError(c *gin.Context, err error) {
	status, message := publicError(err)
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
