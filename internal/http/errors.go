package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"finance-tracker/internal/export"
	"finance-tracker/internal/service"
)

const serverErrorMessage = "Server error"

func abortMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		abortMessage(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, export.ErrUnknownFormat):
		abortMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortMessage(c, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		abortMessage(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		abortMessage(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, service.ErrNotFound):
		abortMessage(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrStorageUnavailable):
		abortMessage(c, http.StatusServiceUnavailable, err.Error())
	default:
		entry(c, h.logger).WithError(err).Error("request failed")
		abortMessage(c, http.StatusInternalServerError, serverErrorMessage)
	}
}
