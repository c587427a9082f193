package handler

import (
	"errors"
	"net/http"

	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps the workflow error taxonomy to stable HTTP codes
// so callers can distinguish an out-of-sequence or already-decided step
// from a genuine authorization failure.
func writeServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrOutOfSequence),
		errors.Is(err, service.ErrAlreadyDecided),
		errors.Is(err, service.ErrNotResubmittable):
		status = http.StatusConflict
	case errors.Is(err, service.ErrEmptyChain),
		errors.Is(err, service.ErrInvalidTemplate),
		errors.Is(err, service.ErrDuplicateApprover),
		errors.Is(err, service.ErrInvalidDecision):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, response.Error(status, err.Error()))
}
