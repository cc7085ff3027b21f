package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/archive"
	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{core.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{core.ErrPrinterNotFound, http.StatusNotFound, "printer_not_found"},
	{archive.ErrArchiveNotFound, http.StatusNotFound, "archive_not_found"},
	{db.ErrNotFound, http.StatusNotFound, "not_found"},
	{core.ErrInvalidInput, http.StatusBadRequest, "validation_error"},
	{core.ErrPaymentIncomplete, http.StatusUnprocessableEntity, "payment_incomplete"},
	{core.ErrNoFile, http.StatusUnprocessableEntity, "no_file"},
	{core.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{core.ErrLeaseHeld, http.StatusConflict, "lease_held"},
	{core.ErrLeaseNotHeld, http.StatusConflict, "lease_not_held"},
	{core.ErrRequiresAdmin, http.StatusConflict, "requires_admin"},
	{core.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{core.ErrNoPrinterConfigured, http.StatusServiceUnavailable, "no_printer_configured"},
}

// respondError maps core errors to a status code. Anything unknown is logged
// and reported as a 500 without details.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: m.code, Message: err.Error()})
			return
		}
	}

	log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Internal server error",
	})
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
