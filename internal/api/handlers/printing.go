package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/api/middleware"
	"github.com/orrn/printdesk/internal/core"
)

type AdmitRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

type AdmitResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	PrintStatus string `json:"printStatus"`
}

type ProcessPendingRequest struct {
	PrinterIndex int `json:"printerIndex"`
}

type PrinterStatusResponse struct {
	Printer      core.HealthStatus     `json:"printer"`
	PrinterCount int                   `json:"printerCount"`
	RetryQueue   core.RetryQueueStatus `json:"retryQueue"`
}

// PrintHandler serves the print queue endpoints used by the shop backend.
type PrintHandler struct {
	admission OrderAdmitter
	printers  PrinterProber
}

func NewPrintHandler(admission OrderAdmitter, printers PrinterProber) *PrintHandler {
	return &PrintHandler{
		admission: admission,
		printers:  printers,
	}
}

func (h *PrintHandler) AdmitOrder(c *gin.Context) {
	var req AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := h.admission.AdmitOrder(c.Request.Context(), req.OrderID, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AdmitResponse{
		Success:     true,
		OrderID:     order.ID,
		PrintStatus: order.PrintStatus,
	})
}

func (h *PrintHandler) Status(c *gin.Context) {
	index, ok := parsePrinterIndex(c, c.Query("printerIndex"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, PrinterStatusResponse{
		Printer:      h.printers.CheckHealth(c.Request.Context(), index),
		PrinterCount: len(h.printers.PrinterURLs()),
		RetryQueue:   h.printers.RetryQueueStatus(),
	})
}

// ProcessPending dispatches every queued order. The printer index may be
// given as a query parameter or in the JSON body.
func (h *PrintHandler) ProcessPending(c *gin.Context) {
	index, ok := parsePrinterIndex(c, c.Query("printerIndex"))
	if !ok {
		return
	}
	if c.Request.ContentLength > 0 {
		var req ProcessPendingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationError(c, err)
			return
		}
		if req.PrinterIndex != 0 {
			index = req.PrinterIndex
		}
	}

	report, err := h.admission.ProcessAllPending(c.Request.Context(), index)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func parsePrinterIndex(c *gin.Context, raw string) (int, bool) {
	if raw == "" {
		return 1, true
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_printer_index",
			Message: "printerIndex must be a positive integer",
		})
		return 0, false
	}
	return index, true
}
