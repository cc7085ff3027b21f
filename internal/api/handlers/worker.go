package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/core"
)

type ClaimRequest struct {
	WorkerID    string `json:"workerId" binding:"required"`
	PrinterName string `json:"printerName"`
}

type WorkerRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
}

type FailRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
	Error    string `json:"error"`
}

// WorkerHandler serves the print workers that pick up and run orders.
type WorkerHandler struct {
	leases   LeaseService
	printers PrinterDirectory
	monitor  MonitorSource
}

func NewWorkerHandler(leases LeaseService, printers PrinterDirectory, monitor MonitorSource) *WorkerHandler {
	return &WorkerHandler{
		leases:   leases,
		printers: printers,
		monitor:  monitor,
	}
}

func (h *WorkerHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := h.leases.Claim(c.Request.Context(), c.Param("id"), req.WorkerID, req.PrinterName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(order))
}

func (h *WorkerHandler) Heartbeat(c *gin.Context) {
	var req WorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := h.leases.Heartbeat(c.Request.Context(), c.Param("id"), req.WorkerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(order))
}

func (h *WorkerHandler) Complete(c *gin.Context) {
	var req WorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := h.leases.Complete(c.Request.Context(), c.Param("id"), req.WorkerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(order))
}

func (h *WorkerHandler) Fail(c *gin.Context) {
	var req FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Error == "" {
		req.Error = "print failed"
	}

	order, err := h.leases.Fail(c.Request.Context(), c.Param("id"), req.WorkerID, req.Error)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(order))
}

func (h *WorkerHandler) PrinterHeartbeat(c *gin.Context) {
	var in core.HeartbeatInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationError(c, err)
		return
	}

	printer, err := h.printers.RecordHeartbeat(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, printer)
}
