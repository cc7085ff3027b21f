package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/api/middleware"
	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
)

type AdminActionRequest struct {
	Reason string `json:"reason"`
}

type OrderListResponse struct {
	Orders []core.OrderView `json:"orders"`
	Total  int              `json:"total"`
}

type SweepResponse struct {
	Released []string `json:"released"`
	Count    int      `json:"count"`
}

type ListPrintLogsQuery struct {
	OrderID string `form:"orderId"`
	Action  string `form:"action"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AdminHandler serves the operator dashboard and the manual overrides.
type AdminHandler struct {
	monitor    MonitorSource
	escalation EscalationService
	leases     LeaseService
	logs       LogReader
	alerts     AlertAcknowledger
	printers   PrinterDirectory
}

func NewAdminHandler(monitor MonitorSource, escalation EscalationService, leases LeaseService,
	logs LogReader, alerts AlertAcknowledger, printers PrinterDirectory) *AdminHandler {
	return &AdminHandler{
		monitor:    monitor,
		escalation: escalation,
		leases:     leases,
		logs:       logs,
		alerts:     alerts,
		printers:   printers,
	}
}

func (h *AdminHandler) MonitorData(c *gin.Context) {
	data, err := h.monitor.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *AdminHandler) ListEscalated(c *gin.Context) {
	orders, err := h.escalation.RequiresAdmin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]core.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, h.monitor.FormatOrder(o))
	}
	c.JSON(http.StatusOK, OrderListResponse{Orders: views, Total: len(views)})
}

type adminAction func(ctx context.Context, orderID string, admin core.Actor, reason string) (*db.Order, error)

func (h *AdminHandler) runAction(c *gin.Context, action adminAction) {
	var req AdminActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			validationError(c, err)
			return
		}
	}

	order, err := action(c.Request.Context(), c.Param("id"), middleware.ActorFromContext(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(order))
}

func (h *AdminHandler) ResetOrder(c *gin.Context) {
	h.runAction(c, h.escalation.ForceReset)
}

func (h *AdminHandler) ForceComplete(c *gin.Context) {
	h.runAction(c, h.escalation.ForceComplete)
}

func (h *AdminHandler) Reprint(c *gin.Context) {
	h.runAction(c, h.escalation.Reprint)
}

func (h *AdminHandler) SweepLeases(c *gin.Context) {
	released, err := h.leases.SweepStale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if released == nil {
		released = []string{}
	}
	c.JSON(http.StatusOK, SweepResponse{Released: released, Count: len(released)})
}

func (h *AdminHandler) ListPrintLogs(c *gin.Context) {
	var q ListPrintLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		validationError(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = 100
	}

	logs, err := h.logs.ListLogs(c.Request.Context(), db.LogFilter{
		OrderID: q.OrderID,
		Action:  q.Action,
		Limit:   q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []*db.PrintLog{}
	}
	c.JSON(http.StatusOK, logs)
}

func (h *AdminHandler) AcknowledgeAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid alert ID",
		})
		return
	}

	if err := h.alerts.AcknowledgeAlert(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ListPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, h.printers.List())
}
