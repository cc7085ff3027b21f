package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/db"
)

// PutOrderRequest carries the shop-owned part of an order. Print state is
// never accepted from the shop.
type PutOrderRequest struct {
	OrderNumber      string             `json:"orderNumber" binding:"required"`
	PaymentStatus    string             `json:"paymentStatus" binding:"required,oneof=pending completed failed refunded"`
	FileURL          string             `json:"fileURL" binding:"omitempty,url"`
	FileURLs         []string           `json:"fileURLs" binding:"omitempty,dive,url"`
	PrintingOptions  db.PrintingOptions `json:"printingOptions"`
	PrintSegments    []db.PrintSegment  `json:"printSegments"`
	MaxPrintAttempts int                `json:"maxPrintAttempts" binding:"omitempty,min=1,max=20"`
}

type OrderHandler struct {
	orders  OrderRepository
	monitor MonitorSource
}

func NewOrderHandler(orders OrderRepository, monitor MonitorSource) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		monitor: monitor,
	}
}

func (h *OrderHandler) PutOrder(c *gin.Context) {
	var req PutOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	id := c.Param("id")
	order := &db.Order{
		ID:               id,
		OrderNumber:      req.OrderNumber,
		PaymentStatus:    req.PaymentStatus,
		FileURL:          req.FileURL,
		FileURLs:         req.FileURLs,
		PrintingOptions:  req.PrintingOptions,
		PrintSegments:    req.PrintSegments,
		MaxPrintAttempts: req.MaxPrintAttempts,
	}
	if err := h.orders.UpsertOrder(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}

	stored, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(stored))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "order_not_found",
				Message: "Order not found",
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.monitor.FormatOrder(order))
}
