package handler

import (
	"context"
	"net/http"

	"bidding-engine/internal/models"
	"bidding-engine/internal/orders"
	"bidding-engine/services/bidding/helpers"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
)

type OrderServiceInterface interface {
	Checkout(ctx context.Context, req orders.CheckoutRequest) (models.Order, error)
	GetOrder(ctx context.Context, orderID string, actor models.Actor) (models.Order, error)
	ListOrders(ctx context.Context, customerID string) ([]models.Order, error)
	Cancel(ctx context.Context, orderID string, actor models.Actor) (models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error)
	Stats(ctx context.Context) (orders.Stats, error)
}

type OrderHandler struct {
	service OrderServiceInterface
}

func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

// CheckoutHandler handles POST /orders/
func (h *OrderHandler) CheckoutHandler(c *gin.Context) {
	var req helpers.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CheckoutHandler", err)
		return
	}
	actor := helpers.ActorFrom(c)

	o, err := h.service.Checkout(c.Request.Context(), req.ToService(actor.UserID, c.GetHeader("Idempotency-Key")))
	if err != nil {
		helpers.RespondError(c, "CheckoutHandler", "checkout failed", err, map[string]any{"customer_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, o, "order created successfully")
	helpers.LogSuccess("CheckoutHandler", "order created successfully", map[string]any{
		"order_id":    o.ID,
		"customer_id": o.CustomerID,
		"total":       o.TotalAmount.String(),
	})
}

// ListOrdersHandler handles GET /orders/
func (h *OrderHandler) ListOrdersHandler(c *gin.Context) {
	actor := helpers.ActorFrom(c)
	list, err := h.service.ListOrders(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondError(c, "ListOrdersHandler", "error retrieving orders", err, map[string]any{"customer_id": actor.UserID})
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	utils.JSONResponse(c, http.StatusOK, list, "orders retrieved successfully")
}

// GetOrderHandler handles GET /orders/:id/
func (h *OrderHandler) GetOrderHandler(c *gin.Context) {
	orderID := c.Param("id")
	o, err := h.service.GetOrder(c.Request.Context(), orderID, helpers.ActorFrom(c))
	if err != nil {
		helpers.RespondError(c, "GetOrderHandler", "error retrieving order", err, map[string]any{"order_id": orderID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, o, "order retrieved successfully")
}

// CancelOrderHandler handles POST /orders/:id/cancel/
func (h *OrderHandler) CancelOrderHandler(c *gin.Context) {
	orderID := c.Param("id")
	actor := helpers.ActorFrom(c)
	o, err := h.service.Cancel(c.Request.Context(), orderID, actor)
	if err != nil {
		helpers.RespondError(c, "CancelOrderHandler", "failed to cancel order", err, map[string]any{"order_id": orderID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, o, "order cancelled successfully")
	helpers.LogSuccess("CancelOrderHandler", "order cancelled successfully", map[string]any{
		"order_id": orderID,
		"by":       actor.UserID,
	})
}

// UpdateOrderStatusHandler handles PATCH /orders/:id/status/
func (h *OrderHandler) UpdateOrderStatusHandler(c *gin.Context) {
	orderID := c.Param("id")
	var req helpers.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateOrderStatusHandler", err)
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), orderID, models.OrderStatus(req.Status))
	if err != nil {
		helpers.RespondError(c, "UpdateOrderStatusHandler", "failed to update order status", err, map[string]any{
			"order_id": orderID,
			"status":   req.Status,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, o, "order status updated successfully")
	helpers.LogSuccess("UpdateOrderStatusHandler", "order status updated successfully", map[string]any{
		"order_id": orderID,
		"status":   string(o.Status),
	})
}

// OrderStatsHandler handles GET /admin/orders/stats/
func (h *OrderHandler) OrderStatsHandler(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "OrderStatsHandler", "error computing order stats", err, nil)
		return
	}
	utils.JSONResponse(c, http.StatusOK, st, "order stats retrieved successfully")
}
