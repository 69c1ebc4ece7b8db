package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avolkhin/storefront/internal/idempotency"
	"github.com/avolkhin/storefront/internal/mykafka"
	"github.com/avolkhin/storefront/internal/orders"
	"github.com/avolkhin/storefront/internal/transport"
	"github.com/avolkhin/storefront/internal/util"
)

type OrderHandler struct {
	Orders   *orders.Service
	Producer *mykafka.Producer
	Guard    *idempotency.Guard
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := principalID(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	key := c.Request().Header.Get("Idempotency-Key")
	if err := h.Guard.Check(c.Request().Context(), userID, key); err != nil {
		return domainError(c, err)
	}

	order, err := h.Orders.Create(c.Request().Context(), req, userID)
	if err != nil {
		// Do not burn the client's key on a failed checkout.
		h.Guard.Release(c.Request().Context(), userID, key)
		return domainError(c, err)
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       order.TotalAmount,
	})

	return c.JSON(http.StatusCreated, transport.OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
	})
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := principalID(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Orders.ListByUser(c.Request().Context(), userID, offset, limit)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := principalID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	order, err := h.Orders.Get(c.Request().Context(), id, userID, false)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := principalID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	order, err := h.Orders.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return domainError(c, err)
	}

	h.publish(c, map[string]any{
		"type":        "order_cancelled",
		"userID":      userID,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	userID, err := principalID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Orders.Update(c.Request().Context(), id, userID, req)
	if err != nil {
		return domainError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_updated",
		"userID":  userID,
		"orderID": order.ID,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	userID, err := principalID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.Orders.Delete(c.Request().Context(), id, userID); err != nil {
		return domainError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"userID":  userID,
		"orderID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
