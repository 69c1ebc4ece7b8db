package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avolkhin/storefront/internal/inventory"
	"github.com/avolkhin/storefront/internal/models"
	"github.com/avolkhin/storefront/internal/mykafka"
	"github.com/avolkhin/storefront/internal/orders"
	"github.com/avolkhin/storefront/internal/transport"
	"github.com/avolkhin/storefront/internal/util"
)

type AdminHandler struct {
	DB        *gorm.DB
	Orders    *orders.Service
	Inventory *inventory.Service
	Producer  *mykafka.Producer
}

func (h *AdminHandler) publish(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(event["actorID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AdminHandler) AllOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Orders.ListAll(c.Request().Context(), offset, limit)
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

func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	actorID, err := principalID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return domainError(c, err)
	}

	h.publish(c, "order_events", map[string]any{
		"type":    "order_status_updated",
		"actorID": actorID,
		"orderID": order.ID,
		"status":  req.Status,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) BulkUpdateStock(c echo.Context) error {
	actorID, err := principalID(c)
	if err != nil {
		return err
	}

	var req transport.BulkStockRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	updates := make([]inventory.Adjustment, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, inventory.Adjustment{
			ProductID:   u.ProductID,
			NewQuantity: u.NewQuantity,
			Reason:      u.Reason,
		})
	}

	results, err := h.Inventory.BulkAdjust(c.Request().Context(), updates, &actorID)
	if err != nil {
		return domainError(c, err)
	}

	h.publish(c, "inventory_events", map[string]any{
		"type":    "stock_bulk_adjusted",
		"actorID": actorID,
		"count":   len(results),
	})

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"updated": results,
	})
}

func (h *AdminHandler) InventoryLogs(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var productID *uint
	if pid := parseIntDefault(c.QueryParam("product_id"), 0); pid > 0 {
		id := uint(pid)
		productID = &id
	}

	total, entries, err := h.Inventory.Logs(c.Request().Context(), productID, offset, limit)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": entries,
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

// Dashboard is the read contract for reporting: order counts by status,
// gross revenue over non-cancelled orders, and products running low.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	var totalOrders int64
	if err := h.DB.WithContext(ctx).Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return domainError(c, err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var byStatus []statusCount
	if err := h.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return domainError(c, err)
	}
	statuses := make(map[string]int64, len(byStatus))
	for _, sc := range byStatus {
		statuses[sc.Status] = sc.Count
	}

	var revenue float64
	if err := h.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue).Error; err != nil {
		return domainError(c, err)
	}

	threshold := parseIntDefault(c.QueryParam("low_stock"), 5)
	var lowStock []models.Product
	if err := h.DB.WithContext(ctx).
		Where("is_active = ? AND stock_quantity < ?", true, threshold).
		Order("stock_quantity ASC").Find(&lowStock).Error; err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total_orders":       totalOrders,
		"orders_by_status":   statuses,
		"gross_revenue":      revenue,
		"low_stock_products": lowStock,
	})
}
