package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avolkhin/storefront/internal/handlers"
	"github.com/avolkhin/storefront/internal/middleware/auth"
)

type Deps struct {
	DB           *gorm.DB
	OrderHandler *handlers.OrderHandler
	AdminHandler *handlers.AdminHandler
	JWTSecret    []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	ordersAdmin := v1.Group("/orders/admin", auth.AdminOnly(d.JWTSecret))
	ordersAdmin.GET("/all", d.AdminHandler.AllOrders)
	ordersAdmin.PUT("/:id/status", d.AdminHandler.UpdateStatus)

	orders := v1.Group("/orders", auth.RequireLogin(d.JWTSecret))
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/my-orders", d.OrderHandler.MyOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/cancel", d.OrderHandler.CancelOrder)
	orders.PUT("/:id", d.OrderHandler.UpdateOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	admin := v1.Group("/admin", auth.AdminOnly(d.JWTSecret))
	admin.POST("/inventory/bulk-update", d.AdminHandler.BulkUpdateStock)
	admin.GET("/inventory/logs", d.AdminHandler.InventoryLogs)
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
}
