package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avolkhin/storefront/internal/idempotency"
	"github.com/avolkhin/storefront/internal/inventory"
	"github.com/avolkhin/storefront/internal/orders"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: msg,
	})
}

// domainError maps the service error taxonomy onto HTTP responses. Unknown
// errors become an opaque 500: internal detail never reaches the client.
func domainError(c echo.Context, err error) error {
	var insufficient *inventory.InsufficientStockError

	switch {
	case errors.As(err, &insufficient),
		errors.Is(err, orders.ErrValidation),
		errors.Is(err, inventory.ErrValidation),
		errors.Is(err, orders.ErrProductsUnavailable):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		return errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrForbidden):
		return errorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, orders.ErrOrderNotEditable),
		errors.Is(err, orders.ErrAlreadyCancelled),
		errors.Is(err, orders.ErrCancellationWindowExpired),
		errors.Is(err, idempotency.ErrDuplicateRequest),
		errors.Is(err, inventory.ErrStockConflict):
		return errorResponse(c, http.StatusConflict, err.Error())
	}
	c.Logger().Errorf("internal error: %v", err)
	return errorResponse(c, http.StatusInternalServerError, "internal error")
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func principalID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	return id, nil
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
