package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// The authentication service is an external collaborator: it issues the
// access token and this middleware only verifies it and attaches the
// principal. No credential handling happens here.

func RequireLogin(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseToken(c, jwtSecret)
			if err != nil {
				return err
			}
			if err := setUserContext(c, claims); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func AdminOnly(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseToken(c, jwtSecret)
			if err != nil {
				return err
			}
			if err := setUserContext(c, claims); err != nil {
				return err
			}
			if role, _ := c.Get("role").(string); role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		}
	}
}

func parseToken(c echo.Context, jwtSecret []byte) (jwt.MapClaims, error) {
	tokenString := ""
	if cookie, err := c.Cookie("accessToken"); err == nil {
		tokenString = cookie.Value
	}
	if tokenString == "" {
		if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if tokenString == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token: "+err.Error())
	}
	if !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func setUserContext(c echo.Context, claims jwt.MapClaims) error {
	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
	}
	role, _ := claims["role"].(string)

	c.Set("userID", uint(subRaw))
	c.Set("role", role)
	return nil
}
