package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func doRequest(token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: token, Path: "/"})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireLogin(t *testing.T) {
	c, _ := doRequest(signToken(t, 42, "user"))

	called := false
	handler := RequireLogin(testSecret)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	require.True(t, called)
	require.Equal(t, uint(42), c.Get("userID"))
	require.Equal(t, "user", c.Get("role"))
}

func TestRequireLogin_BearerHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, 7, "user"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireLogin(testSecret)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	require.Equal(t, uint(7), c.Get("userID"))
}

func TestRequireLogin_MissingToken(t *testing.T) {
	c, _ := doRequest("")

	handler := RequireLogin(testSecret)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := handler(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLogin_BadSignature(t *testing.T) {
	claims := jwt.MapClaims{"sub": float64(1), "role": "user", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	c, _ := doRequest(token)
	handler := RequireLogin(testSecret)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	herr := handler(c)

	he, ok := herr.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestAdminOnly(t *testing.T) {
	c, _ := doRequest(signToken(t, 1, "admin"))

	handler := AdminOnly(testSecret)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	require.Equal(t, "admin", c.Get("role"))
}

func TestAdminOnly_Forbidden(t *testing.T) {
	c, _ := doRequest(signToken(t, 1, "user"))

	handler := AdminOnly(testSecret)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := handler(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}
