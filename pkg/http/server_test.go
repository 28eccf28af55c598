package http

import (
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	applogger "CoinSense/pkg/logger"
)

type routeFunc func(e *echo.Echo)

func (f routeFunc) RegisterRoutes(e *echo.Echo) { f(e) }

func TestServerHealthz(t *testing.T) {
	s := NewServer(applogger.NewNop(), nil)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServerAppErrorStatus(t *testing.T) {
	h := routeFunc(func(e *echo.Echo) {
		e.GET("/boom", func(c echo.Context) error {
			return AppErrorResponse(c, TooManyRequestsError("slow down").WithError(errors.New("limit")))
		})
		e.GET("/panic", func(c echo.Context) error {
			panic("unexpected")
		})
	})
	s := NewServer(applogger.NewNop(), []Handler{h})

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/boom", nil))
	assert.Equal(t, nethttp.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/panic", nil))
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
}
