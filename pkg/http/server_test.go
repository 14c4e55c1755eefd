package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	e.GET("/bad", func(c echo.Context) error {
		return BadRequestErrorf("ticker %q has no data", "ZZZ")
	})
	e.GET("/plain", func(c echo.Context) error { return errors.New("db down") })
	e.GET("/validate", func(c echo.Context) error {
		var req struct {
			Ticker  string `query:"ticker" validate:"required"`
			Horizon int    `query:"horizon" default:"30" validate:"gte=1,lte=365"`
		}
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		return SuccessResponse(c, req.Horizon)
	})
}

func serve(t *testing.T, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	s := NewServer(routes{}, WithMetrics(false, ""))
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestServerHealthz(t *testing.T) {
	rec, body := serve(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, body.Status)
}

func TestServerErrorEnvelope(t *testing.T) {
	cases := []struct {
		target string
		code   int
	}{
		{"/missing", http.StatusNotFound},
		{"/bad", http.StatusBadRequest},
		{"/plain", http.StatusInternalServerError},
		{"/boom", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec, body := serve(t, tc.target)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.code, body.Status)
		})
	}
}

func TestReadAndValidateRequest(t *testing.T) {
	rec, body := serve(t, "/validate?ticker=AAPL")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, body.Data)

	rec, body = serve(t, "/validate?horizon=900")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs, ok := body.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 2)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "ERR_REQUIRED", first["code"])
	assert.Equal(t, "ticker", first["field"])
}
