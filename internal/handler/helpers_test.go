package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sweetshop/internal/domain/model"
	"sweetshop/internal/infra/memory"
	"sweetshop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// 認証なしで在庫APIだけを載せたecho
func newSweetEcho(t *testing.T) (*echo.Echo, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(e)
	NewSweetHandler(usecase.NewSweetUsecase(store.Sweets(), store, nil)).
		RegisterRoutes(e.Group("/api"), passthrough)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeSweet(t *testing.T, rec *httptest.ResponseRecorder) model.Sweet {
	t.Helper()
	var s model.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s), rec.Body.String())
	return s
}

func decodeSweets(t *testing.T, rec *httptest.ResponseRecorder) []model.Sweet {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out []model.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createSweet(t *testing.T, e *echo.Echo, body string) model.Sweet {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/sweets", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeSweet(t, rec)
}
