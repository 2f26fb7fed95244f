package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const Version = "1.0.0"

// DB疎通確認。memoryストアのときはnil
type Pinger interface {
	PingContext(ctx context.Context) error
}

type InfoHandler struct {
	db  Pinger
	log logrus.FieldLogger
}

func NewInfoHandler(db Pinger, log logrus.FieldLogger) *InfoHandler {
	return &InfoHandler{db: db, log: log}
}

func (h *InfoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/api", h.Index)
	e.GET("/healthz", h.Health)
}

func (h *InfoHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Sweet Shop Management System API",
		"version": Version,
		"api":     "/api",
	})
}

// エンドポイント一覧
func (h *InfoHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"auth": map[string]string{
			"register": "POST /api/auth/register",
			"login":    "POST /api/auth/login",
		},
		"sweets": map[string]string{
			"list":     "GET /api/sweets",
			"create":   "POST /api/sweets",
			"search":   "GET /api/sweets/search",
			"update":   "PUT /api/sweets/{id}",
			"delete":   "DELETE /api/sweets/{id} (admin)",
			"purchase": "POST /api/sweets/{id}/purchase",
			"restock":  "POST /api/sweets/{id}/restock (admin)",
		},
	})
}

func (h *InfoHandler) Health(c echo.Context) error {
	if h.db == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "memory"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.log.WithError(err).Warn("health check: database unreachable")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
