package server

import (
	"sweetshop/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	d.Info.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	api := e.Group("/api")
	d.Auth.RegisterRoutes(api)

	//ここから下はBearer必須
	authed := api.Group("", middleware.AuthBearer(d.Authn, d.Metrics, d.Log))
	d.Sweets.RegisterRoutes(authed, middleware.AdminGuard(d.Metrics, d.Log))
}
