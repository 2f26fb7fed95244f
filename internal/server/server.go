package server

import (
	"sweetshop/internal/handler"
	"sweetshop/internal/middleware"
	"sweetshop/internal/observability"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// サーバー組み立てに必要な部品
type Deps struct {
	Log          logrus.FieldLogger
	Metrics      *observability.Metrics
	Authn        middleware.Authenticator
	AllowOrigins []string

	Info   *handler.InfoHandler
	Auth   *handler.AuthHandler
	Sweets *handler.SweetHandler
}

// New はミドルウェアとルートを設定した echo を返す
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(e)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.Metrics(d.Metrics))

	RegisterRoutes(e, d)
	return e
}
