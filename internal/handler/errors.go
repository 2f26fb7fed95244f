package handler

import (
	"errors"
	"net/http"

	"sweetshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type insufficientStockResponse struct {
	Error     string `json:"error"`
	Available int64  `json:"available"`
}

type notFoundResponse struct {
	Error string `json:"error"`
	ID    int64  `json:"id"`
}

// usecaseのエラーをHTTPに変換する。分類できないものは500として上に返す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var ise *usecase.InsufficientStockError
	if errors.As(err, &ise) {
		return c.JSON(http.StatusBadRequest, insufficientStockResponse{Error: ise.Error(), Available: ise.Available})
	}
	var nf *usecase.NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, notFoundResponse{Error: nf.Error(), ID: nf.ID})
	}

	switch {
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, usecase.ErrConflict):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrTooManyRequests):
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrConcurrentUpdate):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	}

	//500（中身はログにだけ出す）
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// echo全体のエラーハンドラ。レスポンスを {"error": "..."} に揃える
func HTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorResponse{Error: msg})
		}
		if werr != nil {
			e.Logger.Error(werr)
		}
	}
}
