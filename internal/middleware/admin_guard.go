package middleware

import (
	"net/http"

	auth "sweetshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AuthBearerの後ろに置く。管理者でなければ403
func AdminGuard(rec RejectionRecorder, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON(auth.ErrMissingCredential.Error()))
			}

			//USERは拒否、ADMINだけ許可
			if err := auth.RequireAdmin(id); err != nil {
				reject(c, rec, log, err.Error())
				return c.JSON(http.StatusForbidden, errorJSON(err.Error()))
			}

			return next(c)
		}
	}
}
