package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sweetshop/internal/domain/model"
	"sweetshop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// トークンをアカウントに解決する約束
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (model.Identity, error)
}

// 拒否理由の記録先（メトリクス）
type RejectionRecorder interface {
	RecordAuthRejection(reason string)
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// bearerAuth用のミドルウェア。
// 成功したら model.Identity を echo.Context とリクエストの context に入れる
func AuthBearer(authn Authenticator, rec RejectionRecorder, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))

			id, err := authn.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, usecase.ErrUnauthorized) {
					reject(c, rec, log, err.Error())
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer`)
					return c.JSON(http.StatusUnauthorized, errorJSON(err.Error()))
				}
				log.WithError(err).Error("resolve account")
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			//contextへ保存
			c.Set(CtxIdentityKey, id)
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))

			return next(c)
		}
	}
}

// "Bearer <token>" からtokenを抜く。形式が違えば空文字
func bearerToken(authz string) string {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func reject(c echo.Context, rec RejectionRecorder, log logrus.FieldLogger, reason string) {
	if rec != nil {
		rec.RecordAuthRejection(reason)
	}
	log.WithFields(logrus.Fields{
		"reason": reason,
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Info("request rejected")
}
