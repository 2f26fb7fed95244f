package middleware

import (
	"context"

	"sweetshop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

const CtxIdentityKey = "identity" // model.Identity

type identityCtxKey struct{}

// AuthBearerが保存した認証済みユーザーを取り出す
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(CtxIdentityKey).(model.Identity)
	return id, ok
}

func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// usecase側などecho.Contextがない場所から使う
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(model.Identity)
	return id, ok
}
