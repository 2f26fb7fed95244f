package auth

import (
	"context"
	"errors"

	"sweetshop/internal/domain/model"
	"sweetshop/internal/repository"
	"sweetshop/internal/usecase"
)

var (
	ErrMissingCredential = usecase.NewError(usecase.ErrUnauthorized, "missing credential")
	ErrAccountGone       = usecase.NewError(usecase.ErrUnauthorized, "account no longer exists")
	ErrAdminRequired     = usecase.NewError(usecase.ErrForbidden, "admin privilege required")
)

// リクエストのトークンをアカウントに解決する
type Authenticator struct {
	tokens   TokenService
	accounts repository.AccountRepository
}

func NewAuthenticator(tokens TokenService, accounts repository.AccountRepository) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts}
}

// 管理者フラグはトークンではなく保存済みのアカウントから取る
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (model.Identity, error) {
	if rawToken == "" {
		return model.Identity{}, ErrMissingCredential
	}

	claims, err := a.tokens.Verify(rawToken)
	if err != nil {
		return model.Identity{}, ErrInvalidToken
	}

	account, err := a.accounts.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Identity{}, ErrAccountGone
	}
	if err != nil {
		return model.Identity{}, err
	}
	return account.Identity(), nil
}

// 管理者専用の操作の前に呼ぶ
func RequireAdmin(id model.Identity) error {
	if !id.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}
