package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sweetshop/internal/domain/model"
	"sweetshop/internal/repository"
	"sweetshop/internal/usecase"
	"sweetshop/internal/validator"
)

// 競合
var ErrUsernameTaken = usecase.NewError(usecase.ErrConflict, "username already exists")

// 会員登録の入力
type RegisterUserInput struct {
	Username string
	Password string
	AdminKey string
}

// 会員登録の出力。PasswordHashは空
type RegisterUserOutput struct {
	Account     model.Account
	AccessToken string
	ExpiresAt   time.Time
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	tx     repository.TransactionManager
	hasher PasswordHasher
	tokens TokenService
	policy AdminPolicy
	clock  Clock
}

// DI
func NewRegisterUserUsecase(
	tx repository.TransactionManager,
	hasher PasswordHasher,
	tokens TokenService,
	policy AdminPolicy,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		tx:     tx,
		hasher: hasher,
		tokens: tokens,
		policy: policy,
		clock:  clock,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	if err := validator.ValidateCredentials(in.Username, in.Password); err != nil {
		return out, &usecase.ValidationError{Message: err.Error()}
	}

	// bcryptは重いのでロックの外で済ませる
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, fmt.Errorf("hash password: %w", err)
	}

	var account model.Account
	err = usecase.RetryOnConcurrentUpdate(ctx, func() error {
		return u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
			// 件数確認から作成までを他の登録と直列化する
			if err := r.Accounts().LockForRegistration(ctx); err != nil {
				return err
			}

			// username重複チェック
			existing, err := r.Accounts().FindByUsername(ctx, in.Username)
			if err == nil && existing != nil {
				return ErrUsernameTaken
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			count, err := r.Accounts().Count(ctx)
			if err != nil {
				return err
			}

			account = model.Account{
				Username:     in.Username,
				PasswordHash: hashed,
				IsAdmin:      u.policy.Decide(in.AdminKey, count),
				CreatedAt:    u.clock.Now(),
			}
			if err := r.Accounts().Create(ctx, &account); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrUsernameTaken
				}
				return err
			}
			return nil
		})
	})
	if err != nil {
		return out, err
	}

	token, exp, err := u.tokens.Issue(account.Username, account.IsAdmin)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}

	// 返すときは password を空にして漏洩防止
	account.PasswordHash = ""
	out.Account = account
	out.AccessToken = token
	out.ExpiresAt = exp
	return out, nil
}
