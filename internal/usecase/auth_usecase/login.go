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

	"github.com/sirupsen/logrus"
)

var (
	// usernameまたはパスワードが違う（どちらかは教えない）
	ErrInvalidCredentials = usecase.NewError(usecase.ErrUnauthorized, "incorrect username or password")

	// 失敗が続いたので一時的に拒否
	ErrTooManyAttempts = usecase.NewError(usecase.ErrTooManyRequests, "too many failed login attempts, try again later")
)

// ログイン失敗回数の管理
type LoginThrottle interface {
	Allowed(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// Redisがないときの何もしない実装
type NoLoginThrottle struct{}

func (NoLoginThrottle) Allowed(context.Context, string) (bool, error) { return true, nil }
func (NoLoginThrottle) RecordFailure(context.Context, string) error   { return nil }
func (NoLoginThrottle) Reset(context.Context, string) error           { return nil }

// handlerからusecaseに渡す入力
type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	Account     model.Account
	AccessToken string
	ExpiresAt   time.Time
}

type LoginUsecase struct {
	accounts  repository.AccountRepository
	hasher    PasswordHasher
	tokens    TokenService
	throttle  LoginThrottle
	log       logrus.FieldLogger
	dummyHash string
}

func NewLoginUsecase(
	accounts repository.AccountRepository,
	hasher PasswordHasher,
	tokens TokenService,
	throttle LoginThrottle,
	log logrus.FieldLogger,
) (*LoginUsecase, error) {
	// 存在しないユーザーでも同じだけ時間をかけるための比較対象
	dummy, err := hasher.Hash("sweetshop-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	if throttle == nil {
		throttle = NoLoginThrottle{}
	}
	return &LoginUsecase{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		throttle:  throttle,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	if err := validator.ValidateCredentials(in.Username, in.Password); err != nil {
		return out, &usecase.ValidationError{Message: err.Error()}
	}

	// Redisが落ちていてもログインは止めない
	allowed, err := u.throttle.Allowed(ctx, in.Username)
	if err != nil {
		u.log.WithError(err).Warn("login throttle unavailable")
		allowed = true
	}
	if !allowed {
		return out, ErrTooManyAttempts
	}

	account, err := u.accounts.FindByUsername(ctx, in.Username)
	if errors.Is(err, repository.ErrNotFound) {
		_, _ = u.hasher.Verify(in.Password, u.dummyHash)
		u.recordFailure(ctx, in.Username)
		return out, ErrInvalidCredentials
	}
	if err != nil {
		return out, err
	}

	//パスワード照合
	ok, err := u.hasher.Verify(in.Password, account.PasswordHash)
	if err != nil {
		return out, fmt.Errorf("verify password of %q: %w", account.Username, err)
	}
	if !ok {
		u.recordFailure(ctx, in.Username)
		return out, ErrInvalidCredentials
	}

	if err := u.throttle.Reset(ctx, in.Username); err != nil {
		u.log.WithError(err).Warn("reset login throttle")
	}

	token, exp, err := u.tokens.Issue(account.Username, account.IsAdmin)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}

	safe := *account
	safe.PasswordHash = ""
	out.Account = safe
	out.AccessToken = token
	out.ExpiresAt = exp
	return out, nil
}

func (u *LoginUsecase) recordFailure(ctx context.Context, username string) {
	if err := u.throttle.RecordFailure(ctx, username); err != nil {
		u.log.WithError(err).Warn("record login failure")
	}
}
