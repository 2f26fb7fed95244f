package usecase

import (
	"context"
	"errors"
	"time"

	repo "sweetshop/internal/repository"
)

// 直列化失敗・デッドロック時にトランザクションをやり直す回数
const MaxTxAttempts = 3

// fnを最大 MaxTxAttempts 回実行する。やり直すのは ErrConcurrentUpdate のときだけ
func RetryOnConcurrentUpdate(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= MaxTxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, repo.ErrConcurrentUpdate) {
			return err
		}
		if attempt == MaxTxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	return NewError(ErrConcurrentUpdate, "concurrent update, retry")
}
