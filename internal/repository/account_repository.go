package repository

import (
	"context"

	"sweetshop/internal/domain/model"
)

// アカウントの保存・取得を約束
type AccountRepository interface {
	//新規作成。username重複はErrDuplicate
	Create(ctx context.Context, account *model.Account) error

	//usernameで1件取得。なければErrNotFound
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	//登録済みアカウント数
	Count(ctx context.Context) (int64, error)

	//登録処理（件数確認→作成）を直列化するロック。トランザクション内でのみ使う
	LockForRegistration(ctx context.Context) error
}
