package repository

import (
	"context"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"

	"gorm.io/gorm"
)

type accountGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewAccountGormRepository(db *gorm.DB) repo.AccountRepository {
	return &accountGormRepository{db: db}
}

// アカウントを新規作成
func (r *accountGormRepository) Create(ctx context.Context, account *model.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// usernameで1件取得（大文字小文字は区別する）
func (r *accountGormRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	var a model.Account

	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&a).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *accountGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Account{}).Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// 同時に走る登録同士だけを直列化する。読み取りは止めない
func (r *accountGormRepository) LockForRegistration(ctx context.Context) error {
	return translateError(r.db.WithContext(ctx).Exec("LOCK TABLE accounts IN SHARE ROW EXCLUSIVE MODE").Error)
}
