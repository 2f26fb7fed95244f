package repository

import (
	"context"

	repo "sweetshop/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	accounts repo.AccountRepository
	sweets   repo.SweetRepository
}

func (r *txReposGorm) Accounts() repo.AccountRepository { return r.accounts }
func (r *txReposGorm) Sweets() repo.SweetRepository     { return r.sweets }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			accounts: NewAccountGormRepository(tx),
			sweets:   NewSweetGormRepository(tx),
		}
		return fn(r)
	})
	// commit時の直列化失敗もここで拾う
	return translateError(err)
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)
