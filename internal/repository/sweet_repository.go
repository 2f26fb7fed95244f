package repository

import (
	"context"

	"sweetshop/internal/domain/model"
)

// 検索条件。空文字・nilは条件なし
type SweetSearchQuery struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// 在庫テーブルの永続化だけを約束
type SweetRepository interface {
	List(ctx context.Context) ([]model.Sweet, error)
	Search(ctx context.Context, q SweetSearchQuery) ([]model.Sweet, error)
	FindByID(ctx context.Context, id int64) (model.Sweet, error)

	//行ロック付きで取得。トランザクション内でのみ意味がある
	FindByIDForUpdate(ctx context.Context, id int64) (model.Sweet, error)

	Create(ctx context.Context, s model.Sweet) (model.Sweet, error)
	ApplyPatch(ctx context.Context, id int64, patch model.SweetPatch) error
	SetQuantity(ctx context.Context, id int64, quantity int64) error
	Delete(ctx context.Context, id int64) error
}
