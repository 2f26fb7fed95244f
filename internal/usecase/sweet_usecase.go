package usecase

import (
	"context"
	"errors"
	"strings"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"
	"sweetshop/internal/validator"
)

const (
	StockPurchase = "purchase"
	StockRestock  = "restock"
)

// 在庫の増減を外に知らせる（メトリクス用）
type StockRecorder interface {
	RecordStockMovement(kind string, qty int64)
}

type noopStockRecorder struct{}

func (noopStockRecorder) RecordStockMovement(string, int64) {}

type SweetUsecase struct {
	sweets repo.SweetRepository
	tx     repo.TransactionManager
	stock  StockRecorder
}

// DI
func NewSweetUsecase(sweets repo.SweetRepository, tx repo.TransactionManager, stock StockRecorder) *SweetUsecase {
	if stock == nil {
		stock = noopStockRecorder{}
	}
	return &SweetUsecase{
		sweets: sweets,
		tx:     tx,
		stock:  stock,
	}
}

type CreateSweetInput struct {
	Name     string
	Category string
	Price    float64
	Quantity int64
}

// 検索条件。価格はクエリ文字列のまま受け取る
type SearchSweetsInput struct {
	Name     string
	Category string
	MinPrice string
	MaxPrice string
}

func (u *SweetUsecase) List(ctx context.Context) ([]model.Sweet, error) {
	return u.sweets.List(ctx)
}

func (u *SweetUsecase) Create(ctx context.Context, in CreateSweetInput) (model.Sweet, error) {
	if err := validator.ValidateNewSweet(in.Name, in.Category, in.Price, in.Quantity); err != nil {
		return model.Sweet{}, &ValidationError{Message: err.Error()}
	}
	return u.sweets.Create(ctx, model.Sweet{
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		Quantity: in.Quantity,
	})
}

func (u *SweetUsecase) Search(ctx context.Context, in SearchSweetsInput) ([]model.Sweet, error) {
	min, max, err := validator.ParsePriceRange(in.MinPrice, in.MaxPrice)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return u.sweets.Search(ctx, repo.SweetSearchQuery{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		MinPrice: min,
		MaxPrice: max,
	})
}

// セットされた項目だけ更新して、更新後の値を返す。空の更新はそのまま返す
func (u *SweetUsecase) Update(ctx context.Context, id int64, patch model.SweetPatch) (model.Sweet, error) {
	if err := validator.ValidatePatch(patch); err != nil {
		return model.Sweet{}, &ValidationError{Message: err.Error()}
	}

	if patch.IsEmpty() {
		s, err := u.sweets.FindByID(ctx, id)
		return s, notFound(err, id)
	}

	var updated model.Sweet
	err := RetryOnConcurrentUpdate(ctx, func() error {
		return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			if _, err := r.Sweets().FindByIDForUpdate(ctx, id); err != nil {
				return err
			}
			if err := r.Sweets().ApplyPatch(ctx, id, patch); err != nil {
				return err
			}
			var err error
			updated, err = r.Sweets().FindByID(ctx, id)
			return err
		})
	})
	if err != nil {
		return model.Sweet{}, notFound(err, id)
	}
	return updated, nil
}

// 物理削除
func (u *SweetUsecase) Delete(ctx context.Context, id int64) error {
	return notFound(u.sweets.Delete(ctx, id), id)
}

// 在庫を減らす。足りなければ InsufficientStockError で在庫は変わらない
func (u *SweetUsecase) Purchase(ctx context.Context, id int64, qty int64) (model.Sweet, error) {
	s, err := u.adjust(ctx, id, qty, ApplyPurchase)
	if err != nil {
		return model.Sweet{}, err
	}
	u.stock.RecordStockMovement(StockPurchase, qty)
	return s, nil
}

// 在庫を増やす
func (u *SweetUsecase) Restock(ctx context.Context, id int64, qty int64) (model.Sweet, error) {
	s, err := u.adjust(ctx, id, qty, ApplyRestock)
	if err != nil {
		return model.Sweet{}, err
	}
	u.stock.RecordStockMovement(StockRestock, qty)
	return s, nil
}

// 行ロックを取ってから確認と更新を同じトランザクションで行う
func (u *SweetUsecase) adjust(ctx context.Context, id int64, qty int64, rule func(model.Sweet, int64) (model.Sweet, error)) (model.Sweet, error) {
	if err := validator.ValidateStockQuantity(qty); err != nil {
		return model.Sweet{}, &ValidationError{Message: err.Error()}
	}

	var result model.Sweet
	err := RetryOnConcurrentUpdate(ctx, func() error {
		return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			cur, err := r.Sweets().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			next, err := rule(cur, qty)
			if err != nil {
				return err
			}
			if err := r.Sweets().SetQuantity(ctx, id, next.Quantity); err != nil {
				return err
			}
			result = next
			return nil
		})
	})
	if err != nil {
		return model.Sweet{}, notFound(err, id)
	}
	return result, nil
}

// repositoryのErrNotFoundをidつきのエラーにする
func notFound(err error, id int64) error {
	if errors.Is(err, repo.ErrNotFound) {
		return &NotFoundError{Resource: "sweet", ID: id}
	}
	return err
}
