package usecase

import (
	"math"

	"sweetshop/internal/domain/model"
)

// 在庫数の遷移ルール。qtyは呼び出し前に正の値であることを確認済みとする

// 購入。在庫が足りなければ変更しない
func ApplyPurchase(s model.Sweet, qty int64) (model.Sweet, error) {
	if s.Quantity < qty {
		return s, &InsufficientStockError{ID: s.ID, Requested: qty, Available: s.Quantity}
	}
	s.Quantity -= qty
	return s, nil
}

// 入荷。上限はint64の範囲だけ
func ApplyRestock(s model.Sweet, qty int64) (model.Sweet, error) {
	if qty > math.MaxInt64-s.Quantity {
		return s, NewValidationError("quantity would overflow stock (current %d)", s.Quantity)
	}
	s.Quantity += qty
	return s, nil
}
