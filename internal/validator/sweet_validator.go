package validator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"sweetshop/internal/domain/model"
)

const (
	maxNameLen     = 255
	maxCategoryLen = 100
	// numeric(12,2)
	maxPrice = 9999999999.99
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrCategoryRequired  = errors.New("category is required")
	ErrInvalidPrice      = errors.New("price must be a number between 0 and 9999999999.99")
	ErrPricePrecision    = errors.New("price must have at most 2 decimal places")
	ErrNegativeQuantity  = errors.New("quantity must be >= 0")
	ErrNonPositiveAmount = errors.New("quantity must be a positive integer")
)

// 新規作成の入力チェック
func ValidateNewSweet(name, category string, price float64, quantity int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// 部分更新はセットされた項目だけ確認する
func ValidatePatch(p model.SweetPatch) error {
	if v, ok := p.Name.Get(); ok {
		if err := validateName(v); err != nil {
			return err
		}
	}
	if v, ok := p.Category.Get(); ok {
		if err := validateCategory(v); err != nil {
			return err
		}
	}
	if v, ok := p.Price.Get(); ok {
		if err := validatePrice(v); err != nil {
			return err
		}
	}
	if v, ok := p.Quantity.Get(); ok && v < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// 購入・入荷の数量
func ValidateStockQuantity(qty int64) error {
	if qty <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}

// 検索の価格帯。空文字は指定なし。min > max は空の結果になるだけなのでエラーにしない
func ParsePriceRange(minRaw, maxRaw string) (*float64, *float64, error) {
	min, err := parseOptionalPrice("min_price", minRaw)
	if err != nil {
		return nil, nil, err
	}
	max, err := parseOptionalPrice("max_price", maxRaw)
	if err != nil {
		return nil, nil, err
	}
	return min, max, nil
}

func parseOptionalPrice(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s must be a number", field)
	}
	return &v, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("name must be at most %d characters", maxNameLen)
	}
	return nil
}

func validateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return ErrCategoryRequired
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return fmt.Errorf("category must be at most %d characters", maxCategoryLen)
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || price < 0 || price > maxPrice {
		return ErrInvalidPrice
	}
	// 保存時に丸められるので、3桁目以降がある値は受け付けない
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		return ErrPricePrecision
	}
	return nil
}
