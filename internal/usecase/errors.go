package usecase

import (
	"errors"
	"fmt"

	repo "sweetshop/internal/repository"
)

// 失敗の分類。handlerはこれを見てステータスを決める
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrTooManyRequests   = errors.New("too many requests")

	// リトライしても直列化に失敗し続けた
	ErrConcurrentUpdate = repo.ErrConcurrentUpdate
)

// 入力の不備
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// 在庫アイテムが存在しない
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// 購入数が在庫を超えた。在庫は変わっていない
type InsufficientStockError struct {
	ID        int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// 分類付きのエラー。Error()はメッセージだけを返し、errors.Isで分類に一致する
type classifiedError struct {
	class error
	msg   string
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Unwrap() error { return e.class }

func NewError(class error, msg string) error {
	return &classifiedError{class: class, msg: msg}
}
