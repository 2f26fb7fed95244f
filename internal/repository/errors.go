package repository

import "errors"

var (
	// 対象の行がない
	ErrNotFound = errors.New("not found")

	// 一意制約違反
	ErrDuplicate = errors.New("duplicate")

	// 直列化失敗・デッドロック。トランザクションごとやり直せば成功し得る
	ErrConcurrentUpdate = errors.New("concurrent update")
)
