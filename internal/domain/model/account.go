package model

import "time"

// アカウント。管理者フラグは登録時に一度だけ決まり、以後変わらない。
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsAdmin      bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// リクエストごとに解決される認証済みユーザー。
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (a Account) Identity() Identity {
	return Identity{
		ID:       a.ID,
		Username: a.Username,
		IsAdmin:  a.IsAdmin,
	}
}
