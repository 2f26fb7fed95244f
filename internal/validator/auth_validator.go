package validator

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameLen = 150
	// bcryptは72バイトより後ろを無視する
	maxPasswordBytes = 72
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = errors.New("username must be at most 150 characters")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// 登録・ログインで共通の入力チェック。usernameは大文字小文字を区別するのでそのまま扱う
func ValidateCredentials(username string, password string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameRequired
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return ErrUsernameTooLong
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
