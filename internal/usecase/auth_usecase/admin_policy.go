package auth

import "crypto/subtle"

// 登録時に管理者にするかを決める。
// 最初のアカウント、または合言葉が一致したときだけ管理者。合言葉が未設定なら後者は常に不成立
type AdminPolicy struct {
	secret string
}

func NewAdminPolicy(secret string) AdminPolicy {
	return AdminPolicy{secret: secret}
}

func (p AdminPolicy) Enabled() bool { return p.secret != "" }

func (p AdminPolicy) Decide(claim string, accountCount int64) bool {
	if accountCount == 0 {
		return true
	}
	if p.secret == "" || claim == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(claim), []byte(p.secret)) == 1
}
