package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Accounts() AccountRepository
	Sweets() SweetRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返せばrollbackし、そのエラーをそのまま返す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
