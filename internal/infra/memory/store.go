// Package memory はDBなしで動かすためのストア。
// プロセス内のmapに保存し、再起動で消える。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"
)

type data struct {
	accounts      map[string]model.Account // key: username
	sweets        map[int64]model.Sweet
	nextAccountID int64
	nextSweetID   int64
}

func (d *data) clone() *data {
	c := &data{
		accounts:      make(map[string]model.Account, len(d.accounts)),
		sweets:        make(map[int64]model.Sweet, len(d.sweets)),
		nextAccountID: d.nextAccountID,
		nextSweetID:   d.nextSweetID,
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.sweets {
		c.sweets[k] = v
	}
	return c
}

// Storeは全操作を1本のロックで直列化する。
// WithinTxの中はロックを持ったまま動き、エラーなら開始時点の状態に戻す。
type Store struct {
	mu  sync.Mutex
	d   *data
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		d: &data{
			accounts: map[string]model.Account{},
			sweets:   map[int64]model.Sweet{},
		},
		now: time.Now,
	}
}

func (s *Store) Accounts() repo.AccountRepository { return &accountRepository{s: s} }
func (s *Store) Sweets() repo.SweetRepository     { return &sweetRepository{s: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(s.views()); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// 単発の操作。途中で失敗しても状態を変えないので巻き戻しは不要
func (s *Store) autoTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.views())
}

func (s *Store) views() *txViews {
	return &txViews{
		accounts: &accountView{d: s.d, now: s.now},
		sweets:   &sweetView{d: s.d, now: s.now},
	}
}

type txViews struct {
	accounts *accountView
	sweets   *sweetView
}

func (v *txViews) Accounts() repo.AccountRepository { return v.accounts }
func (v *txViews) Sweets() repo.SweetRepository     { return v.sweets }

// ---- accounts ----

type accountView struct {
	d   *data
	now func() time.Time
}

func (v *accountView) Create(ctx context.Context, account *model.Account) error {
	if _, ok := v.d.accounts[account.Username]; ok {
		return repo.ErrDuplicate
	}
	v.d.nextAccountID++
	account.ID = v.d.nextAccountID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = v.now()
	}
	v.d.accounts[account.Username] = *account
	return nil
}

func (v *accountView) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	a, ok := v.d.accounts[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (v *accountView) Count(ctx context.Context) (int64, error) {
	return int64(len(v.d.accounts)), nil
}

// Storeのロックで足りる
func (v *accountView) LockForRegistration(ctx context.Context) error {
	return nil
}

type accountRepository struct {
	s *Store
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		return tx.Accounts().Create(ctx, account)
	})
}

func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	var out *model.Account
	err := r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		a, err := tx.Accounts().FindByUsername(ctx, username)
		out = a
		return err
	})
	return out, err
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		var err error
		n, err = tx.Accounts().Count(ctx)
		return err
	})
	return n, err
}

func (r *accountRepository) LockForRegistration(ctx context.Context) error {
	return nil
}

// ---- sweets ----

type sweetView struct {
	d   *data
	now func() time.Time
}

func (v *sweetView) sorted(keep func(model.Sweet) bool) []model.Sweet {
	out := []model.Sweet{}
	for _, s := range v.d.sweets {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *sweetView) List(ctx context.Context) ([]model.Sweet, error) {
	return v.sorted(func(model.Sweet) bool { return true }), nil
}

func (v *sweetView) Search(ctx context.Context, q repo.SweetSearchQuery) ([]model.Sweet, error) {
	name := strings.ToLower(q.Name)
	return v.sorted(func(s model.Sweet) bool {
		if name != "" && !strings.Contains(strings.ToLower(s.Name), name) {
			return false
		}
		if q.Category != "" && s.Category != q.Category {
			return false
		}
		if q.MinPrice != nil && s.Price < *q.MinPrice {
			return false
		}
		if q.MaxPrice != nil && s.Price > *q.MaxPrice {
			return false
		}
		return true
	}), nil
}

func (v *sweetView) FindByID(ctx context.Context, id int64) (model.Sweet, error) {
	s, ok := v.d.sweets[id]
	if !ok {
		return model.Sweet{}, repo.ErrNotFound
	}
	return s, nil
}

func (v *sweetView) FindByIDForUpdate(ctx context.Context, id int64) (model.Sweet, error) {
	return v.FindByID(ctx, id)
}

func (v *sweetView) Create(ctx context.Context, s model.Sweet) (model.Sweet, error) {
	v.d.nextSweetID++
	s.ID = v.d.nextSweetID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = v.now()
	}
	v.d.sweets[s.ID] = s
	return s, nil
}

func (v *sweetView) ApplyPatch(ctx context.Context, id int64, patch model.SweetPatch) error {
	s, ok := v.d.sweets[id]
	if !ok {
		return repo.ErrNotFound
	}
	v.d.sweets[id] = patch.Apply(s)
	return nil
}

func (v *sweetView) SetQuantity(ctx context.Context, id int64, quantity int64) error {
	s, ok := v.d.sweets[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Quantity = quantity
	v.d.sweets[id] = s
	return nil
}

func (v *sweetView) Delete(ctx context.Context, id int64) error {
	if _, ok := v.d.sweets[id]; !ok {
		return repo.ErrNotFound
	}
	delete(v.d.sweets, id)
	return nil
}

type sweetRepository struct {
	s *Store
}

func (r *sweetRepository) List(ctx context.Context) ([]model.Sweet, error) {
	var out []model.Sweet
	err := r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		var err error
		out, err = tx.Sweets().List(ctx)
		return err
	})
	return out, err
}

func (r *sweetRepository) Search(ctx context.Context, q repo.SweetSearchQuery) ([]model.Sweet, error) {
	var out []model.Sweet
	err := r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		var err error
		out, err = tx.Sweets().Search(ctx, q)
		return err
	})
	return out, err
}

func (r *sweetRepository) FindByID(ctx context.Context, id int64) (model.Sweet, error) {
	var out model.Sweet
	err := r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		var err error
		out, err = tx.Sweets().FindByID(ctx, id)
		return err
	})
	return out, err
}

func (r *sweetRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Sweet, error) {
	return r.FindByID(ctx, id)
}

func (r *sweetRepository) Create(ctx context.Context, s model.Sweet) (model.Sweet, error) {
	var out model.Sweet
	err := r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		var err error
		out, err = tx.Sweets().Create(ctx, s)
		return err
	})
	return out, err
}

func (r *sweetRepository) ApplyPatch(ctx context.Context, id int64, patch model.SweetPatch) error {
	return r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		return tx.Sweets().ApplyPatch(ctx, id, patch)
	})
}

func (r *sweetRepository) SetQuantity(ctx context.Context, id int64, quantity int64) error {
	return r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		return tx.Sweets().SetQuantity(ctx, id, quantity)
	})
}

func (r *sweetRepository) Delete(ctx context.Context, id int64) error {
	return r.s.autoTx(ctx, func(tx repo.TxRepos) error {
		return tx.Sweets().Delete(ctx, id)
	})
}

var (
	_ repo.TransactionManager = (*Store)(nil)
	_ repo.AccountRepository  = (*accountRepository)(nil)
	_ repo.SweetRepository    = (*sweetRepository)(nil)
	_ repo.AccountRepository  = (*accountView)(nil)
	_ repo.SweetRepository    = (*sweetView)(nil)
)
