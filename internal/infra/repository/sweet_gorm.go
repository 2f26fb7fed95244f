package repository

import (
	"context"
	"strings"
	"time"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SweetGormRepository struct {
	db *gorm.DB
}

// DI
func NewSweetGormRepository(db *gorm.DB) *SweetGormRepository {
	return &SweetGormRepository{db: db}
}

// 全件をid順で返す
func (r *SweetGormRepository) List(ctx context.Context) ([]model.Sweet, error) {
	sweets := []model.Sweet{}
	if err := r.db.WithContext(ctx).Order("id asc").Find(&sweets).Error; err != nil {
		return []model.Sweet{}, translateError(err)
	}
	return sweets, nil
}

// 名前（部分一致・大文字小文字無視）/カテゴリ（完全一致）/価格帯で絞り込む
func (r *SweetGormRepository) Search(ctx context.Context, q repo.SweetSearchQuery) ([]model.Sweet, error) {
	sweets := []model.Sweet{}

	tx := r.db.WithContext(ctx).Model(&model.Sweet{})

	if q.Name != "" {
		tx = tx.Where(`name ILIKE ? ESCAPE '\'`, "%"+escapeLike(q.Name)+"%")
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	//価格帯（両端を含む）
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	if err := tx.Order("id asc").Find(&sweets).Error; err != nil {
		return []model.Sweet{}, translateError(err)
	}
	return sweets, nil
}

// IDで取得
func (r *SweetGormRepository) FindByID(ctx context.Context, id int64) (model.Sweet, error) {
	var s model.Sweet
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return model.Sweet{}, translateError(err)
	}
	return s, nil
}

// SELECT ... FOR UPDATE。commitまで他の更新を待たせる
func (r *SweetGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Sweet, error) {
	var s model.Sweet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		return model.Sweet{}, translateError(err)
	}
	return s, nil
}

func (r *SweetGormRepository) Create(ctx context.Context, s model.Sweet) (model.Sweet, error) {
	// timestamptzはマイクロ秒までなので、返す値も保存される値に揃える
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().Truncate(time.Microsecond)
	}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Sweet{}, translateError(err)
	}
	return s, nil
}

// セットされた項目だけ更新する
func (r *SweetGormRepository) ApplyPatch(ctx context.Context, id int64, patch model.SweetPatch) error {
	cols := map[string]interface{}{}
	if v, ok := patch.Name.Get(); ok {
		cols["name"] = v
	}
	if v, ok := patch.Category.Get(); ok {
		cols["category"] = v
	}
	if v, ok := patch.Price.Get(); ok {
		cols["price"] = v
	}
	if v, ok := patch.Quantity.Get(); ok {
		cols["quantity"] = v
	}
	if len(cols) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.Sweet{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫の現在値を設定
func (r *SweetGormRepository) SetQuantity(ctx context.Context, id int64, quantity int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Sweet{}).
		Where("id = ?", id).
		Update("quantity", quantity)

	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 物理削除
func (r *SweetGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Sweet{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// 入力中の % と _ を文字として扱う
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ repo.SweetRepository = (*SweetGormRepository)(nil)
