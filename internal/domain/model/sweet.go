package model

import "time"

// 在庫テーブルの1行。quantityが0未満にならないことはusecase側で守る。
type Sweet struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Category  string    `gorm:"type:varchar(100);not null;index" json:"category"`
	Price     float64   `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 部分更新。各フィールドは「変更しない」か「この値にする」のどちらか。
type SweetPatch struct {
	Name     Optional[string]  `json:"name"`
	Category Optional[string]  `json:"category"`
	Price    Optional[float64] `json:"price"`
	Quantity Optional[int64]   `json:"quantity"`
}

func (p SweetPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Category.Set && !p.Price.Set && !p.Quantity.Set
}

// Apply returns s with every set field of p copied over.
func (p SweetPatch) Apply(s Sweet) Sweet {
	if v, ok := p.Name.Get(); ok {
		s.Name = v
	}
	if v, ok := p.Category.Get(); ok {
		s.Category = v
	}
	if v, ok := p.Price.Get(); ok {
		s.Price = v
	}
	if v, ok := p.Quantity.Get(); ok {
		s.Quantity = v
	}
	return s
}
