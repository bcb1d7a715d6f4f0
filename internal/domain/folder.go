package domain

import "time"

// Folder группирует ссылки пользователя, может быть вложенной
type Folder struct {
	ID         int64     `gorm:"primaryKey;column:id" json:"id"`
	UserID     int64     `gorm:"column:user_id;not null;index" json:"user_id"`
	ParentID   *int64    `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Name       string    `gorm:"column:name;size:100;not null" json:"name"`
	Order      int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsExpanded bool      `gorm:"column:is_expanded;not null" json:"is_expanded"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName возвращает название таблицы для GORM
func (Folder) TableName() string {
	return "folders"
}
