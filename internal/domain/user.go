package domain

import "time"

// FreePlanID is assigned to owners seen for the first time.
const FreePlanID int16 = 1

// User представляет владельца страницы. ID приходит от внешнего провайдера
// идентификации и принимается как есть.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Email     *string   `gorm:"column:email" json:"email,omitempty"`
	PlanID    int16     `gorm:"column:plan_id;not null;default:1" json:"plan_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}
