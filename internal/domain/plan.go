package domain

import "time"

// Plan names
const (
	PlanFree     = "free"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// LimitName identifies a countable plan limit.
type LimitName string

const (
	LimitLinksPerPage LimitName = "max_links_per_page"
	LimitSubLinks     LimitName = "max_sub_links"
	LimitFolders      LimitName = "max_folders"
)

// PlanFeature identifies a boolean plan capability.
type PlanFeature string

const (
	FeatureCustomSlugs PlanFeature = "custom_slugs"
	FeatureDirectLinks PlanFeature = "direct_links"
	FeatureShieldLinks PlanFeature = "shield_links"
	FeatureUltraLinks  PlanFeature = "ultra_links"
)

// Plan представляет тарифный план пользователя
type Plan struct {
	ID                     int16     `gorm:"primaryKey;column:id" json:"id"`
	Name                   string    `gorm:"column:name;size:20;uniqueIndex;not null" json:"name"`
	DisplayName            string    `gorm:"column:display_name;size:50;not null" json:"display_name"`
	MaxLinksPerPage        *int      `gorm:"column:max_links_per_page" json:"max_links_per_page,omitempty"` // NULL = unlimited
	MaxSubLinks            *int      `gorm:"column:max_sub_links" json:"max_sub_links,omitempty"`           // NULL = unlimited
	MaxFolders             *int      `gorm:"column:max_folders" json:"max_folders,omitempty"`               // NULL = unlimited
	AnalyticsRetentionDays int16     `gorm:"column:analytics_retention_days;not null;default:7" json:"analytics_retention_days"`
	CustomSlugs            bool      `gorm:"column:custom_slugs;not null;default:false" json:"custom_slugs"`
	DirectLinks            bool      `gorm:"column:direct_links;not null;default:false" json:"direct_links"`
	ShieldLinks            bool      `gorm:"column:shield_links;not null;default:false" json:"shield_links"`
	UltraLinks             bool      `gorm:"column:ultra_links;not null;default:false" json:"ultra_links"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName возвращает название таблицы для GORM
func (Plan) TableName() string {
	return "plans"
}

// Limit returns the configured ceiling for a limit, or nil when unlimited.
func (p *Plan) Limit(name LimitName) *int {
	switch name {
	case LimitLinksPerPage:
		return p.MaxLinksPerPage
	case LimitSubLinks:
		return p.MaxSubLinks
	case LimitFolders:
		return p.MaxFolders
	default:
		return nil
	}
}

// Allows reports whether a proposed count stays within the limit.
func (p *Plan) Allows(name LimitName, proposed int) bool {
	limit := p.Limit(name)
	if limit == nil {
		return true // unlimited
	}
	return proposed <= *limit
}

// HasFeature проверяет, доступна ли функция в плане
func (p *Plan) HasFeature(feature PlanFeature) bool {
	switch feature {
	case FeatureCustomSlugs:
		return p.CustomSlugs
	case FeatureDirectLinks:
		return p.DirectLinks
	case FeatureShieldLinks:
		return p.ShieldLinks
	case FeatureUltraLinks:
		return p.UltraLinks
	default:
		return false
	}
}

// DefaultPlans returns the plans seeded into a fresh database.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:                     1,
			Name:                   PlanFree,
			DisplayName:            "Free",
			MaxLinksPerPage:        toInt(5),
			MaxSubLinks:            toInt(5),
			MaxFolders:             toInt(2),
			AnalyticsRetentionDays: 7,
		},
		{
			ID:                     2,
			Name:                   PlanStandard,
			DisplayName:            "Standard",
			MaxLinksPerPage:        toInt(50),
			MaxSubLinks:            toInt(20),
			MaxFolders:             toInt(20),
			AnalyticsRetentionDays: 90,
			CustomSlugs:            true,
			DirectLinks:            true,
			ShieldLinks:            true,
		},
		{
			ID:                     3,
			Name:                   PlanPremium,
			DisplayName:            "Premium",
			AnalyticsRetentionDays: 365,
			CustomSlugs:            true,
			DirectLinks:            true,
			ShieldLinks:            true,
			UltraLinks:             true,
		},
	}
}

// toInt возвращает указатель на int - хелпер для создания nullable полей
func toInt(val int) *int {
	return &val
}
