package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// MaxSlugLength ограничение длины slug
const MaxSlugLength = 50

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Link представляет ссылку на странице пользователя: прямую (direct) или
// мультиссылку со списком дочерних ссылок.
type Link struct {
	ID            int64     `gorm:"primaryKey;column:id" json:"id"`
	UserID        int64     `gorm:"column:user_id;not null;index" json:"user_id"`
	FolderID      *int64    `gorm:"column:folder_id;index" json:"folder_id,omitempty"`
	Slug          string    `gorm:"column:slug;size:50;uniqueIndex;not null" json:"slug"`
	Title         string    `gorm:"column:title;size:200;not null" json:"title"`
	Description   *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	IsDirect      bool      `gorm:"column:is_direct;not null;default:false" json:"is_direct"`
	DirectURL     *string   `gorm:"column:direct_url;size:2048" json:"direct_url,omitempty"`
	ShieldEnabled bool      `gorm:"column:shield_enabled;not null;default:false" json:"shield_enabled"`
	IsUltraLink   bool      `gorm:"column:is_ultra_link;not null;default:false" json:"is_ultra_link"`
	ShieldConfig  *string   `gorm:"column:shield_config;type:text" json:"-"` // JSON, see ParseShieldConfig
	Order         int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsActive      bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	SubLinks []SubLink `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"sub_links,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (Link) TableName() string {
	return "links"
}

// Destination returns the redirect target of a direct link, or "" for a multi-link page.
func (l *Link) Destination() string {
	if l.IsDirect && l.DirectURL != nil {
		return *l.DirectURL
	}
	return ""
}

// Shielded reports whether any protective redirect behaviour was requested for the link.
func (l *Link) Shielded() bool {
	return l.IsDirect && (l.ShieldEnabled || l.IsUltraLink)
}

// Validate checks the structural invariants of a link before it is persisted.
func (l *Link) Validate() error {
	if l.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if !slugPattern.MatchString(l.Slug) || len(l.Slug) > MaxSlugLength {
		return NewValidationError("slug", fmt.Sprintf("invalid slug %q", l.Slug))
	}

	if l.IsDirect {
		if l.DirectURL == nil || *l.DirectURL == "" {
			return NewValidationError("direct_url", "redirect URL is required for a direct link")
		}
		if err := ValidateURL(*l.DirectURL); err != nil {
			return NewValidationError("direct_url", err.Error())
		}
		if len(l.SubLinks) > 0 {
			return NewValidationError("sub_links", "a direct link cannot have sub-links")
		}
		if l.Shielded() {
			if l.ShieldConfig == nil {
				return NewValidationError("shield_config", "shield config is required")
			}
			if _, err := ParseShieldConfig(*l.ShieldConfig); err != nil {
				return NewValidationError("shield_config", err.Error())
			}
		}
		return nil
	}

	if l.DirectURL != nil && *l.DirectURL != "" {
		return NewValidationError("direct_url", "a multi-link page cannot have a redirect URL")
	}
	if l.ShieldEnabled || l.IsUltraLink {
		return NewValidationError("shield_enabled", "shield is only available for direct links")
	}
	if len(l.SubLinks) == 0 {
		return NewValidationError("sub_links", "at least one link is required")
	}
	for i := range l.SubLinks {
		if err := l.SubLinks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsValidSlug reports whether s may be used as a slug.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// reservedSlugs совпадают с фиксированными маршрутами сервера
var reservedSlugs = map[string]bool{
	"health":    true,
	"ready":     true,
	"metrics":   true,
	"swagger":   true,
	"api":       true,
	"analytics": true,
	"resolve":   true,
	"go":        true,
}

// IsReservedSlug reports whether s is taken by a fixed route and can never be visited as a link.
func IsReservedSlug(s string) bool {
	return reservedSlugs[s]
}

// SubLink представляет дочернюю ссылку мультиссылки
type SubLink struct {
	ID          int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID      int64     `gorm:"column:link_id;not null;uniqueIndex:idx_sub_links_order" json:"link_id"`
	Title       string    `gorm:"column:title;size:200;not null" json:"title"`
	URL         string    `gorm:"column:url;size:2048;not null" json:"url"`
	Description *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	Order       int       `gorm:"column:sort_order;not null;uniqueIndex:idx_sub_links_order" json:"order"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName возвращает название таблицы для GORM
func (SubLink) TableName() string {
	return "sub_links"
}

// Validate checks that the sub-link carries a title and an absolute URL.
func (s *SubLink) Validate() error {
	if s.Title == "" || s.URL == "" {
		return NewValidationError("sub_links", "each link must have a title and a URL")
	}
	if err := ValidateURL(s.URL); err != nil {
		return NewValidationError("sub_links", err.Error())
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q", raw)
	}
	return nil
}
