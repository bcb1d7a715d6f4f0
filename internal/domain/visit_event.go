package domain

import "time"

// EventKind различает просмотры страницы и клики
type EventKind string

const (
	EventClick EventKind = "click"
	EventView  EventKind = "view"
)

// Device types produced by the request classifier.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// VisitEvent представляет один визит (клик или просмотр). Записи только добавляются.
type VisitEvent struct {
	ID          int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID      int64     `gorm:"column:link_id;not null;index:idx_visit_events_link_time" json:"link_id"`
	SubLinkID   *int64    `gorm:"column:sub_link_id" json:"sub_link_id,omitempty"`
	Kind        EventKind `gorm:"column:kind;size:10;not null" json:"kind"`
	OccurredAt  time.Time `gorm:"column:occurred_at;not null;index:idx_visit_events_link_time" json:"occurred_at"`
	DeviceType  string    `gorm:"column:device_type;size:10" json:"device_type"`
	Browser     string    `gorm:"column:browser;size:50" json:"browser"`
	OS          string    `gorm:"column:os;size:50" json:"os"`
	Country     string    `gorm:"column:country;size:2" json:"country"` // ISO код страны
	Referrer    string    `gorm:"column:referrer;size:500" json:"referrer,omitempty"`
	VisitorHash string    `gorm:"column:visitor_hash;size:64" json:"-"`
	Decision    string    `gorm:"column:decision;size:20" json:"decision,omitempty"`
}

// DecisionBlocked marks a visit the shield refused. Such events only count towards Rollup.Blocked.
const DecisionBlocked = "block"

// Blocked reports whether the shield refused this visit.
func (e *VisitEvent) Blocked() bool {
	return e.Decision == DecisionBlocked
}

// TableName возвращает название таблицы для GORM
func (VisitEvent) TableName() string {
	return "visit_events"
}

// IsValid reports whether the event kind is one the aggregator understands.
func (k EventKind) IsValid() bool {
	return k == EventClick || k == EventView
}
