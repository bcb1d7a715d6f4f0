package repository

import (
	"LinkHub-Backend/internal/domain"
	"context"
	"time"
)

// EventFilter selects visit events for aggregation. Zero From/To leave that side open.
type EventFilter struct {
	LinkIDs []int64
	From    time.Time
	To      time.Time
}

// Matches reports whether ev passes the filter. To is exclusive.
func (f EventFilter) Matches(ev *domain.VisitEvent) bool {
	if len(f.LinkIDs) > 0 {
		found := false
		for _, id := range f.LinkIDs {
			if id == ev.LinkID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && ev.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !ev.OccurredAt.Before(f.To) {
		return false
	}
	return true
}

type Storage interface {
	// User and plan methods
	FindOrCreateUser(ctx context.Context, userID int64) (*domain.User, error)
	GetPlan(ctx context.Context, planID int16) (*domain.Plan, error)
	ListPlans(ctx context.Context) ([]domain.Plan, error)

	// Link methods
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLink(ctx context.Context, id int64) (*domain.Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (*domain.Link, error)
	UpdateLink(ctx context.Context, link *domain.Link) error
	DeleteLink(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListUserLinks(ctx context.Context, userID int64) ([]*domain.Link, error)
	CountUserLinks(ctx context.Context, userID int64) (int, error)
	NextLinkOrder(ctx context.Context, userID int64) (int, error)

	// Folder methods
	CreateFolder(ctx context.Context, folder *domain.Folder) error
	GetFolder(ctx context.Context, id int64) (*domain.Folder, error)
	UpdateFolder(ctx context.Context, folder *domain.Folder) error
	DeleteFolder(ctx context.Context, id int64) error
	ListUserFolders(ctx context.Context, userID int64) ([]*domain.Folder, error)

	// Visit event methods
	AppendEvent(ctx context.Context, event *domain.VisitEvent) error
	ListEvents(ctx context.Context, filter EventFilter) ([]domain.VisitEvent, error)
}
