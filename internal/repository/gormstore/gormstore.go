package gormstore

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage реализует интерфейс repository.Storage поверх GORM (PostgreSQL или SQLite)
type Storage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр storage
func New(db *gorm.DB, log *zap.Logger) *Storage {
	return &Storage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// FindOrCreateUser находит пользователя или создает нового с бесплатным планом
func (s *Storage) FindOrCreateUser(ctx context.Context, userID int64) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("failed to find user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = domain.User{
		ID:     userID,
		PlanID: domain.FreePlanID,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Параллельный запрос мог создать пользователя раньше нас
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err == nil {
				return &user, nil
			}
		}
		s.log.Error("failed to create user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID))
	return &user, nil
}

// SetUserPlan назначает план пользователю
func (s *Storage) SetUserPlan(ctx context.Context, userID int64, planID int16) error {
	if _, err := s.FindOrCreateUser(ctx, userID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("plan_id", planID).Error; err != nil {
		return fmt.Errorf("failed to set user plan: %w", err)
	}
	return nil
}

// GetPlan получает план по ID
func (s *Storage) GetPlan(ctx context.Context, planID int16) (*domain.Plan, error) {
	var plan domain.Plan
	err := s.db.WithContext(ctx).Where("id = ?", planID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to get plan", zap.Int16("plan_id", planID), zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// ListPlans возвращает все планы
func (s *Storage) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&plans).Error; err != nil {
		s.log.Error("failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// --- Link Methods ---

// CreateLink сохраняет новую ссылку вместе с дочерними ссылками
func (s *Storage) CreateLink(ctx context.Context, link *domain.Link) error {
	exists, err := s.SlugExists(ctx, link.Slug)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrSlugExists
	}

	// Уникальный индекс на slug ловит гонку между проверкой и вставкой
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrSlugExists
		}
		s.log.Error("failed to save link", zap.String("slug", link.Slug), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("slug", link.Slug), zap.Int64("user_id", link.UserID))
	return nil
}

// GetLink получает ссылку по ID
func (s *Storage) GetLink(ctx context.Context, id int64) (*domain.Link, error) {
	return s.findLink(ctx, "id = ?", id)
}

// GetLinkBySlug получает ссылку по slug
func (s *Storage) GetLinkBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	return s.findLink(ctx, "slug = ?", slug)
}

func (s *Storage) findLink(ctx context.Context, query string, arg any) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).
		Preload("SubLinks", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where(query, arg).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// UpdateLink обновляет ссылку и полностью заменяет набор дочерних ссылок
func (s *Storage) UpdateLink(ctx context.Context, link *domain.Link) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(link).Omit("SubLinks", "CreatedAt").Select("*").Updates(link)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		if err := tx.Where("link_id = ?", link.ID).Delete(&domain.SubLink{}).Error; err != nil {
			return err
		}
		for i := range link.SubLinks {
			link.SubLinks[i].ID = 0
			link.SubLinks[i].LinkID = link.ID
		}
		if len(link.SubLinks) > 0 {
			if err := tx.Create(&link.SubLinks).Error; err != nil {
				return err
			}
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrSlugExists
	default:
		s.log.Error("failed to update link", zap.Int64("link_id", link.ID), zap.Error(err))
		return fmt.Errorf("failed to update link: %w", err)
	}
}

// DeleteLink удаляет ссылку вместе с дочерними ссылками
func (s *Storage) DeleteLink(ctx context.Context, id int64) error {
	var rows int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&domain.SubLink{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Link{}, id)
		rows = result.RowsAffected
		return result.Error
	})
	if err != nil {
		s.log.Error("failed to delete link", zap.Int64("link_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("deleted link", zap.Int64("link_id", id))
	return nil
}

// SlugExists проверяет, занят ли slug
func (s *Storage) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check slug existence", zap.String("slug", slug), zap.Error(err))
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return count > 0, nil
}

// ListUserLinks возвращает ссылки пользователя в порядке отображения
func (s *Storage) ListUserLinks(ctx context.Context, userID int64) ([]*domain.Link, error) {
	var links []*domain.Link

	err := s.db.WithContext(ctx).
		Preload("SubLinks", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("user_id = ?", userID).
		Order("sort_order ASC, id ASC").
		Find(&links).Error
	if err != nil {
		s.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}

	return links, nil
}

// CountUserLinks считает ссылки пользователя
func (s *Storage) CountUserLinks(ctx context.Context, userID int64) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count user links: %w", err)
	}
	return int(count), nil
}

// NextLinkOrder возвращает следующий порядковый номер ссылки пользователя
func (s *Storage) NextLinkOrder(ctx context.Context, userID int64) (int, error) {
	var maxOrder *int
	err := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("user_id = ?", userID).
		Select("MAX(sort_order)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max link order: %w", err)
	}
	if maxOrder == nil {
		return 1, nil
	}
	return *maxOrder + 1, nil
}

// --- Folder Methods ---

func (s *Storage) CreateFolder(ctx context.Context, folder *domain.Folder) error {
	if err := s.db.WithContext(ctx).Create(folder).Error; err != nil {
		s.log.Error("failed to create folder", zap.Int64("user_id", folder.UserID), zap.Error(err))
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (s *Storage) GetFolder(ctx context.Context, id int64) (*domain.Folder, error) {
	var folder domain.Folder
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&folder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return &folder, nil
}

func (s *Storage) UpdateFolder(ctx context.Context, folder *domain.Folder) error {
	result := s.db.WithContext(ctx).Model(folder).Omit("CreatedAt").Select("*").Updates(folder)
	if result.Error != nil {
		s.log.Error("failed to update folder", zap.Int64("folder_id", folder.ID), zap.Error(result.Error))
		return fmt.Errorf("failed to update folder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteFolder удаляет папку, переносит дочерние папки к родителю и
// открепляет ссылки
func (s *Storage) DeleteFolder(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var folder domain.Folder
		if err := tx.Where("id = ?", id).First(&folder).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&domain.Folder{}).Where("parent_id = ?", id).Update("parent_id", folder.ParentID).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Link{}).Where("folder_id = ?", id).Update("folder_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Folder{}, id).Error
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Error("failed to delete folder", zap.Int64("folder_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return err
}

func (s *Storage) ListUserFolders(ctx context.Context, userID int64) ([]*domain.Folder, error) {
	var folders []*domain.Folder
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("sort_order ASC, id ASC").Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// --- Visit Event Methods ---

// AppendEvent добавляет событие визита. События никогда не изменяются.
func (s *Storage) AppendEvent(ctx context.Context, event *domain.VisitEvent) error {
	event.OccurredAt = event.OccurredAt.UTC()
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.log.Error("failed to append visit event", zap.Int64("link_id", event.LinkID), zap.Error(err))
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListEvents возвращает события по ссылкам и интервалу времени [From, To)
func (s *Storage) ListEvents(ctx context.Context, filter repository.EventFilter) ([]domain.VisitEvent, error) {
	var events []domain.VisitEvent

	q := s.db.WithContext(ctx).Model(&domain.VisitEvent{})
	if len(filter.LinkIDs) > 0 {
		q = q.Where("link_id IN ?", filter.LinkIDs)
	}
	if !filter.From.IsZero() {
		q = q.Where("occurred_at >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q = q.Where("occurred_at < ?", filter.To.UTC())
	}

	if err := q.Order("id ASC").Find(&events).Error; err != nil {
		s.log.Error("failed to list visit events", zap.Int("links", len(filter.LinkIDs)), zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
