package service

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxFolderNameLength = 100

// FolderService manages the folder tree of page owners.
type FolderService struct {
	storage repository.Storage
	plans   *PlanService
	links   *LinkService
	log     *zap.Logger
}

func NewFolderService(storage repository.Storage, plans *PlanService, links *LinkService, log *zap.Logger) *FolderService {
	return &FolderService{
		storage: storage,
		plans:   plans,
		links:   links,
		log:     log,
	}
}

// CreateFolder creates a folder, optionally nested under parentID.
func (s *FolderService) CreateFolder(ctx context.Context, ownerID int64, name string, parentID *int64) (*domain.Folder, error) {
	folders, err := s.storage.ListUserFolders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	if err := s.plans.CheckLimit(ctx, ownerID, domain.LimitFolders, len(folders)+1); err != nil {
		return nil, err
	}

	name, err = validateFolderName(name)
	if err != nil {
		return nil, err
	}
	if parentID != nil && !ownsFolder(folders, *parentID) {
		return nil, domain.NewValidationError("parent_id", "parent folder does not exist")
	}

	folder := &domain.Folder{
		UserID:     ownerID,
		ParentID:   parentID,
		Name:       name,
		Order:      len(folders) + 1,
		IsExpanded: true,
	}
	if err := s.storage.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	s.log.Info("folder created", zap.Int64("user_id", ownerID), zap.Int64("folder_id", folder.ID))
	return folder, nil
}

// ListFolders returns the owner's folders in display order.
func (s *FolderService) ListFolders(ctx context.Context, ownerID int64) ([]*domain.Folder, error) {
	folders, err := s.storage.ListUserFolders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// GetFolder returns one of the owner's folders.
func (s *FolderService) GetFolder(ctx context.Context, ownerID, folderID int64) (*domain.Folder, error) {
	folder, err := s.storage.GetFolder(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if folder.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return folder, nil
}

// RenameFolder changes a folder's name.
func (s *FolderService) RenameFolder(ctx context.Context, ownerID, folderID int64, name string) (*domain.Folder, error) {
	folder, err := s.GetFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	if folder.Name, err = validateFolderName(name); err != nil {
		return nil, err
	}
	if err := s.storage.UpdateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return folder, nil
}

// SetExpanded records whether the folder is shown expanded in the editor.
func (s *FolderService) SetExpanded(ctx context.Context, ownerID, folderID int64, expanded bool) (*domain.Folder, error) {
	folder, err := s.GetFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	folder.IsExpanded = expanded
	if err := s.storage.UpdateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return folder, nil
}

// MoveFolder re-parents a folder. nil moves it to the top level. Moving a folder
// under itself or one of its descendants is rejected.
func (s *FolderService) MoveFolder(ctx context.Context, ownerID, folderID int64, parentID *int64) (*domain.Folder, error) {
	folders, err := s.storage.ListUserFolders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	byID := lo.KeyBy(folders, func(f *domain.Folder) int64 { return f.ID })

	folder, ok := byID[folderID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if parentID != nil {
		if _, ok := byID[*parentID]; !ok {
			return nil, domain.NewValidationError("parent_id", "parent folder does not exist")
		}
		if createsCycle(byID, folderID, *parentID) {
			return nil, domain.NewValidationError("parent_id", "cycle: a folder cannot be moved into itself or its descendants")
		}
	}

	folder.ParentID = parentID
	if err := s.storage.UpdateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}

	s.log.Info("folder moved", zap.Int64("user_id", ownerID), zap.Int64("folder_id", folderID))
	return folder, nil
}

// DeleteFolder removes a folder. Its subfolders move up to its parent and its
// links become unfiled.
func (s *FolderService) DeleteFolder(ctx context.Context, ownerID, folderID int64) error {
	if _, err := s.GetFolder(ctx, ownerID, folderID); err != nil {
		return err
	}
	if err := s.storage.DeleteFolder(ctx, folderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	s.log.Info("folder deleted", zap.Int64("user_id", ownerID), zap.Int64("folder_id", folderID))
	return nil
}

// MoveLink files a link into a folder, or unfiles it when folderID is nil.
func (s *FolderService) MoveLink(ctx context.Context, ownerID, linkID int64, folderID *int64) (*domain.Link, error) {
	link, err := s.links.GetLink(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}
	if folderID != nil {
		if _, err := s.GetFolder(ctx, ownerID, *folderID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("folder_id", "folder does not exist")
			}
			return nil, err
		}
	}

	link.FolderID = folderID
	if err := s.storage.UpdateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to move link: %w", err)
	}
	return link, nil
}

// createsCycle reports whether placing folderID under parentID would make
// folderID its own ancestor.
func createsCycle(byID map[int64]*domain.Folder, folderID, parentID int64) bool {
	seen := make(map[int64]bool)
	for id := &parentID; id != nil; {
		if *id == folderID {
			return true
		}
		if seen[*id] {
			return true
		}
		seen[*id] = true
		f, ok := byID[*id]
		if !ok {
			return false
		}
		id = f.ParentID
	}
	return false
}

func ownsFolder(folders []*domain.Folder, id int64) bool {
	return lo.ContainsBy(folders, func(f *domain.Folder) bool { return f.ID == id })
}

func validateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "folder name is required")
	}
	if len([]rune(name)) > maxFolderNameLength {
		return "", domain.NewValidationError("name", fmt.Sprintf("folder name must be at most %d characters", maxFolderNameLength))
	}
	return name, nil
}
