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

const copySuffix = " (copy)"

// SubLinkInput describes one entry of a multi-link page.
type SubLinkInput struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description *string `json:"description,omitempty"`
}

// CreateLinkInput holds the owner-supplied fields of a new link.
type CreateLinkInput struct {
	Title         string               `json:"title"`
	Description   *string              `json:"description,omitempty"`
	Slug          string               `json:"slug,omitempty"` // custom slug, derived from the title when empty
	IsDirect      bool                 `json:"is_direct"`
	DirectURL     string               `json:"direct_url,omitempty"`
	ShieldEnabled bool                 `json:"shield_enabled"`
	IsUltraLink   bool                 `json:"is_ultra_link"`
	ShieldConfig  *domain.ShieldConfig `json:"shield_config,omitempty"`
	SubLinks      []SubLinkInput       `json:"sub_links,omitempty"`
	FolderID      *int64               `json:"folder_id,omitempty"`
}

// UpdateLinkInput lists the fields to change; nil fields are left untouched.
type UpdateLinkInput struct {
	Title         *string              `json:"title,omitempty"`
	Description   *string              `json:"description,omitempty"`
	Slug          *string              `json:"slug,omitempty"`
	IsDirect      *bool                `json:"is_direct,omitempty"`
	DirectURL     *string              `json:"direct_url,omitempty"`
	ShieldEnabled *bool                `json:"shield_enabled,omitempty"`
	IsUltraLink   *bool                `json:"is_ultra_link,omitempty"`
	ShieldConfig  *domain.ShieldConfig `json:"shield_config,omitempty"`
	SubLinks      *[]SubLinkInput      `json:"sub_links,omitempty"`
	IsActive      *bool                `json:"is_active,omitempty"`
	Order         *int                 `json:"order,omitempty"`
}

// LinkService manages the links of page owners.
type LinkService struct {
	storage repository.Storage
	plans   *PlanService
	slugs   *SlugAllocator
	log     *zap.Logger
}

func NewLinkService(storage repository.Storage, plans *PlanService, slugs *SlugAllocator, log *zap.Logger) *LinkService {
	return &LinkService{
		storage: storage,
		plans:   plans,
		slugs:   slugs,
		log:     log,
	}
}

// CreateLink creates a link for ownerID. Plan limits are checked before anything
// is written.
func (s *LinkService) CreateLink(ctx context.Context, ownerID int64, in CreateLinkInput) (*domain.Link, error) {
	plan, err := s.plans.PlanFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	count, err := s.storage.CountUserLinks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count links: %w", err)
	}
	if err := checkLimit(plan, domain.LimitLinksPerPage, count+1); err != nil {
		return nil, err
	}
	if err := checkLinkFeatures(plan, in.IsDirect, in.ShieldEnabled, in.IsUltraLink); err != nil {
		return nil, err
	}
	if err := checkLimit(plan, domain.LimitSubLinks, len(in.SubLinks)); err != nil {
		return nil, err
	}

	customSlug := strings.TrimSpace(in.Slug)
	if customSlug != "" {
		if err := requireFeature(plan, domain.FeatureCustomSlugs); err != nil {
			return nil, err
		}
		if !domain.IsValidSlug(customSlug) {
			return nil, domain.NewValidationError("slug", "slug may only contain lowercase letters, digits and single dashes")
		}
		if domain.IsReservedSlug(customSlug) {
			return nil, domain.NewValidationError("slug", fmt.Sprintf("slug %q is reserved", customSlug))
		}
	}

	if err := s.checkFolder(ctx, ownerID, in.FolderID); err != nil {
		return nil, err
	}

	link := &domain.Link{
		UserID:        ownerID,
		FolderID:      in.FolderID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		IsDirect:      in.IsDirect,
		ShieldEnabled: in.ShieldEnabled,
		IsUltraLink:   in.IsUltraLink,
		IsActive:      true,
		SubLinks:      buildSubLinks(in.SubLinks),
	}
	if in.IsDirect || in.DirectURL != "" {
		url := strings.TrimSpace(in.DirectURL)
		link.DirectURL = &url
	}
	if err := applyShieldConfig(link, in.ShieldConfig, nil); err != nil {
		return nil, err
	}

	base := customSlug
	if base == "" {
		base = Slugify(link.Title)
	}
	link.Slug = base
	if err := link.Validate(); err != nil {
		return nil, err
	}

	order, err := s.storage.NextLinkOrder(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute link order: %w", err)
	}
	link.Order = order

	if customSlug != "" {
		err := s.storage.CreateLink(ctx, link)
		if errors.Is(err, domain.ErrSlugExists) {
			return nil, domain.NewValidationError("slug", fmt.Sprintf("slug %q is already taken", customSlug))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
	} else if err := s.createWithFreeSlug(ctx, link, base); err != nil {
		return nil, err
	}

	s.log.Info("link created",
		zap.Int64("user_id", ownerID),
		zap.Int64("link_id", link.ID),
		zap.String("slug", link.Slug),
		zap.Bool("direct", link.IsDirect),
	)
	return link, nil
}

// createWithFreeSlug allocates a slug from base and stores the link. A concurrent
// writer taking the same slug between allocation and insert triggers another round.
func (s *LinkService) createWithFreeSlug(ctx context.Context, link *domain.Link, base string) error {
	for attempt := 1; attempt <= s.slugs.MaxAttempts(); attempt++ {
		slug, err := s.slugs.AllocateSlug(ctx, base)
		if err != nil {
			return err
		}
		link.Slug = slug

		err = s.storage.CreateLink(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSlugExists) {
			return fmt.Errorf("failed to create link: %w", err)
		}

		s.log.Debug("slug taken concurrently, retrying", zap.String("slug", slug), zap.Int("attempt", attempt))
		resetIDs(link)
	}
	return fmt.Errorf("%w: base %q", domain.ErrSlugExhausted, base)
}

// GetLink returns one of the owner's links.
func (s *LinkService) GetLink(ctx context.Context, ownerID, linkID int64) (*domain.Link, error) {
	link, err := s.storage.GetLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if link.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

// ListLinks returns the owner's links in display order.
func (s *LinkService) ListLinks(ctx context.Context, ownerID int64) ([]*domain.Link, error) {
	links, err := s.storage.ListUserLinks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// UpdateLink applies in to one of the owner's links.
func (s *LinkService) UpdateLink(ctx context.Context, ownerID, linkID int64, in UpdateLinkInput) (*domain.Link, error) {
	link, err := s.GetLink(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.PlanFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Only features being switched on are checked against the plan.
	enablesDirect := in.IsDirect != nil && *in.IsDirect && !link.IsDirect
	enablesShield := in.ShieldEnabled != nil && *in.ShieldEnabled && !link.ShieldEnabled
	enablesUltra := in.IsUltraLink != nil && *in.IsUltraLink && !link.IsUltraLink
	if err := checkLinkFeatures(plan, enablesDirect, enablesShield, enablesUltra); err != nil {
		return nil, err
	}
	if in.SubLinks != nil {
		if err := checkLimit(plan, domain.LimitSubLinks, len(*in.SubLinks)); err != nil {
			return nil, err
		}
	}

	if in.Slug != nil && *in.Slug != link.Slug {
		slug := strings.TrimSpace(*in.Slug)
		if err := requireFeature(plan, domain.FeatureCustomSlugs); err != nil {
			return nil, err
		}
		if !domain.IsValidSlug(slug) {
			return nil, domain.NewValidationError("slug", "slug may only contain lowercase letters, digits and single dashes")
		}
		if domain.IsReservedSlug(slug) {
			return nil, domain.NewValidationError("slug", fmt.Sprintf("slug %q is reserved", slug))
		}
		exists, err := s.storage.SlugExists(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug existence: %w", err)
		}
		if exists {
			return nil, domain.NewValidationError("slug", fmt.Sprintf("slug %q is already taken", slug))
		}
		link.Slug = slug
	}

	if in.Title != nil {
		link.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		link.Description = in.Description
	}
	if in.IsDirect != nil {
		link.IsDirect = *in.IsDirect
	}
	if in.DirectURL != nil {
		url := strings.TrimSpace(*in.DirectURL)
		link.DirectURL = &url
	}
	if !link.IsDirect && link.DirectURL != nil && *link.DirectURL == "" {
		link.DirectURL = nil
	}
	if in.SubLinks != nil {
		link.SubLinks = buildSubLinks(*in.SubLinks)
	} else if enablesDirect {
		link.SubLinks = nil
	}
	if in.ShieldEnabled != nil {
		link.ShieldEnabled = *in.ShieldEnabled
	}
	wasUltra := link.IsUltraLink
	if in.IsUltraLink != nil {
		link.IsUltraLink = *in.IsUltraLink
	}
	if in.IsActive != nil {
		link.IsActive = *in.IsActive
	}
	if in.Order != nil {
		link.Order = *in.Order
	}
	current := link.ShieldConfig
	if link.IsUltraLink != wasUltra {
		// Смена уровня: сохранённый конфиг относится к старому уровню
		current = nil
	}
	if err := applyShieldConfig(link, in.ShieldConfig, current); err != nil {
		return nil, err
	}

	if err := link.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.UpdateLink(ctx, link); err != nil {
		if errors.Is(err, domain.ErrSlugExists) {
			return nil, domain.NewValidationError("slug", fmt.Sprintf("slug %q is already taken", link.Slug))
		}
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	s.log.Info("link updated", zap.Int64("user_id", ownerID), zap.Int64("link_id", link.ID))
	return link, nil
}

// DeleteLink removes one of the owner's links with its sub-links.
func (s *LinkService) DeleteLink(ctx context.Context, ownerID, linkID int64) error {
	if _, err := s.GetLink(ctx, ownerID, linkID); err != nil {
		return err
	}
	if err := s.storage.DeleteLink(ctx, linkID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete link: %w", err)
	}
	s.log.Info("link deleted", zap.Int64("user_id", ownerID), zap.Int64("link_id", linkID))
	return nil
}

// DuplicateLink copies one of the owner's links. The copy is inactive, its title
// carries a " (copy)" suffix and its slug is <slug>-copy, then <slug>-copy-1, ...
func (s *LinkService) DuplicateLink(ctx context.Context, ownerID, linkID int64) (*domain.Link, error) {
	src, err := s.GetLink(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.PlanFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// The plan may have been downgraded since the source was created.
	if err := checkLinkFeatures(plan, src.IsDirect, src.ShieldEnabled, src.IsUltraLink); err != nil {
		return nil, err
	}
	count, err := s.storage.CountUserLinks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count links: %w", err)
	}
	if err := s.plans.CheckLimit(ctx, ownerID, domain.LimitLinksPerPage, count+1); err != nil {
		return nil, err
	}

	order, err := s.storage.NextLinkOrder(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute link order: %w", err)
	}

	dup := &domain.Link{
		UserID:        ownerID,
		FolderID:      src.FolderID,
		Title:         src.Title + copySuffix,
		Description:   src.Description,
		IsDirect:      src.IsDirect,
		DirectURL:     src.DirectURL,
		ShieldEnabled: src.ShieldEnabled,
		IsUltraLink:   src.IsUltraLink,
		ShieldConfig:  src.ShieldConfig,
		Order:         order,
		IsActive:      false,
		SubLinks: lo.Map(src.SubLinks, func(sl domain.SubLink, _ int) domain.SubLink {
			return domain.SubLink{Title: sl.Title, URL: sl.URL, Description: sl.Description, Order: sl.Order}
		}),
	}

	if err := s.createWithFreeSlug(ctx, dup, src.Slug+"-copy"); err != nil {
		return nil, err
	}

	s.log.Info("link duplicated",
		zap.Int64("user_id", ownerID),
		zap.Int64("source_id", src.ID),
		zap.Int64("link_id", dup.ID),
		zap.String("slug", dup.Slug),
	)
	return dup, nil
}

// ResolveSlug returns the active link published under slug.
func (s *LinkService) ResolveSlug(ctx context.Context, slug string) (*domain.Link, error) {
	link, err := s.storage.GetLinkBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by slug: %w", err)
	}
	if !link.IsActive {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

func (s *LinkService) checkFolder(ctx context.Context, ownerID int64, folderID *int64) error {
	if folderID == nil {
		return nil
	}
	folder, err := s.storage.GetFolder(ctx, *folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("folder_id", "folder does not exist")
		}
		return fmt.Errorf("failed to get folder: %w", err)
	}
	if folder.UserID != ownerID {
		return domain.NewValidationError("folder_id", "folder does not exist")
	}
	return nil
}

func checkLinkFeatures(plan *domain.Plan, direct, shield, ultra bool) error {
	if direct {
		if err := requireFeature(plan, domain.FeatureDirectLinks); err != nil {
			return err
		}
	}
	if shield {
		if err := requireFeature(plan, domain.FeatureShieldLinks); err != nil {
			return err
		}
	}
	if ultra {
		if err := requireFeature(plan, domain.FeatureUltraLinks); err != nil {
			return err
		}
	}
	return nil
}

// applyShieldConfig stores cfg on a shielded link, falling back to the current
// stored config and then to the level defaults. Unshielded links carry no config.
func applyShieldConfig(link *domain.Link, cfg *domain.ShieldConfig, current *string) error {
	if !link.Shielded() {
		link.ShieldConfig = nil
		return nil
	}
	if cfg == nil {
		if current != nil && *current != "" {
			if _, err := domain.ParseShieldConfig(*current); err == nil {
				link.ShieldConfig = current
				return nil
			}
		}
		def := domain.DefaultShieldConfig(link.IsUltraLink)
		cfg = &def
	}
	raw, err := cfg.Encode()
	if err != nil {
		return domain.NewValidationError("shield_config", err.Error())
	}
	link.ShieldConfig = &raw
	return nil
}

func buildSubLinks(in []SubLinkInput) []domain.SubLink {
	return lo.Map(in, func(sl SubLinkInput, i int) domain.SubLink {
		return domain.SubLink{
			Title:       strings.TrimSpace(sl.Title),
			URL:         strings.TrimSpace(sl.URL),
			Description: sl.Description,
			Order:       i,
		}
	})
}

func resetIDs(link *domain.Link) {
	link.ID = 0
	for i := range link.SubLinks {
		link.SubLinks[i].ID = 0
		link.SubLinks[i].LinkID = 0
	}
}
