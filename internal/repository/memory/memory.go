package memory

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage хранит все данные в памяти процесса. Используется в тестах и в
// режиме database.driver=memory.
type MemStorage struct {
	mu         sync.RWMutex
	users      map[int64]*domain.User
	plans      map[int16]domain.Plan
	links      map[int64]*domain.Link
	slugs      map[string]int64
	folders    map[int64]*domain.Folder
	events     []domain.VisitEvent
	linkSeq    int64
	subLinkSeq int64
	folderSeq  int64
	eventSeq   int64
}

func New() *MemStorage {
	s := &MemStorage{
		users:   make(map[int64]*domain.User),
		plans:   make(map[int16]domain.Plan),
		links:   make(map[int64]*domain.Link),
		slugs:   make(map[string]int64),
		folders: make(map[int64]*domain.Folder),
	}
	for _, p := range domain.DefaultPlans() {
		s.plans[p.ID] = p
	}
	return s
}

// SetUserPlan assigns a plan to a user, creating the user when needed.
func (s *MemStorage) SetUserPlan(userID int64, planID int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &domain.User{ID: userID, CreatedAt: time.Now()}
		s.users[userID] = u
	}
	u.PlanID = planID
}

// --- User Methods ---

func (s *MemStorage) FindOrCreateUser(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, exists := s.users[userID]; exists {
		u := *user
		return &u, nil
	}

	newUser := &domain.User{
		ID:        userID,
		PlanID:    domain.FreePlanID,
		CreatedAt: time.Now(),
	}
	s.users[userID] = newUser

	u := *newUser
	return &u, nil
}

func (s *MemStorage) GetPlan(_ context.Context, planID int16) (*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *MemStorage) ListPlans(_ context.Context) ([]domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := make([]domain.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans, nil
}

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Проверяем, существует ли уже такой slug
	if _, exists := s.slugs[link.Slug]; exists {
		return domain.ErrSlugExists
	}

	s.linkSeq++
	now := time.Now()
	link.ID = s.linkSeq
	link.CreatedAt = now
	link.UpdatedAt = now
	s.assignSubLinkIDs(link)

	s.links[link.ID] = cloneLink(link)
	s.slugs[link.Slug] = link.ID
	return nil
}

func (s *MemStorage) GetLink(_ context.Context, id int64) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneLink(link), nil
}

func (s *MemStorage) GetLinkBySlug(_ context.Context, slug string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.slugs[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneLink(s.links[id]), nil
}

func (s *MemStorage) UpdateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.links[link.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Slug != link.Slug {
		if _, taken := s.slugs[link.Slug]; taken {
			return domain.ErrSlugExists
		}
		delete(s.slugs, existing.Slug)
		s.slugs[link.Slug] = link.ID
	}

	link.CreatedAt = existing.CreatedAt
	link.UpdatedAt = time.Now()
	s.assignSubLinkIDs(link)
	s.links[link.ID] = cloneLink(link)
	return nil
}

func (s *MemStorage) DeleteLink(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.slugs, link.Slug)
	delete(s.links, id)
	return nil
}

func (s *MemStorage) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.slugs[slug]
	return ok, nil
}

func (s *MemStorage) ListUserLinks(_ context.Context, userID int64) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var userLinks []*domain.Link
	for _, link := range s.links {
		if link.UserID == userID {
			userLinks = append(userLinks, cloneLink(link))
		}
	}
	sort.Slice(userLinks, func(i, j int) bool {
		if userLinks[i].Order != userLinks[j].Order {
			return userLinks[i].Order < userLinks[j].Order
		}
		return userLinks[i].ID < userLinks[j].ID
	})
	return userLinks, nil
}

func (s *MemStorage) CountUserLinks(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, link := range s.links {
		if link.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *MemStorage) NextLinkOrder(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := 1
	for _, link := range s.links {
		if link.UserID == userID && link.Order >= next {
			next = link.Order + 1
		}
	}
	return next, nil
}

// --- Folder Methods ---

func (s *MemStorage) CreateFolder(_ context.Context, folder *domain.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folderSeq++
	now := time.Now()
	folder.ID = s.folderSeq
	folder.CreatedAt = now
	folder.UpdatedAt = now
	f := *folder
	s.folders[f.ID] = &f
	return nil
}

func (s *MemStorage) GetFolder(_ context.Context, id int64) (*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemStorage) UpdateFolder(_ context.Context, folder *domain.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.folders[folder.ID]
	if !ok {
		return domain.ErrNotFound
	}
	f := *folder
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = time.Now()
	s.folders[f.ID] = &f
	return nil
}

// DeleteFolder удаляет папку: дочерние папки переходят к родителю, ссылки
// становятся без папки.
func (s *MemStorage) DeleteFolder(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	folder, ok := s.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, child := range s.folders {
		if child.ParentID != nil && *child.ParentID == id {
			child.ParentID = folder.ParentID
		}
	}
	for _, link := range s.links {
		if link.FolderID != nil && *link.FolderID == id {
			link.FolderID = nil
		}
	}
	delete(s.folders, id)
	return nil
}

func (s *MemStorage) ListUserFolders(_ context.Context, userID int64) ([]*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var folders []*domain.Folder
	for _, f := range s.folders {
		if f.UserID == userID {
			cp := *f
			folders = append(folders, &cp)
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		if folders[i].Order != folders[j].Order {
			return folders[i].Order < folders[j].Order
		}
		return folders[i].ID < folders[j].ID
	})
	return folders, nil
}

// --- Visit Event Methods ---

func (s *MemStorage) AppendEvent(_ context.Context, event *domain.VisitEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[event.LinkID]; !ok {
		return domain.ErrNotFound
	}
	s.eventSeq++
	event.ID = s.eventSeq
	s.events = append(s.events, *event)
	return nil
}

func (s *MemStorage) ListEvents(_ context.Context, filter repository.EventFilter) ([]domain.VisitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.VisitEvent
	for i := range s.events {
		if filter.Matches(&s.events[i]) {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// --- Helper Methods ---

func (s *MemStorage) assignSubLinkIDs(link *domain.Link) {
	for i := range link.SubLinks {
		if link.SubLinks[i].ID == 0 {
			s.subLinkSeq++
			link.SubLinks[i].ID = s.subLinkSeq
		}
		link.SubLinks[i].LinkID = link.ID
	}
}

func cloneLink(l *domain.Link) *domain.Link {
	cp := *l
	if l.SubLinks != nil {
		cp.SubLinks = make([]domain.SubLink, len(l.SubLinks))
		copy(cp.SubLinks, l.SubLinks)
	}
	return &cp
}
