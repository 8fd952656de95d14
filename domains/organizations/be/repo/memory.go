package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/northbeam-labs/harbor-saas/domains/organizations/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests
// and early development. Like the Postgres index, Create and Update reject a
// slug some other record already holds.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]service.Organization
	bySlug map[string]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]service.Organization), bySlug: make(map[string]uuid.UUID)}
}

func (r *MemoryRepository) Create(ctx context.Context, org service.Organization) (service.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlug[org.Slug]; exists {
		return service.Organization{}, service.ErrSlugTaken
	}

	r.byID[org.ID] = org
	r.bySlug[org.Slug] = org.ID
	return org, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.byID[id]
	if !ok {
		return service.Organization{}, service.ErrNotFound
	}

	if input.Slug != nil && *input.Slug != org.Slug {
		if holder, exists := r.bySlug[*input.Slug]; exists && holder != id {
			return service.Organization{}, service.ErrSlugTaken
		}
		delete(r.bySlug, org.Slug)
		org.Slug = *input.Slug
		r.bySlug[org.Slug] = id
	}
	if input.Name != nil {
		org.Name = *input.Name
	}
	org.UpdatedAt = time.Now().UTC()

	r.byID[id] = org
	return org, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (service.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, ok := r.byID[id]
	if !ok {
		return service.Organization{}, service.ErrNotFound
	}
	return org, nil
}

func (r *MemoryRepository) FindBySlug(ctx context.Context, slug string, excludeID uuid.NullUUID) (service.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlug[slug]
	if !ok || (excludeID.Valid && id == excludeID.UUID) {
		return service.Organization{}, service.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]service.Organization, 0, len(r.byID))
	for _, org := range r.byID {
		items = append(items, org)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	paged := items[start:end]
	totalPages := (len(items) + pageSize - 1) / pageSize

	return service.ListResult{
		Organizations: paged,
		Page:          page,
		PageSize:      pageSize,
		TotalItems:    len(items),
		TotalPages:    totalPages,
	}, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
