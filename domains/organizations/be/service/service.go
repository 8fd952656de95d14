package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the service layer.
var (
	ErrNotFound  = errors.New("organization not found")
	ErrSlugTaken = errors.New("organization slug already exists")
)

// Organization represents the domain model for a tenant organization.
// TrialEnd is nil when the organization has no trial window.
type Organization struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	TrialEnd  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OptionalTime distinguishes an absent field from an explicit null: Set is
// false when the caller omitted the field entirely, true otherwise. A set
// field with a nil Value means "no trial".
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// CreateInput represents the request to create an organization. Slug is
// optional; when empty the candidate is derived from Name. A supplied Slug is
// expected to be pre-normalized by the caller.
type CreateInput struct {
	Name     string
	Slug     string
	TrialEnd OptionalTime
}

// UpdateInput represents mutable fields for an organization. A nil Slug means
// the caller is not changing the slug and no uniqueness resolution runs.
type UpdateInput struct {
	Name *string
	Slug *string
}

// ListResult wraps paginated organizations.
type ListResult struct {
	Organizations []Organization
	Page          int
	PageSize      int
	TotalItems    int
	TotalPages    int
}

// ListOptions captures pagination.
type ListOptions struct {
	Page     int
	PageSize int
}

// Repository abstracts persistence. FindBySlug must match exactly and
// case-sensitively, skipping the excluded id when one is supplied.
type Repository interface {
	Create(ctx context.Context, org Organization) (Organization, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Organization, error)
	Get(ctx context.Context, id uuid.UUID) (Organization, error)
	FindBySlug(ctx context.Context, slug string, excludeID uuid.NullUUID) (Organization, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
}

// Service provides organization registry operations. Every write flows
// through the guard so slug resolution and trial defaulting run exactly once
// per call, before the underlying write.
type Service struct {
	repo  Repository
	guard *Guard
}

// New constructs a Service with required dependencies.
func New(repo Repository, opts ...GuardOption) *Service {
	if repo == nil {
		panic("organizations repo is required")
	}
	return &Service{repo: repo, guard: NewGuard(repo, opts...)}
}

// Create registers a new organization with a resolved slug and defaulted
// trial end.
func (s *Service) Create(ctx context.Context, input CreateInput) (Organization, error) {
	return s.guard.Create(ctx, input)
}

// Update modifies mutable fields of an organization, re-resolving the slug
// only when the input carries one.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Organization, error) {
	return s.guard.Update(ctx, id, input)
}

// Get returns an organization by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Organization, error) {
	return s.repo.Get(ctx, id)
}

// GetBySlug returns an organization by its exact slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Organization, error) {
	return s.repo.FindBySlug(ctx, slug, uuid.NullUUID{})
}

// List organizations with pagination.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	return s.repo.List(ctx, opts)
}
