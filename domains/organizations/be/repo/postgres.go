package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/northbeam-labs/harbor-saas/domains/organizations/be/service"
	"github.com/northbeam-labs/harbor-saas/platform/go/persistence"
)

// PostgresRepository implements the organization repository on top of the
// shared persistence layer.
type PostgresRepository struct {
	store *persistence.OrganizationStore
}

// NewPostgresRepository constructs a repository backed by OrganizationStore.
func NewPostgresRepository(store *persistence.OrganizationStore) *PostgresRepository {
	if store == nil {
		panic("organization store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Create(ctx context.Context, org service.Organization) (service.Organization, error) {
	out, err := r.store.Create(ctx, toRecord(org))
	if err != nil {
		return service.Organization{}, mapStoreError(err)
	}
	return toServiceOrganization(out), nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Organization, error) {
	out, err := r.store.Update(ctx, id, persistence.OrganizationUpdate{
		Slug: input.Slug,
		Name: input.Name,
	})
	if err != nil {
		return service.Organization{}, mapStoreError(err)
	}
	return toServiceOrganization(out), nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (service.Organization, error) {
	rec, err := r.store.GetByID(ctx, id)
	if err != nil {
		return service.Organization{}, mapStoreError(err)
	}
	return toServiceOrganization(rec), nil
}

func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string, excludeID uuid.NullUUID) (service.Organization, error) {
	rec, err := r.store.FindBySlug(ctx, slug, excludeID)
	if err != nil {
		return service.Organization{}, mapStoreError(err)
	}
	return toServiceOrganization(rec), nil
}

func (r *PostgresRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	rows, total, err := r.store.List(ctx, size, offset)
	if err != nil {
		return service.ListResult{}, err
	}

	orgs := make([]service.Organization, 0, len(rows))
	for _, rec := range rows {
		orgs = append(orgs, toServiceOrganization(rec))
	}

	totalPages := (total + size - 1) / size
	return service.ListResult{Organizations: orgs, Page: page, PageSize: size, TotalItems: total, TotalPages: totalPages}, nil
}

func toRecord(org service.Organization) persistence.OrganizationRecord {
	return persistence.OrganizationRecord{
		OrgID:     org.ID,
		Slug:      org.Slug,
		Name:      org.Name,
		TrialEnd:  org.TrialEnd,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}

func toServiceOrganization(rec persistence.OrganizationRecord) service.Organization {
	return service.Organization{
		ID:        rec.OrgID,
		Slug:      rec.Slug,
		Name:      rec.Name,
		TrialEnd:  rec.TrialEnd,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// mapStoreError translates persistence errors into service sentinels. Unique
// violations on the slug index are the authoritative backstop beneath the
// application-level probe.
func mapStoreError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return service.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return service.ErrSlugTaken
	}
	return err
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
