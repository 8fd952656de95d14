package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrganizationsTable defines the fully-qualified table for the organization registry.
const OrganizationsTable = "platform.organizations"

// ErrNotFound is returned when an organization record is not found.
var ErrNotFound = errors.New("organization not found")

// OrganizationRecord represents an organization row. TrialEnd is nullable:
// a nil value means the organization has no trial window.
type OrganizationRecord struct {
	OrgID     uuid.UUID  `db:"org_id"`
	Slug      string     `db:"slug"`
	Name      string     `db:"name"`
	TrialEnd  *time.Time `db:"trial_end"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// OrganizationUpdate carries the mutable columns for a partial update.
// Nil pointers leave the column untouched. TrialEnd uses an explicit Set flag
// so billing logic can clear the window (write NULL) as well as move it.
type OrganizationUpdate struct {
	Slug        *string
	Name        *string
	TrialEnd    *time.Time
	TrialEndSet bool
}

// OrganizationStore provides access to the organizations table.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a store; assumes migrations already created the table.
func NewOrganizationStore(ctx context.Context, pool *pgxpool.Pool) (*OrganizationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OrganizationStore{pool: pool}, nil
}

// Create inserts an organization row. The slug column carries a unique index;
// a concurrent writer that commits the same slug first surfaces here as a
// unique-violation error from Postgres, which callers are expected to map.
func (s *OrganizationStore) Create(ctx context.Context, rec OrganizationRecord) (OrganizationRecord, error) {
	if rec.OrgID == uuid.Nil {
		return OrganizationRecord{}, errors.New("org id is required")
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (org_id, slug, name, trial_end, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        RETURNING org_id, slug, name, trial_end, created_at, updated_at
    `, OrganizationsTable)

	now := rec.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx, query, rec.OrgID, rec.Slug, rec.Name, rec.TrialEnd, now)
	return scanOrganizationRecord(row)
}

// Update applies a partial update by id and returns the persisted row.
func (s *OrganizationStore) Update(ctx context.Context, id uuid.UUID, upd OrganizationUpdate) (OrganizationRecord, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Slug != nil {
		appendSet("slug", *upd.Slug)
	}
	if upd.Name != nil {
		appendSet("name", *upd.Name)
	}
	if upd.TrialEndSet {
		appendSet("trial_end", upd.TrialEnd)
	}

	query := fmt.Sprintf(`
        UPDATE %s SET %s
        WHERE org_id = $1
        RETURNING org_id, slug, name, trial_end, created_at, updated_at
    `, OrganizationsTable, strings.Join(sets, ", "))

	return scanOrganizationRecord(s.pool.QueryRow(ctx, query, args...))
}

// GetByID fetches an organization by id.
func (s *OrganizationStore) GetByID(ctx context.Context, id uuid.UUID) (OrganizationRecord, error) {
	query := fmt.Sprintf(`SELECT org_id, slug, name, trial_end, created_at, updated_at
        FROM %s WHERE org_id = $1`, OrganizationsTable)
	return scanOrganizationRecord(s.pool.QueryRow(ctx, query, id))
}

// FindBySlug returns the organization holding slug exactly (the column is
// case-sensitive; normalization guarantees lowercase before any probe).
// When excludeID is valid that row is ignored, so re-saving a record with its
// own slug never reads as a conflict.
func (s *OrganizationStore) FindBySlug(ctx context.Context, slug string, excludeID uuid.NullUUID) (OrganizationRecord, error) {
	query := fmt.Sprintf(`SELECT org_id, slug, name, trial_end, created_at, updated_at
        FROM %s WHERE slug = $1`, OrganizationsTable)
	args := []any{slug}

	if excludeID.Valid {
		query += " AND org_id <> $2"
		args = append(args, excludeID.UUID)
	}

	return scanOrganizationRecord(s.pool.QueryRow(ctx, query, args...))
}

// List returns paginated organizations, newest first, with the total count.
func (s *OrganizationStore) List(ctx context.Context, limit, offset int) ([]OrganizationRecord, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", OrganizationsTable)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT org_id, slug, name, trial_end, created_at, updated_at
        FROM %s
        ORDER BY created_at DESC
        LIMIT %d OFFSET %d`, OrganizationsTable, limit, offset)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []OrganizationRecord
	for rows.Next() {
		rec, err := scanOrganizationRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func scanOrganizationRecord(row pgx.Row) (OrganizationRecord, error) {
	var rec OrganizationRecord
	if err := row.Scan(&rec.OrgID, &rec.Slug, &rec.Name, &rec.TrialEnd, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrganizationRecord{}, ErrNotFound
		}
		return OrganizationRecord{}, err
	}
	return rec, nil
}
