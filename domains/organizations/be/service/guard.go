package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/northbeam-labs/harbor-saas/platform/go/slug"
)

// defaultReservedSlugs lists slug values that collide with static routes
// under the organizations namespace. Membership is tested case-sensitively
// against the already-lowercased candidate.
var defaultReservedSlugs = map[string]struct{}{
	"new": {},
}

// DefaultTrialPeriod is stamped onto creations that omit a trial end.
const DefaultTrialPeriod = 14 * 24 * time.Hour

// Guard wraps a Repository's write entry points so that slug uniqueness
// resolution and trial defaulting run exactly once, synchronously, before the
// underlying write. It performs no retry: a storage-level uniqueness
// violation from a lost race propagates unchanged to the caller, who may
// re-run the whole operation to obtain a fresh candidate.
type Guard struct {
	repo     Repository
	reserved map[string]struct{}
	now      func() time.Time
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithReservedSlugs adds slug values to the reserved set.
func WithReservedSlugs(slugs ...string) GuardOption {
	return func(g *Guard) {
		for _, s := range slugs {
			g.reserved[s] = struct{}{}
		}
	}
}

// WithClock overrides the time source used for trial defaulting.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard constructs a Guard around repo.
func NewGuard(repo Repository, opts ...GuardOption) *Guard {
	if repo == nil {
		panic("organizations repo is required")
	}
	g := &Guard{
		repo:     repo,
		reserved: map[string]struct{}{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for r := range defaultReservedSlugs {
		g.reserved[r] = struct{}{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create resolves the slug candidate, defaults the trial end when the field
// was omitted, and hands the rewritten payload to the repository.
func (g *Guard) Create(ctx context.Context, input CreateInput) (Organization, error) {
	candidate := input.Slug
	if candidate == "" {
		candidate = slug.Normalize(input.Name)
	}

	resolved, err := g.resolveSlug(ctx, candidate, uuid.NullUUID{})
	if err != nil {
		return Organization{}, err
	}

	now := g.now()
	trialEnd := input.TrialEnd.Value
	if !input.TrialEnd.Set {
		t := now.Add(DefaultTrialPeriod)
		trialEnd = &t
	}

	org := Organization{
		ID:        uuid.New(),
		Slug:      resolved,
		Name:      input.Name,
		TrialEnd:  trialEnd,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return g.repo.Create(ctx, org)
}

// Update re-resolves the slug only when the input carries one; updates that
// omit the slug pass through untouched. The record's own id is excluded from
// the probe so re-saving an unchanged slug is never a conflict.
func (g *Guard) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Organization, error) {
	if input.Slug != nil {
		resolved, err := g.resolveSlug(ctx, *input.Slug, uuid.NullUUID{UUID: id, Valid: true})
		if err != nil {
			return Organization{}, err
		}
		input.Slug = &resolved
	}
	return g.repo.Update(ctx, id, input)
}

// resolveSlug probes the repository for a non-excluded holder of candidate
// and tests the reserved set. On either hit it appends one random suffix and
// lowercases the result. A single pass only: the suffixed value is not
// re-checked, leaving the store's unique index as the backstop for the
// residual collision odds.
func (g *Guard) resolveSlug(ctx context.Context, candidate string, excludeID uuid.NullUUID) (string, error) {
	taken := false
	if _, err := g.repo.FindBySlug(ctx, candidate, excludeID); err == nil {
		taken = true
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	if _, reserved := g.reserved[candidate]; !taken && !reserved {
		return candidate, nil
	}

	return strings.ToLower(candidate + "-" + slug.RandomSuffix()), nil
}
