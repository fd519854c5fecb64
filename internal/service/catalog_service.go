package service

import (
	"context"
	"strings"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/pkg/database"
)

// CatalogService manages one named catalog (place types, tags, foods, areas)
type CatalogService[T domain.Entity] struct {
	Deps
	repo      *repository.Scoped[T]
	resource  string
	maxLen    int
	hasActive bool
	// readOnly catalogs are only written by privileged seeding
	readOnly bool
}

func NewPlaceTypeService(deps Deps) *CatalogService[domain.PlaceType] {
	deps = deps.withDefaults()
	return &CatalogService[domain.PlaceType]{Deps: deps, repo: deps.Store.PlaceTypes, resource: "place_type", maxLen: domain.MaxPlaceTypeName, hasActive: true}
}

func NewTagService(deps Deps) *CatalogService[domain.Tag] {
	deps = deps.withDefaults()
	return &CatalogService[domain.Tag]{Deps: deps, repo: deps.Store.Tags, resource: "tag", maxLen: domain.MaxTagName}
}

func NewFoodService(deps Deps) *CatalogService[domain.Food] {
	deps = deps.withDefaults()
	return &CatalogService[domain.Food]{Deps: deps, repo: deps.Store.Foods, resource: "food", maxLen: domain.MaxFoodName, hasActive: true}
}

func NewAreaService(deps Deps) *CatalogService[domain.Area] {
	deps = deps.withDefaults()
	return &CatalogService[domain.Area]{Deps: deps, repo: deps.Store.Areas, resource: "area", maxLen: domain.MaxAreaName, readOnly: true}
}

// List returns the catalog rows visible to the actor
func (s *CatalogService[T]) List(ctx context.Context, actor tenant.Actor, f domain.CatalogFilter) (domain.Page[T], error) {
	var conds []repository.Cond
	if name := strings.TrimSpace(f.Name); name != "" {
		conds = append(conds, repository.NameContains(name))
	}
	if f.IsActive != nil && s.hasActive {
		conds = append(conds, repository.Where("t.is_active = ?", *f.IsActive))
	}
	return listPage(ctx, s.Pool.DB(), s.repo, actor.HouseholdID, repository.Query{Conds: conds, Limit: f.Limit, Offset: f.Offset})
}

func (s *CatalogService[T]) Get(ctx context.Context, actor tenant.Actor, id string) (T, error) {
	return s.repo.Get(ctx, s.Pool.DB(), actor.HouseholdID, id)
}

// Create stores a private row for the actor's household
func (s *CatalogService[T]) Create(ctx context.Context, actor tenant.Actor, in domain.CatalogInput) (row T, err error) {
	if s.readOnly {
		return row, s.denied(ctx, actor.HouseholdID, actor.MemberID, s.resource, "", domain.ErrPermissionDenied)
	}
	cols, err := s.columns(in, true)
	if err != nil {
		return row, err
	}
	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		var err error
		row, err = s.repo.Create(ctx, q, actor.HouseholdID, actor.MemberID, cols)
		return err
	})
	if err != nil {
		return row, err
	}
	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "create", s.resource, row.EntityID())
	return row, nil
}

// Update renames or (de)activates a private row
func (s *CatalogService[T]) Update(ctx context.Context, actor tenant.Actor, id string, in domain.CatalogInput) (row T, err error) {
	if s.readOnly {
		return row, s.denied(ctx, actor.HouseholdID, actor.MemberID, s.resource, id, domain.ErrPermissionDenied)
	}
	cols, err := s.columns(in, false)
	if err != nil {
		return row, err
	}
	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		var err error
		row, err = s.repo.Update(ctx, q, actor.HouseholdID, id, cols)
		return s.denied(ctx, actor.HouseholdID, actor.MemberID, s.resource, id, err)
	})
	if err != nil {
		return row, err
	}
	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "update", s.resource, id)
	return row, nil
}

// Delete removes a private row; rows still referenced elsewhere are protected
func (s *CatalogService[T]) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	if s.readOnly {
		return s.denied(ctx, actor.HouseholdID, actor.MemberID, s.resource, id, domain.ErrPermissionDenied)
	}
	err := s.Pool.WithTx(ctx, func(q database.Querier) error {
		_, err := s.repo.Delete(ctx, q, actor.HouseholdID, id)
		return s.denied(ctx, actor.HouseholdID, actor.MemberID, s.resource, id, err)
	})
	if err != nil {
		return err
	}
	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "delete", s.resource, id)
	return nil
}

func (s *CatalogService[T]) columns(in domain.CatalogInput, creating bool) ([]repository.Column, error) {
	verr := &domain.ValidationError{}
	var cols []repository.Column
	switch {
	case in.Name != nil:
		cols = append(cols, repository.Set("name", domain.NormalizeName(verr, "name", *in.Name, s.maxLen)))
	case creating:
		verr.Add("name", "this field is required")
	}
	if s.hasActive {
		switch {
		case in.IsActive != nil:
			cols = append(cols, repository.Set("is_active", *in.IsActive))
		case creating:
			cols = append(cols, repository.Set("is_active", true))
		}
	}
	return cols, verr.OrNil()
}
