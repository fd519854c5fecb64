package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/observability/tracing"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/pkg/database"
)

// PlaceService manages places. Their aggregate fields are never written here.
type PlaceService struct {
	Deps
}

// NewPlaceService creates a place service
func NewPlaceService(deps Deps) *PlaceService {
	return &PlaceService{Deps: deps.withDefaults()}
}

// List returns the places of the actor's household with their tag ids
func (s *PlaceService) List(ctx context.Context, actor tenant.Actor, f domain.PlaceFilter) (domain.Page[domain.Place], error) {
	query, err := repository.PlaceQuery(f)
	if err != nil {
		return domain.Page[domain.Place]{}, err
	}
	page, err := listPage(ctx, s.Pool.DB(), s.Store.Places, actor.HouseholdID, query)
	if err != nil {
		return page, err
	}
	if err := s.attachTags(ctx, s.Pool.DB(), page.Results); err != nil {
		return domain.Page[domain.Place]{}, err
	}
	return page, nil
}

// Get returns one place with its tag ids
func (s *PlaceService) Get(ctx context.Context, actor tenant.Actor, id string) (domain.Place, error) {
	return s.get(ctx, s.Pool.DB(), actor.HouseholdID, id)
}

func (s *PlaceService) get(ctx context.Context, q database.Querier, household, id string) (domain.Place, error) {
	place, err := s.Store.Places.Get(ctx, q, household, id)
	if err != nil {
		return place, err
	}
	places := []domain.Place{place}
	if err := s.attachTags(ctx, q, places); err != nil {
		return domain.Place{}, err
	}
	return places[0], nil
}

func (s *PlaceService) attachTags(ctx context.Context, q database.Querier, places []domain.Place) error {
	ids := make([]string, len(places))
	for i := range places {
		ids[i] = places[i].ID
	}
	tags, err := repository.PlaceTags(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range places {
		places[i].Tags = tags[places[i].ID]
		if places[i].Tags == nil {
			places[i].Tags = []string{}
		}
	}
	return nil
}

// Create stores a place for the actor's household. Aggregates start empty.
func (s *PlaceService) Create(ctx context.Context, actor tenant.Actor, in domain.PlaceInput) (place domain.Place, err error) {
	ctx, span := tracing.Start(ctx, "PlaceService.Create", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	verr := &domain.ValidationError{}
	if in.Name == nil {
		verr.Add("name", "this field is required")
	}
	if in.PlaceTypeID == nil || *in.PlaceTypeID == "" {
		verr.Add("place_type", "this field is required")
	}
	if err := verr.OrNil(); err != nil {
		return place, err
	}

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		cols, err := s.columns(ctx, q, actor, in)
		if err != nil {
			return err
		}
		if in.PriceRange == nil {
			cols = append(cols, repository.Set("price_range", domain.DefaultPriceRange))
		}
		if in.AreaID == nil {
			cols = append(cols, repository.Set("area_id", nil))
		}
		if in.Description == nil {
			cols = append(cols, repository.Set("description", ""))
		}
		if in.URL == nil {
			cols = append(cols, repository.Set("url", ""))
		}
		cols = append(cols, repository.Set("visits_count", 0))

		created, err := s.Store.Places.Create(ctx, q, actor.HouseholdID, actor.MemberID, cols)
		if err != nil {
			return err
		}
		place, err = s.get(ctx, q, actor.HouseholdID, created.ID)
		return err
	})
	if err != nil {
		return domain.Place{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "create", "place", place.ID)
	return place, nil
}

// Update changes the descriptive fields of a place
func (s *PlaceService) Update(ctx context.Context, actor tenant.Actor, id string, in domain.PlaceInput) (place domain.Place, err error) {
	ctx, span := tracing.Start(ctx, "PlaceService.Update", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		if _, err := s.Store.Places.LoadForWrite(ctx, q, actor.HouseholdID, id); err != nil {
			return s.denied(ctx, actor.HouseholdID, actor.MemberID, "place", id, err)
		}
		cols, err := s.columns(ctx, q, actor, in)
		if err != nil {
			return err
		}
		if in.ClearArea && in.AreaID == nil {
			cols = append(cols, repository.Set("area_id", nil))
		}
		if _, err := s.Store.Places.Update(ctx, q, actor.HouseholdID, id, cols); err != nil {
			return err
		}
		place, err = s.get(ctx, q, actor.HouseholdID, id)
		return err
	})
	if err != nil {
		return domain.Place{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "update", "place", id)
	return place, nil
}

// Delete removes a place that has no visits
func (s *PlaceService) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	err := s.Pool.WithTx(ctx, func(q database.Querier) error {
		_, err := s.Store.Places.Delete(ctx, q, actor.HouseholdID, id)
		return s.denied(ctx, actor.HouseholdID, actor.MemberID, "place", id, err)
	})
	if err != nil {
		return err
	}
	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "delete", "place", id)
	return nil
}

// SetTags replaces the tags of a place; every tag must belong to the household
func (s *PlaceService) SetTags(ctx context.Context, actor tenant.Actor, id string, tagIDs []string) (place domain.Place, err error) {
	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		if _, err := s.Store.Places.LoadForWrite(ctx, q, actor.HouseholdID, id); err != nil {
			return s.denied(ctx, actor.HouseholdID, actor.MemberID, "place", id, err)
		}
		for i, tagID := range tagIDs {
			if _, err := resolveReference(ctx, q, s.Store.Tags, actor.HouseholdID, tagID, false, fmt.Sprintf("tags[%d]", i)); err != nil {
				return err
			}
		}
		if err := repository.ReplacePlaceTags(ctx, q, id, tagIDs); err != nil {
			return err
		}
		place, err = s.get(ctx, q, actor.HouseholdID, id)
		return err
	})
	if err != nil {
		return domain.Place{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "set_tags", "place", id)
	return place, nil
}

// columns validates the writable fields present in in and resolves their references
func (s *PlaceService) columns(ctx context.Context, q database.Querier, actor tenant.Actor, in domain.PlaceInput) ([]repository.Column, error) {
	verr := &domain.ValidationError{}
	var cols []repository.Column

	if in.Name != nil {
		cols = append(cols, repository.Set("name", domain.NormalizeName(verr, "name", *in.Name, domain.MaxPlaceName)))
	}
	if in.PriceRange != nil {
		if !domain.ValidPriceRange(*in.PriceRange) {
			verr.Add("price_range", fmt.Sprintf("%q is not a valid choice", *in.PriceRange))
		}
		cols = append(cols, repository.Set("price_range", *in.PriceRange))
	}
	if in.Description != nil {
		cols = append(cols, repository.Set("description", strings.TrimSpace(*in.Description)))
	}
	if in.URL != nil {
		cols = append(cols, repository.Set("url", strings.TrimSpace(*in.URL)))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if in.PlaceTypeID != nil {
		pt, err := resolveReference(ctx, q, s.Store.PlaceTypes, actor.HouseholdID, *in.PlaceTypeID, true, "place_type")
		if err != nil {
			return nil, err
		}
		cols = append(cols, repository.Set("place_type_id", pt.ID))
	}
	if in.AreaID != nil {
		area, err := resolveReference(ctx, q, s.Store.Areas, actor.HouseholdID, *in.AreaID, true, "area")
		if err != nil {
			return nil, err
		}
		cols = append(cols, repository.Set("area_id", area.ID))
	}
	return cols, nil
}
