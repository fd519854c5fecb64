package service

import (
	"context"
	"strings"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/observability/tracing"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/pkg/database"
)

// VisitFoodService writes the foods tried during visits
type VisitFoodService struct {
	Deps
}

// NewVisitFoodService creates a visit food service
func NewVisitFoodService(deps Deps) *VisitFoodService {
	return &VisitFoodService{Deps: deps.withDefaults()}
}

func (s *VisitFoodService) List(ctx context.Context, actor tenant.Actor, f domain.VisitFoodFilter) (domain.Page[domain.VisitFood], error) {
	return listPage(ctx, s.Pool.DB(), s.Store.VisitFoods, actor.HouseholdID, repository.VisitFoodQuery(f))
}

func (s *VisitFoodService) Get(ctx context.Context, actor tenant.Actor, id string) (domain.VisitFood, error) {
	return s.Store.VisitFoods.Get(ctx, s.Pool.DB(), actor.HouseholdID, id)
}

// Create records a food tried during a visit of the actor's household
func (s *VisitFoodService) Create(ctx context.Context, actor tenant.Actor, in domain.VisitFoodInput) (vf domain.VisitFood, err error) {
	ctx, span := tracing.Start(ctx, "VisitFoodService.Create", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	verr := &domain.ValidationError{}
	if in.VisitID == nil || *in.VisitID == "" {
		verr.Add("visit", "this field is required")
	}
	if in.FoodID == nil || *in.FoodID == "" {
		verr.Add("food", "this field is required")
	}
	if in.Rating == nil {
		verr.Add("rating", "this field is required")
	} else {
		domain.CheckRating(verr, "rating", *in.Rating)
	}
	domain.CheckPrice(verr, "price_paid", in.PricePaid)
	if err := verr.OrNil(); err != nil {
		return domain.VisitFood{}, err
	}

	comment := ""
	if in.Comment != nil {
		comment = strings.TrimSpace(*in.Comment)
	}

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		visit, err := resolveReference(ctx, q, s.Store.Visits, actor.HouseholdID, *in.VisitID, false, "visit")
		if err != nil {
			return err
		}
		food, err := resolveReference(ctx, q, s.Store.Foods, actor.HouseholdID, *in.FoodID, false, "food")
		if err != nil {
			return err
		}
		vf, err = s.Store.VisitFoods.Create(ctx, q, actor.HouseholdID, actor.MemberID, []repository.Column{
			repository.Set("visit_id", visit.ID),
			repository.Set("food_id", food.ID),
			repository.Set("rating", *in.Rating),
			repository.Set("price_paid", nullDecimal(in.PricePaid)),
			repository.Set("comment", comment),
		})
		return err
	})
	if err != nil {
		return domain.VisitFood{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "create", "visit_food", vf.ID)
	return vf, nil
}

// Update changes a visit food; new visit or food references are validated like on create
func (s *VisitFoodService) Update(ctx context.Context, actor tenant.Actor, id string, in domain.VisitFoodInput) (vf domain.VisitFood, err error) {
	ctx, span := tracing.Start(ctx, "VisitFoodService.Update", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	verr := &domain.ValidationError{}
	if in.Rating != nil {
		domain.CheckRating(verr, "rating", *in.Rating)
	}
	domain.CheckPrice(verr, "price_paid", in.PricePaid)
	if err := verr.OrNil(); err != nil {
		return domain.VisitFood{}, err
	}

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		if _, err := s.Store.VisitFoods.LoadForWrite(ctx, q, actor.HouseholdID, id); err != nil {
			return s.denied(ctx, actor.HouseholdID, actor.MemberID, "visit_food", id, err)
		}

		var cols []repository.Column
		if in.VisitID != nil {
			visit, err := resolveReference(ctx, q, s.Store.Visits, actor.HouseholdID, *in.VisitID, false, "visit")
			if err != nil {
				return err
			}
			cols = append(cols, repository.Set("visit_id", visit.ID))
		}
		if in.FoodID != nil {
			food, err := resolveReference(ctx, q, s.Store.Foods, actor.HouseholdID, *in.FoodID, false, "food")
			if err != nil {
				return err
			}
			cols = append(cols, repository.Set("food_id", food.ID))
		}
		if in.Rating != nil {
			cols = append(cols, repository.Set("rating", *in.Rating))
		}
		if in.PricePaid != nil || in.ClearPrice {
			cols = append(cols, repository.Set("price_paid", nullDecimal(in.PricePaid)))
		}
		if in.Comment != nil {
			cols = append(cols, repository.Set("comment", strings.TrimSpace(*in.Comment)))
		}

		var err error
		vf, err = s.Store.VisitFoods.Update(ctx, q, actor.HouseholdID, id, cols)
		return err
	})
	if err != nil {
		return domain.VisitFood{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "update", "visit_food", vf.ID)
	return vf, nil
}

func (s *VisitFoodService) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	err := s.Pool.WithTx(ctx, func(q database.Querier) error {
		_, err := s.Store.VisitFoods.Delete(ctx, q, actor.HouseholdID, id)
		return s.denied(ctx, actor.HouseholdID, actor.MemberID, "visit_food", id, err)
	})
	if err != nil {
		return err
	}
	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "delete", "visit_food", id)
	return nil
}

// LatestByPlace returns the latest review of a visible food at every place of the household
func (s *VisitFoodService) LatestByPlace(ctx context.Context, actor tenant.Actor, foodID string, f domain.LatestFilter) ([]domain.LatestFoodReview, error) {
	if _, err := s.Store.Foods.Get(ctx, s.Pool.DB(), actor.HouseholdID, foodID); err != nil {
		return nil, err
	}
	return repository.LatestByPlace(ctx, s.Pool.DB(), actor.HouseholdID, foodID, f)
}
