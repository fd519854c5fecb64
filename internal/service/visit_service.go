package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/observability/metrics"
	"github.com/yourorg/tastebook/internal/observability/tracing"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/pkg/database"
)

const foodSavepoint = "food_get_or_create"

// VisitService writes visits and keeps the aggregates of their places current
type VisitService struct {
	Deps
	engine *MetricsEngine
}

// NewVisitService creates a visit service
func NewVisitService(deps Deps, engine *MetricsEngine) *VisitService {
	deps = deps.withDefaults()
	if engine == nil {
		engine = NewMetricsEngine(deps.Logger)
	}
	return &VisitService{Deps: deps, engine: engine}
}

// List returns the visits of the actor's household
func (s *VisitService) List(ctx context.Context, actor tenant.Actor, f domain.VisitFilter) (domain.Page[domain.Visit], error) {
	return listPage(ctx, s.Pool.DB(), s.Store.Visits, actor.HouseholdID, repository.VisitQuery(f))
}

// Get returns one visit of the actor's household
func (s *VisitService) Get(ctx context.Context, actor tenant.Actor, id string) (domain.Visit, error) {
	return s.Store.Visits.Get(ctx, s.Pool.DB(), actor.HouseholdID, id)
}

// Create validates and stores a visit authored by the actor, then recomputes its place
func (s *VisitService) Create(ctx context.Context, actor tenant.Actor, in domain.VisitInput) (visit domain.Visit, err error) {
	ctx, span := tracing.Start(ctx, "VisitService.Create", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	verr := &domain.ValidationError{}
	if in.PlaceID == nil || *in.PlaceID == "" {
		verr.Add("place", "this field is required")
	}
	if in.Rating == nil {
		verr.Add("rating", "this field is required")
	} else {
		domain.CheckRating(verr, "rating", *in.Rating)
	}
	domain.CheckPrice(verr, "price_per_person", in.PricePerPerson)
	if err := verr.OrNil(); err != nil {
		return domain.Visit{}, err
	}

	date := s.today()
	if in.Date != nil {
		date = dateOnly(*in.Date)
	}
	comment := ""
	if in.Comment != nil {
		comment = strings.TrimSpace(*in.Comment)
	}

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		place, err := resolveReference(ctx, q, s.Store.Places, actor.HouseholdID, *in.PlaceID, false, "place")
		if err != nil {
			return err
		}
		visit, err = s.Store.Visits.Create(ctx, q, actor.HouseholdID, actor.MemberID, []repository.Column{
			repository.Set("place_id", place.ID),
			repository.Set("date", date),
			repository.Set("rating", *in.Rating),
			repository.Set("price_per_person", nullDecimal(in.PricePerPerson)),
			repository.Set("comment", comment),
		})
		if err != nil {
			return err
		}
		_, err = s.engine.Recompute(ctx, q, place.ID)
		return err
	})
	if err != nil {
		return domain.Visit{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "create", "visit", visit.ID)
	return visit, nil
}

// Update changes a visit. Moving a visit to another place recomputes both places.
func (s *VisitService) Update(ctx context.Context, actor tenant.Actor, id string, in domain.VisitInput) (visit domain.Visit, err error) {
	ctx, span := tracing.Start(ctx, "VisitService.Update", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	verr := &domain.ValidationError{}
	if in.Rating != nil {
		domain.CheckRating(verr, "rating", *in.Rating)
	}
	domain.CheckPrice(verr, "price_per_person", in.PricePerPerson)
	if in.PlaceID != nil && *in.PlaceID == "" {
		verr.Add("place", "this field may not be blank")
	}
	if err := verr.OrNil(); err != nil {
		return domain.Visit{}, err
	}

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		current, err := s.Store.Visits.LoadForWrite(ctx, q, actor.HouseholdID, id)
		if err != nil {
			return s.denied(ctx, actor.HouseholdID, actor.MemberID, "visit", id, err)
		}

		var cols []repository.Column
		if in.PlaceID != nil && *in.PlaceID != current.PlaceID {
			place, err := resolveReference(ctx, q, s.Store.Places, actor.HouseholdID, *in.PlaceID, false, "place")
			if err != nil {
				return err
			}
			cols = append(cols, repository.Set("place_id", place.ID))
		}
		if in.Date != nil {
			cols = append(cols, repository.Set("date", dateOnly(*in.Date)))
		}
		if in.Rating != nil {
			cols = append(cols, repository.Set("rating", *in.Rating))
		}
		if in.PricePerPerson != nil || in.ClearPrice {
			cols = append(cols, repository.Set("price_per_person", nullDecimal(in.PricePerPerson)))
		}
		if in.Comment != nil {
			cols = append(cols, repository.Set("comment", strings.TrimSpace(*in.Comment)))
		}

		visit, err = s.Store.Visits.Update(ctx, q, actor.HouseholdID, id, cols)
		if err != nil {
			return err
		}
		if _, err := s.engine.Recompute(ctx, q, visit.PlaceID); err != nil {
			return err
		}
		if visit.PlaceID != current.PlaceID {
			_, err = s.engine.Recompute(ctx, q, current.PlaceID)
		}
		return err
	})
	if err != nil {
		return domain.Visit{}, err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "update", "visit", visit.ID)
	return visit, nil
}

// Delete removes a visit and its foods, then recomputes the place it belonged to
func (s *VisitService) Delete(ctx context.Context, actor tenant.Actor, id string) (err error) {
	ctx, span := tracing.Start(ctx, "VisitService.Delete", actor.HouseholdID)
	defer func() { tracing.End(span, err) }()

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		removed, err := s.Store.Visits.Delete(ctx, q, actor.HouseholdID, id)
		if err != nil {
			return s.denied(ctx, actor.HouseholdID, actor.MemberID, "visit", id, err)
		}
		_, err = s.engine.Recompute(ctx, q, removed.PlaceID)
		return err
	})
	if err != nil {
		return err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "delete", "visit", id)
	return nil
}

// CreateWithFoods creates a visit and the foods tried during it in one transaction.
// Foods named but not yet known to the household are created; a failure anywhere leaves
// no visit, no visit food and no food created by this call.
func (s *VisitService) CreateWithFoods(ctx context.Context, actor tenant.Actor, in domain.CompositeVisitInput) (visitID string, err error) {
	ctx, span := tracing.Start(ctx, "VisitService.CreateWithFoods", actor.HouseholdID,
		attribute.Int("tastebook.food_items", len(in.Foods)),
	)
	defer func() {
		tracing.End(span, err)
		if err != nil {
			metrics.ObserveCompositeVisit("rolled_back")
		} else {
			metrics.ObserveCompositeVisit("committed")
		}
	}()

	verr := &domain.ValidationError{}
	if in.PlaceID == "" {
		verr.Add("place", "this field is required")
	}
	if in.Rating == nil {
		verr.Add("rating", "this field is required")
	} else {
		domain.CheckRating(verr, "rating", *in.Rating)
	}
	domain.CheckPrice(verr, "price_per_person", in.PricePerPerson)
	if err := verr.OrNil(); err != nil {
		return "", err
	}

	date := s.today()
	if in.Date != nil {
		date = dateOnly(*in.Date)
	}

	err = s.Pool.WithTx(ctx, func(q database.Querier) error {
		place, err := resolveReference(ctx, q, s.Store.Places, actor.HouseholdID, in.PlaceID, false, "place")
		if err != nil {
			return err
		}

		visit, err := s.Store.Visits.Create(ctx, q, actor.HouseholdID, actor.MemberID, []repository.Column{
			repository.Set("place_id", place.ID),
			repository.Set("date", date),
			repository.Set("rating", *in.Rating),
			repository.Set("price_per_person", nullDecimal(in.PricePerPerson)),
			repository.Set("comment", strings.TrimSpace(in.Comment)),
		})
		if err != nil {
			return err
		}
		visitID = visit.ID

		for i, item := range in.Foods {
			field := fmt.Sprintf("foods[%d]", i)

			var foodID string
			switch {
			case item.FoodID != "":
				food, err := resolveReference(ctx, q, s.Store.Foods, actor.HouseholdID, item.FoodID, false, field+".food")
				if err != nil {
					return err
				}
				foodID = food.ID
			case item.Name != "":
				itemErr := &domain.ValidationError{}
				name := domain.NormalizeName(itemErr, field+".name", item.Name, domain.MaxFoodName)
				if err := itemErr.OrNil(); err != nil {
					return err
				}
				if foodID, err = s.foodByName(ctx, q, actor, name); err != nil {
					return err
				}
			default:
				continue
			}

			rating := *in.Rating
			if item.Rating != nil {
				rating = *item.Rating
			}
			itemErr := &domain.ValidationError{}
			domain.CheckRating(itemErr, field+".rating", rating)
			domain.CheckPrice(itemErr, field+".price_paid", item.PricePaid)
			if err := itemErr.OrNil(); err != nil {
				return err
			}

			if _, err := s.Store.VisitFoods.Create(ctx, q, actor.HouseholdID, actor.MemberID, []repository.Column{
				repository.Set("visit_id", visit.ID),
				repository.Set("food_id", foodID),
				repository.Set("rating", rating),
				repository.Set("price_paid", nullDecimal(item.PricePaid)),
				repository.Set("comment", strings.TrimSpace(item.Comment)),
			}); err != nil {
				return err
			}
		}

		_, err = s.engine.Recompute(ctx, q, place.ID)
		return err
	})
	if err != nil {
		s.Logger.InfoContext(ctx, "composite visit rolled back",
			slog.String("household_id", actor.HouseholdID),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	s.Audit.LogMutation(ctx, actor.HouseholdID, actor.MemberID, "create_with_foods", "visit", visitID)
	return visitID, nil
}

// foodByName returns the household food called name, ignoring case, creating it when missing.
// A concurrent transaction may insert the same name between lookup and insert; the insert is
// then undone to its savepoint and the lookup retried once.
func (s *VisitService) foodByName(ctx context.Context, q database.Querier, actor tenant.Actor, name string) (string, error) {
	if id, ok, err := s.lookupFood(ctx, q, actor.HouseholdID, name); err != nil || ok {
		if ok {
			metrics.ObserveFoodResolution("matched")
		}
		return id, err
	}

	if err := database.Savepoint(ctx, q, foodSavepoint); err != nil {
		return "", err
	}
	food, err := s.Store.Foods.Create(ctx, q, actor.HouseholdID, actor.MemberID, []repository.Column{
		repository.Set("name", name),
		repository.Set("is_active", true),
	})
	if err == nil {
		metrics.ObserveFoodResolution("created")
		return food.ID, database.Release(ctx, q, foodSavepoint)
	}
	if !domain.IsValidation(err) {
		return "", err
	}

	if rbErr := database.RollbackTo(ctx, q, foodSavepoint); rbErr != nil {
		return "", rbErr
	}
	id, ok, lookupErr := s.lookupFood(ctx, q, actor.HouseholdID, name)
	if lookupErr != nil {
		return "", lookupErr
	}
	if !ok {
		return "", err
	}
	metrics.ObserveFoodResolution("raced")
	return id, nil
}

func (s *VisitService) lookupFood(ctx context.Context, q database.Querier, household, name string) (string, bool, error) {
	rows, err := s.Store.Foods.List(ctx, q, household, repository.Query{
		Conds: []repository.Cond{repository.NameIs(name)},
		Limit: 1,
	})
	if err != nil || len(rows) == 0 {
		return "", false, err
	}
	return rows[0].ID, true, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func listPage[T domain.Entity](
	ctx context.Context,
	q database.Querier,
	repo *repository.Scoped[T],
	household string,
	query repository.Query,
) (domain.Page[T], error) {
	rows, err := repo.List(ctx, q, household, query)
	if err != nil {
		return domain.Page[T]{}, err
	}
	count := len(rows)
	if query.Limit > 0 || query.Offset > 0 {
		if count, err = repo.Count(ctx, q, household, query.Conds); err != nil {
			return domain.Page[T]{}, err
		}
	}
	return domain.Page[T]{Count: count, Results: rows}, nil
}
