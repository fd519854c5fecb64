package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/pkg/database"
)

// GlobalCatalog is the shared reference data every household can read
type GlobalCatalog struct {
	PlaceTypes []string
	Areas      []string
}

// DefaultGlobalCatalog is seeded by seed-global when no catalog file is given
var DefaultGlobalCatalog = GlobalCatalog{
	PlaceTypes: []string{"Restaurant", "Bar", "Cafe", "Bakery", "Food truck", "Ice cream shop"},
}

// SeedResult counts the rows a seed run inserted and skipped
type SeedResult struct {
	PlaceTypesCreated int `json:"place_types_created"`
	AreasCreated      int `json:"areas_created"`
	Skipped           int `json:"skipped"`
}

// AdminService holds operator-only operations. Nothing here is reachable from tenant requests.
type AdminService struct {
	Deps
	engine *MetricsEngine
}

// NewAdminService creates an admin service
func NewAdminService(deps Deps, engine *MetricsEngine) *AdminService {
	deps = deps.withDefaults()
	if engine == nil {
		engine = NewMetricsEngine(deps.Logger)
	}
	return &AdminService{Deps: deps, engine: engine}
}

// SeedGlobal inserts the missing global place types and areas. Names already present,
// ignoring case, are skipped so the command can be rerun.
func (s *AdminService) SeedGlobal(ctx context.Context, catalog GlobalCatalog) (SeedResult, error) {
	var res SeedResult
	err := s.Pool.WithTx(ctx, func(q database.Querier) error {
		for _, raw := range catalog.PlaceTypes {
			verr := &domain.ValidationError{}
			name := domain.NormalizeName(verr, "place_types", raw, domain.MaxPlaceTypeName)
			if err := verr.OrNil(); err != nil {
				return err
			}
			// the empty household only matches rows without an owner
			existing, err := s.Store.PlaceTypes.List(ctx, q, "", repository.Query{
				Conds: []repository.Cond{repository.NameIs(name)},
				Limit: 1,
			})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				res.Skipped++
				continue
			}
			if _, err := s.Store.PlaceTypes.CreateGlobal(ctx, q, []repository.Column{
				repository.Set("name", name),
				repository.Set("is_active", true),
			}); err != nil {
				return err
			}
			res.PlaceTypesCreated++
		}

		for _, raw := range catalog.Areas {
			verr := &domain.ValidationError{}
			name := domain.NormalizeName(verr, "areas", raw, domain.MaxAreaName)
			if err := verr.OrNil(); err != nil {
				return err
			}
			existing, err := s.Store.Areas.List(ctx, q, "", repository.Query{
				Conds: []repository.Cond{repository.NameIs(name)},
				Limit: 1,
			})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				res.Skipped++
				continue
			}
			if _, err := s.Store.Areas.CreateGlobal(ctx, q, []repository.Column{repository.Set("name", name)}); err != nil {
				return err
			}
			res.AreasCreated++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	s.Logger.InfoContext(ctx, "global catalog seeded",
		slog.Int("place_types_created", res.PlaceTypesCreated),
		slog.Int("areas_created", res.AreasCreated),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

// RecomputePlace rebuilds the aggregates of one place
func (s *AdminService) RecomputePlace(ctx context.Context, placeID string) (domain.PlaceMetrics, error) {
	var m domain.PlaceMetrics
	err := s.Pool.WithTx(ctx, func(q database.Querier) error {
		var err error
		m, err = s.engine.Recompute(ctx, q, placeID)
		return err
	})
	return m, err
}

// RecomputeAll rebuilds the aggregates of every place, or of one household's places when
// household is set. Each place commits in its own transaction.
func (s *AdminService) RecomputeAll(ctx context.Context, household string) (int, error) {
	ids, err := repository.PlaceIDs(ctx, s.Pool.DB(), household)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := s.RecomputePlace(ctx, id); err != nil {
			s.Logger.ErrorContext(ctx, "recompute failed",
				slog.String("place_id", id),
				slog.String("error", err.Error()),
			)
			return i, err
		}
	}
	s.Logger.InfoContext(ctx, "places recomputed", slog.Int("count", len(ids)))
	return len(ids), nil
}
