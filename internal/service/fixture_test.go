package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/internal/testutil"
	"github.com/yourorg/tastebook/pkg/database"
)

type fixture struct {
	pool      *database.ConnectionPool
	deps      service.Deps
	alpha     tenant.Actor
	beta      tenant.Actor
	placeType string

	places     *service.PlaceService
	visits     *service.VisitService
	visitFoods *service.VisitFoodService
	foods      *service.CatalogService[domain.Food]
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	pool := testutil.NewDB(t)
	deps := service.Deps{Pool: pool, Logger: testutil.Logger()}

	alpha := testutil.NewHousehold(t, pool, "alpha")
	beta := testutil.NewHousehold(t, pool, "beta")

	return fixture{
		pool:       pool,
		deps:       deps,
		alpha:      tenant.Actor{HouseholdID: alpha.ID, MemberID: alpha.MemberID, Username: "alpha-member"},
		beta:       tenant.Actor{HouseholdID: beta.ID, MemberID: beta.MemberID, Username: "beta-member"},
		placeType:  testutil.GlobalPlaceType(t, pool, "Restaurant"),
		places:     service.NewPlaceService(deps),
		visits:     service.NewVisitService(deps, nil),
		visitFoods: service.NewVisitFoodService(deps),
		foods:      service.NewFoodService(deps),
	}
}

func (f fixture) place(t *testing.T, actor tenant.Actor, name string) domain.Place {
	t.Helper()
	p, err := f.places.Create(context.Background(), actor, domain.PlaceInput{
		Name:        &name,
		PlaceTypeID: &f.placeType,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) visit(t *testing.T, actor tenant.Actor, placeID, rating string, price *decimal.Decimal) domain.Visit {
	t.Helper()
	v, err := f.visits.Create(context.Background(), actor, domain.VisitInput{
		PlaceID:        &placeID,
		Rating:         dec(rating),
		PricePerPerson: price,
	})
	require.NoError(t, err)
	return v
}

func (f fixture) food(t *testing.T, actor tenant.Actor, name string) domain.Food {
	t.Helper()
	food, err := f.foods.Create(context.Background(), actor, domain.CatalogInput{Name: &name})
	require.NoError(t, err)
	return food
}

func (f fixture) reload(t *testing.T, actor tenant.Actor, id string) domain.Place {
	t.Helper()
	p, err := f.places.Get(context.Background(), actor, id)
	require.NoError(t, err)
	return p
}

func (f fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.pool.DB().GetContext(context.Background(), &n, "SELECT count(*) FROM "+table))
	return n
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func requireDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected %s, got NULL", want)
	require.True(t, got.Decimal.Equal(decimal.RequireFromString(want)), "expected %s, got %s", want, got.Decimal)
}
