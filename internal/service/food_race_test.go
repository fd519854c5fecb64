package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/internal/testutil"
	"github.com/yourorg/tastebook/pkg/database"
)

var raceNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newRaceService(t *testing.T) (*service.VisitService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pool := database.NewFromDB(sqlx.NewDb(db, "postgres"), testutil.Logger())
	deps := service.Deps{Pool: pool, Logger: testutil.Logger(), Now: func() time.Time { return raceNow }}
	return service.NewVisitService(deps, nil), mock
}

func foodColumns() []string {
	return []string{"id", "name", "is_active", "created_at", "updated_at", "household_id"}
}

// expectVisitCreated covers the place lookup and the visit insert that precede the food items
func expectVisitCreated(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM places t WHERE t\.household_id = \$1 AND t\.id = \$2`).
		WithArgs("h1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "place_type_id", "area_id", "price_range", "description", "url",
			"avg_rating", "avg_price_pp", "visits_count", "last_visit_at", "created_at", "updated_at", "household_id",
		}).AddRow("p1", "Pasticceria", "pt1", nil, "€", "", "", nil, nil, 0, nil, raceNow, raceNow, "h1"))
	mock.ExpectExec(`INSERT INTO visits`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM visits t WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "place_id", "author_id", "date", "rating", "price_per_person", "comment", "created_at", "household_id",
		}).AddRow("v1", "p1", "m1", raceNow, "8", nil, "", raceNow, "h1"))
}

// expectFoodInsertRaced covers the first lookup, the savepoint and the insert that loses the race
func expectFoodInsertRaced(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM foods t WHERE t\.household_id = \$1 AND t\.name_key = \$2 ORDER BY t\.name LIMIT \$3`).
		WithArgs("h1", "tiramisù", 1).
		WillReturnRows(sqlmock.NewRows(foodColumns()))
	mock.ExpectExec(`^SAVEPOINT food_get_or_create$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO foods`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_food_household_name"})
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT food_get_or_create$`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func compositeWithNamedFood() domain.CompositeVisitInput {
	return domain.CompositeVisitInput{
		PlaceID: "p1",
		Rating:  dec("8"),
		Foods:   []domain.CompositeFoodItem{{Name: " TIRAMISÙ "}},
	}
}

func TestFoodByNameUsesRowInsertedByConcurrentTransaction(t *testing.T) {
	visits, mock := newRaceService(t)
	actor := tenant.Actor{HouseholdID: "h1", MemberID: "m1"}

	expectVisitCreated(mock)
	expectFoodInsertRaced(mock)
	mock.ExpectQuery(`FROM foods t WHERE t\.household_id = \$1 AND t\.name_key = \$2`).
		WithArgs("h1", "tiramisù", 1).
		WillReturnRows(sqlmock.NewRows(foodColumns()).AddRow("f-other", "Tiramisù", true, raceNow, raceNow, "h1"))
	mock.ExpectExec(`INSERT INTO visit_foods \(id, created_at, visit_id, food_id, rating, price_paid, comment\)`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "v1", "f-other", sqlmock.AnyArg(), sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM visit_foods t WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "visit_id", "food_id", "rating", "price_paid", "comment", "created_at", "household_id",
		}).AddRow("vf1", "v1", "f-other", "8", nil, "", raceNow, "h1"))
	mock.ExpectQuery(`FROM visits v\s+JOIN places p`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "place_id", "author_id", "date", "rating", "price_per_person", "comment", "created_at", "household_id",
		}).AddRow("v1", "p1", "m1", raceNow, "8", nil, "", raceNow, "h1"))
	mock.ExpectExec(`UPDATE places\s+SET visits_count`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := visits.CreateWithFoods(context.Background(), actor, compositeWithNamedFood())
	require.NoError(t, err)
	assert.Equal(t, "v1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoodByNameGivesUpWhenRetriedLookupMisses(t *testing.T) {
	visits, mock := newRaceService(t)
	actor := tenant.Actor{HouseholdID: "h1", MemberID: "m1"}

	expectVisitCreated(mock)
	expectFoodInsertRaced(mock)
	mock.ExpectQuery(`FROM foods t WHERE t\.household_id = \$1 AND t\.name_key = \$2`).
		WithArgs("h1", "tiramisù", 1).
		WillReturnRows(sqlmock.NewRows(foodColumns()))
	mock.ExpectRollback()

	id, err := visits.CreateWithFoods(context.Background(), actor, compositeWithNamedFood())
	require.True(t, domain.IsValidation(err))
	assert.Equal(t, map[string]string{"name": "an entry with this value already exists"}, domain.FieldErrors(err))
	assert.Empty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}
