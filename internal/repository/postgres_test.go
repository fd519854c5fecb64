package repository_test

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
	"github.com/yourorg/tastebook/internal/repository"
)

func newPostgresMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func tagRows(owner any) *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at", "household_id"}).
		AddRow("tag-1", "veg", now, now, owner)
}

func TestPostgresQueriesUseNumberedPlaceholders(t *testing.T) {
	db, mock := newPostgresMock(t)
	store := repository.NewStore(nil)

	mock.ExpectQuery(`FROM tags t WHERE t\.household_id = \$1 AND t\.id = \$2`).
		WithArgs("h1", "tag-1").
		WillReturnRows(tagRows("h1"))

	tag, err := store.Tags.Get(context.Background(), db, "h1", "tag-1")
	require.NoError(t, err)
	assert.Equal(t, "veg", tag.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIncludeGlobalPredicate(t *testing.T) {
	db, mock := newPostgresMock(t)
	store := repository.NewStore(nil)

	mock.ExpectQuery(`FROM place_types t WHERE \(t\.household_id = \$1 OR t\.household_id IS NULL\) ORDER BY t\.name LIMIT \$2`).
		WithArgs("h1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active", "created_at", "updated_at", "household_id"}))

	rows, err := store.PlaceTypes.List(context.Background(), db, "h1", repository.Query{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUniqueViolationBecomesValidationError(t *testing.T) {
	db, mock := newPostgresMock(t)
	store := repository.NewStore(nil)

	mock.ExpectQuery(`FROM tags t WHERE`).WillReturnRows(tagRows("h1"))
	mock.ExpectExec(`UPDATE tags SET name = \$1, name_key = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("VEG", "veg", sqlmock.AnyArg(), "tag-1").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_tag_household_name"})

	_, err := store.Tags.Update(context.Background(), db, "h1", "tag-1", []repository.Column{repository.Set("name", "VEG")})
	require.True(t, domain.IsValidation(err))
	assert.Equal(t, map[string]string{"name": "an entry with this value already exists"}, domain.FieldErrors(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNamedConstraintRefinesConflict(t *testing.T) {
	db, mock := newPostgresMock(t)
	store := repository.NewStore(nil)

	mock.ExpectExec(`INSERT INTO places \(.*name, name_key\)`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_place_household_area_name"})

	_, err := store.Places.Create(context.Background(), db, "h1", "m1", []repository.Column{
		repository.Set("name", "Café Olé"),
	})
	require.True(t, domain.IsValidation(err))
	assert.Equal(t, map[string]string{"name": "a place with this name already exists in this area"}, domain.FieldErrors(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresForeignKeyOnDeleteIsProtected(t *testing.T) {
	db, mock := newPostgresMock(t)
	store := repository.NewStore(nil)

	mock.ExpectQuery(`FROM tags t WHERE`).WillReturnRows(tagRows("h1"))
	mock.ExpectExec(`DELETE FROM tags WHERE id = \$1`).
		WithArgs("tag-1").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := store.Tags.Delete(context.Background(), db, "h1", "tag-1")
	require.ErrorIs(t, err, domain.ErrProtected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGlobalRowRefusedBeforeWrite(t *testing.T) {
	db, mock := newPostgresMock(t)
	store := repository.NewStore(nil)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM place_types t WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active", "created_at", "updated_at", "household_id"}).
			AddRow("pt-1", "Bar", true, now, now, nil))

	_, err := store.PlaceTypes.Delete(context.Background(), db, "h1", "pt-1")
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}
