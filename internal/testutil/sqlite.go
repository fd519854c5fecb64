// Package testutil opens migrated in-memory databases for package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/pkg/database"
)

// Logger discards everything
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDB returns a private in-memory SQLite database with every migration applied
func NewDB(t testing.TB) *database.ConnectionPool {
	t.Helper()
	ctx := context.Background()

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Driver: database.DriverSQLite,
		Path:   ":memory:",
	}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	require.NoError(t, pool.Migrate(ctx))
	return pool
}

// Household is a household with one member
type Household struct {
	ID       string
	MemberID string
}

// NewHousehold creates a household and its first member
func NewHousehold(t testing.TB, pool *database.ConnectionPool, name string) Household {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewHouseholdRepository(pool.DB(), Logger())

	h := &domain.Household{Name: name}
	require.NoError(t, repo.Create(ctx, h))
	m := &domain.Member{HouseholdID: h.ID, Username: name + "-member"}
	require.NoError(t, repo.AddMember(ctx, m))
	return Household{ID: h.ID, MemberID: m.ID}
}

// GlobalPlaceType inserts a place type shared by every household
func GlobalPlaceType(t testing.TB, pool *database.ConnectionPool, name string) string {
	t.Helper()
	store := repository.NewStore(nil)
	id, err := store.PlaceTypes.CreateGlobal(context.Background(), pool.DB(), []repository.Column{
		repository.Set("name", name),
		repository.Set("is_active", true),
	})
	require.NoError(t, err)
	return id
}
