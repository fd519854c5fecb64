package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
)

func TestComputeMetrics(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	at := func(d, h int) *time.Time {
		v := time.Date(2024, 3, d, h, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name      string
		visits    []domain.Visit
		count     int
		avgRating string
		avgPrice  string
		last      *time.Time
	}{
		{
			name:  "no visits",
			count: 0,
		},
		{
			name: "rating rounded to one decimal",
			visits: []domain.Visit{
				{Rating: decimal.RequireFromString("7"), Date: day(1), CreatedAt: at(1, 12)},
				{Rating: decimal.RequireFromString("8"), Date: day(2), CreatedAt: at(2, 12)},
				{Rating: decimal.RequireFromString("8"), Date: day(3), CreatedAt: at(3, 9)},
			},
			count:     3,
			avgRating: "7.7",
			last:      at(3, 9),
		},
		{
			name: "price averaged over priced visits only",
			visits: []domain.Visit{
				{Rating: decimal.RequireFromString("6"), Date: day(1), PricePerPerson: decimal.NullDecimal{}},
				{Rating: decimal.RequireFromString("6"), Date: day(5), PricePerPerson: decimal.NewNullDecimal(decimal.RequireFromString("10"))},
				{Rating: decimal.RequireFromString("6"), Date: day(2), PricePerPerson: decimal.NewNullDecimal(decimal.RequireFromString("10.50"))},
				{Rating: decimal.RequireFromString("6"), Date: day(3), PricePerPerson: decimal.NewNullDecimal(decimal.RequireFromString("11"))},
			},
			count:     4,
			avgRating: "6",
			avgPrice:  "10.5",
			last: func() *time.Time {
				d := day(5)
				return &d
			}(),
		},
		{
			name: "creation time wins over later dates without one",
			visits: []domain.Visit{
				{Rating: decimal.RequireFromString("9"), Date: day(20)},
				{Rating: decimal.RequireFromString("9"), Date: day(4), CreatedAt: at(4, 18)},
			},
			count:     2,
			avgRating: "9",
			last:      at(4, 18),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := service.ComputeMetrics(tt.visits)
			assert.Equal(t, tt.count, m.VisitCount)
			if tt.avgRating == "" {
				assert.False(t, m.AvgRating.Valid)
			} else {
				requireDecimal(t, tt.avgRating, m.AvgRating)
			}
			if tt.avgPrice == "" {
				assert.False(t, m.AvgPricePerPerson.Valid)
			} else {
				requireDecimal(t, tt.avgPrice, m.AvgPricePerPerson)
			}
			if tt.last == nil {
				assert.Nil(t, m.LastVisitAt)
			} else {
				require.NotNil(t, m.LastVisitAt)
				assert.True(t, tt.last.Equal(*m.LastVisitAt), "last visit %s, want %s", m.LastVisitAt, tt.last)
			}
		})
	}
}

func TestVisitWritesKeepPlaceMetricsCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Trattoria")

	first := f.visit(t, f.alpha, place.ID, "8.0", nil)
	f.visit(t, f.alpha, place.ID, "9.0", nil)

	got := f.reload(t, f.alpha, place.ID)
	assert.Equal(t, 2, got.VisitCount)
	requireDecimal(t, "8.5", got.AvgRating)
	assert.False(t, got.AvgPricePerPerson.Valid)
	require.NotNil(t, got.LastVisitAt)

	require.NoError(t, f.visits.Delete(ctx, f.alpha, first.ID))
	got = f.reload(t, f.alpha, place.ID)
	assert.Equal(t, 1, got.VisitCount)
	requireDecimal(t, "9.0", got.AvgRating)

	visits, err := f.visits.List(ctx, f.alpha, domain.VisitFilter{PlaceID: place.ID})
	require.NoError(t, err)
	require.Len(t, visits.Results, 1)
	require.NoError(t, f.visits.Delete(ctx, f.alpha, visits.Results[0].ID))

	got = f.reload(t, f.alpha, place.ID)
	assert.Equal(t, 0, got.VisitCount)
	assert.False(t, got.AvgRating.Valid)
	assert.False(t, got.AvgPricePerPerson.Valid)
	assert.Nil(t, got.LastVisitAt)
}

func TestAveragePriceIgnoresVisitsWithoutPrice(t *testing.T) {
	f := newFixture(t)
	place := f.place(t, f.alpha, "Bistro")

	f.visit(t, f.alpha, place.ID, "7.0", nil)
	f.visit(t, f.alpha, place.ID, "7.0", dec("20"))
	f.visit(t, f.alpha, place.ID, "7.0", dec("30"))

	got := f.reload(t, f.alpha, place.ID)
	assert.Equal(t, 3, got.VisitCount)
	requireDecimal(t, "25", got.AvgPricePerPerson)
}

func TestMovingVisitRecomputesBothPlaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from := f.place(t, f.alpha, "From")
	to := f.place(t, f.alpha, "To")

	v := f.visit(t, f.alpha, from.ID, "6.0", dec("12.50"))
	_, err := f.visits.Update(ctx, f.alpha, v.ID, domain.VisitInput{PlaceID: &to.ID, Rating: dec("7.5")})
	require.NoError(t, err)

	gotFrom := f.reload(t, f.alpha, from.ID)
	assert.Equal(t, 0, gotFrom.VisitCount)
	assert.False(t, gotFrom.AvgRating.Valid)

	gotTo := f.reload(t, f.alpha, to.ID)
	assert.Equal(t, 1, gotTo.VisitCount)
	requireDecimal(t, "7.5", gotTo.AvgRating)
	requireDecimal(t, "12.50", gotTo.AvgPricePerPerson)
}

func TestClearingVisitPriceDropsItFromAverage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Cantina")

	v := f.visit(t, f.alpha, place.ID, "8.0", dec("40"))
	f.visit(t, f.alpha, place.ID, "8.0", dec("20"))

	_, err := f.visits.Update(ctx, f.alpha, v.ID, domain.VisitInput{ClearPrice: true})
	require.NoError(t, err)

	got := f.reload(t, f.alpha, place.ID)
	requireDecimal(t, "20", got.AvgPricePerPerson)
}

func TestAdminRecomputeRepairsDriftedAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Drifted")
	f.visit(t, f.alpha, place.ID, "6.0", nil)
	f.visit(t, f.alpha, place.ID, "8.0", nil)

	_, err := f.pool.DB().ExecContext(ctx, f.pool.DB().Rebind(`UPDATE places SET visits_count = 42, avg_rating = NULL WHERE id = ?`), place.ID)
	require.NoError(t, err)

	admin := service.NewAdminService(f.deps, nil)
	n, err := admin.RecomputeAll(ctx, f.alpha.HouseholdID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := f.reload(t, f.alpha, place.ID)
	assert.Equal(t, 2, got.VisitCount)
	requireDecimal(t, "7", got.AvgRating)

	_, err = admin.RecomputePlace(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
