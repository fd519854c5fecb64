package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tastebook/internal/domain"
)

func TestVisitOnForeignPlaceIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	foreign := f.place(t, f.beta, "Not yours")

	_, err := f.visits.Create(ctx, f.alpha, domain.VisitInput{PlaceID: &foreign.ID, Rating: dec("8")})
	var mismatch *domain.ReferenceTenantMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "place", mismatch.Field)
	assert.Equal(t, 0, f.count(t, "visits"))

	_, err = f.visits.Create(ctx, f.alpha, domain.VisitInput{PlaceID: str("does-not-exist"), Rating: dec("8")})
	require.ErrorAs(t, err, &mismatch, "unknown ids look exactly like foreign ones")

	assert.Equal(t, 0, f.reload(t, f.beta, foreign.ID).VisitCount)
}

func TestVisitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Osteria")

	_, err := f.visits.Create(ctx, f.alpha, domain.VisitInput{PlaceID: &place.ID, Rating: dec("10.5"), PricePerPerson: dec("-1")})
	require.True(t, domain.IsValidation(err))
	fields := domain.FieldErrors(err)
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "price_per_person")

	_, err = f.visits.Create(ctx, f.alpha, domain.VisitInput{PlaceID: &place.ID, Rating: dec("7.25")})
	require.True(t, domain.IsValidation(err))

	_, err = f.visits.Create(ctx, f.alpha, domain.VisitInput{PlaceID: &place.ID})
	assert.Equal(t, map[string]string{"rating": "this field is required"}, domain.FieldErrors(err))
}

func TestVisitDefaultsAndScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Brasserie")

	v := f.visit(t, f.alpha, place.ID, "7.5", nil)
	assert.Equal(t, f.alpha.MemberID, v.AuthorID)
	require.NotNil(t, v.HouseholdID)
	assert.Equal(t, f.alpha.HouseholdID, *v.HouseholdID)

	_, err := f.visits.Get(ctx, f.beta, v.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	err = f.visits.Delete(ctx, f.beta, v.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	date := time.Date(2024, 2, 29, 15, 4, 5, 0, time.UTC)
	updated, err := f.visits.Update(ctx, f.alpha, v.ID, domain.VisitInput{Date: &date, Comment: str("  great  ")})
	require.NoError(t, err)
	assert.True(t, updated.Date.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "great", updated.Comment)
}

func TestCompositeVisitCreatesMissingFoods(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Pizzeria")
	existing := f.food(t, f.alpha, "Margherita")
	foodsBefore := f.count(t, "foods")

	id, err := f.visits.CreateWithFoods(ctx, f.alpha, domain.CompositeVisitInput{
		PlaceID: place.ID,
		Rating:  dec("8.0"),
		Foods: []domain.CompositeFoodItem{
			{FoodID: existing.ID, Rating: dec("9.0"), PricePaid: dec("11.50")},
			{Name: "  Diavola "},
			{},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, foodsBefore+1, f.count(t, "foods"))
	items, err := f.visitFoods.List(ctx, f.alpha, domain.VisitFoodFilter{VisitID: id})
	require.NoError(t, err)
	require.Len(t, items.Results, 2)

	foods, err := f.foods.List(ctx, f.alpha, domain.CatalogFilter{Name: "diavola"})
	require.NoError(t, err)
	require.Len(t, foods.Results, 1)
	assert.Equal(t, "Diavola", foods.Results[0].Name)

	for _, item := range items.Results {
		if item.FoodID == foods.Results[0].ID {
			assert.True(t, item.Rating.Equal(*dec("8")), "item rating defaults to the visit rating")
			assert.False(t, item.PricePaid.Valid)
		}
	}

	got := f.reload(t, f.alpha, place.ID)
	assert.Equal(t, 1, got.VisitCount)
	requireDecimal(t, "8", got.AvgRating)
}

func TestCompositeVisitRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Gelateria")
	existing := f.food(t, f.alpha, "Pistachio")
	foodsBefore := f.count(t, "foods")

	_, err := f.visits.CreateWithFoods(ctx, f.alpha, domain.CompositeVisitInput{
		PlaceID: place.ID,
		Rating:  dec("8.0"),
		Foods: []domain.CompositeFoodItem{
			{Name: "Stracciatella"},
			{FoodID: existing.ID, Rating: dec("11")},
		},
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldErrors(err), "foods[1].rating")

	assert.Equal(t, foodsBefore, f.count(t, "foods"), "food created by the failed call is gone")
	assert.Equal(t, 0, f.count(t, "visits"))
	assert.Equal(t, 0, f.count(t, "visit_foods"))
	assert.Equal(t, 0, f.reload(t, f.alpha, place.ID).VisitCount)
}

func TestCompositeVisitRejectsForeignFood(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Taqueria")
	foreign := f.food(t, f.beta, "Al pastor")

	_, err := f.visits.CreateWithFoods(ctx, f.alpha, domain.CompositeVisitInput{
		PlaceID: place.ID,
		Rating:  dec("7"),
		Foods:   []domain.CompositeFoodItem{{FoodID: foreign.ID}},
	})
	var mismatch *domain.ReferenceTenantMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "foods[0].food", mismatch.Field)
	assert.Equal(t, 0, f.count(t, "visits"))
}

func TestCompositeVisitBlankFoodName(t *testing.T) {
	f := newFixture(t)
	place := f.place(t, f.alpha, "Noodle bar")

	_, err := f.visits.CreateWithFoods(context.Background(), f.alpha, domain.CompositeVisitInput{
		PlaceID: place.ID,
		Rating:  dec("7"),
		Foods:   []domain.CompositeFoodItem{{Name: "   "}},
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldErrors(err), "foods[0].name")
}

func TestFoodNamesAreCaseInsensitivePerHousehold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Forno")
	pizza := f.food(t, f.alpha, "Pizza")

	_, err := f.foods.Create(ctx, f.alpha, domain.CatalogInput{Name: str("pizza")})
	require.True(t, domain.IsValidation(err))
	assert.Equal(t, map[string]string{"name": "an entry with this value already exists"}, domain.FieldErrors(err))

	f.food(t, f.beta, "pizza")

	id, err := f.visits.CreateWithFoods(ctx, f.alpha, domain.CompositeVisitInput{
		PlaceID: place.ID,
		Rating:  dec("9"),
		Foods:   []domain.CompositeFoodItem{{Name: "PIZZA"}},
	})
	require.NoError(t, err)

	items, err := f.visitFoods.List(ctx, f.alpha, domain.VisitFoodFilter{VisitID: id})
	require.NoError(t, err)
	require.Len(t, items.Results, 1)
	assert.Equal(t, pizza.ID, items.Results[0].FoodID)
	assert.Equal(t, 2, f.count(t, "foods"))
}

func TestAccentedFoodNamesAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Pâtisserie")
	f.food(t, f.alpha, "Éclair")

	_, err := f.foods.Create(ctx, f.alpha, domain.CatalogInput{Name: str("éclair")})
	require.True(t, domain.IsValidation(err))
	assert.Equal(t, map[string]string{"name": "an entry with this value already exists"}, domain.FieldErrors(err))

	creme := f.food(t, f.alpha, "Crème brûlée")
	id, err := f.visits.CreateWithFoods(ctx, f.alpha, domain.CompositeVisitInput{
		PlaceID: place.ID,
		Rating:  dec("9"),
		Foods:   []domain.CompositeFoodItem{{Name: "CRÈME BRÛLÉE"}},
	})
	require.NoError(t, err)

	items, err := f.visitFoods.List(ctx, f.alpha, domain.VisitFoodFilter{VisitID: id})
	require.NoError(t, err)
	require.Len(t, items.Results, 1)
	assert.Equal(t, creme.ID, items.Results[0].FoodID)
	assert.Equal(t, 2, f.count(t, "foods"))

	page, err := f.foods.List(ctx, f.alpha, domain.CatalogFilter{Name: "BRÛL"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Crème brûlée", page.Results[0].Name)
}

func TestVisitFoodSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	taqueria := f.place(t, f.alpha, "Taquería Güero")
	ramen := f.place(t, f.alpha, "Ramen Ya")
	pastor := f.food(t, f.alpha, "Al pastor")
	shoyu := f.food(t, f.alpha, "Shoyu")

	review := func(placeID string, food domain.Food, comment string) domain.VisitFood {
		v := f.visit(t, f.alpha, placeID, "8", nil)
		vf, err := f.visitFoods.Create(ctx, f.alpha, domain.VisitFoodInput{
			VisitID: &v.ID, FoodID: &food.ID, Rating: dec("8"), Comment: &comment,
		})
		require.NoError(t, err)
		return vf
	}
	tacos := review(taqueria.ID, pastor, "")
	broth := review(ramen.ID, shoyu, "rich broth")

	for _, tt := range []struct {
		search string
		want   []string
	}{
		{search: "PASTOR", want: []string{tacos.ID}},
		{search: "güero", want: []string{tacos.ID}},
		{search: "Broth", want: []string{broth.ID}},
		{search: "a", want: []string{tacos.ID, broth.ID}},
		{search: "sushi", want: nil},
	} {
		page, err := f.visitFoods.List(ctx, f.alpha, domain.VisitFoodFilter{Search: tt.search})
		require.NoError(t, err, tt.search)
		var got []string
		for _, vf := range page.Results {
			got = append(got, vf.ID)
		}
		assert.ElementsMatch(t, tt.want, got, tt.search)
	}

	page, err := f.visitFoods.List(ctx, f.beta, domain.VisitFoodFilter{Search: "pastor"})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestVisitFoodCrud(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	place := f.place(t, f.alpha, "Dim sum")
	visit := f.visit(t, f.alpha, place.ID, "8", nil)
	food := f.food(t, f.alpha, "Har gow")
	foreignFood := f.food(t, f.beta, "Siu mai")

	vf, err := f.visitFoods.Create(ctx, f.alpha, domain.VisitFoodInput{
		VisitID: &visit.ID, FoodID: &food.ID, Rating: dec("9"), PricePaid: dec("6.40"),
	})
	require.NoError(t, err)
	require.NotNil(t, vf.HouseholdID)
	assert.Equal(t, f.alpha.HouseholdID, *vf.HouseholdID)

	_, err = f.visitFoods.Update(ctx, f.alpha, vf.ID, domain.VisitFoodInput{FoodID: &foreignFood.ID})
	var mismatch *domain.ReferenceTenantMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "food", mismatch.Field)

	updated, err := f.visitFoods.Update(ctx, f.alpha, vf.ID, domain.VisitFoodInput{ClearPrice: true, Rating: dec("8.5")})
	require.NoError(t, err)
	assert.False(t, updated.PricePaid.Valid)
	assert.True(t, updated.Rating.Equal(*dec("8.5")))

	_, err = f.visitFoods.Get(ctx, f.beta, vf.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = f.foods.Delete(ctx, f.alpha, food.ID)
	require.ErrorIs(t, err, domain.ErrProtected, "foods with reviews cannot be deleted")

	require.NoError(t, f.visitFoods.Delete(ctx, f.alpha, vf.ID))
	require.NoError(t, f.foods.Delete(ctx, f.alpha, food.ID))
}

func TestLatestByPlaceRequiresVisibleFood(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	foreign := f.food(t, f.beta, "Ramen")

	_, err := f.visitFoods.LatestByPlace(ctx, f.alpha, foreign.ID, domain.LatestFilter{})
	require.ErrorIs(t, err, domain.ErrNotFound)

	own := f.food(t, f.alpha, "Ramen")
	place := f.place(t, f.alpha, "Ichiran")
	v := f.visit(t, f.alpha, place.ID, "9", nil)
	_, err = f.visitFoods.Create(ctx, f.alpha, domain.VisitFoodInput{VisitID: &v.ID, FoodID: &own.ID, Rating: dec("9.5")})
	require.NoError(t, err)

	got, err := f.visitFoods.LatestByPlace(ctx, f.alpha, own.ID, domain.LatestFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, place.ID, got[0].PlaceID)
}
