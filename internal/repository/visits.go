package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/pkg/database"
)

// VisitQuery translates a VisitFilter into scoped query conditions
func VisitQuery(f domain.VisitFilter) Query {
	var conds []Cond
	if f.PlaceID != "" {
		conds = append(conds, Where("t.place_id = ?", f.PlaceID))
	}
	if f.DateFrom != nil {
		conds = append(conds, Where("t.date >= ?", f.DateFrom.UTC()))
	}
	if f.DateTo != nil {
		conds = append(conds, Where("t.date <= ?", f.DateTo.UTC()))
	}
	if f.MinRating != nil {
		conds = append(conds, Where("t.rating >= ?", *f.MinRating))
	}
	return Query{Conds: conds, Limit: f.Limit, Offset: f.Offset}
}

// VisitFoodQuery translates a VisitFoodFilter into scoped query conditions
func VisitFoodQuery(f domain.VisitFoodFilter) Query {
	var conds []Cond
	if f.FoodID != "" {
		conds = append(conds, Where("t.food_id = ?", f.FoodID))
	}
	if f.VisitID != "" {
		conds = append(conds, Where("t.visit_id = ?", f.VisitID))
	}
	if f.DateFrom != nil {
		conds = append(conds, Where("(SELECT v.date FROM visits v WHERE v.id = t.visit_id) >= ?", f.DateFrom.UTC()))
	}
	if f.DateTo != nil {
		conds = append(conds, Where("(SELECT v.date FROM visits v WHERE v.id = t.visit_id) <= ?", f.DateTo.UTC()))
	}
	if f.MinRating != nil {
		conds = append(conds, Where("t.rating >= ?", *f.MinRating))
	}
	if f.MaxPricePaid != nil {
		conds = append(conds, Where("t.price_paid <= ?", *f.MaxPricePaid))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		key := ContainsPattern(domain.NameKey(s))
		conds = append(conds, Where(`(
			(SELECT fd.name_key FROM foods fd WHERE fd.id = t.food_id) LIKE ? ESCAPE '\'
			OR (SELECT p.name_key FROM visits v JOIN places p ON p.id = v.place_id WHERE v.id = t.visit_id) LIKE ? ESCAPE '\'
			OR lower(t.comment) LIKE ? ESCAPE '\'
		)`, key, key, ContainsPattern(strings.ToLower(s))))
	}
	return Query{Conds: conds, Limit: f.Limit, Offset: f.Offset}
}

var latestOrderings = map[string]string{
	domain.LatestOrderRatingDesc: "vf.rating DESC, v.date DESC, vf.created_at DESC",
	domain.LatestOrderPriceAsc:   "vf.price_paid IS NULL, vf.price_paid, v.date DESC, vf.created_at DESC",
	domain.LatestOrderDateDesc:   "v.date DESC, vf.created_at DESC",
}

// LatestByPlace returns, for every place of household where foodID was reviewed, the most
// recent review of that food. Place filters narrow the candidate places; the rating filter
// applies to the chosen review. Unknown orderings fall back to rating_desc.
func LatestByPlace(ctx context.Context, q database.Querier, household, foodID string, f domain.LatestFilter) ([]domain.LatestFoodReview, error) {
	placeConds := []string{"p2.household_id = ?", "vf2.food_id = ?"}
	args := []any{household, foodID}
	if f.AreaID != "" {
		placeConds = append(placeConds, "p2.area_id = ?")
		args = append(args, f.AreaID)
	}
	if f.PlaceTypeID != "" {
		placeConds = append(placeConds, "p2.place_type_id = ?")
		args = append(args, f.PlaceTypeID)
	}
	if f.PriceRange != "" {
		placeConds = append(placeConds, "p2.price_range = ?")
		args = append(args, f.PriceRange)
	}

	// ranking returns ids only; the outer select reads plain columns so both drivers keep their types
	query := `
		SELECT vf.id AS visit_food_id, vf.food_id, p.id AS place_id, p.name AS place_name,
			vf.rating, vf.price_paid, v.date AS visit_date
		FROM visit_foods vf
		JOIN visits v ON v.id = vf.visit_id
		JOIN places p ON p.id = v.place_id
		WHERE vf.id IN (
			SELECT ranked.id FROM (
				SELECT vf2.id AS id, ROW_NUMBER() OVER (
					PARTITION BY v2.place_id ORDER BY v2.date DESC, vf2.created_at DESC
				) AS rn
				FROM visit_foods vf2
				JOIN visits v2 ON v2.id = vf2.visit_id
				JOIN places p2 ON p2.id = v2.place_id
				WHERE ` + strings.Join(placeConds, " AND ") + `
			) ranked
			WHERE ranked.rn = 1
		)`
	if f.MinRating != nil {
		query += ` AND vf.rating >= ?`
		args = append(args, *f.MinRating)
	}

	order, ok := latestOrderings[f.Ordering]
	if !ok {
		order = latestOrderings[domain.LatestOrderRatingDesc]
	}
	query += ` ORDER BY ` + order

	out := []domain.LatestFoodReview{}
	if err := sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "latest reviews by place")
	}
	return out, nil
}
