package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/pkg/database"
)

// nullable columns sort their NULLs last in both directions
var placeOrderings = map[string]string{
	"name":           "t.name",
	"-name":          "t.name DESC",
	"avg_rating":     "t.avg_rating IS NULL, t.avg_rating, t.name",
	"-avg_rating":    "t.avg_rating IS NULL, t.avg_rating DESC, t.name",
	"avg_price_pp":   "t.avg_price_pp IS NULL, t.avg_price_pp, t.name",
	"-avg_price_pp":  "t.avg_price_pp IS NULL, t.avg_price_pp DESC, t.name",
	"last_visit_at":  "t.last_visit_at IS NULL, t.last_visit_at, t.name",
	"-last_visit_at": "t.last_visit_at IS NULL, t.last_visit_at DESC, t.name",
}

// PlaceQuery translates a PlaceFilter into scoped query conditions
func PlaceQuery(f domain.PlaceFilter) (Query, error) {
	var conds []Cond
	if f.PlaceTypeID != "" {
		conds = append(conds, Where("t.place_type_id = ?", f.PlaceTypeID))
	}
	if f.AreaID != "" {
		conds = append(conds, Where("t.area_id = ?", f.AreaID))
	}
	if f.PriceRange != "" {
		conds = append(conds, Where("t.price_range = ?", f.PriceRange))
	}
	if f.MinAvgRating != nil {
		conds = append(conds, Where("t.avg_rating >= ?", *f.MinAvgRating))
	}
	if f.MaxAvgPricePP != nil {
		conds = append(conds, Where("t.avg_price_pp <= ?", *f.MaxAvgPricePP))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, NameContains(s))
	}

	order := ""
	if f.Ordering != "" {
		var ok bool
		if order, ok = placeOrderings[f.Ordering]; !ok {
			return Query{}, domain.NewValidationError("ordering", "unsupported ordering "+f.Ordering)
		}
	}
	return Query{Conds: conds, OrderBy: order, Limit: f.Limit, Offset: f.Offset}, nil
}

type placeTagRow struct {
	PlaceID string `db:"place_id"`
	TagID   string `db:"tag_id"`
}

// PlaceTags returns the tag ids of every place in placeIDs
func PlaceTags(ctx context.Context, q database.Querier, placeIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT place_id, tag_id FROM place_tags WHERE place_id IN (?) ORDER BY tag_id`, placeIDs)
	if err != nil {
		return nil, errors.Wrap(err, "build place tags query")
	}
	var rows []placeTagRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "load place tags")
	}
	for _, r := range rows {
		out[r.PlaceID] = append(out[r.PlaceID], r.TagID)
	}
	return out, nil
}

// ReplacePlaceTags makes tagIDs the exact tag set of the place
func ReplacePlaceTags(ctx context.Context, q database.Querier, placeID string, tagIDs []string) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM place_tags WHERE place_id = ?`), placeID); err != nil {
		return errors.Wrap(err, "clear place tags")
	}
	seen := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := q.ExecContext(ctx, q.Rebind(`INSERT INTO place_tags (place_id, tag_id) VALUES (?, ?)`), placeID, id); err != nil {
			return errors.Wrap(err, "insert place tag")
		}
	}
	return nil
}

// VisitsOfPlace returns every persisted visit of a place, unscoped. Callers resolve the place first.
func VisitsOfPlace(ctx context.Context, q database.Querier, placeID string) ([]domain.Visit, error) {
	visits := []domain.Visit{}
	query := q.Rebind(`
		SELECT v.id, v.place_id, v.author_id, v.date, v.rating, v.price_per_person, v.comment, v.created_at,
			p.household_id AS household_id
		FROM visits v
		JOIN places p ON p.id = v.place_id
		WHERE v.place_id = ?
	`)
	if err := sqlx.SelectContext(ctx, q, &visits, query, placeID); err != nil {
		return nil, errors.Wrap(err, "load visits of place")
	}
	return visits, nil
}

// WritePlaceMetrics stores the derived aggregate block and nothing else
func WritePlaceMetrics(ctx context.Context, q database.Querier, placeID string, m domain.PlaceMetrics) error {
	query := q.Rebind(`
		UPDATE places
		SET visits_count = ?, avg_rating = ?, avg_price_pp = ?, last_visit_at = ?
		WHERE id = ?
	`)
	res, err := q.ExecContext(ctx, query, m.VisitCount, m.AvgRating, m.AvgPricePerPerson, m.LastVisitAt, placeID)
	if err != nil {
		return errors.Wrap(err, "write place metrics")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "write place metrics")
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PlaceIDs returns the id of every place, optionally limited to one household
func PlaceIDs(ctx context.Context, q database.Querier, household string) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM places`
	var args []any
	if household != "" {
		query += ` WHERE household_id = ?`
		args = append(args, household)
	}
	query += ` ORDER BY id`
	if err := sqlx.SelectContext(ctx, q, &ids, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list place ids")
	}
	return ids, nil
}
