package repository

import (
	"time"

	"github.com/yourorg/tastebook/internal/domain"
)

const (
	// visits belong to the household of their place
	visitOwner = "(SELECT p.household_id FROM places p WHERE p.id = t.place_id)"
	// visit foods belong to the household of their visit's place
	visitFoodOwner = "(SELECT p.household_id FROM visits v JOIN places p ON p.id = v.place_id WHERE v.id = t.visit_id)"
)

// PlaceTypeModel is private-or-global: households see their own place types and the shared ones
var PlaceTypeModel = Model[domain.PlaceType]{
	Table:         "place_types",
	Columns:       []string{"id", "name", "is_active", "created_at", "updated_at"},
	Owner:         "t.household_id",
	IncludeGlobal: true,
	TenantOwned:   true,
	CreatedAt:     true,
	UpdatedAt:     true,
	NameKey:       true,
	UniqueField:   "name",
	DefaultOrder:  "t.name",
}

var TagModel = Model[domain.Tag]{
	Table:        "tags",
	Columns:      []string{"id", "name", "created_at", "updated_at"},
	Owner:        "t.household_id",
	TenantOwned:  true,
	CreatedAt:    true,
	UpdatedAt:    true,
	NameKey:      true,
	UniqueField:  "name",
	DefaultOrder: "t.name",
}

var FoodModel = Model[domain.Food]{
	Table:        "foods",
	Columns:      []string{"id", "name", "is_active", "created_at", "updated_at"},
	Owner:        "t.household_id",
	TenantOwned:  true,
	CreatedAt:    true,
	UpdatedAt:    true,
	NameKey:      true,
	UniqueField:  "name",
	DefaultOrder: "t.name",
}

// AreaModel has no owner column: areas are a shared geography catalog
var AreaModel = Model[domain.Area]{
	Table:        "areas",
	Columns:      []string{"id", "name", "created_at"},
	CreatedAt:    true,
	NameKey:      true,
	UniqueField:  "name",
	DefaultOrder: "t.name",
}

var PlaceModel = Model[domain.Place]{
	Table: "places",
	Columns: []string{
		"id", "name", "place_type_id", "area_id", "price_range", "description", "url",
		"avg_rating", "avg_price_pp", "visits_count", "last_visit_at", "created_at", "updated_at",
	},
	Owner:        "t.household_id",
	TenantOwned:  true,
	CreatedAt:    true,
	UpdatedAt:    true,
	NameKey:      true,
	UniqueField:  "name",
	Conflicts: map[string]Conflict{
		"uniq_place_household_area_name": {Field: "name", Message: "a place with this name already exists in this area"},
	},
	DefaultOrder: "t.last_visit_at IS NULL, t.last_visit_at DESC, t.name",
}

var VisitModel = Model[domain.Visit]{
	Table:        "visits",
	Columns:      []string{"id", "place_id", "author_id", "date", "rating", "price_per_person", "comment", "created_at"},
	Owner:        visitOwner,
	Authored:     true,
	CreatedAt:    true,
	DefaultOrder: "t.date DESC, t.created_at DESC",
}

var VisitFoodModel = Model[domain.VisitFood]{
	Table:        "visit_foods",
	Columns:      []string{"id", "visit_id", "food_id", "rating", "price_paid", "comment", "created_at"},
	Owner:        visitFoodOwner,
	CreatedAt:    true,
	DefaultOrder: "t.created_at DESC",
}

// Store groups the scoped repositories of every entity type
type Store struct {
	PlaceTypes *Scoped[domain.PlaceType]
	Tags       *Scoped[domain.Tag]
	Foods      *Scoped[domain.Food]
	Areas      *Scoped[domain.Area]
	Places     *Scoped[domain.Place]
	Visits     *Scoped[domain.Visit]
	VisitFoods *Scoped[domain.VisitFood]
}

// NewStore builds a Store; now stamps created_at/updated_at and defaults to time.Now
func NewStore(now func() time.Time) *Store {
	return &Store{
		PlaceTypes: NewScoped(PlaceTypeModel, now),
		Tags:       NewScoped(TagModel, now),
		Foods:      NewScoped(FoodModel, now),
		Areas:      NewScoped(AreaModel, now),
		Places:     NewScoped(PlaceModel, now),
		Visits:     NewScoped(VisitModel, now),
		VisitFoods: NewScoped(VisitFoodModel, now),
	}
}
