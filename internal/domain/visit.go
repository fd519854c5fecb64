package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Visit is one visit to a Place. Its household is the household of the place.
type Visit struct {
	ID             string              `db:"id" json:"id"`
	HouseholdID    *string             `db:"household_id" json:"-"`
	PlaceID        string              `db:"place_id" json:"place"`
	AuthorID       string              `db:"author_id" json:"author"`
	Date           time.Time           `db:"date" json:"date"`
	Rating         decimal.Decimal     `db:"rating" json:"rating"`
	PricePerPerson decimal.NullDecimal `db:"price_per_person" json:"price_per_person"`
	Comment        string              `db:"comment" json:"comment"`
	CreatedAt      *time.Time          `db:"created_at" json:"created_at"`
}

func (v Visit) EntityID() string { return v.ID }
func (v Visit) OwnerID() *string { return v.HouseholdID }

// VisitFood is a Food tried during a Visit. Its household is the household of the visit's place.
type VisitFood struct {
	ID          string              `db:"id" json:"id"`
	HouseholdID *string             `db:"household_id" json:"-"`
	VisitID     string              `db:"visit_id" json:"visit"`
	FoodID      string              `db:"food_id" json:"food"`
	Rating      decimal.Decimal     `db:"rating" json:"rating"`
	PricePaid   decimal.NullDecimal `db:"price_paid" json:"price_paid"`
	Comment     string              `db:"comment" json:"comment"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

func (v VisitFood) EntityID() string { return v.ID }
func (v VisitFood) OwnerID() *string { return v.HouseholdID }

// VisitInput carries the writable fields of a Visit
type VisitInput struct {
	PlaceID        *string
	Date           *time.Time
	Rating         *decimal.Decimal
	PricePerPerson *decimal.Decimal
	ClearPrice     bool
	Comment        *string
}

// VisitFoodInput carries the writable fields of a VisitFood
type VisitFoodInput struct {
	VisitID    *string
	FoodID     *string
	Rating     *decimal.Decimal
	PricePaid  *decimal.Decimal
	ClearPrice bool
	Comment    *string
}

// CompositeVisitInput describes a visit created together with the foods tried during it
type CompositeVisitInput struct {
	PlaceID        string
	Date           *time.Time
	Rating         *decimal.Decimal
	PricePerPerson *decimal.Decimal
	Comment        string
	Foods          []CompositeFoodItem
}

// CompositeFoodItem references a food by id or by name. Items with neither are skipped.
type CompositeFoodItem struct {
	FoodID    string
	Name      string
	Rating    *decimal.Decimal
	PricePaid *decimal.Decimal
	Comment   string
}

// VisitFilter narrows visit listings
type VisitFilter struct {
	PlaceID   string
	DateFrom  *time.Time
	DateTo    *time.Time
	MinRating *decimal.Decimal
	Limit     int
	Offset    int
}

// VisitFoodFilter narrows visit food listings
type VisitFoodFilter struct {
	FoodID       string
	VisitID      string
	DateFrom     *time.Time
	DateTo       *time.Time
	MinRating    *decimal.Decimal
	MaxPricePaid *decimal.Decimal
	// Search matches the food name, the place name or the comment
	Search string
	Limit  int
	Offset int
}

// Orderings accepted by the latest-by-place query
const (
	LatestOrderRatingDesc = "rating_desc"
	LatestOrderPriceAsc   = "price_asc"
	LatestOrderDateDesc   = "date_desc"
)

// LatestFilter narrows the latest-review-per-place query
type LatestFilter struct {
	AreaID      string
	PlaceTypeID string
	PriceRange  string
	MinRating   *decimal.Decimal
	Ordering    string
}

// LatestFoodReview is the most recent VisitFood for one food at one place
type LatestFoodReview struct {
	VisitFoodID string              `db:"visit_food_id" json:"visit_food_id"`
	FoodID      string              `db:"food_id" json:"food_id"`
	PlaceID     string              `db:"place_id" json:"place_id"`
	PlaceName   string              `db:"place_name" json:"place_name"`
	Rating      decimal.Decimal     `db:"rating" json:"rating"`
	PricePaid   decimal.NullDecimal `db:"price_paid" json:"price_paid"`
	VisitDate   time.Time           `db:"visit_date" json:"visit_date"`
}
