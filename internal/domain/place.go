package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRanges lists the accepted values of Place.PriceRange
var PriceRanges = []string{"€", "€€", "€€€", "€€€€", "€€€€€"}

// DefaultPriceRange is used when a place is created without a price range
const DefaultPriceRange = "€"

// ValidPriceRange reports whether value is one of PriceRanges
func ValidPriceRange(value string) bool {
	for _, r := range PriceRanges {
		if r == value {
			return true
		}
	}
	return false
}

// Place is a restaurant, bar, bakery... owned by a household.
// AvgRating, AvgPricePerPerson, VisitCount and LastVisitAt are derived from the place's visits
// and are only ever written by the metrics engine.
type Place struct {
	ID                string              `db:"id" json:"id"`
	HouseholdID       *string             `db:"household_id" json:"household"`
	Name              string              `db:"name" json:"name"`
	PlaceTypeID       string              `db:"place_type_id" json:"place_type"`
	AreaID            *string             `db:"area_id" json:"area"`
	PriceRange        string              `db:"price_range" json:"price_range"`
	Description       string              `db:"description" json:"description"`
	URL               string              `db:"url" json:"url"`
	AvgRating         decimal.NullDecimal `db:"avg_rating" json:"avg_rating"`
	AvgPricePerPerson decimal.NullDecimal `db:"avg_price_pp" json:"avg_price_pp"`
	VisitCount        int                 `db:"visits_count" json:"visits_count"`
	LastVisitAt       *time.Time          `db:"last_visit_at" json:"last_visit_at"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`
	Tags              []string            `db:"-" json:"tags"`
}

func (p Place) EntityID() string { return p.ID }
func (p Place) OwnerID() *string { return p.HouseholdID }

// PlaceMetrics is the denormalized aggregate block of a Place
type PlaceMetrics struct {
	VisitCount        int
	AvgRating         decimal.NullDecimal
	AvgPricePerPerson decimal.NullDecimal
	LastVisitAt       *time.Time
}

// PlaceInput is the client-writable part of a Place. Aggregates are deliberately absent.
type PlaceInput struct {
	Name        *string
	PlaceTypeID *string
	AreaID      *string
	ClearArea   bool
	PriceRange  *string
	Description *string
	URL         *string
}

// PlaceFilter narrows place listings
type PlaceFilter struct {
	PlaceTypeID   string
	AreaID        string
	PriceRange    string
	MinAvgRating  *decimal.Decimal
	MaxAvgPricePP *decimal.Decimal
	Search        string
	Ordering      string
	Limit         int
	Offset        int
}
