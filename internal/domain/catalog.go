package domain

import "time"

// Entity is implemented by every row the scoped repository manages.
// OwnerID returns nil for global rows.
type Entity interface {
	EntityID() string
	OwnerID() *string
}

// PlaceType classifies places (restaurant, bar, bakery...). Rows are private or global.
type PlaceType struct {
	ID          string    `db:"id" json:"id"`
	HouseholdID *string   `db:"household_id" json:"household"`
	Name        string    `db:"name" json:"name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (p PlaceType) EntityID() string { return p.ID }
func (p PlaceType) OwnerID() *string { return p.HouseholdID }

// IsGlobal reports whether the place type is shared by all households
func (p PlaceType) IsGlobal() bool { return p.HouseholdID == nil }

// Tag labels places (italian, tapas, veg-friendly...) inside one household
type Tag struct {
	ID          string    `db:"id" json:"id"`
	HouseholdID *string   `db:"household_id" json:"household"`
	Name        string    `db:"name" json:"name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (t Tag) EntityID() string { return t.ID }
func (t Tag) OwnerID() *string { return t.HouseholdID }

// Food is a dish or product tried during visits
type Food struct {
	ID          string    `db:"id" json:"id"`
	HouseholdID *string   `db:"household_id" json:"household"`
	Name        string    `db:"name" json:"name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (f Food) EntityID() string { return f.ID }
func (f Food) OwnerID() *string { return f.HouseholdID }

// Area is a global catalog of neighbourhoods and cities; it has no owner
type Area struct {
	ID          string    `db:"id" json:"id"`
	HouseholdID *string   `db:"household_id" json:"-"`
	Name        string    `db:"name" json:"name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (a Area) EntityID() string { return a.ID }
func (a Area) OwnerID() *string { return a.HouseholdID }

// CatalogInput is the writable part of a named catalog row
type CatalogInput struct {
	Name     *string
	IsActive *bool
}

// Name length limits
const (
	MaxPlaceTypeName = 60
	MaxTagName       = 60
	MaxFoodName      = 120
	MaxAreaName      = 150
	MaxPlaceName     = 200
	MaxHouseholdName = 120
)

// CatalogFilter narrows catalog listings
type CatalogFilter struct {
	Name     string
	IsActive *bool
	Limit    int
	Offset   int
}
