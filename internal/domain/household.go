package domain

import (
	"context"
	"time"
)

// Household is the tenant: every private row belongs to exactly one household
type Household struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Member is a person acting inside a household; visits record their member as author
type Member struct {
	ID          string    `db:"id" json:"id"`
	HouseholdID string    `db:"household_id" json:"household"`
	Username    string    `db:"username" json:"username"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HouseholdRepository defines data access for households and their members
type HouseholdRepository interface {
	Create(ctx context.Context, household *Household) error
	GetByID(ctx context.Context, id string) (*Household, error)
	List(ctx context.Context) ([]*Household, error)
	AddMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, id string) (*Member, error)
	GetMemberByUsername(ctx context.Context, username string) (*Member, error)
	ListMembers(ctx context.Context, householdID string) ([]*Member, error)
}
