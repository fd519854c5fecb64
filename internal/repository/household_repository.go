package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/pkg/database"
)

// HouseholdRepository implements domain.HouseholdRepository over sqlx
type HouseholdRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewHouseholdRepository creates a new household repository
func NewHouseholdRepository(db *sqlx.DB, logger *slog.Logger) *HouseholdRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &HouseholdRepository{db: db, logger: logger, now: time.Now}
}

// Create creates a new household
func (r *HouseholdRepository) Create(ctx context.Context, household *domain.Household) error {
	if household.ID == "" {
		household.ID = uuid.NewString()
	}
	household.CreatedAt = r.now().UTC()

	query := r.db.Rebind(`INSERT INTO households (id, name, created_at) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, household.ID, household.Name, household.CreatedAt); err != nil {
		r.logger.Error("failed to create household",
			slog.String("name", household.Name),
			slog.String("error", err.Error()),
		)
		return errors.Wrap(err, "create household")
	}
	return nil
}

// GetByID retrieves a household by ID
func (r *HouseholdRepository) GetByID(ctx context.Context, id string) (*domain.Household, error) {
	h := &domain.Household{}
	query := r.db.Rebind(`SELECT id, name, created_at FROM households WHERE id = ?`)
	if err := r.db.GetContext(ctx, h, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get household")
	}
	return h, nil
}

// List returns all households
func (r *HouseholdRepository) List(ctx context.Context) ([]*domain.Household, error) {
	households := []*domain.Household{}
	if err := r.db.SelectContext(ctx, &households, `SELECT id, name, created_at FROM households ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "list households")
	}
	return households, nil
}

// AddMember registers a member inside an existing household
func (r *HouseholdRepository) AddMember(ctx context.Context, member *domain.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	member.CreatedAt = r.now().UTC()

	query := r.db.Rebind(`INSERT INTO members (id, household_id, username, username_key, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, member.ID, member.HouseholdID, member.Username, domain.NameKey(member.Username), member.CreatedAt)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return domain.NewValidationError("username", "a member with this username already exists")
	case database.IsForeignKeyViolation(err):
		return domain.NewValidationError("household", "household does not exist")
	}
	r.logger.Error("failed to add member",
		slog.String("household_id", member.HouseholdID),
		slog.String("error", err.Error()),
	)
	return errors.Wrap(err, "add member")
}

// GetMember retrieves a member by ID
func (r *HouseholdRepository) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	return r.getMember(ctx, "id = ?", id)
}

// GetMemberByUsername retrieves a member by username, ignoring case
func (r *HouseholdRepository) GetMemberByUsername(ctx context.Context, username string) (*domain.Member, error) {
	return r.getMember(ctx, "username_key = ?", domain.NameKey(username))
}

func (r *HouseholdRepository) getMember(ctx context.Context, cond string, arg any) (*domain.Member, error) {
	m := &domain.Member{}
	query := r.db.Rebind(`SELECT id, household_id, username, created_at FROM members WHERE ` + cond)
	if err := r.db.GetContext(ctx, m, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get member")
	}
	return m, nil
}

// ListMembers lists the members of a household
func (r *HouseholdRepository) ListMembers(ctx context.Context, householdID string) ([]*domain.Member, error) {
	members := []*domain.Member{}
	query := r.db.Rebind(`
		SELECT id, household_id, username, created_at
		FROM members
		WHERE household_id = ?
		ORDER BY username
	`)
	if err := r.db.SelectContext(ctx, &members, query, householdID); err != nil {
		r.logger.Error("failed to list members",
			slog.String("household_id", householdID),
			slog.String("error", err.Error()),
		)
		return nil, errors.Wrap(err, "list members")
	}
	return members, nil
}
