package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-faster/errors"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/security/audit"
)

// HouseholdService bootstraps households and their members
type HouseholdService struct {
	repo   domain.HouseholdRepository
	audit  *audit.Logger
	logger *slog.Logger
}

// NewHouseholdService creates a household service
func NewHouseholdService(repo domain.HouseholdRepository, auditLogger *audit.Logger, logger *slog.Logger) *HouseholdService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}
	return &HouseholdService{repo: repo, audit: auditLogger, logger: logger}
}

// Bootstrap creates a household together with its first member
func (s *HouseholdService) Bootstrap(ctx context.Context, name, username string) (*domain.Household, *domain.Member, error) {
	verr := &domain.ValidationError{}
	name = domain.NormalizeName(verr, "name", name, domain.MaxHouseholdName)
	username = normalizeUsername(verr, username)
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	if _, err := s.repo.GetMemberByUsername(ctx, username); err == nil {
		return nil, nil, domain.NewValidationError("username", "a member with this username already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	household := &domain.Household{Name: name}
	if err := s.repo.Create(ctx, household); err != nil {
		return nil, nil, err
	}
	member := &domain.Member{HouseholdID: household.ID, Username: username}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "household created",
		slog.String("household_id", household.ID),
		slog.String("member_id", member.ID),
	)
	s.audit.LogMutation(ctx, household.ID, member.ID, "create", "household", household.ID)
	return household, member, nil
}

// AddMember adds a member to an existing household
func (s *HouseholdService) AddMember(ctx context.Context, householdID, username string) (*domain.Member, error) {
	verr := &domain.ValidationError{}
	username = normalizeUsername(verr, username)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, householdID); err != nil {
		return nil, err
	}

	member := &domain.Member{HouseholdID: householdID, Username: username}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}
	s.audit.LogMutation(ctx, householdID, member.ID, "create", "member", member.ID)
	return member, nil
}

// Member looks a member up by username for token issuance
func (s *HouseholdService) Member(ctx context.Context, username string) (*domain.Member, error) {
	return s.repo.GetMemberByUsername(ctx, strings.TrimSpace(username))
}

// Members lists the members of a household
func (s *HouseholdService) Members(ctx context.Context, householdID string) ([]*domain.Member, error) {
	return s.repo.ListMembers(ctx, householdID)
}

// List returns every household
func (s *HouseholdService) List(ctx context.Context) ([]*domain.Household, error) {
	return s.repo.List(ctx)
}

func normalizeUsername(verr *domain.ValidationError, username string) string {
	username = domain.NormalizeName(verr, "username", username, 150)
	if strings.ContainsAny(username, " \t\n") {
		verr.Add("username", "username may not contain spaces")
	}
	return username
}
