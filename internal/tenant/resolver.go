package tenant

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/pkg/cache"
)

// ErrUnknownMember is returned when a token names a member that does not exist
// or does not belong to the claimed household
var ErrUnknownMember = errors.New("member does not belong to household")

// MemberSource is the part of the household repository the resolver needs
type MemberSource interface {
	GetMember(ctx context.Context, id string) (*domain.Member, error)
}

// Resolver turns the identity asserted by the auth layer into an Actor, checking that the
// member still belongs to the household. Successful lookups are cached for ttl.
type Resolver struct {
	members MemberSource
	cache   *cache.Cache[Actor]
	ttl     time.Duration
	logger  *slog.Logger
}

// NewResolver creates a resolver; ttl <= 0 disables caching
func NewResolver(members MemberSource, ttl time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{members: members, cache: cache.New[Actor](), ttl: ttl, logger: logger}
}

// Resolve returns the Actor for a member of household
func (r *Resolver) Resolve(ctx context.Context, householdID, memberID string) (Actor, error) {
	if householdID == "" || memberID == "" {
		return Actor{}, ErrUnknownMember
	}
	key := householdID + "/" + memberID
	if r.ttl > 0 {
		if v, ok := r.cache.Get(key); ok {
			return v, nil
		}
	}

	m, err := r.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Actor{}, ErrUnknownMember
		}
		return Actor{}, errors.Wrap(err, "resolve member")
	}
	if m.HouseholdID != householdID {
		r.logger.Warn("member claimed foreign household",
			slog.String("member_id", memberID),
			slog.String("claimed_household", householdID),
		)
		return Actor{}, ErrUnknownMember
	}

	actor := Actor{HouseholdID: m.HouseholdID, MemberID: m.ID, Username: m.Username}
	if r.ttl > 0 {
		r.cache.Set(key, actor, r.ttl)
	}
	return actor, nil
}

// Forget drops every cached identity of a household
func (r *Resolver) Forget(householdID string) {
	r.cache.Invalidate(householdID + "/")
}
