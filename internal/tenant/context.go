// Package tenant carries the acting household and member of a request.
package tenant

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoActor is returned when a request reached a scoped operation without a resolved identity
var ErrNoActor = errors.New("no acting household in context")

// Actor is the resolved identity every scoped operation runs as
type Actor struct {
	HouseholdID string
	MemberID    string
	Username    string
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored by WithActor
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.HouseholdID != ""
}

// Require returns the actor or ErrNoActor
func Require(ctx context.Context) (Actor, error) {
	a, ok := FromContext(ctx)
	if !ok {
		return Actor{}, ErrNoActor
	}
	return a, nil
}
