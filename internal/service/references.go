package service

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/observability/metrics"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/pkg/database"
)

// ValidateReference checks that a referenced row belongs to household, or is global when
// allowGlobal is set. owner is the referenced row's household, nil for global rows.
func ValidateReference(household string, owner *string, allowGlobal bool, field string) error {
	if owner == nil {
		if allowGlobal {
			return nil
		}
		metrics.ObserveScopeDenial("global_reference")
		return &domain.ReferenceTenantMismatch{Field: field}
	}
	if *owner != household {
		metrics.ObserveScopeDenial("foreign_reference")
		return &domain.ReferenceTenantMismatch{Field: field}
	}
	return nil
}

// resolveReference loads the row id points at and validates its owner. Ids that do not resolve
// in the caller's scope fail exactly like foreign rows so their existence is not revealed.
func resolveReference[T domain.Entity](
	ctx context.Context,
	q database.Querier,
	repo *repository.Scoped[T],
	household, id string,
	allowGlobal bool,
	field string,
) (T, error) {
	var zero T
	row, err := repo.Get(ctx, q, household, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ObserveScopeDenial("unknown_reference")
			return zero, &domain.ReferenceTenantMismatch{Field: field}
		}
		return zero, err
	}
	if err := ValidateReference(household, row.OwnerID(), allowGlobal, field); err != nil {
		return zero, err
	}
	return row, nil
}

// denied counts and audits writes refused because the target row is global
func (d Deps) denied(ctx context.Context, household, member, resource, id string, err error) error {
	if errors.Is(err, domain.ErrPermissionDenied) {
		metrics.ObserveScopeDenial("global_row")
		d.Audit.LogDenied(ctx, household, member, resource, id, "global row")
	}
	return err
}
