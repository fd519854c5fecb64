package database

import (
	"context"

	"github.com/go-faster/errors"
)

// Savepoint marks a point inside the current transaction that can be rolled back to
// without aborting the whole transaction. Both postgres and sqlite accept the same syntax.
func Savepoint(ctx context.Context, q Querier, name string) error {
	if _, err := q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return errors.Wrapf(err, "savepoint %s", name)
	}
	return nil
}

// RollbackTo undoes every statement issued after the named savepoint
func RollbackTo(ctx context.Context, q Querier, name string) error {
	if _, err := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return errors.Wrapf(err, "rollback to savepoint %s", name)
	}
	return nil
}

// Release forgets the named savepoint, keeping its work
func Release(ctx context.Context, q Querier, name string) error {
	if _, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return errors.Wrapf(err, "release savepoint %s", name)
	}
	return nil
}
