package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/pkg/database"
)

// Model is the static description of one scoped table. Capabilities are declared here
// once per entity type instead of being discovered from the row at runtime.
type Model[T domain.Entity] struct {
	Table string
	// Columns selected besides the owner; household_id is always selected through Owner
	Columns []string
	// Owner is the SQL expression (over alias t) that yields the owning household.
	// Empty means the table is a global-only catalog with no owner.
	Owner string
	// IncludeGlobal lets reads see rows whose owner is NULL
	IncludeGlobal bool
	// TenantOwned injects household_id on create
	TenantOwned bool
	// Authored injects author_id on create
	Authored bool
	// Timestamps maintains created_at/updated_at
	CreatedAt bool
	UpdatedAt bool
	// NameKey maintains name_key, the folded name the unique indexes cover, on every write of name
	NameKey bool
	// UniqueField names the input field reported on unique-constraint collisions
	UniqueField string
	// Conflicts refines the report for a named unique constraint
	Conflicts    map[string]Conflict
	DefaultOrder string
}

// Conflict is the validation error reported for one unique constraint
type Conflict struct {
	Field   string
	Message string
}

// Cond is one extra WHERE predicate with ? placeholders
type Cond struct {
	SQL  string
	Args []any
}

// Where builds a Cond
func Where(sql string, args ...any) Cond {
	return Cond{SQL: sql, Args: args}
}

// NameIs matches rows whose name equals name regardless of case
func NameIs(name string) Cond {
	return Where("t.name_key = ?", domain.NameKey(name))
}

// NameContains matches rows whose name contains fragment regardless of case
func NameContains(fragment string) Cond {
	return Where(`t.name_key LIKE ? ESCAPE '\'`, ContainsPattern(domain.NameKey(fragment)))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE pattern matching fragment literally; pair it with ESCAPE '\'
func ContainsPattern(fragment string) string {
	return "%" + likeEscaper.Replace(fragment) + "%"
}

// Query narrows a scoped listing
type Query struct {
	Conds   []Cond
	OrderBy string
	Limit   int
	Offset  int
}

// Column is one column/value pair of an insert or update
type Column struct {
	Name  string
	Value any
}

// Set builds a Column
func Set(name string, value any) Column {
	return Column{Name: name, Value: value}
}

// Scoped applies the household visibility policy to one model
type Scoped[T domain.Entity] struct {
	model Model[T]
	now   func() time.Time
}

// NewScoped creates a scoped repository for model
func NewScoped[T domain.Entity](model Model[T], now func() time.Time) *Scoped[T] {
	if now == nil {
		now = time.Now
	}
	return &Scoped[T]{model: model, now: now}
}

// Model returns the static model description
func (s *Scoped[T]) Model() Model[T] {
	return s.model
}

func (s *Scoped[T]) selectList() string {
	cols := make([]string, 0, len(s.model.Columns)+1)
	for _, c := range s.model.Columns {
		cols = append(cols, "t."+c)
	}
	owner := s.model.Owner
	if owner == "" {
		owner = "NULL"
	}
	cols = append(cols, owner+" AS household_id")
	return strings.Join(cols, ", ")
}

// visibility renders the storage-level predicate for household
func (s *Scoped[T]) visibility(household string) Cond {
	if s.model.Owner == "" {
		return Where("1 = 1")
	}
	if s.model.IncludeGlobal {
		return Where("("+s.model.Owner+" = ? OR "+s.model.Owner+" IS NULL)", household)
	}
	return Where(s.model.Owner+" = ?", household)
}

func (s *Scoped[T]) where(household string, conds []Cond) (string, []any) {
	all := append([]Cond{s.visibility(household)}, conds...)
	parts := make([]string, 0, len(all))
	var args []any
	for _, c := range all {
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// List returns the rows visible to household. Visibility is part of the WHERE clause so
// LIMIT/OFFSET and Count agree with what the caller can see.
func (s *Scoped[T]) List(ctx context.Context, q database.Querier, household string, query Query) ([]T, error) {
	where, args := s.where(household, query.Conds)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(s.selectList())
	b.WriteString(" FROM ")
	b.WriteString(s.model.Table)
	b.WriteString(" t")
	b.WriteString(where)

	order := query.OrderBy
	if order == "" {
		order = s.model.DefaultOrder
	}
	if order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}
	if query.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, query.Limit)
		if query.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, query.Offset)
		}
	}

	out := []T{}
	if err := sqlx.SelectContext(ctx, q, &out, q.Rebind(b.String()), args...); err != nil {
		return nil, errors.Wrapf(err, "list %s", s.model.Table)
	}
	return out, nil
}

// Count returns how many rows List would return without pagination
func (s *Scoped[T]) Count(ctx context.Context, q database.Querier, household string, conds []Cond) (int, error) {
	where, args := s.where(household, conds)
	query := "SELECT COUNT(*) FROM " + s.model.Table + " t" + where

	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return 0, errors.Wrapf(err, "count %s", s.model.Table)
	}
	return n, nil
}

// Get returns one row visible to household, or domain.ErrNotFound
func (s *Scoped[T]) Get(ctx context.Context, q database.Querier, household, id string) (T, error) {
	var zero T
	where, args := s.where(household, []Cond{Where("t.id = ?", id)})
	query := "SELECT " + s.selectList() + " FROM " + s.model.Table + " t" + where

	var row T
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, domain.ErrNotFound
		}
		return zero, errors.Wrapf(err, "get %s", s.model.Table)
	}
	return row, nil
}

// Create inserts a row. The household and author come from the caller's resolved identity,
// never from the request payload.
func (s *Scoped[T]) Create(ctx context.Context, q database.Querier, household, author string, values []Column) (T, error) {
	var zero T
	id := uuid.NewString()
	now := s.now().UTC()

	cols := []Column{Set("id", id)}
	if s.model.TenantOwned {
		cols = append(cols, Set("household_id", household))
	}
	if s.model.Authored {
		cols = append(cols, Set("author_id", author))
	}
	if s.model.CreatedAt {
		cols = append(cols, Set("created_at", now))
	}
	if s.model.UpdatedAt {
		cols = append(cols, Set("updated_at", now))
	}
	cols = append(cols, s.keyed(values)...)

	if err := s.insert(ctx, q, cols); err != nil {
		return zero, err
	}
	return s.Get(ctx, q, household, id)
}

// CreateGlobal inserts a row without an owner. Only privileged setup calls this.
func (s *Scoped[T]) CreateGlobal(ctx context.Context, q database.Querier, values []Column) (string, error) {
	id := uuid.NewString()
	now := s.now().UTC()

	cols := []Column{Set("id", id)}
	if s.model.CreatedAt {
		cols = append(cols, Set("created_at", now))
	}
	if s.model.UpdatedAt {
		cols = append(cols, Set("updated_at", now))
	}
	cols = append(cols, s.keyed(values)...)

	if err := s.insert(ctx, q, cols); err != nil {
		return "", err
	}
	return id, nil
}

// keyed adds name_key next to any written name
func (s *Scoped[T]) keyed(values []Column) []Column {
	if !s.model.NameKey {
		return values
	}
	out := make([]Column, 0, len(values)+1)
	out = append(out, values...)
	for _, c := range values {
		if name, ok := c.Value.(string); ok && c.Name == "name" {
			out = append(out, Set("name_key", domain.NameKey(name)))
		}
	}
	return out
}

func (s *Scoped[T]) insert(ctx context.Context, q database.Querier, cols []Column) error {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		marks[i] = "?"
		args[i] = c.Value
	}
	query := "INSERT INTO " + s.model.Table + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"

	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return s.translate(err, "insert")
	}
	return nil
}

// LoadForWrite returns a visible row and refuses global rows with domain.ErrPermissionDenied
func (s *Scoped[T]) LoadForWrite(ctx context.Context, q database.Querier, household, id string) (T, error) {
	row, err := s.Get(ctx, q, household, id)
	if err != nil {
		return row, err
	}
	if row.OwnerID() == nil {
		var zero T
		return zero, domain.ErrPermissionDenied
	}
	return row, nil
}

// Update writes values to a visible, private row
func (s *Scoped[T]) Update(ctx context.Context, q database.Querier, household, id string, values []Column) (T, error) {
	var zero T
	if _, err := s.LoadForWrite(ctx, q, household, id); err != nil {
		return zero, err
	}
	values = s.keyed(values)
	if s.model.UpdatedAt {
		values = append(values, Set("updated_at", s.now().UTC()))
	}
	if len(values) == 0 {
		return s.Get(ctx, q, household, id)
	}

	sets := make([]string, len(values))
	args := make([]any, 0, len(values)+1)
	for i, c := range values {
		sets[i] = c.Name + " = ?"
		args = append(args, c.Value)
	}
	args = append(args, id)
	query := "UPDATE " + s.model.Table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return zero, s.translate(err, "update")
	}
	return s.Get(ctx, q, household, id)
}

// Delete removes a visible, private row and returns it as it was before removal
func (s *Scoped[T]) Delete(ctx context.Context, q database.Querier, household, id string) (T, error) {
	row, err := s.LoadForWrite(ctx, q, household, id)
	if err != nil {
		return row, err
	}
	query := "DELETE FROM " + s.model.Table + " WHERE id = ?"
	if _, err := q.ExecContext(ctx, q.Rebind(query), id); err != nil {
		var zero T
		return zero, s.translate(err, "delete")
	}
	return row, nil
}

// translate maps storage constraint failures onto the domain taxonomy
func (s *Scoped[T]) translate(err error, op string) error {
	switch {
	case database.IsUniqueViolation(err):
		if c, ok := s.model.Conflicts[database.ConstraintName(err)]; ok {
			return domain.NewValidationError(c.Field, c.Message)
		}
		field := s.model.UniqueField
		if field == "" {
			field = "non_field_errors"
		}
		return domain.NewValidationError(field, "an entry with this value already exists")
	case database.IsForeignKeyViolation(err) && op == "delete":
		return domain.ErrProtected
	case database.IsForeignKeyViolation(err):
		return domain.NewValidationError("non_field_errors", "referenced row does not exist")
	}
	return errors.Wrapf(err, "%s %s", op, s.model.Table)
}
