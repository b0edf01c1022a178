package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wisbric/skywatch/internal/errs"
)

// Queryer is the subset of pgx.Tx / pgxpool.Pool that Base needs. Every
// repository call is handed one by a Unit of Work, never a raw *pgxpool.Pool
// — see internal/uow.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RowAssembly describes how to turn one row of T into an INSERT's column
// list and positional arguments.
type RowAssembly[T any] func(T) (columns []string, args []any)

// Metadata describes everything Base needs to know about one entity's
// mapping onto a table: column list, how to scan a row, how to decompose a
// row for insertion, and its natural conflict key for upserts.
type Metadata[T any] struct {
	Table          string
	Columns        []string // full select-list, in the order ScanRow expects
	ScanRow        func(pgx.Row) (T, error)
	ScanRows       func(rows pgx.Rows) (T, error)
	Assemble       RowAssembly[T]
	ConflictFields []string
	UpdateColumns  []string // columns refreshed on conflict; excludes ConflictFields
	IDOf           func(T) int64
}

// OnConflict selects bulk-upsert behavior for a batch insert.
type OnConflict int

const (
	OnConflictUpdate OnConflict = iota
	OnConflictIgnore
)

// Base is the shared repository engine: create/read/update/delete, filter,
// search, bulk-upsert and bulk-delete, parameterized over one entity type.
// A Base is only ever valid for the lifetime of the Queryer (transaction)
// it was built with; see internal/uow.UnitOfWork.
type Base[T any] struct {
	db   Queryer
	meta Metadata[T]
}

// NewBase constructs a Base bound to db using the given Metadata.
func NewBase[T any](db Queryer, meta Metadata[T]) *Base[T] {
	return &Base[T]{db: db, meta: meta}
}

func (b *Base[T]) columnList() string {
	return strings.Join(b.meta.Columns, ", ")
}

// Create inserts one row and returns the stored entity, including any
// database-computed defaults (id, created_at, updated_at).
func (b *Base[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	cols, args := b.meta.Assemble(item)
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		b.meta.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), b.columnList(),
	)
	row := b.db.QueryRow(ctx, query, args...)
	out, err := b.meta.ScanRow(row)
	if err != nil {
		return zero, translateWriteErr(err)
	}
	return out, nil
}

// GetByID returns the entity with the given id, or a NotFound error.
func (b *Base[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", b.columnList(), b.meta.Table)
	row := b.db.QueryRow(ctx, query, id)
	out, err := b.meta.ScanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, errs.NotFoundf(fmt.Sprintf("%s id=%d not found", b.meta.Table, id))
		}
		return zero, fmt.Errorf("scanning %s row: %w", b.meta.Table, err)
	}
	return out, nil
}

// Update applies patch (a column -> value map) to the row with the given id
// and returns the updated entity.
func (b *Base[T]) Update(ctx context.Context, id int64, patch map[string]any) (T, error) {
	var zero T
	if len(patch) == 0 {
		return b.GetByID(ctx, id)
	}

	var sets []string
	var args []any
	idx := 1
	for col, val := range patch {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = now() WHERE id = $%d RETURNING %s",
		b.meta.Table, strings.Join(sets, ", "), idx, b.columnList(),
	)
	row := b.db.QueryRow(ctx, query, args...)
	out, err := b.meta.ScanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, errs.NotFoundf(fmt.Sprintf("%s id=%d not found", b.meta.Table, id))
		}
		return zero, translateWriteErr(err)
	}
	return out, nil
}

// Delete removes the row with the given id. Deleting a missing id is not
// an error, matching the idempotent semantics pruning relies on.
func (b *Base[T]) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", b.meta.Table)
	_, err := b.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting %s id=%d: %w", b.meta.Table, id, err)
	}
	return nil
}

// GetAll returns up to limit rows starting at offset skip, ordered by id.
func (b *Base[T]) GetAll(ctx context.Context, skip, limit int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT $1 OFFSET $2", b.columnList(), b.meta.Table)
	rows, err := b.db.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", b.meta.Table, err)
	}
	return b.collect(rows)
}

// Count returns the total row count.
func (b *Base[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", b.meta.Table)
	if err := b.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", b.meta.Table, err)
	}
	return n, nil
}

// Filter applies conditions per the field__op grammar (see BuildWhere),
// with optional ordering and pagination.
func (b *Base[T]) Filter(ctx context.Context, conditions []Condition, skip, limit int, orderBy string, orderDesc bool) ([]T, error) {
	known := knownColumnSet(b.meta.Columns)
	where, args := BuildWhere(conditions, known)

	query := fmt.Sprintf("SELECT %s FROM %s", b.columnList(), b.meta.Table)
	if where != "" {
		query += " WHERE " + where
	}
	if orderBy != "" && known[orderBy] {
		dir := "ASC"
		if orderDesc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", orderBy, dir)
	} else {
		query += " ORDER BY id"
	}

	limitIdx := len(args) + 1
	offsetIdx := len(args) + 2
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", limitIdx, offsetIdx)
	// A non-positive limit binds NULL, which Postgres treats as no limit.
	var limitArg any = limit
	if limit <= 0 {
		limitArg = nil
	}
	args = append(args, limitArg, skip)

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering %s: %w", b.meta.Table, err)
	}
	return b.collect(rows)
}

// Search performs a case-insensitive substring match of term against each
// of fields, OR'd together.
func (b *Base[T]) Search(ctx context.Context, term string, fields []string, skip, limit int) ([]T, error) {
	known := knownColumnSet(b.meta.Columns)
	var clauses []string
	var args []any
	idx := 1
	for _, f := range fields {
		if !known[f] {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", f, idx))
		args = append(args, "%"+term+"%")
		idx++
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id LIMIT $%d OFFSET $%d",
		b.columnList(), b.meta.Table, strings.Join(clauses, " OR "), idx, idx+1)
	args = append(args, limit, skip)

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", b.meta.Table, err)
	}
	return b.collect(rows)
}

// FindByFields returns rows matching an exact equality on every key in
// fields (AND'd together).
func (b *Base[T]) FindByFields(ctx context.Context, fields map[string]any) ([]T, error) {
	var conditions []Condition
	for k, v := range fields {
		conditions = append(conditions, Eq(k, v))
	}
	return b.Filter(ctx, conditions, 0, 0, "", false)
}

// BulkCreate inserts or upserts items in one multi-row statement, keyed by
// the metadata's ConflictFields. onConflict selects whether a conflicting
// row is updated or left untouched. Returns the number of rows that were
// newly inserted versus updated, split by inspecting xmax in RETURNING;
// there is no other counting path.
func (b *Base[T]) BulkCreate(ctx context.Context, items []T, onConflict OnConflict) (created, updated int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	var valueRows []string
	var args []any
	idx := 1
	var cols []string
	for i, item := range items {
		c, rowArgs := b.meta.Assemble(item)
		if i == 0 {
			cols = c
		}
		placeholders := make([]string, len(rowArgs))
		for j := range rowArgs {
			placeholders[j] = fmt.Sprintf("$%d", idx)
			idx++
		}
		valueRows = append(valueRows, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, rowArgs...)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		b.meta.Table, strings.Join(cols, ", "), strings.Join(valueRows, ", "),
	)

	conflictTarget := strings.Join(b.meta.ConflictFields, ", ")
	switch onConflict {
	case OnConflictIgnore:
		query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", conflictTarget)
	default:
		var sets []string
		for _, c := range b.meta.UpdateColumns {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
		sets = append(sets, "updated_at = now()")
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", conflictTarget, strings.Join(sets, ", "))
	}
	// xmax = 0 identifies a row that was actually inserted by this
	// statement rather than updated via the conflict path.
	query += " RETURNING (xmax = 0) AS inserted"

	rows, qerr := b.db.Query(ctx, query, args...)
	if qerr != nil {
		return 0, 0, translateWriteErr(qerr)
	}
	defer rows.Close()
	for rows.Next() {
		var inserted bool
		if serr := rows.Scan(&inserted); serr != nil {
			return created, updated, fmt.Errorf("scanning bulk upsert result for %s: %w", b.meta.Table, serr)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}
	if err := rows.Err(); err != nil {
		return created, updated, fmt.Errorf("iterating bulk upsert result for %s: %w", b.meta.Table, err)
	}
	return created, updated, nil
}

// BulkDelete removes every row matching conditions and returns the count
// deleted.
func (b *Base[T]) BulkDelete(ctx context.Context, conditions []Condition) (int64, error) {
	known := knownColumnSet(b.meta.Columns)
	where, args := BuildWhere(conditions, known)
	if where == "" {
		return 0, errs.Invariant("bulk_delete requires at least one condition", nil)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", b.meta.Table, where)
	tag, err := b.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk deleting %s: %w", b.meta.Table, err)
	}
	return tag.RowsAffected(), nil
}

func (b *Base[T]) collect(rows pgx.Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := b.meta.ScanRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", b.meta.Table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", b.meta.Table, err)
	}
	return out, nil
}

func knownColumnSet(cols []string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// translateWriteErr maps a Postgres constraint violation into
// errs.InvariantViolation, per spec's error taxonomy: a would-be write
// breaking a check/unique constraint is a programming bug, not a
// transient condition.
func translateWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23514", "23502", "23503":
			return errs.Invariant(pgErr.Message, pgErr)
		}
	}
	return fmt.Errorf("write failed: %w", err)
}
