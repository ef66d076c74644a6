package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRowsAffected is returned when an update matched no row
var ErrNoRowsAffected = errors.New("no rows affected")

// Executor is the subset of pgxpool.Pool / pgx.Tx used for writes
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RowUpdater applies partial updates to a single row identified by id
type RowUpdater struct {
	db Executor
}

// NewRowUpdater creates a row updater on top of db
func NewRowUpdater(db Executor) *RowUpdater {
	return &RowUpdater{db: db}
}

// UpdateRow sets fields on the row of table whose id matches and bumps updated_at.
// Column names are quoted; values are passed as parameters.
func (u *RowUpdater) UpdateRow(ctx context.Context, table string, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("update %s: no fields to update", table)
	}

	query, args := BuildUpdate(table, id, fields)
	tag, err := u.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %s: %w", table, id, ErrNoRowsAffected)
	}
	return nil
}

// BuildUpdate renders the UPDATE statement for UpdateRow with columns in sorted order
func BuildUpdate(table string, id uuid.UUID, fields map[string]any) (string, []any) {
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), i+1))
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		pgx.Identifier{table}.Sanitize(), strings.Join(sets, ", "), len(args))
	return query, args
}
