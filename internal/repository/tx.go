package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// inTx runs fn inside one transaction, rolling back when fn or the commit fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// updateColumns applies fields to one row. Columns are written in name order so the statement is
// stable for a given set of fields.
func updateColumns(ctx context.Context, exec sqlx.ExecerContext, table, keyColumn string, key interface{}, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for i, column := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", column, i+1)
		args = append(args, fields[column])
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", table, strings.Join(sets, ", "), keyColumn, len(args))
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

// nextNumber returns max(column)+1 for business numbers assigned inside a transaction.
func nextNumber(ctx context.Context, tx *sqlx.Tx, table, column string) (int64, error) {
	var next int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", column, table)
	if err := tx.GetContext(ctx, &next, query); err != nil {
		return 0, fmt.Errorf("next %s: %w", column, err)
	}
	return next, nil
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
