package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RegisterPrefix inserts prefix if absent, leaving an existing row
// untouched.
func (s *Storage) RegisterPrefix(ctx context.Context, exec Executor, prefix string, createdAtMs int64) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO prefixes (prefix, created_at, issue_count)
		VALUES (?, ?, 0)
		ON CONFLICT(prefix) DO NOTHING
	`, prefix, createdAtMs)
	if err != nil {
		return fmt.Errorf("storage: register prefix %s: %w", prefix, err)
	}
	return nil
}

// IncrementPrefixCount adjusts issue_count by delta, registering the
// prefix first if it doesn't exist yet.
func (s *Storage) IncrementPrefixCount(ctx context.Context, exec Executor, prefix string, delta int, createdAtMs int64) error {
	if err := s.RegisterPrefix(ctx, exec, prefix, createdAtMs); err != nil {
		return err
	}
	_, err := exec.ExecContext(ctx, `UPDATE prefixes SET issue_count = issue_count + ? WHERE prefix = ?`, delta, prefix)
	if err != nil {
		return fmt.Errorf("storage: increment prefix count %s: %w", prefix, err)
	}
	return nil
}

// idColumnTables names every table carrying an issue-id-prefixed column
// touched by RenamePrefix, in one row per (table, column).
var idColumnTables = []struct {
	table, column string
}{
	{"issues", "id"},
	{"deps", "from_id"},
	{"deps", "to_id"},
	{"labels", "issue_id"},
	{"notes", "issue_id"},
	{"events", "issue_id"},
	{"links", "issue_id"},
}

// RenamePrefix rewrites every ID whose prefix (the part before the
// first '-') equals old to new, across every table that carries issue
// ids, all inside the caller's transaction. Prefix format validation is
// the merge engine's responsibility before calling this.
func RenamePrefix(ctx context.Context, tx *sql.Tx, old, new string) error {
	oldMatch := old + "-%"
	for _, t := range idColumnTables {
		query := fmt.Sprintf(
			`UPDATE %s SET %s = ? || substr(%s, length(?) + 1) WHERE %s LIKE ?`,
			t.table, t.column, t.column, t.column,
		)
		if _, err := tx.ExecContext(ctx, query, new, old, oldMatch); err != nil {
			return fmt.Errorf("storage: rename prefix in %s.%s: %w", t.table, t.column, err)
		}
	}

	var created int64
	row := tx.QueryRowContext(ctx, `SELECT created_at FROM prefixes WHERE prefix = ?`, old)
	if err := row.Scan(&created); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("storage: read old prefix %s: %w", old, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM prefixes WHERE prefix = ?`, old); err != nil {
		return fmt.Errorf("storage: delete old prefix %s: %w", old, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues WHERE id LIKE ?`, new+"-%").Scan(&count); err != nil {
		return fmt.Errorf("storage: count issues under new prefix %s: %w", new, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO prefixes (prefix, created_at, issue_count)
		VALUES (?, ?, ?)
		ON CONFLICT(prefix) DO UPDATE SET issue_count = excluded.issue_count
	`, new, created, count)
	if err != nil {
		return fmt.Errorf("storage: upsert new prefix %s: %w", new, err)
	}
	return nil
}
