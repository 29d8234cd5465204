package storage

import (
	"context"
	"fmt"
)

// WouldCycle reports whether adding a "blocks" edge from -> to would
// close a cycle, by checking whether a path from `to` back to `from`
// already exists over present blocks edges.
func (s *Storage) WouldCycle(ctx context.Context, exec Executor, from, to string) (bool, error) {
	if from == to {
		return true, nil
	}
	row := exec.QueryRowContext(ctx, `
		WITH RECURSIVE reach(id) AS (
			SELECT ?
			UNION
			SELECT d.to_id FROM deps d
			JOIN reach r ON r.id = d.from_id
			WHERE d.rel = 'blocks' AND d.present = 1
		)
		SELECT EXISTS (SELECT 1 FROM reach WHERE id = ?)
	`, to, from)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("storage: cycle check %s -> %s: %w", from, to, err)
	}
	return exists, nil
}

// GetBlockedIssueIDs returns every issue transitively blocked by a
// still-open or in-progress blocker, via a recursive CTE over present
// blocks edges.
func (s *Storage) GetBlockedIssueIDs(ctx context.Context, exec Executor) (map[string]bool, error) {
	rows, err := exec.QueryContext(ctx, `
		WITH RECURSIVE blocked(id) AS (
			SELECT d.from_id
			FROM deps d
			JOIN issues blocker ON blocker.id = d.to_id
			WHERE d.rel = 'blocks' AND d.present = 1
			  AND blocker.status IN ('todo', 'in_progress')

			UNION

			SELECT d.from_id
			FROM deps d
			JOIN blocked b ON b.id = d.to_id
			WHERE d.rel = 'blocks' AND d.present = 1
		)
		SELECT id FROM blocked
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: get blocked issue ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
