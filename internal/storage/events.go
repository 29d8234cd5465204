package storage

import (
	"context"
	"fmt"
)

// Event is the local audit record derived from op application. Events
// are not replicated by the op log themselves; each row is written as a
// side effect of applying a mutating op that touched issue_id.
type Event struct {
	ID        int64
	IssueID   string
	Hlc       string
	Kind      string
	Detail    string
	CreatedAt int64
}

// GetEvents returns every event recorded against issueID, oldest first,
// giving wok history <id> something to read without reprocessing the
// whole op log.
func (s *Storage) GetEvents(ctx context.Context, exec Executor, issueID string) ([]*Event, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT id, issue_id, hlc, kind, detail, created_at
		FROM events
		WHERE issue_id = ?
		ORDER BY id
	`, issueID)
	if err != nil {
		return nil, fmt.Errorf("storage: get events for %s: %w", issueID, err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		var detail *string
		if err := rows.Scan(&e.ID, &e.IssueID, &e.Hlc, &e.Kind, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if detail != nil {
			e.Detail = *detail
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
