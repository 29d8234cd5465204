package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Issue is the primary tracker record. Pointer fields are
// nullable scalars; the LastXHlc fields are the per-field HLC stamps
// that drive LWW comparisons in the merge engine, stored as empty
// string when never set.
type Issue struct {
	ID          string
	Type        string
	Title       string
	Status      string
	Description *string
	Assignee    *string
	CreatedAt   int64
	UpdatedAt   int64

	LastTitleHlc       string
	LastStatusHlc      string
	LastTypeHlc        string
	LastAssigneeHlc    string
	LastDescriptionHlc string
}

const issueColumns = `id, type, title, status, description, assignee, created_at, updated_at,
	last_title_hlc, last_status_hlc, last_type_hlc, last_assignee_hlc, last_description_hlc`

func scanIssue(row interface {
	Scan(dest ...any) error
}) (*Issue, error) {
	var i Issue
	var lastAssignee, lastDescription sql.NullString
	err := row.Scan(
		&i.ID, &i.Type, &i.Title, &i.Status, &i.Description, &i.Assignee,
		&i.CreatedAt, &i.UpdatedAt,
		&i.LastTitleHlc, &i.LastStatusHlc, &i.LastTypeHlc, &lastAssignee, &lastDescription,
	)
	if err != nil {
		return nil, err
	}
	i.LastAssigneeHlc = lastAssignee.String
	i.LastDescriptionHlc = lastDescription.String
	return &i, nil
}

// GetIssue fetches the issue with an exact id match; nil, nil if absent.
func (s *Storage) GetIssue(ctx context.Context, exec Executor, id string) (*Issue, error) {
	row := exec.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get issue %s: %w", id, err)
	}
	return issue, nil
}

// ResolveID resolves a possibly-partial issue id: an exact match wins;
// else for partials of length >= 3, a LIKE prefix match. Zero matches
// is NotFound, one resolves, two or more is Ambiguous. Partials shorter
// than 3 characters are always NotFound, never Ambiguous.
func (s *Storage) ResolveID(ctx context.Context, exec Executor, partial string) (string, error) {
	if exists, err := s.GetIssue(ctx, exec, partial); err != nil {
		return "", err
	} else if exists != nil {
		return exists.ID, nil
	}

	if len(partial) < 3 {
		return "", notFound(partial)
	}

	rows, err := exec.QueryContext(ctx, `SELECT id FROM issues WHERE id LIKE ? ORDER BY id`, partial+"%")
	if err != nil {
		return "", fmt.Errorf("storage: resolve id %s: %w", partial, err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", notFound(partial)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousIDError{Partial: partial, Matches: matches}
	}
}

// ListFilter narrows ListIssues; zero values mean "no filter".
type ListFilter struct {
	Status   string
	Type     string
	Assignee string
}

// ListIssues returns issues matching filter; label and free-text
// filtering stay with the caller.
func (s *Storage) ListIssues(ctx context.Context, exec Executor, filter ListFilter) ([]*Issue, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Assignee != "" {
		where = append(where, "assignee = ?")
		args = append(args, filter.Assignee)
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list issues: %w", err)
	}
	defer rows.Close()

	var out []*Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// GetLabelsBatch returns present labels for every id in ids in a single
// query. An empty input returns an empty map.
func (s *Storage) GetLabelsBatch(ctx context.Context, exec Executor, ids []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT issue_id, label FROM labels WHERE present = 1 AND issue_id IN (%s) ORDER BY issue_id, label`,
		strings.Join(placeholders, ","),
	)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: get labels batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID, label string
		if err := rows.Scan(&issueID, &label); err != nil {
			return nil, err
		}
		out[issueID] = append(out[issueID], label)
	}
	return out, rows.Err()
}
