package merge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/storage"
)

// hlcGreater reports whether h is strictly greater than the stored hlc
// text form (empty stored text always loses).
func hlcGreater(h hlc.Hlc, stored string) (bool, error) {
	if stored == "" {
		return true, nil
	}
	s, err := hlc.Parse(stored)
	if err != nil {
		return false, fmt.Errorf("merge: parse stored hlc %q: %w", stored, err)
	}
	return h.Greater(s), nil
}

// applyScalar implements the per-field LWW rule for a non-nullable
// string column: the write lands only if its Hlc is strictly greater
// than the field's stored stamp.
func applyScalar(ctx context.Context, st *storage.Storage, tx *sql.Tx, h hlc.Hlc, issueID, column, hlcColumn, value string) (Outcome, error) {
	issue, err := st.GetIssue(ctx, tx, issueID)
	if err != nil {
		return Outcome{}, err
	}
	if issue == nil {
		return discarded("unknown_issue"), nil
	}

	stored := fieldHlc(issue, hlcColumn)
	greater, err := hlcGreater(h, stored)
	if err != nil {
		return Outcome{}, err
	}
	if !greater {
		return discarded("stale_write"), nil
	}

	query := fmt.Sprintf(`UPDATE issues SET %s = ?, %s = ?, updated_at = MAX(updated_at, ?) WHERE id = ?`, column, hlcColumn)
	if _, err := tx.ExecContext(ctx, query, value, h.String(), int64(h.WallMS), issueID); err != nil {
		return Outcome{}, fmt.Errorf("merge: update %s: %w", column, err)
	}
	if err := recordEvent(ctx, tx, issueID, h, "set_"+column, value); err != nil {
		return Outcome{}, err
	}
	return applied(), nil
}

// applyScalarNullable implements the LWW rule for a nullable column.
func applyScalarNullable(ctx context.Context, st *storage.Storage, tx *sql.Tx, h hlc.Hlc, issueID, column, hlcColumn string, value *string) (Outcome, error) {
	issue, err := st.GetIssue(ctx, tx, issueID)
	if err != nil {
		return Outcome{}, err
	}
	if issue == nil {
		return discarded("unknown_issue"), nil
	}

	stored := fieldHlc(issue, hlcColumn)
	greater, err := hlcGreater(h, stored)
	if err != nil {
		return Outcome{}, err
	}
	if !greater {
		return discarded("stale_write"), nil
	}

	var sqlValue any
	if value != nil {
		sqlValue = *value
	}
	query := fmt.Sprintf(`UPDATE issues SET %s = ?, %s = ?, updated_at = MAX(updated_at, ?) WHERE id = ?`, column, hlcColumn)
	if _, err := tx.ExecContext(ctx, query, sqlValue, h.String(), int64(h.WallMS), issueID); err != nil {
		return Outcome{}, fmt.Errorf("merge: update %s: %w", column, err)
	}
	if err := recordEvent(ctx, tx, issueID, h, "set_"+column, ""); err != nil {
		return Outcome{}, err
	}
	return applied(), nil
}

func fieldHlc(issue *storage.Issue, hlcColumn string) string {
	switch hlcColumn {
	case "last_title_hlc":
		return issue.LastTitleHlc
	case "last_status_hlc":
		return issue.LastStatusHlc
	case "last_type_hlc":
		return issue.LastTypeHlc
	case "last_assignee_hlc":
		return issue.LastAssigneeHlc
	case "last_description_hlc":
		return issue.LastDescriptionHlc
	default:
		return ""
	}
}

func recordEvent(ctx context.Context, tx *sql.Tx, issueID string, h hlc.Hlc, kind, detail string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO events (issue_id, hlc, kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, issueID, h.String(), kind, detail, int64(h.WallMS))
	if err != nil {
		return fmt.Errorf("merge: record event: %w", err)
	}
	return nil
}
