package merge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

// applyAddNote appends a note keyed by its own hlc. status_at_creation
// is observed at apply time, not taken from the sender, and notes
// targeting a closed issue are dropped.
func applyAddNote(ctx context.Context, st *storage.Storage, tx *sql.Tx, h hlc.Hlc, p *op.AddNote) (Outcome, error) {
	issue, err := st.GetIssue(ctx, tx, p.ID)
	if err != nil {
		return Outcome{}, err
	}
	if issue == nil {
		return discarded("unknown_issue"), nil
	}
	if issue.Status == "closed" {
		return discarded("closed_issue"), nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (hlc, issue_id, status_at_creation, content, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hlc) DO NOTHING
	`, h.String(), p.ID, issue.Status, p.Content, int64(h.WallMS))
	if err != nil {
		return Outcome{}, fmt.Errorf("merge: insert note: %w", err)
	}
	if err := recordEvent(ctx, tx, p.ID, h, "add_note", ""); err != nil {
		return Outcome{}, err
	}
	return applied(), nil
}
