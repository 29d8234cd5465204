package merge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

// applyCreateIssue inserts a fresh issue with status=todo and every
// per-field HLC set to h. If the issue already exists, e.g. from
// out-of-order replication, it applies LWW per field against
// title/type without re-creating.
func applyCreateIssue(ctx context.Context, st *storage.Storage, tx *sql.Tx, h hlc.Hlc, p *op.CreateIssue) (Outcome, error) {
	existing, err := st.GetIssue(ctx, tx, p.ID)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return applyExistingCreate(ctx, tx, h, p, existing)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO issues (id, type, title, status, created_at, updated_at,
			last_title_hlc, last_status_hlc, last_type_hlc,
			last_assignee_hlc, last_description_hlc)
		VALUES (?, ?, ?, 'todo', ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Typ, p.Title, int64(h.WallMS), int64(h.WallMS),
		h.String(), h.String(), h.String(), h.String(), h.String())
	if err != nil {
		return Outcome{}, fmt.Errorf("merge: insert issue: %w", err)
	}

	prefix := idPrefix(p.ID)
	if prefix != "" {
		if err := st.IncrementPrefixCount(ctx, tx, prefix, 1, int64(h.WallMS)); err != nil {
			return Outcome{}, err
		}
	}

	if err := recordEvent(ctx, tx, p.ID, h, "create_issue", p.Title); err != nil {
		return Outcome{}, err
	}
	return applied(), nil
}

func applyExistingCreate(ctx context.Context, tx *sql.Tx, h hlc.Hlc, p *op.CreateIssue, existing *storage.Issue) (Outcome, error) {
	anyApplied := false

	if greater, err := hlcGreater(h, existing.LastTitleHlc); err != nil {
		return Outcome{}, err
	} else if greater {
		if _, err := tx.ExecContext(ctx, `UPDATE issues SET title = ?, last_title_hlc = ? WHERE id = ?`, p.Title, h.String(), p.ID); err != nil {
			return Outcome{}, fmt.Errorf("merge: re-create title: %w", err)
		}
		anyApplied = true
	}

	if greater, err := hlcGreater(h, existing.LastTypeHlc); err != nil {
		return Outcome{}, err
	} else if greater {
		if _, err := tx.ExecContext(ctx, `UPDATE issues SET type = ?, last_type_hlc = ? WHERE id = ?`, p.Typ, h.String(), p.ID); err != nil {
			return Outcome{}, fmt.Errorf("merge: re-create type: %w", err)
		}
		anyApplied = true
	}

	if !anyApplied {
		return discarded("stale_write"), nil
	}
	return applied(), nil
}

func idPrefix(id string) string {
	i := strings.IndexByte(id, '-')
	if i <= 0 {
		return ""
	}
	return id[:i]
}
