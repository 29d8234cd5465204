package merge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

// applyStatus applies SetStatus under LWW. Transitions are lenient:
// the engine enforces no state machine, so any status value is
// accepted as long as its HLC wins.
func applyStatus(ctx context.Context, st *storage.Storage, tx *sql.Tx, h hlc.Hlc, p *op.SetStatus) (Outcome, error) {
	issue, err := st.GetIssue(ctx, tx, p.ID)
	if err != nil {
		return Outcome{}, err
	}
	if issue == nil {
		return discarded("unknown_issue"), nil
	}

	greater, err := hlcGreater(h, issue.LastStatusHlc)
	if err != nil {
		return Outcome{}, err
	}
	if !greater {
		return discarded("stale_write"), nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE issues SET status = ?, last_status_hlc = ?, updated_at = MAX(updated_at, ?) WHERE id = ?
	`, p.Status, h.String(), int64(h.WallMS), p.ID); err != nil {
		return Outcome{}, fmt.Errorf("merge: update status: %w", err)
	}

	detail := p.Status
	if p.Reason != nil {
		detail = p.Status + ": " + *p.Reason
	}
	if err := recordEvent(ctx, tx, p.ID, h, "set_status", detail); err != nil {
		return Outcome{}, err
	}
	return applied(), nil
}
