package merge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/oplog"
	"github.com/wok-dev/wok/internal/storage"
)

// ApplyWithLog runs the full apply pipeline: the log's append is the
// dedup gate, the engine enforces per-field LWW on top. A replica may
// safely re-run the full log and reach the same state.
func ApplyWithLog(ctx context.Context, st *storage.Storage, log *oplog.Log, o op.Op) (Outcome, error) {
	ok, err := log.Append(o)
	if err != nil {
		return Outcome{}, fmt.Errorf("merge: append to log: %w", err)
	}
	if !ok {
		return Outcome{Kind: KindDeduped}, nil
	}
	return Apply(ctx, st, o)
}

// Apply runs one Op against the database inside a single transaction.
// On transaction failure, no partial state is visible.
func Apply(ctx context.Context, st *storage.Storage, o op.Op) (Outcome, error) {
	tx, err := st.BeginTx(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("merge: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	outcome, err := dispatch(ctx, st, tx, o)
	if err != nil {
		return Outcome{}, err
	}
	if outcome.Kind == KindRejected {
		return outcome, nil // tx rolled back by the deferred Rollback
	}
	if err := tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("merge: commit: %w", err)
	}
	return outcome, nil
}

func dispatch(ctx context.Context, st *storage.Storage, tx *sql.Tx, o op.Op) (Outcome, error) {
	switch p := o.Payload.(type) {
	case *op.CreateIssue:
		return applyCreateIssue(ctx, st, tx, o.ID, p)
	case *op.SetTitle:
		return applyScalar(ctx, st, tx, o.ID, p.ID, "title", "last_title_hlc", p.Title)
	case *op.SetType:
		return applyScalar(ctx, st, tx, o.ID, p.ID, "type", "last_type_hlc", p.Typ)
	case *op.SetStatus:
		return applyStatus(ctx, st, tx, o.ID, p)
	case *op.SetAssignee:
		return applyScalarNullable(ctx, st, tx, o.ID, p.ID, "assignee", "last_assignee_hlc", p.Assignee)
	case *op.SetDescription:
		return applyScalarNullable(ctx, st, tx, o.ID, p.ID, "description", "last_description_hlc", p.Text)
	case *op.AddLabel:
		outcome, err := applyTupleAdd(ctx, tx, "labels", tupleKey{{"issue_id", p.ID}, {"label", p.Label}}, o.ID)
		return withEvent(ctx, tx, o.ID, p.ID, "add_label", p.Label, outcome, err)
	case *op.RemoveLabel:
		outcome, err := applyTupleRemove(ctx, tx, "labels", tupleKey{{"issue_id", p.ID}, {"label", p.Label}}, o.ID)
		return withEvent(ctx, tx, o.ID, p.ID, "remove_label", p.Label, outcome, err)
	case *op.AddDep:
		outcome, err := applyAddDep(ctx, st, tx, o.ID, p)
		return withEvent(ctx, tx, o.ID, p.From, "add_dep", depDetail(p.To, p.Rel), outcome, err)
	case *op.RemoveDep:
		outcome, err := applyTupleRemove(ctx, tx, "deps", tupleKey{{"from_id", p.From}, {"to_id", p.To}, {"rel", string(p.Rel)}}, o.ID)
		return withEvent(ctx, tx, o.ID, p.From, "remove_dep", depDetail(p.To, p.Rel), outcome, err)
	case *op.AddLink:
		outcome, err := applyAddLink(ctx, tx, o.ID, p)
		return withEvent(ctx, tx, o.ID, p.ID, "add_link", p.URL, outcome, err)
	case *op.RemoveLink:
		outcome, err := applyTupleRemove(ctx, tx, "links", tupleKey{{"issue_id", p.ID}, {"url", p.URL}}, o.ID)
		return withEvent(ctx, tx, o.ID, p.ID, "remove_link", p.URL, outcome, err)
	case *op.AddNote:
		return applyAddNote(ctx, st, tx, o.ID, p)
	case *op.RenamePrefix:
		return applyRenamePrefix(ctx, tx, p)
	default:
		return Outcome{}, fmt.Errorf("merge: unhandled payload type %T", p)
	}
}

// withEvent records an event row for a tuple mutation that actually
// changed state, mirroring the scalar path's recordEvent call in
// scalar.go. Tuple helpers don't know their own op kind/detail, so the
// dispatch cases pass them through here instead of threading them into
// every applyTuple* signature.
func withEvent(ctx context.Context, tx *sql.Tx, h hlc.Hlc, issueID, kind, detail string, outcome Outcome, err error) (Outcome, error) {
	if err != nil || outcome.Kind != KindApplied {
		return outcome, err
	}
	if err := recordEvent(ctx, tx, issueID, h, kind, detail); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// depDetail formats a dependency's event detail as "<rel> <to>".
func depDetail(to string, rel op.Rel) string {
	return string(rel) + " " + to
}
