package daemon

import (
	"context"
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/rpc"
)

// handler implements rpc.Handler over the daemon's storage, op log, and
// clock. It is the daemon's half of the single-owner write path: Mutate
// calls run to completion on whichever goroutine invoked them, but the
// caller (Run) never dispatches two Mutates concurrently.
type handler struct {
	d *Daemon
}

func (h *handler) Status() *rpc.StatusResp {
	return rpc.NewStatusResp(h.d.Version, h.d.pid, h.d.Paths.DB())
}

func (h *handler) Query(tag rpc.QueryTag) (rpc.QueryResultPayload, error) {
	ctx := context.Background()
	db := h.d.store.DB()

	switch q := tag.(type) {
	case *rpc.GetIssue:
		id, err := h.d.store.ResolveID(ctx, db, q.IDOrPrefix)
		if err != nil {
			return nil, err
		}
		issue, err := h.d.store.GetIssue(ctx, db, id)
		if err != nil {
			return nil, err
		}
		return rpc.NewIssueResult(issue), nil

	case *rpc.ListIssues:
		issues, err := h.d.store.ListIssues(ctx, db, q.Filter)
		if err != nil {
			return nil, err
		}
		return rpc.NewIssuesResult(issues), nil

	case *rpc.GetLabels:
		labels, err := h.d.store.GetLabelsBatch(ctx, db, q.IDs)
		if err != nil {
			return nil, err
		}
		return rpc.NewLabelsResult(labels), nil

	case *rpc.GetBlocked:
		blocked, err := h.d.store.GetBlockedIssueIDs(ctx, db)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(blocked))
		for id := range blocked {
			ids = append(ids, id)
		}
		return rpc.NewBlockedResult(ids), nil

	case *rpc.GetEvents:
		events, err := h.d.store.GetEvents(ctx, db, q.IssueID)
		if err != nil {
			return nil, err
		}
		return rpc.NewEventsResult(events), nil

	default:
		return nil, fmt.Errorf("daemon: unhandled query tag %T", tag)
	}
}

// Mutate stamps op with a fresh Hlc when its id is absent, observes the
// given id otherwise, then runs it through the full log-and-apply
// pipeline.
func (h *handler) Mutate(o op.Op) (*rpc.MutateResult, error) {
	if o.ID.IsZero() {
		id, err := h.d.clock.Now()
		if err != nil {
			return nil, fmt.Errorf("daemon: stamp op: %w", err)
		}
		o.ID = id
	} else {
		h.d.clock.Observe(o.ID)
	}

	outcome, err := merge.ApplyWithLog(context.Background(), h.d.store, h.d.log, o)
	if err != nil {
		return nil, err
	}
	return outcomeToResult(outcome, o.ID), nil
}

func outcomeToResult(outcome merge.Outcome, id hlc.Hlc) *rpc.MutateResult {
	reason := outcome.Reason
	if outcome.Kind == merge.KindRejected && outcome.Err != nil {
		reason = outcome.Err.Error()
	}
	return rpc.NewMutateResult(string(outcome.Kind), reason, id.String())
}
