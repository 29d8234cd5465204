package daemon

import (
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/rpc"
	"github.com/wok-dev/wok/internal/storage"
)

// ClientHandle adapts the raw rpc.Client to the typed Query/Mutate
// shapes the mode router's user-level path needs, so internal/router
// never constructs wire requests itself.
type ClientHandle struct {
	c *rpc.Client
}

// WrapClient adapts an already-handshaked rpc.Client.
func WrapClient(c *rpc.Client) *ClientHandle { return &ClientHandle{c: c} }

func (h *ClientHandle) Close() error { return h.c.Close() }

// MutateResult is the router-facing decoding of rpc.MutateResult: the
// merge engine's outcome kind plus the Hlc the daemon ultimately
// stamped or observed on the op.
type MutateResult struct {
	Outcome merge.Outcome
	ID      hlc.Hlc
}

// Mutate sends o to the daemon and decodes its MutateResult.
func (h *ClientHandle) Mutate(o op.Op) (*MutateResult, error) {
	resp, err := h.c.Mutate(o)
	if err != nil {
		return nil, err
	}
	id, err := hlc.Parse(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("daemon: parse mutate result id %q: %w", resp.ID, err)
	}
	outcome := merge.Outcome{Kind: merge.Kind(resp.Outcome), Reason: resp.Reason}
	if outcome.Kind == merge.KindRejected && resp.Reason != "" {
		outcome.Err = fmt.Errorf("%s", resp.Reason)
	}
	return &MutateResult{Outcome: outcome, ID: id}, nil
}

func (h *ClientHandle) GetIssue(idOrPrefix string) (*storage.Issue, error) {
	result, err := h.c.Query(rpc.NewGetIssue(idOrPrefix))
	if err != nil {
		return nil, err
	}
	issueResult, ok := result.(*rpc.IssueResult)
	if !ok {
		return nil, fmt.Errorf("daemon: unexpected query result %T for get_issue", result)
	}
	return issueResult.Issue, nil
}

func (h *ClientHandle) ListIssues(filter storage.ListFilter) ([]*storage.Issue, error) {
	result, err := h.c.Query(rpc.NewListIssues(filter))
	if err != nil {
		return nil, err
	}
	issuesResult, ok := result.(*rpc.IssuesResult)
	if !ok {
		return nil, fmt.Errorf("daemon: unexpected query result %T for list_issues", result)
	}
	return issuesResult.Issues, nil
}

func (h *ClientHandle) GetLabels(ids []string) (map[string][]string, error) {
	result, err := h.c.Query(rpc.NewGetLabels(ids))
	if err != nil {
		return nil, err
	}
	labelsResult, ok := result.(*rpc.LabelsResult)
	if !ok {
		return nil, fmt.Errorf("daemon: unexpected query result %T for get_labels", result)
	}
	return labelsResult.Labels, nil
}

func (h *ClientHandle) GetBlocked() ([]string, error) {
	result, err := h.c.Query(rpc.NewGetBlocked())
	if err != nil {
		return nil, err
	}
	blockedResult, ok := result.(*rpc.BlockedResult)
	if !ok {
		return nil, fmt.Errorf("daemon: unexpected query result %T for get_blocked", result)
	}
	return blockedResult.IDs, nil
}

func (h *ClientHandle) GetEvents(issueID string) ([]*storage.Event, error) {
	result, err := h.c.Query(rpc.NewGetEvents(issueID))
	if err != nil {
		return nil, err
	}
	eventsResult, ok := result.(*rpc.EventsResult)
	if !ok {
		return nil, fmt.Errorf("daemon: unexpected query result %T for get_events", result)
	}
	return eventsResult.Events, nil
}

// Status fetches daemon metadata (version, pid, database path).
func (h *ClientHandle) Status() (*rpc.StatusResp, error) { return h.c.Status() }

// Shutdown asks the daemon to stop in an orderly fashion.
func (h *ClientHandle) Shutdown() error { return h.c.Shutdown() }
