package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/wok-dev/wok/internal/storage"
)

// QueryKind discriminates QueryTag variants on the wire.
type QueryKind string

const (
	QueryKindGetIssue   QueryKind = "get_issue"
	QueryKindListIssues QueryKind = "list_issues"
	QueryKindGetLabels  QueryKind = "get_labels"
	QueryKindGetBlocked QueryKind = "get_blocked"
	QueryKindGetEvents  QueryKind = "get_events"
)

// QueryTag is the closed union of read-only requests the router may
// send to the daemon.
type QueryTag interface {
	QueryKind() QueryKind
}

type GetIssue struct {
	Type       QueryKind `json:"type"`
	IDOrPrefix string    `json:"id_or_prefix"`
}

func NewGetIssue(idOrPrefix string) *GetIssue {
	return &GetIssue{Type: QueryKindGetIssue, IDOrPrefix: idOrPrefix}
}
func (q *GetIssue) QueryKind() QueryKind { return QueryKindGetIssue }

type ListIssues struct {
	Type   QueryKind          `json:"type"`
	Filter storage.ListFilter `json:"filter"`
}

func NewListIssues(filter storage.ListFilter) *ListIssues {
	return &ListIssues{Type: QueryKindListIssues, Filter: filter}
}
func (q *ListIssues) QueryKind() QueryKind { return QueryKindListIssues }

type GetLabels struct {
	Type QueryKind `json:"type"`
	IDs  []string  `json:"ids"`
}

func NewGetLabels(ids []string) *GetLabels {
	return &GetLabels{Type: QueryKindGetLabels, IDs: ids}
}
func (q *GetLabels) QueryKind() QueryKind { return QueryKindGetLabels }

// GetBlocked asks for the set of issue ids transitively blocked by an
// unresolved blocker.
type GetBlocked struct {
	Type QueryKind `json:"type"`
}

func NewGetBlocked() *GetBlocked { return &GetBlocked{Type: QueryKindGetBlocked} }
func (q *GetBlocked) QueryKind() QueryKind { return QueryKindGetBlocked }

// GetEvents asks for the audit trail recorded against one issue.
type GetEvents struct {
	Type    QueryKind `json:"type"`
	IssueID string    `json:"issue_id"`
}

func NewGetEvents(issueID string) *GetEvents {
	return &GetEvents{Type: QueryKindGetEvents, IssueID: issueID}
}
func (q *GetEvents) QueryKind() QueryKind { return QueryKindGetEvents }

func newQueryTag(k QueryKind) (QueryTag, error) {
	switch k {
	case QueryKindGetIssue:
		return &GetIssue{}, nil
	case QueryKindListIssues:
		return &ListIssues{}, nil
	case QueryKindGetLabels:
		return &GetLabels{}, nil
	case QueryKindGetBlocked:
		return &GetBlocked{}, nil
	case QueryKindGetEvents:
		return &GetEvents{}, nil
	default:
		return nil, fmt.Errorf("rpc: unknown query tag %q", k)
	}
}

func marshalQueryTag(q QueryTag) (json.RawMessage, error) {
	return json.Marshal(q)
}

func unmarshalQueryTag(data json.RawMessage) (QueryTag, error) {
	var tag struct {
		Type QueryKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("rpc: missing query tag type: %w", err)
	}
	q, err := newQueryTag(tag.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, fmt.Errorf("rpc: decoding %s query: %w", tag.Type, err)
	}
	return q, nil
}

// QueryResultKind discriminates QueryResult payload variants; each
// names the precise Query variant it answers so decoding is
// deterministic.
type QueryResultKind string

const (
	QueryResultKindIssue   QueryResultKind = "issue"
	QueryResultKindIssues  QueryResultKind = "issues"
	QueryResultKindLabels  QueryResultKind = "labels"
	QueryResultKindBlocked QueryResultKind = "blocked"
	QueryResultKindEvents  QueryResultKind = "events"
)

type QueryResultPayload interface {
	QueryResultKind() QueryResultKind
}

type IssueResult struct {
	Type  QueryResultKind `json:"type"`
	Issue *storage.Issue  `json:"issue"`
}

func NewIssueResult(issue *storage.Issue) *IssueResult {
	return &IssueResult{Type: QueryResultKindIssue, Issue: issue}
}
func (r *IssueResult) QueryResultKind() QueryResultKind { return QueryResultKindIssue }

type IssuesResult struct {
	Type   QueryResultKind  `json:"type"`
	Issues []*storage.Issue `json:"issues"`
}

func NewIssuesResult(issues []*storage.Issue) *IssuesResult {
	return &IssuesResult{Type: QueryResultKindIssues, Issues: issues}
}
func (r *IssuesResult) QueryResultKind() QueryResultKind { return QueryResultKindIssues }

type LabelsResult struct {
	Type   QueryResultKind     `json:"type"`
	Labels map[string][]string `json:"labels"`
}

func NewLabelsResult(labels map[string][]string) *LabelsResult {
	return &LabelsResult{Type: QueryResultKindLabels, Labels: labels}
}
func (r *LabelsResult) QueryResultKind() QueryResultKind { return QueryResultKindLabels }

type BlockedResult struct {
	Type QueryResultKind `json:"type"`
	IDs  []string        `json:"ids"`
}

func NewBlockedResult(ids []string) *BlockedResult {
	return &BlockedResult{Type: QueryResultKindBlocked, IDs: ids}
}
func (r *BlockedResult) QueryResultKind() QueryResultKind { return QueryResultKindBlocked }

type EventsResult struct {
	Type   QueryResultKind  `json:"type"`
	Events []*storage.Event `json:"events"`
}

func NewEventsResult(events []*storage.Event) *EventsResult {
	return &EventsResult{Type: QueryResultKindEvents, Events: events}
}
func (r *EventsResult) QueryResultKind() QueryResultKind { return QueryResultKindEvents }

func newQueryResultPayload(k QueryResultKind) (QueryResultPayload, error) {
	switch k {
	case QueryResultKindIssue:
		return &IssueResult{}, nil
	case QueryResultKindIssues:
		return &IssuesResult{}, nil
	case QueryResultKindLabels:
		return &LabelsResult{}, nil
	case QueryResultKindBlocked:
		return &BlockedResult{}, nil
	case QueryResultKindEvents:
		return &EventsResult{}, nil
	default:
		return nil, fmt.Errorf("rpc: unknown query result kind %q", k)
	}
}

func marshalQueryResultPayload(p QueryResultPayload) (json.RawMessage, error) {
	return json.Marshal(p)
}

func unmarshalQueryResultPayload(data json.RawMessage) (QueryResultPayload, error) {
	var tag struct {
		Type QueryResultKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("rpc: missing query result type: %w", err)
	}
	p, err := newQueryResultPayload(tag.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("rpc: decoding %s query result: %w", tag.Type, err)
	}
	return p, nil
}
