// Package op defines the closed tagged union of mutations that flow
// through the operation log and merge engine. Every payload variant
// names a concrete target entity by id and carries every field needed
// to apply it in isolation.
package op

import (
	"encoding/json"
	"fmt"

	"github.com/wok-dev/wok/internal/hlc"
)

// Kind discriminates OpPayload variants on the wire via a "type" field.
type Kind string

const (
	KindCreateIssue    Kind = "create_issue"
	KindSetTitle       Kind = "set_title"
	KindSetType        Kind = "set_type"
	KindSetStatus      Kind = "set_status"
	KindSetAssignee    Kind = "set_assignee"
	KindAddLabel       Kind = "add_label"
	KindRemoveLabel    Kind = "remove_label"
	KindAddDep         Kind = "add_dep"
	KindRemoveDep      Kind = "remove_dep"
	KindAddNote        Kind = "add_note"
	KindAddLink        Kind = "add_link"
	KindRemoveLink     Kind = "remove_link"
	KindSetDescription Kind = "set_description"
	KindRenamePrefix   Kind = "rename_prefix"
)

// Payload is implemented by every concrete op payload. Kind reports
// the variant's wire discriminator; TargetIssue reports the primary
// issue id the payload mutates, or "" for payloads (like RenamePrefix)
// that are not scoped to a single issue.
type Payload interface {
	Kind() Kind
	TargetIssue() string
}

// Op is one immutable, HLC-stamped mutation. Two distinct ops never
// share an Hlc on a consistent replica; the log's dedup enforces it.
type Op struct {
	ID      hlc.Hlc `json:"id"`
	Payload Payload `json:"payload"`
}

type envelope struct {
	ID      hlc.Hlc         `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type tagOnly struct {
	Type Kind `json:"type"`
}

// MarshalJSON renders {"id": "<hlc>", "payload": {"type": "...", ...}}.
func (o Op) MarshalJSON() ([]byte, error) {
	payloadJSON, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{ID: o.ID, Payload: payloadJSON})
}

// UnmarshalJSON dispatches on payload.type to the concrete struct.
func (o *Op) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("op: %w", err)
	}

	var tag tagOnly
	if err := json.Unmarshal(env.Payload, &tag); err != nil {
		return fmt.Errorf("op: missing payload type: %w", err)
	}

	payload, err := newPayload(tag.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return fmt.Errorf("op: decoding %s payload: %w", tag.Type, err)
	}

	o.ID = env.ID
	o.Payload = payload
	return nil
}

func newPayload(k Kind) (Payload, error) {
	switch k {
	case KindCreateIssue:
		return &CreateIssue{}, nil
	case KindSetTitle:
		return &SetTitle{}, nil
	case KindSetType:
		return &SetType{}, nil
	case KindSetStatus:
		return &SetStatus{}, nil
	case KindSetAssignee:
		return &SetAssignee{}, nil
	case KindAddLabel:
		return &AddLabel{}, nil
	case KindRemoveLabel:
		return &RemoveLabel{}, nil
	case KindAddDep:
		return &AddDep{}, nil
	case KindRemoveDep:
		return &RemoveDep{}, nil
	case KindAddNote:
		return &AddNote{}, nil
	case KindAddLink:
		return &AddLink{}, nil
	case KindRemoveLink:
		return &RemoveLink{}, nil
	case KindSetDescription:
		return &SetDescription{}, nil
	case KindRenamePrefix:
		return &RenamePrefix{}, nil
	default:
		return nil, fmt.Errorf("op: unknown payload type %q", k)
	}
}

// CreateIssue establishes a new issue. type and title are scalar
// fields subject to LWW against later SetType/SetTitle ops.
type CreateIssue struct {
	Type  Kind   `json:"type"`
	ID    string `json:"id"`
	Typ   string `json:"issue_type"`
	Title string `json:"title"`
}

func NewCreateIssue(id, issueType, title string) *CreateIssue {
	return &CreateIssue{Type: KindCreateIssue, ID: id, Typ: issueType, Title: title}
}
func (p *CreateIssue) Kind() Kind          { return KindCreateIssue }
func (p *CreateIssue) TargetIssue() string { return p.ID }

type SetTitle struct {
	Type  Kind   `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

func NewSetTitle(id, title string) *SetTitle {
	return &SetTitle{Type: KindSetTitle, ID: id, Title: title}
}
func (p *SetTitle) Kind() Kind          { return KindSetTitle }
func (p *SetTitle) TargetIssue() string { return p.ID }

type SetType struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
	Typ  string `json:"issue_type"`
}

func NewSetType(id, issueType string) *SetType {
	return &SetType{Type: KindSetType, ID: id, Typ: issueType}
}
func (p *SetType) Kind() Kind          { return KindSetType }
func (p *SetType) TargetIssue() string { return p.ID }

type SetStatus struct {
	Type   Kind    `json:"type"`
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

func NewSetStatus(id, status string, reason *string) *SetStatus {
	return &SetStatus{Type: KindSetStatus, ID: id, Status: status, Reason: reason}
}
func (p *SetStatus) Kind() Kind          { return KindSetStatus }
func (p *SetStatus) TargetIssue() string { return p.ID }

type SetAssignee struct {
	Type     Kind    `json:"type"`
	ID       string  `json:"id"`
	Assignee *string `json:"assignee,omitempty"`
}

func NewSetAssignee(id string, assignee *string) *SetAssignee {
	return &SetAssignee{Type: KindSetAssignee, ID: id, Assignee: assignee}
}
func (p *SetAssignee) Kind() Kind          { return KindSetAssignee }
func (p *SetAssignee) TargetIssue() string { return p.ID }

type AddLabel struct {
	Type  Kind   `json:"type"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

func NewAddLabel(id, label string) *AddLabel {
	return &AddLabel{Type: KindAddLabel, ID: id, Label: label}
}
func (p *AddLabel) Kind() Kind          { return KindAddLabel }
func (p *AddLabel) TargetIssue() string { return p.ID }

type RemoveLabel struct {
	Type  Kind   `json:"type"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

func NewRemoveLabel(id, label string) *RemoveLabel {
	return &RemoveLabel{Type: KindRemoveLabel, ID: id, Label: label}
}
func (p *RemoveLabel) Kind() Kind          { return KindRemoveLabel }
func (p *RemoveLabel) TargetIssue() string { return p.ID }

// Rel is the dependency relation kind.
type Rel string

const (
	RelBlocks    Rel = "blocks"
	RelTracks    Rel = "tracks"
	RelTrackedBy Rel = "tracked-by"
)

type AddDep struct {
	Type Kind   `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
	Rel  Rel    `json:"rel"`
}

func NewAddDep(from, to string, rel Rel) *AddDep {
	return &AddDep{Type: KindAddDep, From: from, To: to, Rel: rel}
}
func (p *AddDep) Kind() Kind          { return KindAddDep }
func (p *AddDep) TargetIssue() string { return p.From }

type RemoveDep struct {
	Type Kind   `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
	Rel  Rel    `json:"rel"`
}

func NewRemoveDep(from, to string, rel Rel) *RemoveDep {
	return &RemoveDep{Type: KindRemoveDep, From: from, To: to, Rel: rel}
}
func (p *RemoveDep) Kind() Kind          { return KindRemoveDep }
func (p *RemoveDep) TargetIssue() string { return p.From }

type AddNote struct {
	Type    Kind   `json:"type"`
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content string `json:"content"`
}

func NewAddNote(id, status, content string) *AddNote {
	return &AddNote{Type: KindAddNote, ID: id, Status: status, Content: content}
}
func (p *AddNote) Kind() Kind          { return KindAddNote }
func (p *AddNote) TargetIssue() string { return p.ID }

type AddLink struct {
	Type       Kind    `json:"type"`
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	LinkKind   *string `json:"kind,omitempty"`
	ExternalID *string `json:"external_id,omitempty"`
	Rel        *string `json:"rel,omitempty"`
}

func NewAddLink(id, url string, linkKind, externalID, rel *string) *AddLink {
	return &AddLink{Type: KindAddLink, ID: id, URL: url, LinkKind: linkKind, ExternalID: externalID, Rel: rel}
}
func (p *AddLink) Kind() Kind          { return KindAddLink }
func (p *AddLink) TargetIssue() string { return p.ID }

type RemoveLink struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

func NewRemoveLink(id, url string) *RemoveLink {
	return &RemoveLink{Type: KindRemoveLink, ID: id, URL: url}
}
func (p *RemoveLink) Kind() Kind          { return KindRemoveLink }
func (p *RemoveLink) TargetIssue() string { return p.ID }

type SetDescription struct {
	Type Kind    `json:"type"`
	ID   string  `json:"id"`
	Text *string `json:"text,omitempty"`
}

func NewSetDescription(id string, text *string) *SetDescription {
	return &SetDescription{Type: KindSetDescription, ID: id, Text: text}
}
func (p *SetDescription) Kind() Kind          { return KindSetDescription }
func (p *SetDescription) TargetIssue() string { return p.ID }

type RenamePrefix struct {
	Type Kind   `json:"type"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

func NewRenamePrefix(old, new string) *RenamePrefix {
	return &RenamePrefix{Type: KindRenamePrefix, Old: old, New: new}
}
func (p *RenamePrefix) Kind() Kind          { return KindRenamePrefix }
func (p *RenamePrefix) TargetIssue() string { return "" }
