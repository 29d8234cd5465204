package op

import (
	"encoding/json"
	"testing"

	"github.com/wok-dev/wok/internal/hlc"
)

func TestOpRoundTripCreateIssue(t *testing.T) {
	want := Op{
		ID:      hlc.Hlc{WallMS: 10, Counter: 0, Node: 1},
		Payload: NewCreateIssue("p-a1b2", "task", "A"),
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Op
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ID != want.ID {
		t.Fatalf("id mismatch: got %s want %s", got.ID, want.ID)
	}
	gotPayload, ok := got.Payload.(*CreateIssue)
	if !ok {
		t.Fatalf("payload type = %T, want *CreateIssue", got.Payload)
	}
	wantPayload := want.Payload.(*CreateIssue)
	if *gotPayload != *wantPayload {
		t.Fatalf("payload mismatch: got %+v want %+v", gotPayload, wantPayload)
	}
}

func TestOpJSONShape(t *testing.T) {
	o := Op{
		ID:      hlc.Hlc{WallMS: 20, Counter: 1, Node: 2},
		Payload: NewSetTitle("p-a1b2", "new title"),
	}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}

	var id string
	if err := json.Unmarshal(generic["id"], &id); err != nil {
		t.Fatalf("id not a string: %v", err)
	}
	if id != "20-1-2" {
		t.Fatalf("id = %s, want 20-1-2", id)
	}

	var payload map[string]any
	if err := json.Unmarshal(generic["payload"], &payload); err != nil {
		t.Fatalf("payload not an object: %v", err)
	}
	if payload["type"] != "set_title" {
		t.Fatalf("payload.type = %v, want set_title", payload["type"])
	}
}

func TestOpUnmarshalRejectsUnknownType(t *testing.T) {
	data := []byte(`{"id":"1-0-1","payload":{"type":"bogus"}}`)
	var got Op
	if err := json.Unmarshal(data, &got); err == nil {
		t.Fatal("expected error for unknown payload type")
	}
}

func TestAllVariantsRoundTrip(t *testing.T) {
	reason := "blocked on deploy"
	assignee := "alice"
	linkKind := "pr"
	payloads := []Payload{
		NewCreateIssue("p-aaa", "bug", "t"),
		NewSetTitle("p-aaa", "t2"),
		NewSetType("p-aaa", "task"),
		NewSetStatus("p-aaa", "in_progress", &reason),
		NewSetAssignee("p-aaa", &assignee),
		NewAddLabel("p-aaa", "urgent"),
		NewRemoveLabel("p-aaa", "urgent"),
		NewAddDep("p-aaa", "p-bbb", RelBlocks),
		NewRemoveDep("p-aaa", "p-bbb", RelBlocks),
		NewAddNote("p-aaa", "todo", "hello"),
		NewAddLink("p-aaa", "https://example.com", &linkKind, nil, nil),
		NewRemoveLink("p-aaa", "https://example.com"),
		NewSetDescription("p-aaa", nil),
		NewRenamePrefix("old", "new"),
	}

	for _, p := range payloads {
		o := Op{ID: hlc.Hlc{WallMS: 1, Counter: 0, Node: 1}, Payload: p}
		data, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("%s: marshal: %v", p.Kind(), err)
		}
		var got Op
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("%s: unmarshal: %v", p.Kind(), err)
		}
		if got.Payload.Kind() != p.Kind() {
			t.Fatalf("kind mismatch: got %s want %s", got.Payload.Kind(), p.Kind())
		}
	}
}
