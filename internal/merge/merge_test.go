package merge

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

func openTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func mustParse(t *testing.T, s string) hlc.Hlc {
	t.Helper()
	h, err := hlc.Parse(s)
	if err != nil {
		t.Fatalf("hlc.Parse(%s): %v", s, err)
	}
	return h
}

func applyOp(t *testing.T, ctx context.Context, st *storage.Storage, id string, p op.Payload) Outcome {
	t.Helper()
	out, err := Apply(ctx, st, op.Op{ID: mustParse(t, id), Payload: p})
	if err != nil {
		t.Fatalf("Apply(%s): %v", id, err)
	}
	return out
}

// TestLWWConvergence applies two permutations of the same SetTitle ops
// and checks both converge to the higher-HLC title regardless of
// application order.
func TestLWWConvergence(t *testing.T) {
	order1 := func(st *storage.Storage) {
		applyOp(t, context.Background(), st, "10-0-1", op.NewCreateIssue("p-a1b2", "task", "A"))
		applyOp(t, context.Background(), st, "20-0-1", op.NewSetTitle("p-a1b2", "B"))
		applyOp(t, context.Background(), st, "20-0-2", op.NewSetTitle("p-a1b2", "C"))
	}
	order2 := func(st *storage.Storage) {
		applyOp(t, context.Background(), st, "10-0-1", op.NewCreateIssue("p-a1b2", "task", "A"))
		applyOp(t, context.Background(), st, "20-0-2", op.NewSetTitle("p-a1b2", "C"))
		applyOp(t, context.Background(), st, "20-0-1", op.NewSetTitle("p-a1b2", "B"))
	}

	for _, run := range []func(*storage.Storage){order1, order2} {
		st := openTestStorage(t)
		run(st)
		issue, err := st.GetIssue(context.Background(), st.DB(), "p-a1b2")
		if err != nil || issue == nil {
			t.Fatalf("GetIssue: %v, %v", issue, err)
		}
		if issue.Title != "C" {
			t.Fatalf("title = %q, want C (greater hlc by node-id tie-break)", issue.Title)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)

	o := op.Op{ID: mustParse(t, "10-0-1"), Payload: op.NewCreateIssue("p-aaaa", "task", "t")}
	if _, err := Apply(ctx, st, o); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := Apply(ctx, st, o); err != nil {
		t.Fatalf("Apply (again): %v", err)
	}

	issue, err := st.GetIssue(ctx, st.DB(), "p-aaaa")
	if err != nil || issue == nil {
		t.Fatalf("GetIssue: %v, %v", issue, err)
	}
	if issue.Title != "t" || issue.Type != "task" {
		t.Fatalf("issue = %+v, unexpected drift after re-apply", issue)
	}
}

func TestBlocksCycleRejected(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)

	for i, id := range []string{"A", "B", "C"} {
		applyOp(t, ctx, st, fmt.Sprintf("%d-0-1", i+1), op.NewCreateIssue(id, "task", id))
	}

	out := applyOp(t, ctx, st, "10-0-1", op.NewAddDep("A", "B", op.RelBlocks))
	if out.Kind != KindApplied {
		t.Fatalf("AddDep(A,B) = %+v, want applied", out)
	}
	out = applyOp(t, ctx, st, "11-0-1", op.NewAddDep("B", "C", op.RelBlocks))
	if out.Kind != KindApplied {
		t.Fatalf("AddDep(B,C) = %+v, want applied", out)
	}

	out = applyOp(t, ctx, st, "12-0-1", op.NewAddDep("C", "A", op.RelBlocks))
	if out.Kind != KindRejected {
		t.Fatalf("AddDep(C,A) = %+v, want rejected", out)
	}

	var count int
	if err := st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM deps WHERE from_id = 'C' AND to_id = 'A'`).Scan(&count); err != nil {
		t.Fatalf("query deps: %v", err)
	}
	if count != 0 {
		t.Fatal("deps table should be unchanged after a rejected cycle")
	}
}

func TestAddNoteDroppedOnClosedIssue(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)

	applyOp(t, ctx, st, "1-0-1", op.NewCreateIssue("p-aaaa", "task", "t"))
	applyOp(t, ctx, st, "2-0-1", op.NewSetStatus("p-aaaa", "closed", nil))

	out := applyOp(t, ctx, st, "3-0-1", op.NewAddNote("p-aaaa", "closed", "too late"))
	if out.Kind != KindDiscarded || out.Reason != "closed_issue" {
		t.Fatalf("AddNote on closed issue = %+v, want discarded/closed_issue", out)
	}

	var count int
	if err := st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE issue_id = 'p-aaaa'`).Scan(&count); err != nil {
		t.Fatalf("query notes: %v", err)
	}
	if count != 0 {
		t.Fatal("expected no notes recorded")
	}
}

func TestLabelAddWinsOverOlderRemove(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)
	applyOp(t, ctx, st, "1-0-1", op.NewCreateIssue("p-aaaa", "task", "t"))

	applyOp(t, ctx, st, "5-0-1", op.NewRemoveLabel("p-aaaa", "urgent"))
	applyOp(t, ctx, st, "10-0-1", op.NewAddLabel("p-aaaa", "urgent"))

	labels, err := st.GetLabelsBatch(ctx, st.DB(), []string{"p-aaaa"})
	if err != nil {
		t.Fatalf("GetLabelsBatch: %v", err)
	}
	if len(labels["p-aaaa"]) != 1 || labels["p-aaaa"][0] != "urgent" {
		t.Fatalf("labels = %v, want [urgent] present (add hlc greater than remove)", labels)
	}
}

func TestLabelRemoveWinsOverOlderAdd(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)
	applyOp(t, ctx, st, "1-0-1", op.NewCreateIssue("p-aaaa", "task", "t"))

	applyOp(t, ctx, st, "5-0-1", op.NewAddLabel("p-aaaa", "urgent"))
	applyOp(t, ctx, st, "10-0-1", op.NewRemoveLabel("p-aaaa", "urgent"))

	labels, err := st.GetLabelsBatch(ctx, st.DB(), []string{"p-aaaa"})
	if err != nil {
		t.Fatalf("GetLabelsBatch: %v", err)
	}
	if len(labels["p-aaaa"]) != 0 {
		t.Fatalf("labels = %v, want none present", labels)
	}
}

func TestRenamePrefixRejectsInvalidFormat(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)
	out := applyOp(t, ctx, st, "1-0-1", op.NewRenamePrefix("Old!", "new"))
	if out.Kind != KindRejected {
		t.Fatalf("RenamePrefix with invalid chars = %+v, want rejected", out)
	}
}

func TestRenamePrefixAppliesAcrossTables(t *testing.T) {
	ctx := context.Background()
	st := openTestStorage(t)
	applyOp(t, ctx, st, "1-0-1", op.NewCreateIssue("old-0001", "task", "t"))
	applyOp(t, ctx, st, "2-0-1", op.NewAddLabel("old-0001", "urgent"))

	out := applyOp(t, ctx, st, "3-0-1", op.NewRenamePrefix("old", "new"))
	if out.Kind != KindApplied {
		t.Fatalf("RenamePrefix = %+v, want applied", out)
	}

	issue, err := st.GetIssue(ctx, st.DB(), "new-0001")
	if err != nil || issue == nil {
		t.Fatalf("GetIssue(new-0001) = %v, %v", issue, err)
	}
	labels, err := st.GetLabelsBatch(ctx, st.DB(), []string{"new-0001"})
	if err != nil {
		t.Fatalf("GetLabelsBatch: %v", err)
	}
	if len(labels["new-0001"]) != 1 {
		t.Fatalf("labels under renamed id = %v", labels)
	}
}
