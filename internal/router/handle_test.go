package router

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wok-dev/wok/internal/config"
	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

func initPrivateProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, config.Save(root, &config.Config{Prefix: "p", Private: true}))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".wok"), 0o755))
	return root
}

func openPrivateHandle(t *testing.T) *Handle {
	t.Helper()
	h, err := Open(initPrivateProject(t))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestOpenPrivateModeRoundTrip(t *testing.T) {
	h := openPrivateHandle(t)
	require.Equal(t, ModePrivate, h.Mode())

	ctx := context.Background()
	outcome, id, err := h.Mutate(ctx, op.NewCreateIssue("p-a1b2", "task", "first issue"))
	require.NoError(t, err)
	require.Equal(t, merge.KindApplied, outcome.Kind)
	require.False(t, id.IsZero(), "Mutate returned zero Hlc")

	issue, err := h.GetIssue(ctx, "p-a1b2")
	require.NoError(t, err)
	require.NotNil(t, issue)
	require.Equal(t, "first issue", issue.Title)

	_, _, err = h.Mutate(ctx, op.NewAddLabel("p-a1b2", "urgent"))
	require.NoError(t, err)
	labels, err := h.GetLabelsBatch(ctx, []string{"p-a1b2"})
	require.NoError(t, err)
	require.Equal(t, []string{"urgent"}, labels["p-a1b2"])

	issues, err := h.ListIssues(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
}

func TestOpenPrivateModeBlockedIssues(t *testing.T) {
	h := openPrivateHandle(t)
	ctx := context.Background()

	_, _, err := h.Mutate(ctx, op.NewCreateIssue("p-a1", "task", "A"))
	require.NoError(t, err)
	_, _, err = h.Mutate(ctx, op.NewCreateIssue("p-b2", "task", "B"))
	require.NoError(t, err)
	_, _, err = h.Mutate(ctx, op.NewAddDep("p-a1", "p-b2", op.RelBlocks))
	require.NoError(t, err)

	blocked, err := h.GetBlockedIssueIDs(ctx)
	require.NoError(t, err)
	require.True(t, blocked["p-a1"], "p-a1 should be blocked by open p-b2")
}

func TestOpenPrivateModeRecordsEvents(t *testing.T) {
	h := openPrivateHandle(t)
	ctx := context.Background()

	_, _, err := h.Mutate(ctx, op.NewCreateIssue("p-a1", "task", "A"))
	require.NoError(t, err)
	_, _, err = h.Mutate(ctx, op.NewSetTitle("p-a1", "A renamed"))
	require.NoError(t, err)

	events, err := h.GetEvents(ctx, "p-a1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "set_title", events[len(events)-1].Kind)
}

func TestOpenNotInitializedFails(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}
