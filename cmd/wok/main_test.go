package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything fn wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	runErr := fn()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), runErr
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

// TestCLIEndToEndPrivateMode exercises init -> create -> show -> label
// -> status -> note -> history against a private-mode project, the way
// a single CLI session would, calling each command's RunE directly
// rather than going through cobra's argument parser.
func TestCLIEndToEndPrivateMode(t *testing.T) {
	chdirTemp(t)

	initPrivate = true
	if err := initCmd.RunE(initCmd, []string{"p"}); err != nil {
		t.Fatalf("init: %v", err)
	}

	createType = "task"
	createOut, err := captureStdout(t, func() error {
		return createCmd.RunE(createCmd, []string{"first issue"})
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := strings.TrimSpace(createOut)
	if !strings.HasPrefix(id, "p-") {
		t.Fatalf("create output = %q, want p-<hash>", createOut)
	}

	showOut, err := captureStdout(t, func() error {
		return showCmd.RunE(showCmd, []string{id})
	})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(showOut, "first issue") {
		t.Fatalf("show output = %q, want title present", showOut)
	}

	if err := labelAddCmd.RunE(labelAddCmd, []string{id, "urgent"}); err != nil {
		t.Fatalf("label add: %v", err)
	}

	statusReason = ""
	if err := statusCmd.RunE(statusCmd, []string{id, "in_progress"}); err != nil {
		t.Fatalf("status: %v", err)
	}

	if err := noteCmd.RunE(noteCmd, []string{id, "started working on this"}); err != nil {
		t.Fatalf("note: %v", err)
	}

	historyOut, err := captureStdout(t, func() error {
		return historyCmd.RunE(historyCmd, []string{id})
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"create_issue", "add_label", "set_status", "add_note"} {
		if !strings.Contains(historyOut, want) {
			t.Fatalf("history output = %q, missing %q", historyOut, want)
		}
	}

	listOut, err := captureStdout(t, func() error {
		return listCmd.RunE(listCmd, nil)
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(listOut, id) {
		t.Fatalf("list output = %q, want %q present", listOut, id)
	}
}

func TestCLIRejectsInvalidIssueType(t *testing.T) {
	chdirTemp(t)
	initPrivate = true
	if err := initCmd.RunE(initCmd, []string{"p"}); err != nil {
		t.Fatalf("init: %v", err)
	}

	createType = "not-a-type"
	if err := createCmd.RunE(createCmd, []string{"x"}); err == nil {
		t.Fatal("expected error for invalid issue type")
	}
}
