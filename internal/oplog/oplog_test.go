package oplog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
)

func mustOpen(t *testing.T, path string) *Log {
	t.Helper()
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func opWithID(id hlc.Hlc) op.Op {
	return op.Op{ID: id, Payload: op.NewCreateIssue("p-a1", "task", "t")}
}

// Appending ids 10-0-1, 11-0-1, 10-0-1 (duplicate) yields exactly two
// records and return values true, true, false.
func TestAppendDedupOnReplay(t *testing.T) {
	dir := t.TempDir()
	l := mustOpen(t, filepath.Join(dir, "oplog.jsonl"))

	ids := []string{"10-0-1", "11-0-1", "10-0-1"}
	want := []bool{true, true, false}

	for i, idStr := range ids {
		id, err := hlc.Parse(idStr)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		got, err := l.Append(opWithID(id))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if got != want[i] {
			t.Fatalf("Append(%s) = %v, want %v", idStr, got, want[i])
		}
	}

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
}

func TestAppendPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oplog.jsonl")

	l := mustOpen(t, path)
	id, _ := hlc.Parse("5-0-1")
	ok, err := l.Append(opWithID(id))
	if err != nil || !ok {
		t.Fatalf("Append: ok=%v err=%v", ok, err)
	}
	l.Close()

	reopened := mustOpen(t, path)
	since, _ := hlc.Parse("0-0-0")
	ops := reopened.OpsSince(since)
	if len(ops) != 1 || ops[0].ID != id {
		t.Fatalf("ops after reopen = %+v, want one op with id %s", ops, id)
	}
}

func TestOpsSinceFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	l := mustOpen(t, filepath.Join(dir, "oplog.jsonl"))

	for _, idStr := range []string{"30-0-1", "10-0-1", "20-0-1"} {
		id, _ := hlc.Parse(idStr)
		if _, err := l.Append(opWithID(id)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	since, _ := hlc.Parse("15-0-1")
	ops := l.OpsSince(since)
	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(ops))
	}
	if ops[0].ID.String() != "20-0-1" || ops[1].ID.String() != "30-0-1" {
		t.Fatalf("ops out of order: %s, %s", ops[0].ID, ops[1].ID)
	}
}

func TestOpenSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oplog.jsonl")

	id, _ := hlc.Parse("1-0-1")
	line, _ := opWithID(id).MarshalJSON()
	if err := os.WriteFile(path, append([]byte("\n"), append(line, []byte("\n\n")...)...), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := mustOpen(t, path)
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
}

func TestOpenRejectsCorruptedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oplog.jsonl")

	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Open(path)
	var corrupt *CorruptedLogError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptedLogError, got %v", err)
	}
	if corrupt.Line != 1 {
		t.Fatalf("Line = %d, want 1", corrupt.Line)
	}
}

func TestInMemoryOnlyWithEmptyPath(t *testing.T) {
	l := mustOpen(t, "")
	id, _ := hlc.Parse("1-0-1")
	ok, err := l.Append(opWithID(id))
	if err != nil || !ok {
		t.Fatalf("Append: ok=%v err=%v", ok, err)
	}
	if !l.Contains(id) {
		t.Fatal("expected in-memory log to retain dedup state")
	}
}
