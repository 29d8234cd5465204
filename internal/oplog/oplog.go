// Package oplog implements the durable, deduplicated, line-delimited
// operation log. Each record is one JSON-encoded Op per line. Append is
// fsync-backed for crash durability; dedup is keyed on the op's Hlc so
// replay is exactly-once.
package oplog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
)

// maxLineBytes bounds a single JSONL record; generous enough for a
// large issue description or note body.
const maxLineBytes = 64 * 1024 * 1024

// CorruptedLogError is returned by Open when an existing log file
// contains a non-blank line that does not parse as an Op. It names the
// 1-indexed line number so operators can locate and repair the damage.
type CorruptedLogError struct {
	Line int
	Err  error
}

func (e *CorruptedLogError) Error() string {
	return fmt.Sprintf("oplog: corrupted log at line %d: %v", e.Line, e.Err)
}

func (e *CorruptedLogError) Unwrap() error { return e.Err }

// Log is the append-only op store. A Log constructed with an empty
// path disables persistence and behaves as an in-memory dedup set.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
	seen map[hlc.Hlc]struct{}
	ops  []op.Op // append order; resorted on demand by OpsSince
}

// Open creates the file at path if absent and loads every existing
// record to populate the in-memory seen set and ops slice. Blank lines
// are skipped. A malformed line is a fatal CorruptedLogError.
func Open(path string) (*Log, error) {
	l := &Log{path: path, seen: make(map[hlc.Hlc]struct{})}

	if path == "" {
		return l, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("oplog: open %s: %w", path, err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var o op.Op
		if err := json.Unmarshal(line, &o); err != nil {
			f.Close()
			return nil, &CorruptedLogError{Line: lineNum, Err: err}
		}
		l.seen[o.ID] = struct{}{}
		l.ops = append(l.ops, o)
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("oplog: scan %s: %w", path, err)
	}

	l.file = f
	return l, nil
}

// Append writes op to the log if its id has not been seen before. It
// returns false with no side effects for a duplicate id. On success the
// record is fsynced before Append returns, so a successful return
// guarantees durability.
func (l *Log) Append(o op.Op) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[o.ID]; dup {
		return false, nil
	}

	if l.file != nil {
		line, err := json.Marshal(o)
		if err != nil {
			return false, fmt.Errorf("oplog: marshal op %s: %w", o.ID, err)
		}
		line = append(line, '\n')
		if _, err := l.file.Write(line); err != nil {
			return false, fmt.Errorf("oplog: write op %s: %w", o.ID, err)
		}
		if err := l.file.Sync(); err != nil {
			return false, fmt.Errorf("oplog: fsync: %w", err)
		}
	}

	l.seen[o.ID] = struct{}{}
	l.ops = append(l.ops, o)
	return true, nil
}

// Contains reports whether id has already been appended.
func (l *Log) Contains(id hlc.Hlc) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Len returns the number of distinct ops currently stored.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ops)
}

// OpsSince returns every op with an id strictly greater than since,
// sorted by id.
func (l *Log) OpsSince(since hlc.Hlc) []op.Op {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]op.Op, 0, len(l.ops))
	for _, o := range l.ops {
		if o.ID.Greater(since) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// Close releases the underlying file handle, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
