package idgen

import (
	"strings"
	"testing"
	"time"
)

func TestNewIssueIDShape(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := NewIssueID("p", "Fix login", ts, 0)

	if !strings.HasPrefix(id, "p-") {
		t.Fatalf("id = %q, want p- prefix", id)
	}
	hash := strings.TrimPrefix(id, "p-")
	if len(hash) != 6 {
		t.Fatalf("hash part %q has length %d, want 6", hash, len(hash))
	}
	for _, c := range hash {
		if !strings.ContainsRune(base36Alphabet, c) {
			t.Fatalf("hash part %q contains non-base36 rune %q", hash, c)
		}
	}
}

func TestNewIssueIDDeterministic(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewIssueID("p", "Fix login", ts, 0)
	b := NewIssueID("p", "Fix login", ts, 0)
	if a != b {
		t.Fatalf("same inputs produced %q and %q", a, b)
	}
}

func TestNewIssueIDNonceVariesOutput(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewIssueID("p", "Fix login", ts, 0)
	b := NewIssueID("p", "Fix login", ts, 1)
	if a == b {
		t.Fatalf("nonce did not change id: %q", a)
	}
}
