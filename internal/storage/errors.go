package storage

import (
	"fmt"

	"github.com/wok-dev/wok/internal/wokerr"
)

// AmbiguousIDError is returned by ResolveID when a partial id matches
// more than one issue.
type AmbiguousIDError struct {
	Partial string
	Matches []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("partial id %q is ambiguous: matches %v", e.Partial, e.Matches)
}

// notFound constructs a not-found error naming entity.
func notFound(entity string) error {
	return wokerr.New(wokerr.KindNotFound, entity, "not found")
}
