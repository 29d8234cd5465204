// Package nodeid derives a deterministic HLC node identifier from a
// state directory path, so repeated daemon starts against the same
// state directory produce stable ordering in tie-break scenarios.
package nodeid

import (
	"hash/fnv"
	"path/filepath"
)

// FromPath hashes the absolute form of dir with FNV-1a and forces the
// result odd, biasing away from the reserved-zero sentinel some
// tie-break tests use. Collisions across distinct state directories are
// tolerated: the node id only needs to disambiguate concurrent writers
// on the same logical replica set, not provide global uniqueness.
func FromPath(dir string) uint32 {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(abs))
	id := h.Sum32()
	return id | 1
}
