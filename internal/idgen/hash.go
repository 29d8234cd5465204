// Package idgen derives short content-hash issue ids of the form
// "<prefix>-<hash>". Hashing the title with the creation time keeps ids
// stable for a given creation event while remaining effectively unique;
// the nonce exists so a caller that does detect a collision can retry.
package idgen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// hashLen is the number of base36 characters after the prefix dash.
const hashLen = 6

// NewIssueID builds an issue id from the project prefix and the
// creation content.
func NewIssueID(prefix, title string, createdAt time.Time, nonce int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", title, createdAt.UnixNano(), nonce)
	sum := h.Sum(nil)

	// 32 bits of hash is plenty for a per-project namespace while
	// keeping ids short enough to type.
	n := binary.BigEndian.Uint32(sum[:4])

	buf := make([]byte, hashLen)
	for i := hashLen - 1; i >= 0; i-- {
		buf[i] = base36Alphabet[n%36]
		n /= 36
	}
	return prefix + "-" + string(buf)
}
