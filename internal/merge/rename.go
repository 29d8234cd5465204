package merge

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

// prefixPattern is one lowercase letter followed by 1-15 lowercase
// letters or digits.
var prefixPattern = regexp.MustCompile(`^[a-z][a-z0-9]{1,15}$`)

func applyRenamePrefix(ctx context.Context, tx *sql.Tx, p *op.RenamePrefix) (Outcome, error) {
	if !prefixPattern.MatchString(p.Old) || !prefixPattern.MatchString(p.New) {
		return rejected(fmt.Errorf("merge: invalid prefix in rename %q -> %q", p.Old, p.New)), nil
	}
	if err := storage.RenamePrefix(ctx, tx, p.Old, p.New); err != nil {
		return Outcome{}, err
	}
	return applied(), nil
}
