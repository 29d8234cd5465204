package merge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

// kv is one (column, value) pair identifying a tuple in an add-wins /
// remove-wins table.
type kv struct {
	Col string
	Val any
}

type tupleKey []kv

func (k tupleKey) where() (string, []any) {
	parts := make([]string, len(k))
	args := make([]any, len(k))
	for i, p := range k {
		parts[i] = p.Col + " = ?"
		args[i] = p.Val
	}
	return strings.Join(parts, " AND "), args
}

func (k tupleKey) insertColumnsValues() (string, string, []any) {
	cols := make([]string, len(k))
	placeholders := make([]string, len(k))
	args := make([]any, len(k))
	for i, p := range k {
		cols[i] = p.Col
		placeholders[i] = "?"
		args[i] = p.Val
	}
	return strings.Join(cols, ", "), strings.Join(placeholders, ", "), args
}

type tupleState struct {
	lastAdd, lastRemove sql.NullString
}

func readTuple(ctx context.Context, tx *sql.Tx, table string, key tupleKey) (*tupleState, error) {
	where, args := key.where()
	row := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT last_add_hlc, last_remove_hlc FROM %s WHERE %s`, table, where), args...)
	var st tupleState
	err := row.Scan(&st.lastAdd, &st.lastRemove)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("merge: read tuple from %s: %w", table, err)
	}
	return &st, nil
}

// maxHlcText returns the greater of a (possibly absent) stored hlc
// text and h, as its text form.
func maxHlcText(h hlc.Hlc, stored sql.NullString) (string, error) {
	if !stored.Valid || stored.String == "" {
		return h.String(), nil
	}
	s, err := hlc.Parse(stored.String)
	if err != nil {
		return "", fmt.Errorf("merge: parse stored hlc %q: %w", stored.String, err)
	}
	if h.Greater(s) {
		return h.String(), nil
	}
	return stored.String, nil
}

func presentAfter(addHlcText string, removeStored sql.NullString) (bool, error) {
	if addHlcText == "" {
		return false, nil
	}
	if !removeStored.Valid || removeStored.String == "" {
		return true, nil
	}
	add, err := hlc.Parse(addHlcText)
	if err != nil {
		return false, err
	}
	rem, err := hlc.Parse(removeStored.String)
	if err != nil {
		return false, err
	}
	return add.Greater(rem), nil
}

// applyTupleAdd implements the add-wins half of tuple merge: the tuple
// is present iff its add hlc is greater than its remove hlc;
// last_add_hlc always advances to the max seen.
func applyTupleAdd(ctx context.Context, tx *sql.Tx, table string, key tupleKey, h hlc.Hlc) (Outcome, error) {
	existing, err := readTuple(ctx, tx, table, key)
	if err != nil {
		return Outcome{}, err
	}

	if existing == nil {
		cols, placeholders, args := key.insertColumnsValues()
		query := fmt.Sprintf(
			`INSERT INTO %s (%s, last_add_hlc, present) VALUES (%s, ?, 1)`,
			table, cols, placeholders,
		)
		args = append(args, h.String())
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return Outcome{}, fmt.Errorf("merge: insert tuple into %s: %w", table, err)
		}
		return applied(), nil
	}

	newAdd, err := maxHlcText(h, existing.lastAdd)
	if err != nil {
		return Outcome{}, err
	}
	if existing.lastAdd.Valid && newAdd == existing.lastAdd.String {
		return discarded("stale_write"), nil
	}

	present, err := presentAfter(newAdd, existing.lastRemove)
	if err != nil {
		return Outcome{}, err
	}

	where, whereArgs := key.where()
	query := fmt.Sprintf(`UPDATE %s SET last_add_hlc = ?, present = ? WHERE %s`, table, where)
	args := append([]any{newAdd, boolToInt(present)}, whereArgs...)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return Outcome{}, fmt.Errorf("merge: update tuple in %s: %w", table, err)
	}
	return applied(), nil
}

// applyTupleRemove implements the remove-wins half of tuple merge.
func applyTupleRemove(ctx context.Context, tx *sql.Tx, table string, key tupleKey, h hlc.Hlc) (Outcome, error) {
	existing, err := readTuple(ctx, tx, table, key)
	if err != nil {
		return Outcome{}, err
	}
	if existing == nil {
		// Nothing to remove; record the tombstone so a later out-of-order
		// add still loses to it if the add's hlc is smaller.
		cols, placeholders, args := key.insertColumnsValues()
		query := fmt.Sprintf(
			`INSERT INTO %s (%s, last_remove_hlc, present) VALUES (%s, ?, 0)`,
			table, cols, placeholders,
		)
		args = append(args, h.String())
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return Outcome{}, fmt.Errorf("merge: insert tombstone into %s: %w", table, err)
		}
		return applied(), nil
	}

	newRemove, err := maxHlcText(h, existing.lastRemove)
	if err != nil {
		return Outcome{}, err
	}
	if existing.lastRemove.Valid && newRemove == existing.lastRemove.String {
		return discarded("stale_write"), nil
	}

	present, err := presentAfter(valid(existing.lastAdd), sql.NullString{String: newRemove, Valid: true})
	if err != nil {
		return Outcome{}, err
	}

	where, whereArgs := key.where()
	query := fmt.Sprintf(`UPDATE %s SET last_remove_hlc = ?, present = ? WHERE %s`, table, where)
	args := append([]any{newRemove, boolToInt(present)}, whereArgs...)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return Outcome{}, fmt.Errorf("merge: update tuple in %s: %w", table, err)
	}
	return applied(), nil
}

func valid(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// applyAddDep applies AddDep, rejecting self-loops always and blocks
// edges that would close a cycle over the currently-present blocks
// graph.
func applyAddDep(ctx context.Context, st *storage.Storage, tx *sql.Tx, h hlc.Hlc, p *op.AddDep) (Outcome, error) {
	if p.From == p.To {
		return rejected(fmt.Errorf("merge: self-dependency on %s", p.From)), nil
	}

	if p.Rel == op.RelBlocks {
		existing, err := readTuple(ctx, tx, "deps", tupleKey{{"from_id", p.From}, {"to_id", p.To}, {"rel", string(p.Rel)}})
		if err != nil {
			return Outcome{}, err
		}
		alreadyPresent := existing != nil
		if alreadyPresent {
			if present, err := presentAfter(valid(existing.lastAdd), existing.lastRemove); err == nil {
				alreadyPresent = present
			}
		}
		if !alreadyPresent {
			would, err := st.WouldCycle(ctx, tx, p.From, p.To)
			if err != nil {
				return Outcome{}, err
			}
			if would {
				return rejected(fmt.Errorf("merge: dependency %s -> %s would create a cycle", p.From, p.To)), nil
			}
		}
	}

	return applyTupleAdd(ctx, tx, "deps", tupleKey{{"from_id", p.From}, {"to_id", p.To}, {"rel", string(p.Rel)}}, h)
}

// applyAddLink applies AddLink: presence follows add-wins on
// (issue_id, url); the descriptive columns are set whenever the add
// actually advances the tuple state.
func applyAddLink(ctx context.Context, tx *sql.Tx, h hlc.Hlc, p *op.AddLink) (Outcome, error) {
	key := tupleKey{{"issue_id", p.ID}, {"url", p.URL}}
	outcome, err := applyTupleAdd(ctx, tx, "links", key, h)
	if err != nil || outcome.Kind != KindApplied {
		return outcome, err
	}

	where, args := key.where()
	query := fmt.Sprintf(`UPDATE links SET kind = ?, external_id = ?, rel = ? WHERE %s`, where)
	args = append([]any{p.LinkKind, p.ExternalID, p.Rel}, args...)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return Outcome{}, fmt.Errorf("merge: set link attributes: %w", err)
	}
	return outcome, nil
}
