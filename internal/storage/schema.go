package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS issues (
	id                     TEXT PRIMARY KEY,
	type                   TEXT NOT NULL,
	title                  TEXT NOT NULL,
	status                 TEXT NOT NULL,
	description            TEXT,
	assignee               TEXT,
	created_at             INTEGER NOT NULL,
	updated_at             INTEGER NOT NULL,
	last_title_hlc         TEXT NOT NULL,
	last_status_hlc        TEXT NOT NULL,
	last_type_hlc          TEXT NOT NULL,
	last_assignee_hlc      TEXT,
	last_description_hlc   TEXT
);

CREATE TABLE IF NOT EXISTS deps (
	from_id        TEXT NOT NULL,
	to_id          TEXT NOT NULL,
	rel            TEXT NOT NULL,
	last_add_hlc   TEXT,
	last_remove_hlc TEXT,
	present        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (from_id, to_id, rel)
);

CREATE TABLE IF NOT EXISTS labels (
	issue_id       TEXT NOT NULL,
	label          TEXT NOT NULL,
	last_add_hlc   TEXT,
	last_remove_hlc TEXT,
	present        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (issue_id, label)
);

CREATE TABLE IF NOT EXISTS links (
	issue_id       TEXT NOT NULL,
	url            TEXT NOT NULL,
	kind           TEXT,
	external_id    TEXT,
	rel            TEXT,
	last_add_hlc   TEXT,
	last_remove_hlc TEXT,
	present        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (issue_id, url)
);

CREATE TABLE IF NOT EXISTS notes (
	hlc                TEXT PRIMARY KEY,
	issue_id           TEXT NOT NULL,
	status_at_creation TEXT NOT NULL,
	content            TEXT NOT NULL,
	created_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	issue_id   TEXT NOT NULL,
	hlc        TEXT NOT NULL,
	kind       TEXT NOT NULL,
	detail     TEXT,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS prefixes (
	prefix      TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	issue_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_issues_status   ON issues(status);
CREATE INDEX IF NOT EXISTS idx_issues_type     ON issues(type);
CREATE INDEX IF NOT EXISTS idx_deps_to_id      ON deps(to_id);
CREATE INDEX IF NOT EXISTS idx_deps_rel        ON deps(rel);
CREATE INDEX IF NOT EXISTS idx_labels_label    ON labels(label);
CREATE INDEX IF NOT EXISTS idx_events_issue_id ON events(issue_id);
CREATE INDEX IF NOT EXISTS idx_links_issue_id  ON links(issue_id);
CREATE INDEX IF NOT EXISTS idx_prefixes_count  ON prefixes(issue_count DESC);
`

// migrate applies the schema DDL (idempotent via IF NOT EXISTS) and then
// backfills the prefixes table for databases that predate it, deriving
// counts by aggregating existing issue IDs.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("storage: apply schema: %w", err)
	}

	var hadPrefixRows int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prefixes`).Scan(&hadPrefixRows); err != nil {
		return fmt.Errorf("storage: count prefixes: %w", err)
	}
	var issueCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&issueCount); err != nil {
		return fmt.Errorf("storage: count issues: %w", err)
	}
	if hadPrefixRows > 0 || issueCount == 0 {
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO prefixes (prefix, created_at, issue_count)
		SELECT substr(id, 1, instr(id, '-') - 1) AS prefix,
		       MIN(created_at),
		       COUNT(*)
		FROM issues
		WHERE instr(id, '-') > 1
		GROUP BY prefix
	`)
	if err != nil {
		return fmt.Errorf("storage: backfill prefixes: %w", err)
	}
	return nil
}
