package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id          TEXT PRIMARY KEY,
	trigger     TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	error       TEXT NOT NULL DEFAULT '',
	leaves      INTEGER NOT NULL DEFAULT 0,
	uniques     INTEGER NOT NULL DEFAULT 0,
	duplicates  INTEGER NOT NULL DEFAULT 0,
	broken      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS analysis_runs_started_at_idx ON analysis_runs (started_at DESC);

CREATE TABLE IF NOT EXISTS analysis_results (
	run_id      TEXT NOT NULL REFERENCES analysis_runs (id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	bookmark    JSONB NOT NULL,
	duplicate   BOOLEAN NOT NULL,
	broken      BOOLEAN NOT NULL,
	page_title  TEXT,
	description TEXT,
	keywords    TEXT,
	PRIMARY KEY (run_id, position)
);
`

// EnsureSchema creates the tables used by RunRepoImpl if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}
