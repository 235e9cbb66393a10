package db

import (
	"context"
	"fmt"
)

var schemas = map[Dialect][]string{
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS game_results (
			id UUID PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			score BIGINT NOT NULL,
			total_rounds BIGINT NOT NULL,
			rounds_played BIGINT NOT NULL,
			rounds_skipped BIGINT NOT NULL,
			timer_seconds BIGINT NOT NULL,
			anti_cheat BOOLEAN NOT NULL,
			started_at BIGINT NOT NULL,
			completed_at BIGINT NOT NULL,
			history JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS game_results_quiz_score_idx ON game_results (quiz_id, score DESC)`,
		`CREATE TABLE IF NOT EXISTS round_results (
			game_id UUID NOT NULL REFERENCES game_results (id) ON DELETE CASCADE,
			round_index BIGINT NOT NULL,
			image_ref TEXT NOT NULL,
			correct_label TEXT NOT NULL,
			user_guess TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			PRIMARY KEY (game_id, round_index)
		)`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS game_results (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			total_rounds INTEGER NOT NULL,
			rounds_played INTEGER NOT NULL,
			rounds_skipped INTEGER NOT NULL,
			timer_seconds INTEGER NOT NULL,
			anti_cheat INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			history BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS game_results_quiz_score_idx ON game_results (quiz_id, score DESC)`,
		`CREATE TABLE IF NOT EXISTS round_results (
			game_id TEXT NOT NULL REFERENCES game_results (id) ON DELETE CASCADE,
			round_index INTEGER NOT NULL,
			image_ref TEXT NOT NULL,
			correct_label TEXT NOT NULL,
			user_guess TEXT NOT NULL,
			is_correct INTEGER NOT NULL,
			PRIMARY KEY (game_id, round_index)
		)`,
	},
}

// Migrate creates the results tables if they do not exist.
func Migrate(ctx context.Context, conn DBTX, dialect Dialect) error {
	stmts, ok := schemas[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
