package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const createGameResult = `-- name: CreateGameResult :exec
INSERT INTO game_results (
  id, quiz_id, score, total_rounds, rounds_played, rounds_skipped,
  timer_seconds, anti_cheat, started_at, completed_at, history
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateGameResultParams struct {
	ID            uuid.UUID
	QuizID        string
	Score         int64
	TotalRounds   int64
	RoundsPlayed  int64
	RoundsSkipped int64
	TimerSeconds  int64
	AntiCheat     bool
	StartedAt     int64
	CompletedAt   int64
	History       pqtype.NullRawMessage
}

func (q *Queries) CreateGameResult(ctx context.Context, arg CreateGameResultParams) error {
	_, err := q.db.ExecContext(ctx, q.rebind(createGameResult),
		arg.ID,
		arg.QuizID,
		arg.Score,
		arg.TotalRounds,
		arg.RoundsPlayed,
		arg.RoundsSkipped,
		arg.TimerSeconds,
		arg.AntiCheat,
		arg.StartedAt,
		arg.CompletedAt,
		arg.History,
	)
	return err
}

const createRoundResult = `-- name: CreateRoundResult :exec
INSERT INTO round_results (
  game_id, round_index, image_ref, correct_label, user_guess, is_correct
) VALUES (?, ?, ?, ?, ?, ?)
`

type CreateRoundResultParams struct {
	GameID       uuid.UUID
	RoundIndex   int64
	ImageRef     string
	CorrectLabel string
	UserGuess    string
	IsCorrect    bool
}

func (q *Queries) CreateRoundResult(ctx context.Context, arg CreateRoundResultParams) error {
	_, err := q.db.ExecContext(ctx, q.rebind(createRoundResult),
		arg.GameID,
		arg.RoundIndex,
		arg.ImageRef,
		arg.CorrectLabel,
		arg.UserGuess,
		arg.IsCorrect,
	)
	return err
}

const getGameResult = `-- name: GetGameResult :one
SELECT id, quiz_id, score, total_rounds, rounds_played, rounds_skipped,
       timer_seconds, anti_cheat, started_at, completed_at, history
FROM game_results
WHERE id = ?
`

func (q *Queries) GetGameResult(ctx context.Context, id uuid.UUID) (GameResult, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getGameResult), id)
	var i GameResult
	err := row.Scan(
		&i.ID,
		&i.QuizID,
		&i.Score,
		&i.TotalRounds,
		&i.RoundsPlayed,
		&i.RoundsSkipped,
		&i.TimerSeconds,
		&i.AntiCheat,
		&i.StartedAt,
		&i.CompletedAt,
		&i.History,
	)
	return i, err
}

const listRoundResults = `-- name: ListRoundResults :many
SELECT game_id, round_index, image_ref, correct_label, user_guess, is_correct
FROM round_results
WHERE game_id = ?
ORDER BY round_index
`

func (q *Queries) ListRoundResults(ctx context.Context, gameID uuid.UUID) ([]RoundResult, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listRoundResults), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RoundResult
	for rows.Next() {
		var i RoundResult
		if err := rows.Scan(
			&i.GameID,
			&i.RoundIndex,
			&i.ImageRef,
			&i.CorrectLabel,
			&i.UserGuess,
			&i.IsCorrect,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTopScores = `-- name: ListTopScores :many
SELECT id, quiz_id, score, total_rounds, completed_at
FROM game_results
WHERE quiz_id = ?
ORDER BY score DESC, completed_at ASC
LIMIT ?
`

type ListTopScoresParams struct {
	QuizID string
	Limit  int64
}

func (q *Queries) ListTopScores(ctx context.Context, arg ListTopScoresParams) ([]TopScoreRow, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listTopScores), arg.QuizID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopScoreRow
	for rows.Next() {
		var i TopScoreRow
		if err := rows.Scan(
			&i.ID,
			&i.QuizID,
			&i.Score,
			&i.TotalRounds,
			&i.CompletedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listImageStats = `-- name: ListImageStats :many
SELECT r.image_ref,
       COUNT(*) AS attempts,
       SUM(CASE WHEN r.is_correct THEN 1 ELSE 0 END) AS correct,
       SUM(CASE WHEN r.user_guess = 'TIMEOUT' THEN 1 ELSE 0 END) AS timeouts
FROM round_results r
JOIN game_results g ON g.id = r.game_id
WHERE g.quiz_id = ?
GROUP BY r.image_ref
ORDER BY SUM(CASE WHEN r.is_correct THEN 1 ELSE 0 END) * 1.0 / COUNT(*) ASC, r.image_ref ASC
`

func (q *Queries) ListImageStats(ctx context.Context, quizID string) ([]ImageStatRow, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listImageStats), quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImageStatRow
	for rows.Next() {
		var i ImageStatRow
		if err := rows.Scan(
			&i.ImageRef,
			&i.Attempts,
			&i.Correct,
			&i.Timeouts,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
