package db

import (
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type GameResult struct {
	ID            uuid.UUID
	QuizID        string
	Score         int64
	TotalRounds   int64
	RoundsPlayed  int64
	RoundsSkipped int64
	TimerSeconds  int64
	AntiCheat     bool
	StartedAt     int64 // unix millis
	CompletedAt   int64 // unix millis
	History       pqtype.NullRawMessage
}

type RoundResult struct {
	GameID       uuid.UUID
	RoundIndex   int64
	ImageRef     string
	CorrectLabel string
	UserGuess    string
	IsCorrect    bool
}

type TopScoreRow struct {
	ID          uuid.UUID
	QuizID      string
	Score       int64
	TotalRounds int64
	CompletedAt int64
}

type ImageStatRow struct {
	ImageRef string
	Attempts int64
	Correct  int64
	Timeouts int64
}
