package results

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/binaryquiz/go/internal/game"
)

var (
	ErrNotFound     = errors.New("game result not found")
	ErrInvalidGame  = errors.New("invalid game result")
	ErrInvalidLimit = errors.New("invalid limit")
)

// CompletedGame is the ledger entry written once a session reaches GAME_OVER.
type CompletedGame struct {
	ID            uuid.UUID          `json:"id"`
	QuizID        string             `json:"quiz_id"`
	Score         int                `json:"score"`
	TotalRounds   int                `json:"total_rounds"`
	RoundsSkipped int                `json:"rounds_skipped"`
	TimerSeconds  int                `json:"timer_seconds"`
	AntiCheat     bool               `json:"anti_cheat"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	History       []game.RoundResult `json:"history"`
}

// RoundsPlayed is the number of rounds that were shown and scored.
func (g CompletedGame) RoundsPlayed() int {
	return len(g.History)
}

// TopScore is one leaderboard row.
type TopScore struct {
	GameID      uuid.UUID `json:"game_id"`
	QuizID      string    `json:"quiz_id"`
	Score       int       `json:"score"`
	TotalRounds int       `json:"total_rounds"`
	CompletedAt time.Time `json:"completed_at"`
}

// ImageStat aggregates how players did on one image across games.
type ImageStat struct {
	ImageRef string  `json:"image_ref"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Timeouts int     `json:"timeouts"`
	Accuracy float64 `json:"accuracy"`
}
