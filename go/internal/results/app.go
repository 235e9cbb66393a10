package results

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxLeaderboardSize = 100

// ResultsRepository defines what the app layer needs from the repository
type ResultsRepository interface {
	CreateGame(ctx context.Context, g CompletedGame) error
	GetGame(ctx context.Context, id uuid.UUID) (*CompletedGame, error)
	ListTopScores(ctx context.Context, quizID string, limit int) ([]TopScore, error)
	ListImageStats(ctx context.Context, quizID string) ([]ImageStat, error)
}

// App handles the completed-game ledger
type App struct {
	repo ResultsRepository
}

// NewApp creates a new results App
func NewApp(repo ResultsRepository) *App {
	return &App{repo: repo}
}

// RecordGame validates and stores a finished game.
func (a *App) RecordGame(ctx context.Context, g CompletedGame) error {
	if err := a.validateCompletedGame(g); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := a.repo.CreateGame(ctx, g); err != nil {
		return err
	}

	log.Info().
		Str("game_id", g.ID.String()).
		Str("quiz_id", g.QuizID).
		Int("score", g.Score).
		Int("rounds_played", g.RoundsPlayed()).
		Msg("recorded game result")
	return nil
}

// GetGame retrieves a recorded game.
func (a *App) GetGame(ctx context.Context, id uuid.UUID) (*CompletedGame, error) {
	return a.repo.GetGame(ctx, id)
}

// Leaderboard returns up to limit best games of a quiz.
func (a *App) Leaderboard(ctx context.Context, quizID string, limit int) ([]TopScore, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, fmt.Errorf("%w: quiz id is required", ErrInvalidGame)
	}
	if limit <= 0 || limit > maxLeaderboardSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return a.repo.ListTopScores(ctx, quizID, limit)
}

// ImageStats returns per-image accuracy of a quiz, hardest first.
func (a *App) ImageStats(ctx context.Context, quizID string) ([]ImageStat, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, fmt.Errorf("%w: quiz id is required", ErrInvalidGame)
	}
	return a.repo.ListImageStats(ctx, quizID)
}

func (a *App) validateCompletedGame(g CompletedGame) error {
	if g.ID == uuid.Nil {
		return fmt.Errorf("%w: id is required", ErrInvalidGame)
	}
	if strings.TrimSpace(g.QuizID) == "" {
		return fmt.Errorf("%w: quiz id is required", ErrInvalidGame)
	}
	if g.RoundsPlayed()+g.RoundsSkipped > g.TotalRounds {
		return fmt.Errorf("%w: %d played and %d skipped of %d rounds", ErrInvalidGame, g.RoundsPlayed(), g.RoundsSkipped, g.TotalRounds)
	}

	correct := 0
	for _, r := range g.History {
		if r.IsCorrect {
			correct++
		}
	}
	if correct != g.Score {
		return fmt.Errorf("%w: score %d does not match %d correct rounds", ErrInvalidGame, g.Score, correct)
	}
	if g.CompletedAt.Before(g.StartedAt) {
		return fmt.Errorf("%w: completed before it started", ErrInvalidGame)
	}
	return nil
}
