package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/models"
	"github.com/mcdev12/binaryquiz/go/internal/results/db"
	"github.com/mcdev12/binaryquiz/go/internal/sqlutil"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateGameResult(ctx context.Context, arg db.CreateGameResultParams) error
	CreateRoundResult(ctx context.Context, arg db.CreateRoundResultParams) error
	GetGameResult(ctx context.Context, id uuid.UUID) (db.GameResult, error)
	ListRoundResults(ctx context.Context, gameID uuid.UUID) ([]db.RoundResult, error)
	ListTopScores(ctx context.Context, arg db.ListTopScoresParams) ([]db.TopScoreRow, error)
	ListImageStats(ctx context.Context, quizID string) ([]db.ImageStatRow, error)
}

// Repository implements results data access operations
type Repository struct {
	queries Querier
	db      *sql.DB
	dialect db.Dialect
}

// NewRepository creates a results repository over an open database.
func NewRepository(conn *sql.DB, dialect db.Dialect) *Repository {
	return &Repository{
		queries: db.New(conn, dialect),
		db:      conn,
		dialect: dialect,
	}
}

// CreateGame stores the game and every scored round in one transaction.
func (r *Repository) CreateGame(ctx context.Context, g CompletedGame) error {
	params, err := r.completedGameToParams(g)
	if err != nil {
		return err
	}

	newQueries := func(tx *sql.Tx) *db.Queries {
		return db.New(tx, r.dialect)
	}
	err = sqlutil.Run(ctx, r.db, newQueries, func(q *db.Queries) error {
		if err := q.CreateGameResult(ctx, params); err != nil {
			return fmt.Errorf("failed to create game result: %w", err)
		}
		for i, round := range g.History {
			if err := q.CreateRoundResult(ctx, db.CreateRoundResultParams{
				GameID:       g.ID,
				RoundIndex:   int64(i),
				ImageRef:     round.ImageRef,
				CorrectLabel: string(round.CorrectLabel),
				UserGuess:    string(round.UserGuess),
				IsCorrect:    round.IsCorrect,
			}); err != nil {
				return fmt.Errorf("failed to create round result %d: %w", i, err)
			}
		}
		return nil
	})
	return err
}

// GetGame retrieves a game by ID. Rounds are read from the round table so the
// JSON history column is only a convenience copy.
func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*CompletedGame, error) {
	row, err := r.queries.GetGameResult(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get game result: %w", err)
	}

	rounds, err := r.queries.ListRoundResults(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list round results: %w", err)
	}

	return r.dbGameToModel(row, rounds), nil
}

// ListTopScores returns the best games of a quiz, earliest first on ties.
func (r *Repository) ListTopScores(ctx context.Context, quizID string, limit int) ([]TopScore, error) {
	rows, err := r.queries.ListTopScores(ctx, db.ListTopScoresParams{
		QuizID: quizID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list top scores: %w", err)
	}

	scores := make([]TopScore, len(rows))
	for i, row := range rows {
		scores[i] = TopScore{
			GameID:      row.ID,
			QuizID:      row.QuizID,
			Score:       int(row.Score),
			TotalRounds: int(row.TotalRounds),
			CompletedAt: sqlutil.FromMillis(row.CompletedAt),
		}
	}
	return scores, nil
}

// ListImageStats returns per-image accuracy for a quiz, hardest first.
func (r *Repository) ListImageStats(ctx context.Context, quizID string) ([]ImageStat, error) {
	rows, err := r.queries.ListImageStats(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image stats: %w", err)
	}

	stats := make([]ImageStat, len(rows))
	for i, row := range rows {
		stats[i] = ImageStat{
			ImageRef: row.ImageRef,
			Attempts: int(row.Attempts),
			Correct:  int(row.Correct),
			Timeouts: int(row.Timeouts),
		}
		if row.Attempts > 0 {
			stats[i].Accuracy = float64(row.Correct) / float64(row.Attempts)
		}
	}
	return stats, nil
}

// completedGameToParams converts a CompletedGame to query params
func (r *Repository) completedGameToParams(g CompletedGame) (db.CreateGameResultParams, error) {
	history, err := sqlutil.ToNullRawMessage(g.History)
	if err != nil {
		return db.CreateGameResultParams{}, fmt.Errorf("failed to encode history: %w", err)
	}

	return db.CreateGameResultParams{
		ID:            g.ID,
		QuizID:        g.QuizID,
		Score:         int64(g.Score),
		TotalRounds:   int64(g.TotalRounds),
		RoundsPlayed:  int64(g.RoundsPlayed()),
		RoundsSkipped: int64(g.RoundsSkipped),
		TimerSeconds:  int64(g.TimerSeconds),
		AntiCheat:     g.AntiCheat,
		StartedAt:     sqlutil.ToMillis(g.StartedAt),
		CompletedAt:   sqlutil.ToMillis(g.CompletedAt),
		History:       history,
	}, nil
}

// dbGameToModel converts database rows to the domain model
func (r *Repository) dbGameToModel(row db.GameResult, rounds []db.RoundResult) *CompletedGame {
	g := &CompletedGame{
		ID:            row.ID,
		QuizID:        row.QuizID,
		Score:         int(row.Score),
		TotalRounds:   int(row.TotalRounds),
		RoundsSkipped: int(row.RoundsSkipped),
		TimerSeconds:  int(row.TimerSeconds),
		AntiCheat:     row.AntiCheat,
		StartedAt:     sqlutil.FromMillis(row.StartedAt),
		CompletedAt:   sqlutil.FromMillis(row.CompletedAt),
		History:       make([]game.RoundResult, len(rounds)),
	}

	for i, round := range rounds {
		correct := models.Label(round.CorrectLabel)
		guess := game.Guess(round.UserGuess)
		display := models.Label(guess)
		if guess == game.GuessTimeout {
			display = correct.Opposite()
		}
		g.History[i] = game.RoundResult{
			ImageRef:     round.ImageRef,
			CorrectLabel: correct,
			UserGuess:    guess,
			DisplayGuess: display,
			IsCorrect:    round.IsCorrect,
		}
	}
	return g
}
