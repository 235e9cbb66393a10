package gateway

import (
	"context"

	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/models"
)

// GameEngine defines what the gateway needs from the session engine
type GameEngine interface {
	StartGame(ctx context.Context, quizID string, roundCount int, timerSeconds uint) error
	SubmitGuess(ctx context.Context, guess game.Guess) error
	AdvanceToNext(ctx context.Context) error
	ResetGame(ctx context.Context) error
	GetLabelsFor(quizID string) *models.QuizLabels
	FetchQuizzes(ctx context.Context) ([]models.Quiz, error)

	State() game.SessionState
	Countdown() game.Countdown
	Asset(h game.Handle) ([]byte, bool)

	Subscribe(buffer int) *game.Subscription[game.SessionState]
	SubscribeCountdown(buffer int) *game.Subscription[game.Countdown]
	SubscribeQuizzes(buffer int) *game.Subscription[[]models.Quiz]
}

var _ GameEngine = (*game.Engine)(nil)
