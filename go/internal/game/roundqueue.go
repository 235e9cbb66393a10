package game

import (
	"context"
	"fmt"

	"github.com/mcdev12/binaryquiz/go/internal/models"
)

// Catalog is what the engine needs from the remote quiz catalog.
type Catalog interface {
	ListQuizzes(ctx context.Context) ([]models.Quiz, error)
	StartSession(ctx context.Context, quizID string, limit int) ([]models.RoundDefinition, error)
}

// RoundQueue is the ordered list of rounds of one session. It is never
// reordered once fetched.
type RoundQueue struct {
	rounds []models.RoundDefinition
}

// LoadRoundQueue asks the catalog for up to desired rounds. Getting fewer
// rounds than requested is not an error.
func LoadRoundQueue(ctx context.Context, catalog Catalog, quizID string, desired int) (RoundQueue, error) {
	if desired < 0 {
		return RoundQueue{}, fmt.Errorf("%w: %d", ErrInvalidRounds, desired)
	}

	rounds, err := catalog.StartSession(ctx, quizID, desired)
	if err != nil {
		return RoundQueue{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	if len(rounds) > desired {
		rounds = rounds[:desired]
	}

	return RoundQueue{rounds: append([]models.RoundDefinition(nil), rounds...)}, nil
}

// Len is the number of rounds in the queue.
func (q RoundQueue) Len() int {
	return len(q.rounds)
}

// At returns round i.
func (q RoundQueue) At(i uint) (models.RoundDefinition, bool) {
	if i >= uint(len(q.rounds)) {
		return models.RoundDefinition{}, false
	}
	return q.rounds[i], true
}
