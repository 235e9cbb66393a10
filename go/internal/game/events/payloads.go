package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published for every game session
const (
	TypeGameStarted   = "game_started"
	TypeRoundScored   = "round_scored"
	TypeRoundSkipped  = "round_skipped"
	TypeGameCompleted = "game_completed"
	TypeGameAbandoned = "game_abandoned"
)

// Event is one domain event with its JSON encoded payload.
type Event struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	QuizID    string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// New encodes payload into an event with a fresh ID.
func New(sessionID uuid.UUID, quizID, eventType string, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		QuizID:    quizID,
		EventType: eventType,
		Payload:   data,
		CreatedAt: at.UTC(),
	}, nil
}

// GameStartedPayload is the payload for a GameStarted event
type GameStartedPayload struct {
	QuizID           string    `json:"quiz_id"`
	TotalRounds      int       `json:"total_rounds"`
	TimerSeconds     int       `json:"timer_seconds"`
	AntiCheatEnabled bool      `json:"anti_cheat_enabled"`
	MinRevealDelayMs int       `json:"min_reveal_delay_ms"`
	StartedAt        time.Time `json:"started_at"`
}

// RoundScoredPayload is the payload for a RoundScored event
type RoundScoredPayload struct {
	Round        int       `json:"round"`
	ImageRef     string    `json:"image_ref"`
	CorrectLabel string    `json:"correct_label"`
	UserGuess    string    `json:"user_guess"`
	IsCorrect    bool      `json:"is_correct"`
	Score        int       `json:"score"`
	ScoredAt     time.Time `json:"scored_at"`
}

// RoundSkippedPayload is the payload for a RoundSkipped event
type RoundSkippedPayload struct {
	Round     int       `json:"round"`
	ImageRef  string    `json:"image_ref"`
	SkippedAt time.Time `json:"skipped_at"`
}

// GameCompletedPayload is the payload for a GameCompleted event
type GameCompletedPayload struct {
	QuizID        string    `json:"quiz_id"`
	Score         int       `json:"score"`
	TotalRounds   int       `json:"total_rounds"`
	RoundsPlayed  int       `json:"rounds_played"`
	RoundsSkipped int       `json:"rounds_skipped"`
	CompletedAt   time.Time `json:"completed_at"`
	Duration      string    `json:"duration"`
}

// GameAbandonedPayload is the payload for a GameAbandoned event
type GameAbandonedPayload struct {
	QuizID       string    `json:"quiz_id"`
	Score        int       `json:"score"`
	RoundsPlayed int       `json:"rounds_played"`
	AbandonedAt  time.Time `json:"abandoned_at"`
}
