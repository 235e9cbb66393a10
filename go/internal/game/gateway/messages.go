package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/models"
)

// MessageType is the type of a message pushed to websocket clients
type MessageType string

const (
	MessageTypeSession   MessageType = "Session"
	MessageTypeCountdown MessageType = "Countdown"
	MessageTypeQuizzes   MessageType = "Quizzes"
	MessageTypeError     MessageType = "Error"
)

// ServerMessage is the envelope of everything sent to clients
type ServerMessage struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ClientCommand is what a client may send over the websocket. Commands map to
// the guess keys, the next-round key and the quit button of the game screen.
type ClientCommand struct {
	Command string `json:"command"` // guess, next, reset
	Guess   string `json:"guess,omitempty"`
}

const (
	CommandGuess = "guess"
	CommandNext  = "next"
	CommandReset = "reset"
)

// SessionView is a snapshot enriched with what a screen needs to render it.
// The round being played is redacted: image refs can encode the answer.
type SessionView struct {
	game.SessionState
	CurrentRound      *models.RoundDefinition `json:"current_round"`
	ActiveAssetHandle *game.Handle            `json:"active_asset_handle"`

	DisplayRound uint               `json:"display_round"`
	Labels       *models.QuizLabels `json:"labels,omitempty"`
	AssetURL     string             `json:"asset_url,omitempty"`
	LastResult   *game.RoundResult  `json:"last_result,omitempty"`
}

// ErrorPayload reports a rejected client command
type ErrorPayload struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}

func newSessionView(s game.SessionState, labels *models.QuizLabels) SessionView {
	view := SessionView{
		SessionState: s,
		DisplayRound: s.DisplayRound(),
		Labels:       labels,
	}
	if s.Status == game.StatusRoundEnd || s.Status == game.StatusGameOver {
		view.CurrentRound = s.CurrentRound
	}
	if s.ActiveAssetHandle != nil {
		view.ActiveAssetHandle = &game.Handle{ID: s.ActiveAssetHandle.ID, Size: s.ActiveAssetHandle.Size}
		view.AssetURL = assetPath + "?handle=" + s.ActiveAssetHandle.ID
	}
	if last, ok := s.LastResult(); ok {
		view.LastResult = &last
	}
	return view
}

func newServerMessage(t MessageType, data any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerMessage{
		Type:      t,
		Timestamp: now.UTC(),
		Data:      raw,
	})
}
