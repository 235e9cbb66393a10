package game

import (
	"time"

	"github.com/mcdev12/binaryquiz/go/internal/models"
)

// Status is the lifecycle stage of a game session.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusLoading  Status = "LOADING"
	StatusPlaying  Status = "PLAYING"
	StatusRoundEnd Status = "ROUND_END"
	StatusGameOver Status = "GAME_OVER"
)

// Guess is what the player answered for a round. Besides the two labels it can
// be a timeout synthesized by the round timer.
type Guess string

const (
	GuessX       Guess = Guess(models.LabelX)
	GuessY       Guess = Guess(models.LabelY)
	GuessTimeout Guess = "TIMEOUT"
)

// GuessFor converts a label into the matching guess.
func GuessFor(label models.Label) Guess {
	return Guess(label)
}

// Valid reports whether g is a label or a timeout.
func (g Guess) Valid() bool {
	return g == GuessX || g == GuessY || g == GuessTimeout
}

// RoundResult is the immutable record of one scored round.
type RoundResult struct {
	ImageRef     string       `json:"image_ref"`
	CorrectLabel models.Label `json:"correct_label"`
	UserGuess    Guess        `json:"user_guess"`
	// DisplayGuess is only for presentation: for a timeout it holds the label
	// opposite to the correct one.
	DisplayGuess models.Label `json:"display_guess"`
	IsCorrect    bool         `json:"is_correct"`
}

func newRoundResult(round models.RoundDefinition, guess Guess) RoundResult {
	result := RoundResult{
		ImageRef:     round.ImageRef,
		CorrectLabel: round.CorrectLabel,
		UserGuess:    guess,
	}
	if guess == GuessTimeout {
		result.DisplayGuess = round.CorrectLabel.Opposite()
		return result
	}
	result.DisplayGuess = models.Label(guess)
	result.IsCorrect = models.Label(guess) == round.CorrectLabel
	return result
}

// SessionConfig is fixed when a session starts.
type SessionConfig struct {
	AntiCheatEnabled bool `json:"anti_cheat_enabled"`
	MinRevealDelayMs uint `json:"min_reveal_delay_ms"`
	TimerSeconds     uint `json:"timer_seconds"` // 0 disables the round timer
}

// RevealDelay is the floor applied to every asset load.
func (c SessionConfig) RevealDelay() time.Duration {
	if !c.AntiCheatEnabled {
		return 0
	}
	return time.Duration(c.MinRevealDelayMs) * time.Millisecond
}

// SessionState is the aggregate published after every transition. Values are
// never mutated once published; History is copied on write.
type SessionState struct {
	QuizID            string                  `json:"quiz_id"`
	CurrentRoundIndex uint                    `json:"current_round_index"`
	TotalRounds       uint                    `json:"total_rounds"`
	Score             uint                    `json:"score"`
	History           []RoundResult           `json:"history"`
	ActiveAssetHandle *Handle                 `json:"active_asset_handle"`
	CurrentRound      *models.RoundDefinition `json:"current_round"`
	Status            Status                  `json:"status"`
	Config            SessionConfig           `json:"config"`
}

// InitialState is the state of an engine that has no session.
func InitialState(config SessionConfig) SessionState {
	config.TimerSeconds = 0
	return SessionState{
		History: []RoundResult{},
		Status:  StatusIdle,
		Config:  config,
	}
}

// DisplayRound is the 1-based round number shown to the player.
func (s SessionState) DisplayRound() uint {
	return min(s.CurrentRoundIndex+1, s.TotalRounds)
}

// LastResult returns the most recently scored round.
func (s SessionState) LastResult() (RoundResult, bool) {
	if len(s.History) == 0 {
		return RoundResult{}, false
	}
	return s.History[len(s.History)-1], true
}

// Countdown is the visible value of the round timer. Active is false whenever
// no timer runs.
type Countdown struct {
	Active    bool `json:"active"`
	Remaining uint `json:"remaining_sec"`
}
