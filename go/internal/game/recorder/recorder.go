package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/game/events"
	"github.com/mcdev12/binaryquiz/go/internal/game/publisher"
	"github.com/mcdev12/binaryquiz/go/internal/results"
	"github.com/rs/zerolog/log"
)

// SubscriptionBuffer is the room given to each session subscription.
const SubscriptionBuffer = 256

// SessionSource is the engine side of the session stream.
type SessionSource interface {
	Subscribe(buffer int) *game.Subscription[game.SessionState]
	Done() <-chan struct{}
}

var _ SessionSource = (*game.Engine)(nil)

// ResultStore persists finished games.
type ResultStore interface {
	RecordGame(ctx context.Context, g results.CompletedGame) error
}

// Recorder follows the session stream and turns transitions into domain
// events and ledger entries. It never feeds anything back to the engine.
type Recorder struct {
	publisher publisher.EventPublisher
	store     ResultStore
	clock     clockwork.Clock

	prev      game.SessionState
	sessionID uuid.UUID
	startedAt time.Time
	skipped   int
	active    bool
}

// New creates a recorder. store may be nil when no ledger is configured.
func New(pub publisher.EventPublisher, store ResultStore, clock clockwork.Clock) *Recorder {
	return &Recorder{
		publisher: pub,
		store:     store,
		clock:     clock,
	}
}

// Run consumes snapshots until source stops or ctx is done. sub, taken
// before the engine starts, makes sure no transition is missed; when nil Run
// subscribes itself. A subscription dropped for falling behind is replaced,
// and the recorder resumes from the current snapshot.
func (r *Recorder) Run(ctx context.Context, source SessionSource, sub *game.Subscription[game.SessionState]) {
	if sub == nil {
		sub = source.Subscribe(SubscriptionBuffer)
	}
	resumed := false
	for {
		select {
		case <-ctx.Done():
			sub.Close()
			return
		case s, ok := <-sub.C():
			if !ok {
				select {
				case <-source.Done():
					log.Info().Msg("session stream closed, recorder stopping")
					return
				default:
				}
				log.Warn().Msg("recorder fell behind the session stream, resubscribing")
				sub = source.Subscribe(SubscriptionBuffer)
				resumed = true
				continue
			}
			if resumed {
				resumed = false
				if sameSnapshot(r.prev, s) {
					continue
				}
			}
			r.Observe(ctx, s)
		}
	}
}

// sameSnapshot reports whether b is the snapshot a was. Every round load
// publishes a fresh CurrentRound pointer, so a new session or round never
// compares equal.
func sameSnapshot(a, b game.SessionState) bool {
	return a.QuizID == b.QuizID &&
		a.Status == b.Status &&
		a.CurrentRound == b.CurrentRound &&
		a.CurrentRoundIndex == b.CurrentRoundIndex &&
		len(a.History) == len(b.History)
}

// Observe processes one snapshot. Snapshots must be passed in publish order.
func (r *Recorder) Observe(ctx context.Context, next game.SessionState) {
	prev := r.prev
	r.prev = next
	now := r.clock.Now()

	if isStart(next) {
		if r.active {
			r.abandon(ctx, prev, now)
		}
		r.begin(ctx, next, now)
	}
	if !r.active {
		return
	}

	switch {
	case next.Status == game.StatusIdle:
		r.abandon(ctx, prev, now)
		return
	case len(next.History) > len(prev.History):
		r.scored(ctx, next, now)
	case prev.Status == game.StatusLoading && next.CurrentRoundIndex > prev.CurrentRoundIndex:
		r.skippedRound(ctx, prev, now)
	}

	if next.Status == game.StatusGameOver {
		r.complete(ctx, next, now)
	}
}

// isStart reports whether s is the first snapshot of a new session. Every
// start publishes exactly one LOADING snapshot for round 0, or GAME_OVER when
// the catalog returned no rounds; nothing else produces those.
func isStart(s game.SessionState) bool {
	if s.CurrentRoundIndex != 0 || len(s.History) != 0 {
		return false
	}
	return s.Status == game.StatusLoading || (s.Status == game.StatusGameOver && s.TotalRounds == 0)
}

func (r *Recorder) begin(ctx context.Context, s game.SessionState, now time.Time) {
	r.sessionID = uuid.New()
	r.startedAt = now
	r.skipped = 0
	r.active = true

	r.publish(ctx, s.QuizID, events.TypeGameStarted, events.GameStartedPayload{
		QuizID:           s.QuizID,
		TotalRounds:      int(s.TotalRounds),
		TimerSeconds:     int(s.Config.TimerSeconds),
		AntiCheatEnabled: s.Config.AntiCheatEnabled,
		MinRevealDelayMs: int(s.Config.MinRevealDelayMs),
		StartedAt:        now,
	}, now)
}

func (r *Recorder) scored(ctx context.Context, s game.SessionState, now time.Time) {
	last, _ := s.LastResult()
	r.publish(ctx, s.QuizID, events.TypeRoundScored, events.RoundScoredPayload{
		Round:        int(s.CurrentRoundIndex),
		ImageRef:     last.ImageRef,
		CorrectLabel: string(last.CorrectLabel),
		UserGuess:    string(last.UserGuess),
		IsCorrect:    last.IsCorrect,
		Score:        int(s.Score),
		ScoredAt:     now,
	}, now)
}

func (r *Recorder) skippedRound(ctx context.Context, prev game.SessionState, now time.Time) {
	r.skipped++
	ref := ""
	if prev.CurrentRound != nil {
		ref = prev.CurrentRound.ImageRef
	}
	r.publish(ctx, prev.QuizID, events.TypeRoundSkipped, events.RoundSkippedPayload{
		Round:     int(prev.CurrentRoundIndex),
		ImageRef:  ref,
		SkippedAt: now,
	}, now)
}

func (r *Recorder) complete(ctx context.Context, s game.SessionState, now time.Time) {
	r.active = false

	r.publish(ctx, s.QuizID, events.TypeGameCompleted, events.GameCompletedPayload{
		QuizID:        s.QuizID,
		Score:         int(s.Score),
		TotalRounds:   int(s.TotalRounds),
		RoundsPlayed:  len(s.History),
		RoundsSkipped: r.skipped,
		CompletedAt:   now,
		Duration:      now.Sub(r.startedAt).String(),
	}, now)

	if r.store == nil {
		return
	}
	err := r.store.RecordGame(ctx, results.CompletedGame{
		ID:            r.sessionID,
		QuizID:        s.QuizID,
		Score:         int(s.Score),
		TotalRounds:   int(s.TotalRounds),
		RoundsSkipped: r.skipped,
		TimerSeconds:  int(s.Config.TimerSeconds),
		AntiCheat:     s.Config.AntiCheatEnabled,
		StartedAt:     r.startedAt,
		CompletedAt:   now,
		History:       s.History,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", r.sessionID.String()).Msg("failed to record game result")
	}
}

func (r *Recorder) abandon(ctx context.Context, prev game.SessionState, now time.Time) {
	r.active = false
	r.publish(ctx, prev.QuizID, events.TypeGameAbandoned, events.GameAbandonedPayload{
		QuizID:       prev.QuizID,
		Score:        int(prev.Score),
		RoundsPlayed: len(prev.History),
		AbandonedAt:  now,
	}, now)
}

func (r *Recorder) publish(ctx context.Context, quizID, eventType string, payload any, now time.Time) {
	event, err := events.New(r.sessionID, quizID, eventType, payload, now)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Str("session_id", r.sessionID.String()).Msg("failed to publish event")
	}
}
