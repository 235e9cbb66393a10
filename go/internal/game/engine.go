package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/binaryquiz/go/internal/models"
	"github.com/rs/zerolog/log"
)

const eventChannelBufferSize = 64

// Options tunes an Engine.
type Options struct {
	AntiCheatEnabled bool
	MinRevealDelay   time.Duration
	// Clock drives reveal delays and round timers. In production use
	// clockwork.NewRealClock(), in tests a FakeClock.
	Clock clockwork.Clock
}

// DefaultOptions hides every image for at least one second.
func DefaultOptions() Options {
	return Options{
		AntiCheatEnabled: true,
		MinRevealDelay:   time.Second,
		Clock:            clockwork.NewRealClock(),
	}
}

// Engine runs one game session at a time. All state transitions happen on the
// goroutine executing Run; commands and async completions are queued to it as
// events, so SessionState is never mutated concurrently.
type Engine struct {
	catalog Catalog
	loader  *AssetLoader
	timer   *RoundTimer
	handles *HandleRegistry
	clock   clockwork.Clock
	config  SessionConfig

	sessions  *Broadcaster[SessionState]
	countdown *Broadcaster[Countdown]
	quizzes   *Broadcaster[[]models.Quiz]

	labelsMu sync.RWMutex
	labels   map[string]models.QuizLabels

	events  chan event
	issued  atomic.Uint64 // numbers StartGame and ResetGame calls in issue order
	started atomic.Bool
	done    chan struct{}

	// Owned by the Run goroutine
	runCtx      context.Context
	state       SessionState
	queue       RoundQueue
	applied     uint64 // seq of the last applied start or reset
	token       uint64 // identifies the current round attempt
	cancelLoad  context.CancelFunc
	cancelTimer context.CancelFunc
}

// NewEngine creates an idle engine. Nothing happens until Run is called.
func NewEngine(catalog Catalog, fetcher AssetFetcher, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	delayMs := opts.MinRevealDelay.Milliseconds()
	if delayMs < 0 {
		delayMs = 0
	}

	handles := NewHandleRegistry()
	config := SessionConfig{
		AntiCheatEnabled: opts.AntiCheatEnabled,
		MinRevealDelayMs: uint(delayMs),
	}
	initial := InitialState(config)

	return &Engine{
		catalog:   catalog,
		loader:    NewAssetLoader(fetcher, handles, opts.Clock),
		timer:     NewRoundTimer(opts.Clock),
		handles:   handles,
		clock:     opts.Clock,
		config:    config,
		sessions:  NewBroadcaster("session", initial),
		countdown: NewBroadcaster("countdown", Countdown{}),
		quizzes:   NewBroadcaster("quizzes", []models.Quiz{}),
		labels:    make(map[string]models.QuizLabels),
		events:    make(chan event, eventChannelBufferSize),
		done:      make(chan struct{}),
		state:     initial,
	}
}

// Run processes events until ctx is cancelled. On return every pending load
// and timer is cancelled, all handles are released and subscriptions closed.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	e.runCtx = ctx

	log.Info().
		Bool("anti_cheat", e.config.AntiCheatEnabled).
		Uint("min_reveal_delay_ms", e.config.MinRevealDelayMs).
		Msg("game engine started")

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case ev := <-e.events:
			e.handleEvent(ev)
		}
	}
}

func (e *Engine) shutdown() {
	e.cancelRound()
	released := e.handles.Close()
	close(e.done)
	e.sessions.Close()
	e.countdown.Close()
	e.quizzes.Close()

	log.Info().Int("released_handles", released).Msg("game engine stopped")
}

// Done is closed once the engine stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// State returns the latest published snapshot.
func (e *Engine) State() SessionState {
	return e.sessions.Current()
}

// Subscribe streams session snapshots, starting with the current one.
func (e *Engine) Subscribe(buffer int) *Subscription[SessionState] {
	return e.sessions.Subscribe(buffer)
}

// Countdown returns the current timer value.
func (e *Engine) Countdown() Countdown {
	return e.countdown.Current()
}

// SubscribeCountdown streams timer values while rounds are played.
func (e *Engine) SubscribeCountdown(buffer int) *Subscription[Countdown] {
	return e.countdown.Subscribe(buffer)
}

// SubscribeQuizzes streams the quiz list after every FetchQuizzes.
func (e *Engine) SubscribeQuizzes(buffer int) *Subscription[[]models.Quiz] {
	return e.quizzes.Subscribe(buffer)
}

// Asset returns the bytes behind a live handle.
func (e *Engine) Asset(h Handle) ([]byte, bool) {
	return e.handles.Bytes(h)
}

// LiveHandles returns how many asset handles are currently held.
func (e *Engine) LiveHandles() int {
	return e.handles.Live()
}

// FetchQuizzes lists the catalog, publishes the list and refreshes the label
// cache used by GetLabelsFor.
func (e *Engine) FetchQuizzes(ctx context.Context) ([]models.Quiz, error) {
	quizzes, err := e.catalog.ListQuizzes(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch quizzes")
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	e.labelsMu.Lock()
	for _, q := range quizzes {
		e.labels[q.ID] = q.Labels()
	}
	e.labelsMu.Unlock()

	e.quizzes.Publish(slices.Clone(quizzes))
	return quizzes, nil
}

// GetLabelsFor returns the category names of a quiz seen by FetchQuizzes, or
// nil if the quiz is unknown.
func (e *Engine) GetLabelsFor(quizID string) *models.QuizLabels {
	e.labelsMu.RLock()
	defer e.labelsMu.RUnlock()

	labels, ok := e.labels[quizID]
	if !ok {
		return nil
	}
	return &labels
}

// StartGame fetches a round queue and starts a new session, replacing any
// session in progress. When the catalog fails the engine state is untouched
// and the error wraps ErrCatalogUnavailable. Overlapping calls resolve in
// issue order: a start whose fetch completes after a later start or reset was
// applied returns ErrStartSuperseded.
func (e *Engine) StartGame(ctx context.Context, quizID string, roundCount int, timerSeconds uint) error {
	seq := e.issued.Add(1)

	queue, err := LoadRoundQueue(ctx, e.catalog, quizID, roundCount)
	if err != nil {
		log.Error().Err(err).Str("quiz_id", quizID).Int("round_count", roundCount).Msg("failed to start game")
		return err
	}

	return e.send(ctx, &startCommand{
		reply:        newReply(),
		quizID:       quizID,
		queue:        queue,
		timerSeconds: timerSeconds,
		seq:          seq,
	})
}

// SubmitGuess scores the current round. It is ignored unless a round is
// being played.
func (e *Engine) SubmitGuess(ctx context.Context, guess Guess) error {
	if !guess.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGuess, guess)
	}
	return e.send(ctx, &guessCommand{reply: newReply(), guess: guess})
}

// AdvanceToNext releases the current round and loads the next one, or ends
// the game. It is ignored unless the last round was scored.
func (e *Engine) AdvanceToNext(ctx context.Context) error {
	return e.send(ctx, &advanceCommand{reply: newReply()})
}

// ResetGame cancels everything in flight, releases every handle and restores
// the initial state.
func (e *Engine) ResetGame(ctx context.Context) error {
	return e.send(ctx, &resetCommand{reply: newReply(), seq: e.issued.Add(1)})
}

func (e *Engine) send(ctx context.Context, cmd command) error {
	select {
	case <-e.done:
		return ErrEngineStopped
	default:
	}

	select {
	case e.events <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}

	select {
	case err := <-cmd.replyCh():
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}
}

// post queues an async completion. It reports false when the engine stopped.
func (e *Engine) post(ev event) bool {
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) handleEvent(ev event) {
	switch ev := ev.(type) {
	case *startCommand:
		ev.respond(e.applyStart(ev))
	case *guessCommand:
		e.applyGuess(ev.guess)
		ev.respond(nil)
	case *advanceCommand:
		e.applyAdvance()
		ev.respond(nil)
	case *resetCommand:
		e.applyReset(ev.seq)
		ev.respond(nil)
	case assetLoadedEvent:
		e.handleAssetLoaded(ev)
	case timerTickEvent:
		e.handleTimerTick(ev)
	default:
		log.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("unknown engine event - ignoring")
	}
}

func (e *Engine) applyStart(cmd *startCommand) error {
	if cmd.seq < e.applied {
		log.Info().
			Str("quiz_id", cmd.quizID).
			Uint64("seq", cmd.seq).
			Uint64("applied", e.applied).
			Msg("discarding start issued before the last applied start or reset")
		return ErrStartSuperseded
	}
	e.applied = cmd.seq

	e.cancelRound()
	e.releaseActive()

	e.queue = cmd.queue
	next := InitialState(e.config)
	next.QuizID = cmd.quizID
	next.TotalRounds = uint(cmd.queue.Len())
	next.Config.TimerSeconds = cmd.timerSeconds

	log.Info().
		Str("quiz_id", cmd.quizID).
		Uint("total_rounds", next.TotalRounds).
		Uint("timer_seconds", cmd.timerSeconds).
		Msg("game started")

	e.loadRound(next)
	return nil
}

func (e *Engine) applyGuess(guess Guess) {
	if e.state.Status != StatusPlaying || e.state.CurrentRound == nil {
		log.Debug().Str("status", string(e.state.Status)).Str("guess", string(guess)).Msg("guess ignored outside of play")
		return
	}

	e.stopTimer()

	result := newRoundResult(*e.state.CurrentRound, guess)
	next := e.state
	next.History = append(slices.Clone(e.state.History), result)
	if result.IsCorrect {
		next.Score++
	}
	e.releaseActive()
	next.ActiveAssetHandle = nil
	next.Status = StatusRoundEnd

	log.Debug().
		Str("quiz_id", next.QuizID).
		Uint("round", next.CurrentRoundIndex).
		Str("guess", string(guess)).
		Bool("correct", result.IsCorrect).
		Msg("round scored")

	e.setState(next)
}

func (e *Engine) applyAdvance() {
	if e.state.Status != StatusRoundEnd {
		log.Debug().Str("status", string(e.state.Status)).Msg("advance ignored outside of round end")
		return
	}
	e.nextRound()
}

func (e *Engine) applyReset(seq uint64) {
	e.applied = max(e.applied, seq)
	e.cancelRound()
	released := e.handles.ReleaseAll()
	e.queue = RoundQueue{}

	log.Info().Int("released_handles", released).Msg("game reset")

	e.setState(InitialState(e.config))
}

// nextRound releases the current handle, consumes the current round and
// loads the following one.
func (e *Engine) nextRound() {
	e.cancelRound()
	e.releaseActive()

	next := e.state
	next.ActiveAssetHandle = nil
	next.CurrentRoundIndex = min(next.CurrentRoundIndex+1, next.TotalRounds)
	e.loadRound(next)
}

// loadRound enters LOADING for next.CurrentRoundIndex, or GAME_OVER when the
// queue is exhausted.
func (e *Engine) loadRound(next SessionState) {
	round, ok := e.queue.At(next.CurrentRoundIndex)
	if !ok || next.CurrentRoundIndex >= next.TotalRounds {
		next.Status = StatusGameOver
		next.CurrentRound = nil
		next.ActiveAssetHandle = nil

		log.Info().
			Str("quiz_id", next.QuizID).
			Uint("score", next.Score).
			Uint("total_rounds", next.TotalRounds).
			Msg("game over")

		e.setState(next)
		return
	}

	e.token++
	token := e.token
	ctx, cancel := context.WithCancel(e.runCtx)
	e.cancelLoad = cancel

	next.Status = StatusLoading
	next.CurrentRound = &round
	next.ActiveAssetHandle = nil
	e.setState(next)

	delay := next.Config.RevealDelay()
	go func() {
		h, err := e.loader.Load(ctx, round, delay)
		if err != nil && ctx.Err() != nil && !errors.Is(err, ErrAssetLoadFailed) {
			// Cancelled before anything was allocated
			return
		}
		if !e.post(assetLoadedEvent{token: token, handle: h, err: err}) && err == nil {
			e.releaseHandle(h)
		}
	}()
}

func (e *Engine) handleAssetLoaded(ev assetLoadedEvent) {
	if ev.token != e.token || e.state.Status != StatusLoading {
		log.Debug().Uint64("token", ev.token).Uint64("current_token", e.token).Msg("discarding stale asset load")
		if ev.err == nil {
			e.releaseHandle(ev.handle)
		}
		return
	}

	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}

	if ev.err != nil {
		log.Warn().
			Err(ev.err).
			Str("quiz_id", e.state.QuizID).
			Uint("round", e.state.CurrentRoundIndex).
			Msg("skipping broken round")
		e.nextRound()
		return
	}

	next := e.state
	h := ev.handle
	next.ActiveAssetHandle = &h
	next.Status = StatusPlaying
	e.setState(next)

	e.startTimer(next.Config.TimerSeconds)
}

func (e *Engine) handleTimerTick(ev timerTickEvent) {
	if ev.token != e.token || e.state.Status != StatusPlaying {
		return
	}

	e.countdown.Publish(Countdown{Active: true, Remaining: ev.remaining})
	if ev.remaining == 0 {
		log.Info().Str("quiz_id", e.state.QuizID).Uint("round", e.state.CurrentRoundIndex).Msg("round timed out")
		e.applyGuess(GuessTimeout)
	}
}

// startTimer replaces any running round timer.
func (e *Engine) startTimer(seconds uint) {
	e.stopTimer()
	if seconds == 0 {
		return
	}

	ctx, cancel := context.WithCancel(e.runCtx)
	e.cancelTimer = cancel
	token := e.token

	e.countdown.Publish(Countdown{Active: true, Remaining: seconds})
	go e.timer.Run(ctx, seconds, func(remaining uint) {
		e.post(timerTickEvent{token: token, remaining: remaining})
	})
}

// stopTimer cancels the round timer. It is idempotent.
func (e *Engine) stopTimer() {
	if e.cancelTimer == nil {
		return
	}
	e.cancelTimer()
	e.cancelTimer = nil
	e.countdown.Publish(Countdown{})
}

// cancelRound invalidates every in-flight completion of the current round.
func (e *Engine) cancelRound() {
	e.token++
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.stopTimer()
}

func (e *Engine) releaseActive() {
	if e.state.ActiveAssetHandle == nil {
		return
	}
	e.releaseHandle(*e.state.ActiveAssetHandle)
}

func (e *Engine) releaseHandle(h Handle) {
	if err := e.handles.Release(h); err != nil {
		log.Debug().Err(err).Str("handle", h.ID).Msg("handle already released")
	}
}

func (e *Engine) setState(next SessionState) {
	e.state = next
	e.sessions.Publish(next)
}
