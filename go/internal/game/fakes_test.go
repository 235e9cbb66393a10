package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/binaryquiz/go/internal/models"
)

const waitTimeout = 2 * time.Second

var errFakeNetwork = errors.New("connection reset")

type fakeCatalog struct {
	mu        sync.Mutex
	quizzes   []models.Quiz
	rounds    map[string][]models.RoundDefinition
	err       error
	// gate, when set, blocks StartSession until closed; entered is signalled first
	gate      chan struct{}
	entered   chan struct{}
	quizGates map[string]chan struct{} // overrides gate per quiz
	limits    []int
}

func (c *fakeCatalog) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.quizzes, nil
}

func (c *fakeCatalog) StartSession(ctx context.Context, quizID string, limit int) ([]models.RoundDefinition, error) {
	c.mu.Lock()
	gate, entered := c.gate, c.entered
	if g, ok := c.quizGates[quizID]; ok {
		gate = g
	}
	c.limits = append(c.limits, limit)
	c.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.rounds[quizID], nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	gates map[string]chan struct{}
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		fail:  make(map[string]bool),
		gates: make(map[string]chan struct{}),
	}
}

// Fetch ignores ctx on purpose so that tests can observe completions arriving
// after a cancellation.
func (f *fakeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	gate := f.gates[ref]
	fail := f.fail[ref]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, errFakeNetwork
	}
	return []byte("bytes of " + ref), nil
}

func (f *fakeFetcher) block(ref string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[ref] = gate
	return gate
}

func twoRoundCatalog() *fakeCatalog {
	return &fakeCatalog{
		quizzes: []models.Quiz{
			{ID: "q1", Name: "Real or AI", LabelX: "Real", LabelY: "AI", TotalImages: 2},
		},
		rounds: map[string][]models.RoundDefinition{
			"q1": {
				{ImageRef: "img1", CorrectLabel: models.LabelX},
				{ImageRef: "img2", CorrectLabel: models.LabelY},
			},
		},
	}
}

type testEngine struct {
	*Engine
	clock    *clockwork.FakeClock
	sessions *Subscription[SessionState]
	cancel   context.CancelFunc
}

func runEngine(t *testing.T, catalog Catalog, fetcher AssetFetcher, antiCheat bool) *testEngine {
	t.Helper()

	clock := clockwork.NewFakeClock()
	eng := NewEngine(catalog, fetcher, Options{
		AntiCheatEnabled: antiCheat,
		MinRevealDelay:   time.Second,
		Clock:            clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-eng.Done()
	})

	te := &testEngine{
		Engine:   eng,
		clock:    clock,
		sessions: eng.Subscribe(64),
		cancel:   cancel,
	}
	te.expect(t, StatusIdle)
	return te
}

// expect asserts the status of the next published snapshot.
func (te *testEngine) expect(t *testing.T, want Status) SessionState {
	t.Helper()
	select {
	case s, ok := <-te.sessions.C():
		if !ok {
			t.Fatalf("session stream closed while waiting for %s", want)
		}
		if s.Status != want {
			t.Fatalf("expected status %s, got %s", want, s.Status)
		}
		return s
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", want)
	}
	return SessionState{}
}

// expectQuiet asserts that nothing is published after a full loop round trip.
// Advancing is the round trip, so it must not be used in ROUND_END.
func (te *testEngine) expectQuiet(t *testing.T) {
	t.Helper()
	if err := te.AdvanceToNext(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	select {
	case s := <-te.sessions.C():
		t.Fatalf("unexpected snapshot with status %s", s.Status)
	default:
	}
}

func (te *testEngine) start(t *testing.T, quizID string, rounds int, timer uint) {
	t.Helper()
	if err := te.StartGame(context.Background(), quizID, rounds, timer); err != nil {
		t.Fatalf("start game: %v", err)
	}
}

func (te *testEngine) guess(t *testing.T, g Guess) {
	t.Helper()
	if err := te.SubmitGuess(context.Background(), g); err != nil {
		t.Fatalf("submit guess %s: %v", g, err)
	}
}

func (te *testEngine) advance(t *testing.T) {
	t.Helper()
	if err := te.AdvanceToNext(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
}

func blockUntil(t *testing.T, clock *clockwork.FakeClock, waiters int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, waiters); err != nil {
		t.Fatalf("waiting for %d clock waiters: %v", waiters, err)
	}
}
