package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/models"
	"github.com/mcdev12/binaryquiz/go/internal/results"
)

const waitTimeout = 2 * time.Second

type stubCatalog struct{}

func (stubCatalog) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	return []models.Quiz{
		{ID: "q1", Name: "Real or AI", LabelX: "Real", LabelY: "AI", TotalImages: 2},
	}, nil
}

func (stubCatalog) StartSession(ctx context.Context, quizID string, limit int) ([]models.RoundDefinition, error) {
	if quizID != "q1" {
		return nil, errors.New("quiz not found")
	}
	return []models.RoundDefinition{
		{ImageRef: "img1", CorrectLabel: models.LabelX},
		{ImageRef: "img2", CorrectLabel: models.LabelY},
	}, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return []byte("\x89PNG\r\n\x1a\n" + ref), nil
}

type stubLeaderboard struct {
	scores []results.TopScore
}

func (l stubLeaderboard) Leaderboard(ctx context.Context, quizID string, limit int) ([]results.TopScore, error) {
	if limit < 0 {
		return nil, results.ErrInvalidLimit
	}
	return l.scores, nil
}

// startEngine runs an engine without reveal delay against the stub catalog.
func startEngine(t *testing.T) *game.Engine {
	t.Helper()

	eng := game.NewEngine(stubCatalog{}, stubFetcher{}, game.Options{
		Clock: clockwork.NewRealClock(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-eng.Done()
	})
	return eng
}

// newTestServer mounts a gateway for eng on an httptest server.
func newTestServer(t *testing.T, eng GameEngine, leaderboard Leaderboard) *httptest.Server {
	t.Helper()

	gw := New(DefaultConfig(), eng, leaderboard)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		gw.Start(ctx)
	}()

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-stopped
	})
	return srv
}

// waitForStatus reads snapshots until one has the wanted status.
func waitForStatus(t *testing.T, sub *game.Subscription[game.SessionState], want game.Status) game.SessionState {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case s, ok := <-sub.C():
			if !ok {
				t.Fatalf("session stream closed while waiting for %s", want)
			}
			if s.Status == want {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
