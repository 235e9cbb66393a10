package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/results"
)

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestGetSessionIdle(t *testing.T) {
	eng := startEngine(t)
	srv := newTestServer(t, eng, nil)

	var body struct {
		Session   SessionView    `json:"session"`
		Countdown game.Countdown `json:"countdown"`
	}
	if code := getJSON(t, srv.URL+sessionPath, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Session.Status != game.StatusIdle {
		t.Fatalf("expected IDLE, got %s", body.Session.Status)
	}
	if body.Session.AssetURL != "" || body.Countdown.Active {
		t.Fatalf("unexpected idle view %+v %+v", body.Session, body.Countdown)
	}
}

func TestGetAssetOnlyServesActiveHandle(t *testing.T) {
	eng := startEngine(t)
	sub := eng.Subscribe(64)
	defer sub.Close()
	srv := newTestServer(t, eng, nil)

	if code := getJSON(t, srv.URL+assetPath, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 while idle, got %d", code)
	}

	if err := eng.StartGame(context.Background(), "q1", 2, 0); err != nil {
		t.Fatalf("start game: %v", err)
	}
	playing := waitForStatus(t, sub, game.StatusPlaying)
	view := newSessionView(playing, nil)

	resp, err := http.Get(srv.URL + view.AssetURL)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	if string(data) != "\x89PNG\r\n\x1a\nimg1" {
		t.Fatalf("unexpected asset bytes %q", data)
	}

	if code := getJSON(t, srv.URL+assetPath+"?handle=stale", nil); code != http.StatusGone {
		t.Fatalf("expected 410 for a stale handle, got %d", code)
	}

	// Scoring the round releases the image
	if err := eng.SubmitGuess(context.Background(), game.GuessX); err != nil {
		t.Fatalf("submit guess: %v", err)
	}
	if code := getJSON(t, srv.URL+view.AssetURL, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after the round ended, got %d", code)
	}
}

func TestGetLeaderboard(t *testing.T) {
	eng := startEngine(t)
	id := uuid.New()
	srv := newTestServer(t, eng, stubLeaderboard{
		scores: []results.TopScore{{GameID: id, QuizID: "q1", Score: 3, TotalRounds: 5}},
	})

	var scores []results.TopScore
	if code := getJSON(t, srv.URL+leaderboardPath+"?quiz_id=q1", &scores); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(scores) != 1 || scores[0].GameID != id {
		t.Fatalf("unexpected scores %+v", scores)
	}

	if code := getJSON(t, srv.URL+leaderboardPath+"?limit=abc", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed limit, got %d", code)
	}
	if code := getJSON(t, srv.URL+leaderboardPath+"?limit=-1", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative limit, got %d", code)
	}
}

func TestGetLeaderboardWithoutStore(t *testing.T) {
	eng := startEngine(t)
	srv := newTestServer(t, eng, nil)

	if code := getJSON(t, srv.URL+leaderboardPath, nil); code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", code)
	}
}
