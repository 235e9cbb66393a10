package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/binaryquiz/go/internal/game"
)

func dial(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws/session"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(waitTimeout))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

// readSession skips messages until a session view with the wanted status.
func readSession(t *testing.T, conn *websocket.Conn, want game.Status) SessionView {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeSession {
			continue
		}
		var view SessionView
		if err := json.Unmarshal(msg.Data, &view); err != nil {
			t.Fatalf("decode session: %v", err)
		}
		if view.Status == want {
			return view
		}
	}
}

func TestWebSocketSendsCurrentStateFirst(t *testing.T) {
	eng := startEngine(t)
	srv := newTestServer(t, eng, nil)
	conn := dial(t, srv.URL)

	first := readMessage(t, conn)
	if first.Type != MessageTypeSession {
		t.Fatalf("expected a session message first, got %s", first.Type)
	}
	var view SessionView
	if err := json.Unmarshal(first.Data, &view); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if view.Status != game.StatusIdle {
		t.Fatalf("expected IDLE, got %s", view.Status)
	}

	second := readMessage(t, conn)
	if second.Type != MessageTypeCountdown {
		t.Fatalf("expected a countdown message, got %s", second.Type)
	}
}

func TestWebSocketCommands(t *testing.T) {
	eng := startEngine(t)
	srv := newTestServer(t, eng, nil)
	conn := dial(t, srv.URL)
	readSession(t, conn, game.StatusIdle)

	if err := eng.StartGame(t.Context(), "q1", 1, 0); err != nil {
		t.Fatalf("start game: %v", err)
	}
	playing := readSession(t, conn, game.StatusPlaying)
	if playing.AssetURL == "" {
		t.Fatal("expected an asset url while playing")
	}

	if err := conn.WriteJSON(ClientCommand{Command: CommandGuess, Guess: "x"}); err != nil {
		t.Fatalf("write guess: %v", err)
	}
	ended := readSession(t, conn, game.StatusRoundEnd)
	if ended.Score != 1 || ended.LastResult == nil || !ended.LastResult.IsCorrect {
		t.Fatalf("expected a correct scored round, got %+v", ended)
	}

	if err := conn.WriteJSON(ClientCommand{Command: CommandNext}); err != nil {
		t.Fatalf("write next: %v", err)
	}
	readSession(t, conn, game.StatusGameOver)

	if err := conn.WriteJSON(ClientCommand{Command: "dance"}); err != nil {
		t.Fatalf("write unknown command: %v", err)
	}
	for {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeError {
			continue
		}
		var payload ErrorPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Command != "dance" {
			t.Fatalf("expected the rejected command to be echoed, got %+v", payload)
		}
		break
	}

	if err := conn.WriteJSON(ClientCommand{Command: CommandReset}); err != nil {
		t.Fatalf("write reset: %v", err)
	}
	readSession(t, conn, game.StatusIdle)
}

func TestConnectionStats(t *testing.T) {
	eng := startEngine(t)
	srv := newTestServer(t, eng, nil)
	conn := dial(t, srv.URL)
	readMessage(t, conn)

	var stats map[string]int
	if code := getJSON(t, srv.URL+"/ws/stats", &stats); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if stats["total_connections"] != 1 {
		t.Fatalf("expected 1 connection, got %d", stats["total_connections"])
	}
}
