package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	session := uuid.New()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

	ev, err := New(session, "q1", TypeRoundSkipped, RoundSkippedPayload{Round: 2, ImageRef: "img3", SkippedAt: at}, at)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if ev.ID == uuid.Nil || ev.SessionID != session || ev.QuizID != "q1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.CreatedAt.Location() != time.UTC || !ev.CreatedAt.Equal(at) {
		t.Fatalf("expected %s in UTC, got %s", at, ev.CreatedAt)
	}

	var payload map[string]any
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["image_ref"] != "img3" || payload["round"] != float64(2) {
		t.Fatalf("unexpected payload %s", ev.Payload)
	}
}

func TestNewRejectsUnencodablePayload(t *testing.T) {
	if _, err := New(uuid.New(), "q1", TypeGameStarted, make(chan int), time.Now()); err == nil {
		t.Fatal("expected an error for a payload that cannot be encoded")
	}
}
