package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/rs/zerolog/log"
)

const (
	sessionPath     = "/api/session"
	assetPath       = "/api/session/asset"
	leaderboardPath = "/api/leaderboard"

	defaultLeaderboardSize = 10
)

// StateHandler serves read-only views of the session over plain HTTP
type StateHandler struct {
	engine      GameEngine
	leaderboard Leaderboard
}

// NewStateHandler creates a new state handler. leaderboard may be nil.
func NewStateHandler(engine GameEngine, leaderboard Leaderboard) *StateHandler {
	return &StateHandler{
		engine:      engine,
		leaderboard: leaderboard,
	}
}

// HandleGetSession handles GET /api/session
func (h *StateHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	state := h.engine.State()
	writeJSON(w, http.StatusOK, struct {
		Session   SessionView    `json:"session"`
		Countdown game.Countdown `json:"countdown"`
	}{
		Session:   newSessionView(state, h.engine.GetLabelsFor(state.QuizID)),
		Countdown: h.engine.Countdown(),
	})
}

// HandleGetAsset handles GET /api/session/asset?handle=<id>. Only the image of
// the round being played is served, so nothing leaks before it is revealed.
func (h *StateHandler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	state := h.engine.State()
	active := state.ActiveAssetHandle
	if active == nil {
		http.Error(w, "no image is being shown", http.StatusNotFound)
		return
	}
	if id := r.URL.Query().Get("handle"); id != "" && id != active.ID {
		http.Error(w, "handle is not active", http.StatusGone)
		return
	}

	data, ok := h.engine.Asset(*active)
	if !ok {
		// Released between the state read and the lookup
		http.Error(w, "handle is not active", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Str("handle", active.ID).Msg("failed to write asset")
	}
}

// HandleGetLeaderboard handles GET /api/leaderboard?quiz_id=<id>&limit=<n>
func (h *StateHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		http.Error(w, "no results store configured", http.StatusNotImplemented)
		return
	}

	limit := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	scores, err := h.leaderboard.Leaderboard(r.Context(), r.URL.Query().Get("quiz_id"), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to get leaderboard")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// RegisterStateRoutes registers the state endpoints with an HTTP mux
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+sessionPath, h.HandleGetSession)
	mux.HandleFunc("GET "+assetPath, h.HandleGetAsset)
	mux.HandleFunc("GET "+leaderboardPath, h.HandleGetLeaderboard)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
