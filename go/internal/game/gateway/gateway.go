package gateway

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
)

// Gateway exposes the game engine to clients: connect procedures for
// commands, websockets for live state and plain HTTP for reads.
type Gateway struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	service           *Service
}

// Config holds configuration for the gateway
type Config struct {
	ConnectionConfig ConnectionConfig
	Defaults         Defaults
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Defaults: Defaults{
			Rounds: 10,
		},
	}
}

// New creates a gateway. leaderboard may be nil when no results store is
// configured.
func New(config Config, engine GameEngine, leaderboard Leaderboard) *Gateway {
	cm := NewConnectionManager(engine, config.ConnectionConfig)
	return &Gateway{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(engine, leaderboard),
		service:           NewService(engine, leaderboard, config.Defaults),
	}
}

// Start streams engine updates to websocket clients until ctx is done
func (g *Gateway) Start(ctx context.Context) {
	log.Info().Msg("starting game gateway")
	g.connectionManager.Start(ctx)
	log.Info().Msg("game gateway stopped")
}

// RegisterRoutes registers every gateway route with an HTTP mux
func (g *Gateway) RegisterRoutes(mux *http.ServeMux, opts ...connect.HandlerOption) {
	path, handler := NewGameServiceHandler(g.service, opts...)
	mux.Handle(path, handler)
	g.wsHandler.RegisterRoutes(mux)
	g.stateHandler.RegisterStateRoutes(mux)
	log.Info().Str("service", GameServiceName).Msg("game gateway routes registered")
}

// ConnectionCount returns the number of websocket clients
func (g *Gateway) ConnectionCount() int {
	return g.connectionManager.ConnectionCount()
}
