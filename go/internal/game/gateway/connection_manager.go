package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/rs/zerolog/log"
)

const streamBufferSize = 64

// ConnectionManager fans engine streams out to websocket clients and turns
// client commands into engine commands.
type ConnectionManager struct {
	engine GameEngine

	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	CommandTimeout  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		CommandTimeout:  5 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(engine GameEngine, config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		engine:      engine,
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Start forwards engine streams to every client until ctx is done or the
// engine stops.
func (cm *ConnectionManager) Start(ctx context.Context) {
	sessions := cm.engine.Subscribe(streamBufferSize)
	defer sessions.Close()
	countdown := cm.engine.SubscribeCountdown(streamBufferSize)
	defer countdown.Close()
	quizzes := cm.engine.SubscribeQuizzes(streamBufferSize)
	defer quizzes.Close()

	log.Info().Msg("connection manager started")
	defer cm.closeAll()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case s, ok := <-sessions.C():
			if !ok {
				log.Warn().Msg("session stream closed")
				return
			}
			cm.broadcast(MessageTypeSession, newSessionView(s, cm.engine.GetLabelsFor(s.QuizID)))
		case c, ok := <-countdown.C():
			if !ok {
				return
			}
			cm.broadcast(MessageTypeCountdown, c)
		case q, ok := <-quizzes.C():
			if !ok {
				return
			}
			cm.broadcast(MessageTypeQuizzes, q)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	// New clients start from the current state, not from the next transition
	state := cm.engine.State()
	connection.enqueue(MessageTypeSession, newSessionView(state, cm.engine.GetLabelsFor(state.QuizID)))
	connection.enqueue(MessageTypeCountdown, cm.engine.Countdown())

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for conn := range cm.connections {
		delete(cm.connections, conn)
		close(conn.Send)
	}
}

func (cm *ConnectionManager) broadcast(t MessageType, data any) {
	message, err := newServerMessage(t, data, time.Now())
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("failed to marshal message for broadcast")
		return
	}

	// Sends happen under the read lock so that no channel is closed meanwhile
	cm.mu.RLock()
	var slow []*Connection
	for conn := range cm.connections {
		select {
		case conn.Send <- message:
		default:
			slow = append(slow, conn)
		}
	}
	total := len(cm.connections)
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().
		Str("type", string(t)).
		Int("connections", total).
		Msg("message broadcasted")
}

// ConnectionCount returns the number of connected clients
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// enqueue must only be used before the connection is registered
func (c *Connection) enqueue(t MessageType, data any) {
	message, err := newServerMessage(t, data, time.Now())
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal message")
		return
	}
	select {
	case c.Send <- message:
	default:
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage runs a client command against the engine. Rejected
// commands are reported back to the sender only.
func (c *Connection) handleClientMessage(message []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.reject("", fmt.Errorf("malformed command: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.CommandTimeout)
	defer cancel()

	var err error
	engine := c.Manager.engine
	switch cmd.Command {
	case CommandGuess:
		err = engine.SubmitGuess(ctx, game.Guess(cmd.Guess))
	case CommandNext:
		err = engine.AdvanceToNext(ctx)
	case CommandReset:
		err = engine.ResetGame(ctx)
	default:
		err = fmt.Errorf("unknown command %q", cmd.Command)
	}

	if err != nil {
		c.reject(cmd.Command, err)
		return
	}
	log.Debug().Str("connection_id", c.ID).Str("command", cmd.Command).Msg("client command applied")
}

func (c *Connection) reject(command string, err error) {
	log.Warn().Err(err).Str("connection_id", c.ID).Str("command", command).Msg("client command rejected")

	message, merr := newServerMessage(MessageTypeError, ErrorPayload{Command: command, Error: err.Error()}, time.Now())
	if merr != nil {
		return
	}

	c.Manager.mu.RLock()
	defer c.Manager.mu.RUnlock()
	if !c.Manager.connections[c] {
		return
	}
	select {
	case c.Send <- message:
	default:
	}
}
