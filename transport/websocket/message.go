package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

const (
	actionNewGame = "game:new"
	actionGetGame = "game:get"
	actionMove    = "game:move"
	actionUndo    = "game:undo"
	actionError   = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	GameID string `json:"game_id,omitempty"`
	Cell   *int   `json:"cell,omitempty"`
}

type ResponsePayload struct {
	Game  *entity.GameView `json:"game,omitempty"`
	Error string           `json:"error,omitempty"`
}

// connection - a client socket. gorilla allows one concurrent writer, so writes are serialised.
type connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (that *connection) send(action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) sendError(action, reason string) error {
	return that.send(action, ResponsePayload{Error: reason})
}
