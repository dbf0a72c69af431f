package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

type uGame interface {
	CreateGame(ctx context.Context) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)

	MakeMove(ctx context.Context, id string, cell int) (*entity.Game, bool, error)
	UndoLast(ctx context.Context, id string) (*entity.Game, bool, error)
}

type handlerFunc func(ctx context.Context, message *Message, conn *connection) error

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	watchersMu sync.RWMutex
	watchers   map[string]map[*connection]struct{}
}

func New(logger *slog.Logger, uGame uGame) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
		watchers: make(map[string]map[*connection]struct{}),
	}

	server.handlers[actionNewGame] = server.handleNewGame
	server.handlers[actionGetGame] = server.handleGetGame
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionUndo] = server.handleUndo

	return server
}

// Handler - the /ws endpoint; useful on its own for tests.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	wsConn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{conn: wsConn}

	defer func() {
		that.unwatchAll(conn)
		_ = wsConn.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client until the socket is closed.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, reqBody, err := conn.conn.ReadMessage()
		if err != nil {
			return err
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			if err = conn.sendError(actionError, "malformed message"); err != nil {
				return err
			}
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			if err = conn.sendError(message.Action, apperror.ErrUnknownAction.Error()); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) watch(gameID string, conn *connection) {
	that.watchersMu.Lock()
	defer that.watchersMu.Unlock()

	set, ok := that.watchers[gameID]
	if !ok {
		set = make(map[*connection]struct{})
		that.watchers[gameID] = set
	}
	set[conn] = struct{}{}
}

func (that *Server) unwatchAll(conn *connection) {
	that.watchersMu.Lock()
	defer that.watchersMu.Unlock()

	for gameID, set := range that.watchers {
		delete(set, conn)
		if len(set) == 0 {
			delete(that.watchers, gameID)
		}
	}
}

// broadcast - sends the game state to every connection watching the game.
func (that *Server) broadcast(action string, view *entity.GameView) {
	that.watchersMu.RLock()
	conns := make([]*connection, 0, len(that.watchers[view.ID]))
	for conn := range that.watchers[view.ID] {
		conns = append(conns, conn)
	}
	that.watchersMu.RUnlock()

	for _, conn := range conns {
		if err := conn.send(action, ResponsePayload{Game: view}); err != nil {
			that.logger.Error("failed to send game update", "game_id", view.ID, "error", err)
		}
	}
}
