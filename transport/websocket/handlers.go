package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	game, err := that.uGame.CreateGame(ctx)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return conn.sendError(msg.Action, "failed to create a new game")
	}

	that.watch(game.ID, conn)

	return conn.send(msg.Action, ResponsePayload{Game: entity.NewGameView(game, false)})
}

func (that *Server) handleGetGame(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil || payloadReq.GameID == "" {
		return conn.sendError(msg.Action, "game_id is required")
	}

	game, err := that.uGame.GetGame(ctx, payloadReq.GameID)
	if err != nil {
		return that.sendUseCaseError(conn, msg.Action, err)
	}

	that.watch(game.ID, conn)

	return conn.send(msg.Action, ResponsePayload{Game: entity.NewGameView(game, false)})
}

func (that *Server) handleMove(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil || payloadReq.GameID == "" {
		return conn.sendError(msg.Action, "game_id is required")
	}

	if payloadReq.Cell == nil {
		return conn.sendError(msg.Action, "cell is required")
	}

	game, applied, err := that.uGame.MakeMove(ctx, payloadReq.GameID, *payloadReq.Cell)
	if err != nil {
		return that.sendUseCaseError(conn, msg.Action, err)
	}

	return that.publish(msg.Action, conn, game, applied)
}

func (that *Server) handleUndo(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil || payloadReq.GameID == "" {
		return conn.sendError(msg.Action, "game_id is required")
	}

	game, applied, err := that.uGame.UndoLast(ctx, payloadReq.GameID)
	if err != nil {
		return that.sendUseCaseError(conn, msg.Action, err)
	}

	return that.publish(msg.Action, conn, game, applied)
}

// publish - an applied change goes to every watcher of the game, an ignored one only back to the sender.
func (that *Server) publish(action string, conn *connection, game *entity.Game, applied bool) error {
	that.watch(game.ID, conn)

	view := entity.NewGameView(game, applied)
	if !applied {
		return conn.send(action, ResponsePayload{Game: view})
	}

	that.broadcast(action, view)

	return nil
}

func (that *Server) sendUseCaseError(conn *connection, action string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		return conn.sendError(action, apperror.ErrGameNotFound.Error())
	case errors.Is(err, apperror.ErrInvalidCell):
		return conn.sendError(action, apperror.ErrInvalidCell.Error())
	default:
		if sendErr := conn.sendError(action, "internal error"); sendErr != nil {
			return sendErr
		}
		return err
	}
}

func decodePayload(msg *Message) (*RequestPayload, error) {
	var payloadReq RequestPayload

	if len(msg.Payload) == 0 {
		return &payloadReq, nil
	}

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payloadReq, nil
}
