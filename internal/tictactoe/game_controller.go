package tictactoe

import (
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

// ActionKind - the kind of update Reduce applies.
type ActionKind string

const (
	ActionMove ActionKind = "move"
	ActionUndo ActionKind = "undo"
)

// Action - a single user update. Cell is only meaningful for ActionMove.
type Action struct {
	Kind ActionKind
	Cell int
}

func Move(cell int) Action {
	return Action{Kind: ActionMove, Cell: cell}
}

func Undo() Action {
	return Action{Kind: ActionUndo}
}

// GameController - applies moves and undos to a game, logging every accepted change.
type GameController struct {
	logger *slog.Logger
}

func NewGameController(logger *slog.Logger) *GameController {
	return &GameController{
		logger: logger.With("component", "tictactoe"),
	}
}

// Reduce - returns the state after applying action to a copy of game; game itself is not modified.
func (that *GameController) Reduce(game *entity.Game, action Action) (*entity.Game, bool) {
	next := game.Clone()

	switch action.Kind {
	case ActionMove:
		return next, that.ApplyMove(next, action.Cell)
	case ActionUndo:
		return next, that.UndoLast(next)
	default:
		return next, false
	}
}

// ApplyMove - places the current turn's mark on cell. A move to an occupied or out-of-range
// cell, or after a winner exists, is ignored and reported as false.
func (that *GameController) ApplyMove(game *entity.Game, cell int) bool {
	if !validateMove(game, cell) {
		return false
	}

	game.Board[cell] = game.Turn
	game.History = append(game.History[:game.Count], cell)
	game.Count++
	game.Turn = game.Turn.Toggle()

	that.logger.Debug("move applied", "game_id", game.ID, "cell", cell, "history", game.History, "count", game.Count)

	return true
}

// UndoLast - clears the most recent move. No-op on a game without moves.
func (that *GameController) UndoLast(game *entity.Game) bool {
	cell, ok := game.LastMove()
	if !ok {
		return false
	}

	game.Board[cell] = entity.EmptyCell
	game.Count--
	game.History = game.History[:game.Count]
	game.Turn = game.Turn.Toggle()

	that.logger.Debug("move undone", "game_id", game.ID, "cell", cell, "history", game.History, "count", game.Count)

	return true
}

// CheckWinner - mark occupying the first uniform triple, or entity.EmptyCell.
func CheckWinner(board entity.Board) entity.Mark {
	return board.Winner()
}

// validateMove - checks if the move is legal.
func validateMove(game *entity.Game, cell int) bool {
	if !entity.IsValidCell(cell) {
		return false
	}

	if game.IsFinished() {
		return false
	}

	return game.Board[cell].IsEmpty()
}
