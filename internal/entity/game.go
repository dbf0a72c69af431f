package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
)

// Mark - the symbol occupying a cell. The zero value is an empty cell.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

const (
	BoardSize = 9

	StatusDraw = "Draw"
)

// WinCombos - every triple of cells that wins when uniformly marked, in evaluation order.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board - 3x3 grid stored row-major.
type Board [BoardSize]Mark

type Game struct {
	ID        string    `json:"id"`
	Board     Board     `json:"board"`
	History   []int     `json:"history"`
	Count     int       `json:"count"`
	Turn      Mark      `json:"player_turn"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGame(id string) *Game {
	now := time.Now()

	return &Game{
		ID:        id,
		History:   []int{},
		Turn:      PlayerX,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Toggle - returns the opposing mark.
func (that Mark) Toggle() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Mark) IsEmpty() bool {
	return that == EmptyCell
}

// IsValidCell - reports whether cell addresses the board.
func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

// Winner - recomputed from the board on every call.
func (that *Game) Winner() Mark {
	return that.Board.Winner()
}

// Winner - mark of the first uniformly marked triple, or EmptyCell.
func (that Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Game) IsFinished() bool {
	return !that.Winner().IsEmpty()
}

func (that *Game) IsDraw() bool {
	return !that.IsFinished() && that.Board.IsFull()
}

// Status - the status line shown next to the board.
func (that *Game) Status() string {
	if winner := that.Winner(); !winner.IsEmpty() {
		return string(winner) + " has win!"
	}

	if that.Board.IsFull() {
		return StatusDraw
	}

	return "Next player: " + string(that.Turn)
}

// LastMove - the most recent cell played; ok is false on an empty history.
func (that *Game) LastMove() (int, bool) {
	if that.Count == 0 {
		return 0, false
	}
	return that.History[that.Count-1], true
}

// Clone - deep copy; the history slice is not shared with the original.
func (that *Game) Clone() *Game {
	clone := *that
	clone.History = make([]int, len(that.History))
	copy(clone.History, that.History)

	return &clone
}

// Validate - checks that board, history, count and turn agree with each other.
func (that *Game) Validate() error {
	if that.Count != len(that.History) {
		return fmt.Errorf("%w: count %d, history length %d", apperror.ErrCorruptedGame, that.Count, len(that.History))
	}

	var played Board
	mark := PlayerX
	for i, cell := range that.History {
		if !IsValidCell(cell) {
			return fmt.Errorf("%w: move %d targets cell %d", apperror.ErrCorruptedGame, i, cell)
		}

		if !played[cell].IsEmpty() {
			return fmt.Errorf("%w: cell %d played twice", apperror.ErrCorruptedGame, cell)
		}

		played[cell] = mark
		mark = mark.Toggle()
	}

	if played != that.Board {
		return fmt.Errorf("%w: board does not match history", apperror.ErrCorruptedGame)
	}

	if that.Turn != mark {
		return fmt.Errorf("%w: turn %q after %d moves", apperror.ErrCorruptedGame, that.Turn, that.Count)
	}

	return nil
}

// String - renders the board as three rows, '.' for empty cells.
func (that Board) String() string {
	out := make([]byte, 0, BoardSize+2)
	for i, cell := range that {
		if i > 0 && i%3 == 0 {
			out = append(out, '\n')
		}

		if cell.IsEmpty() {
			out = append(out, '.')
			continue
		}
		out = append(out, cell[0])
	}

	return string(out)
}
