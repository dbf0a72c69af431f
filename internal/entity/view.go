package entity

// GameView - game state as sent to clients, with the derived winner and status line filled in.
type GameView struct {
	ID      string `json:"id"`
	Board   Board  `json:"board"`
	History []int  `json:"history"`
	Count   int    `json:"count"`
	Turn    Mark   `json:"turn"`
	Winner  Mark   `json:"winner"`
	Status  string `json:"status"`
	Applied bool   `json:"applied"`
}

func NewGameView(game *Game, applied bool) *GameView {
	history := game.History
	if history == nil {
		history = []int{}
	}

	return &GameView{
		ID:      game.ID,
		Board:   game.Board,
		History: history,
		Count:   game.Count,
		Turn:    game.Turn,
		Winner:  game.Winner(),
		Status:  game.Status(),
		Applied: applied,
	}
}
