package apperror

import "errors"

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrCorruptedGame = errors.New("game state is corrupted")
	ErrUnknownAction = errors.New("unknown action")
)
