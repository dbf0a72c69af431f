package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

// memoryGame - process local repository; games live until deleted or the process exits.
type memoryGame struct {
	mu    sync.RWMutex
	games map[string]*entity.Game
}

func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]*entity.Game),
	}
}

func (that *memoryGame) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game.Clone()

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return game.Clone(), nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return apperror.ErrGameNotFound
	}

	delete(that.games, id)

	return nil
}

func (that *memoryGame) Update(_ context.Context, id string, mutate MutateFunc) (*entity.Game, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, false, apperror.ErrGameNotFound
	}

	next, ok := mutate(game.Clone())
	if !ok {
		return game.Clone(), false, nil
	}

	that.games[id] = next.Clone()

	return next, true, nil
}
