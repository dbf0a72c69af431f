package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-undo/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-undo/internal/repository"
	"github.com/rocketscienceinc/tictactoe-undo/internal/tictactoe"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	Update(ctx context.Context, id string, mutate repository.MutateFunc) (*entity.Game, bool, error)
}

// GameManager - owns game sessions. Actions on the same game are applied one at a time: the
// per-game mutex orders them inside the process, the repository's Update guards against other instances.
type GameManager struct {
	logger     *slog.Logger
	gameRepo   gameRepo
	controller *tictactoe.GameController

	locksMu sync.Mutex
	locks   map[string]*gameLock
}

type gameLock struct {
	sync.Mutex
	refs int
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, controller *tictactoe.GameController) *GameManager {
	return &GameManager{
		logger:     logger.With("component", "game_manager"),
		gameRepo:   gameRepo,
		controller: controller,

		locks: make(map[string]*gameLock),
	}
}

func (that *GameManager) CreateGame(ctx context.Context) (*entity.Game, error) {
	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("error generating game ID: %w", err)
	}

	game := entity.NewGame(gameID)
	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game created", "game_id", gameID)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	unlock := that.lock(id)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "game_id", id)

	return nil
}

// MakeMove - plays cell for whoever's turn it is. An occupied cell or a finished game is not an
// error: the unchanged game is returned with applied == false.
func (that *GameManager) MakeMove(ctx context.Context, id string, cell int) (*entity.Game, bool, error) {
	if !entity.IsValidCell(cell) {
		return nil, false, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	return that.apply(ctx, id, tictactoe.Move(cell))
}

// UndoLast - takes back the most recent move; applied is false when there is nothing to undo.
func (that *GameManager) UndoLast(ctx context.Context, id string) (*entity.Game, bool, error) {
	return that.apply(ctx, id, tictactoe.Undo())
}

func (that *GameManager) apply(ctx context.Context, id string, action tictactoe.Action) (*entity.Game, bool, error) {
	log := that.logger.With("method", "apply", "game_id", id, "action", action.Kind)

	unlock := that.lock(id)
	defer unlock()

	next, applied, err := that.gameRepo.Update(ctx, id, func(game *entity.Game) (*entity.Game, bool) {
		next, ok := that.controller.Reduce(game, action)
		if ok {
			next.UpdatedAt = time.Now()
		}
		return next, ok
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to update game: %w", err)
	}

	if !applied {
		log.Debug("action ignored", "count", next.Count, "winner", next.Winner())
		return next, false, nil
	}

	if next.IsFinished() {
		log.Info("game won", "winner", next.Winner(), "count", next.Count)
	}

	return next, true, nil
}

// lock - acquires the per-game mutex and returns its release func.
func (that *GameManager) lock(id string) func() {
	that.locksMu.Lock()
	l, ok := that.locks[id]
	if !ok {
		l = &gameLock{}
		that.locks[id] = l
	}
	l.refs++
	that.locksMu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		that.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(that.locks, id)
		}
		that.locksMu.Unlock()
	}
}
