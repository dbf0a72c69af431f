package repository

import (
	"context"
	"testing"

	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGameRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores and returns copies", func(t *testing.T) {
		// Given: a stored game
		gameRepo := NewMemoryGameRepository()
		game := playedGame()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: the caller keeps mutating its own value
		game.History[0] = 8
		game.Board[8] = entity.PlayerX

		// Then: the stored game is unaffected
		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 4}, stored.History)
		assert.Equal(t, entity.EmptyCell, stored.Board[8])

		// When: the returned value is mutated
		stored.Count = 7

		// Then: the next read is unaffected as well
		again, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Count)
	})

	t.Run("Update overwrites", func(t *testing.T) {
		gameRepo := NewMemoryGameRepository()
		game := entity.NewGame("1")
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		game.Board[0] = entity.PlayerX
		game.History = []int{0}
		game.Count = 1
		game.Turn = entity.PlayerO
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		stored, err := gameRepo.GetByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Count)
	})

	t.Run("Not found", func(t *testing.T) {
		gameRepo := NewMemoryGameRepository()

		_, err := gameRepo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)

		err = gameRepo.DeleteByID(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		gameRepo := NewMemoryGameRepository()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, entity.NewGame("1")))

		require.NoError(t, gameRepo.DeleteByID(ctx, "1"))

		_, err := gameRepo.GetByID(ctx, "1")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestMemoryGameRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Applied mutation is stored", func(t *testing.T) {
		// Given: a stored empty game
		gameRepo := NewMemoryGameRepository()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, entity.NewGame("1")))

		// When: a move is written through Update
		next, applied, err := gameRepo.Update(ctx, "1", func(game *entity.Game) (*entity.Game, bool) {
			game.Board[4] = entity.PlayerX
			game.History = append(game.History, 4)
			game.Count++
			game.Turn = entity.PlayerO
			return game, true
		})

		// Then: the new state is returned and stored
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 1, next.Count)

		stored, err := gameRepo.GetByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, []int{4}, stored.History)
	})

	t.Run("Declined mutation leaves storage untouched", func(t *testing.T) {
		gameRepo := NewMemoryGameRepository()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, entity.NewGame("1")))

		current, applied, err := gameRepo.Update(ctx, "1", func(game *entity.Game) (*entity.Game, bool) {
			game.Count = 99
			return game, false
		})

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 0, current.Count)

		stored, err := gameRepo.GetByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Count)
	})

	t.Run("Not found", func(t *testing.T) {
		gameRepo := NewMemoryGameRepository()

		_, _, err := gameRepo.Update(ctx, "missing", func(game *entity.Game) (*entity.Game, bool) {
			return game, true
		})

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}
