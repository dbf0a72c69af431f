package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-undo/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-undo/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playedGame() *entity.Game {
	game := entity.NewGame("123")
	game.Board[0] = entity.PlayerX
	game.Board[4] = entity.PlayerO
	game.History = []int{0, 4}
	game.Count = 2

	return game
}

func TestGameRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage, time.Hour)

	// Given: a game with two moves
	game := playedGame()

	// When: CreateOrUpdate is called
	err := gameRepo.CreateOrUpdate(ctx, game)

	// Then: no error should be returned, and the key expires
	require.NoError(t, err)

	ttl, err := st.Storage.TTL(ctx, "game:"+game.ID).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// Given: a stored game
		game := playedGame()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game.ID, retrievedGame.ID)
		assert.Equal(t, game.Board, retrievedGame.Board)
		assert.Equal(t, game.History, retrievedGame.History)
		assert.Equal(t, game.Count, retrievedGame.Count)
		assert.Equal(t, game.Turn, retrievedGame.Turn)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		assert.Nil(t, retrievedGame)
	})

	t.Run("GetByID_Corrupted", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// Given: a stored game whose history disagrees with its board
		require.NoError(t, st.Storage.Set(ctx, "game:bad", `{"id":"bad","board":["X","","","","","","","",""],"history":[4],"count":1,"player_turn":"O"}`, 0).Err())

		// When: GetByID is called
		_, err := gameRepo.GetByID(ctx, "bad")

		// Then: the game is rejected
		require.ErrorIs(t, err, apperror.ErrCorruptedGame)
	})
}

func TestGameRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// Given: a stored game
		game := playedGame()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: DeleteByID is called with existing ID
		err := gameRepo.DeleteByID(ctx, game.ID)

		// Then: no error should be returned and the game is gone
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameRepository_Update(t *testing.T) {
	t.Run("Update_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		_, _, err := gameRepo.Update(ctx, "9999999", func(game *entity.Game) (*entity.Game, bool) {
			return game, true
		})

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Update_Declined", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)
		controller := tictactoe.NewGameController(st.Logger)

		// Given: a stored game without moves
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, entity.NewGame("123")))

		// When: an undo is attempted
		current, applied, err := gameRepo.Update(ctx, "123", func(game *entity.Game) (*entity.Game, bool) {
			return controller.Reduce(game, tictactoe.Undo())
		})

		// Then: the stored game is returned unchanged
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 0, current.Count)
	})

	t.Run("Update_ConcurrentInstances", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: two repositories on separate connections, as two server instances would have
		other := redis.NewClient(&redis.Options{Addr: st.Storage.Options().Addr})
		t.Cleanup(func() { _ = other.Close() })

		repos := []GameRepository{
			NewGameRepository(st.Storage, time.Hour),
			NewGameRepository(other, time.Hour),
		}
		controller := tictactoe.NewGameController(st.Logger)

		require.NoError(t, repos[0].CreateOrUpdate(ctx, entity.NewGame("123")))

		// When: every cell is played at once, alternating between the instances
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for cell := 0; cell < entity.BoardSize; cell++ {
			wg.Add(1)
			go func(cell int) {
				defer wg.Done()

				_, ok, err := repos[cell%2].Update(ctx, "123", func(game *entity.Game) (*entity.Game, bool) {
					return controller.Reduce(game, tictactoe.Move(cell))
				})
				assert.NoError(t, err)

				if ok {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}(cell)
		}
		wg.Wait()

		// Then: no write was lost
		stored, err := repos[0].GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, applied, stored.Count)
		require.NoError(t, stored.Validate())
	})
}
