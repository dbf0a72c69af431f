package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

const (
	gameKeyPrefix = "game:"

	maxUpdateRetries = 10
)

var ErrUpdateConflict = errors.New("game changed concurrently")

// MutateFunc - derives the next state from the stored one; ok false leaves storage untouched.
type MutateFunc func(game *entity.Game) (next *entity.Game, ok bool)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error

	// Update - atomic read-modify-write. Returns the stored game when mutate declines.
	Update(ctx context.Context, id string, mutate MutateFunc) (*entity.Game, bool, error)
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository - Redis backed repository. Every write refreshes the key expiry to ttl; zero keeps games forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	err = that.client.Set(ctx, gameKeyPrefix+game.ID, gameJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	return getGame(ctx, that.client, id)
}

// Update - optimistic compare-and-set: the key is WATCHed, and the write is retried from a fresh
// read when another writer touched it in between.
func (that *dbGame) Update(ctx context.Context, id string, mutate MutateFunc) (*entity.Game, bool, error) {
	key := gameKeyPrefix + id

	var (
		result  *entity.Game
		applied bool
	)

	txf := func(tx *redis.Tx) error {
		game, err := getGame(ctx, tx, id)
		if err != nil {
			return err
		}

		next, ok := mutate(game)
		if !ok {
			result, applied = game, false
			return nil
		}

		gameJSON, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, that.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result, applied = next, true
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, false, fmt.Errorf("failed to update game: %w", err)
		}

		return result, applied, nil
	}

	return nil, false, fmt.Errorf("%w: %s", ErrUpdateConflict, id)
}

func getGame(ctx context.Context, client redis.StringCmdable, id string) (*entity.Game, error) {
	response, err := client.Get(ctx, gameKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	if existingGame.History == nil {
		existingGame.History = []int{}
	}

	if err = existingGame.Validate(); err != nil {
		return nil, fmt.Errorf("game %s: %w", id, err)
	}

	return &existingGame, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, gameKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}
