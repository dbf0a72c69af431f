package pkg

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateGameID - generates a new unique game ID.
func GenerateGameID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}

	return id.String(), nil
}
