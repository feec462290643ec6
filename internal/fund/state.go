package fund

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FundSentinel/internal/model"
)

// LoadState reads the watchlist from a JSON file. Returns an empty list if the file doesn't exist.
func LoadState(filePath string) (*model.WatchlistState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.WatchlistState{}, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var state model.WatchlistState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	return &state, nil
}

// SaveState writes the watchlist to a JSON file, creating its directory.
func SaveState(filePath string, state *model.WatchlistState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
