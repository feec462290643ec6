package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"FundSentinel/internal/model"
)

// FileCache stores one JSON file per fund under Dir. An entry is only valid
// for the day it was written.
type FileCache struct {
	mu  sync.Mutex
	dir string
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(code string) string {
	return filepath.Join(c.dir, code+".json")
}

// Load returns the history saved for code on day, or ErrMiss.
func (c *FileCache) Load(_ context.Context, code, day string) ([]model.PricePoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(code))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read cache %s: %w", code, err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", code, err)
	}
	if e.Day != day {
		return nil, ErrMiss
	}
	return e.Points, nil
}

// Save replaces the entry of code.
func (c *FileCache) Save(_ context.Context, code, day string, points []model.PricePoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(entry{Day: day, Points: points}, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path(code) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", code, err)
	}
	return os.Rename(tmp, c.path(code))
}
