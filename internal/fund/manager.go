// Package fund keeps the persisted watchlist of fund codes evaluated by the daily batch.
package fund

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"FundSentinel/internal/model"
)

// ErrInvalidCode is returned for codes that cannot be normalized to six digits.
var ErrInvalidCode = errors.New("invalid fund code")

// NormalizeCode keeps the digits of code and left-pads them to six.
func NormalizeCode(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" || len(digits) > 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return strings.Repeat("0", 6-len(digits)) + digits, nil
}

// Manager handles watchlist operations with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.WatchlistState
	filePath string
}

// NewManager creates a Manager, loading state from disk. An empty list is
// seeded with seed.
func NewManager(filePath string, seed []string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	m := &Manager{state: state, filePath: filePath}
	if len(state.Codes) == 0 && len(seed) > 0 {
		for _, c := range seed {
			if _, err := m.add(c); err != nil {
				log.Warn().Err(err).Msg("skipping watchlist seed")
			}
		}
		if err := m.save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Codes returns a copy of the watched codes in insertion order.
func (m *Manager) Codes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.Codes)
}

// Add watches code. It reports false when the code was already present.
// A failed save leaves the list unchanged.
func (m *Manager) Add(code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added, err := m.add(code)
	if err != nil || !added {
		return added, err
	}
	if err := m.save(); err != nil {
		m.state.Codes = m.state.Codes[:len(m.state.Codes)-1]
		return false, err
	}
	return true, nil
}

// Remove stops watching code. It reports false when the code was absent.
func (m *Manager) Remove(code string) (bool, error) {
	norm, err := NormalizeCode(code)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.Index(m.state.Codes, norm)
	if i < 0 {
		return false, nil
	}
	prev := m.state.Codes
	m.state.Codes = slices.Delete(slices.Clone(prev), i, i+1)
	if err := m.save(); err != nil {
		m.state.Codes = prev
		return false, err
	}
	return true, nil
}

func (m *Manager) add(code string) (bool, error) {
	norm, err := NormalizeCode(code)
	if err != nil {
		return false, err
	}
	if slices.Contains(m.state.Codes, norm) {
		return false, nil
	}
	m.state.Codes = append(m.state.Codes, norm)
	return true, nil
}

func (m *Manager) save() error {
	if err := SaveState(m.filePath, m.state); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}
