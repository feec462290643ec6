package fund

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"000001", "000001", false},
		{"1", "000001", false},
		{" 110022 ", "110022", false},
		{"#161725", "161725", false},
		{"", "", true},
		{"abc", "", true},
		{"1234567", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeCode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidCode, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "watchlist.json")

	m, err := NewManager(path, []string{"1", "110022", "bad"})
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "110022"}, m.Codes())

	added, err := m.Add("161725")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.Add("000001")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := m.Remove("110022")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = m.Remove("999999")
	require.NoError(t, err)
	assert.False(t, removed)

	reloaded, err := NewManager(path, []string{"888888"})
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "161725"}, reloaded.Codes(), "seed only applies to an empty list")
}

func TestManager_CodesIsACopy(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "w.json"), []string{"000001"})
	require.NoError(t, err)
	codes := m.Codes()
	codes[0] = "changed"
	assert.Equal(t, []string{"000001"}, m.Codes())
}

func TestManager_FailedSaveLeavesListUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.json")
	m, err := NewManager(path, []string{"000001", "110022"})
	require.NoError(t, err)

	// A directory at the state path makes every write fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	added, err := m.Add("161725")
	require.Error(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"000001", "110022"}, m.Codes())

	removed, err := m.Remove("000001")
	require.Error(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"000001", "110022"}, m.Codes())
}
