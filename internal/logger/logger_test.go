package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	_, err := Setup(Config{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("dropped")
	log.Warn().Str("code", "000001").Msg("fetch failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "000001", entry["code"])
	assert.Equal(t, "fetch failed", entry["message"])
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(Config{Level: "loud"})
	assert.Error(t, err)
}
