package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake_WriterAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New().ToWriter(&buf).Level("WARN").Make()
	require.NoError(t, err)

	log.Logger.Info().Msg("hidden")
	log.Logger.Warn().Str("template", "t1").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"template":"t1"`)
	assert.NoError(t, log.Close())
}

func TestMake_UnknownLevelKeepsInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New().ToWriter(&buf).Level("chatty").Make()
	require.NoError(t, err)
	log.Logger.Debug().Msg("debug")
	log.Logger.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"message":"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}

func TestMake_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.log")
	log, err := New().ToFile(path).Make()
	require.NoError(t, err)
	log.Logger.Info().Msg("to file")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
