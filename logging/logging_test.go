package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileModeSetFlagValue(t *testing.T) {
	var m FileMode
	require.NoError(t, m.Set("truncate"))
	assert.Equal(t, FileModeTruncate, m)
	assert.Equal(t, "truncate", m.String())

	require.NoError(t, m.Set(""))
	assert.Equal(t, FileModeAppend, m)

	assert.Error(t, m.Set("bogus"))
}

func TestOpenFileAppendWritesToGivenPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader.log")
	ws, err := OpenFile(path, FileModeAppend)
	require.NoError(t, err)
	_, err = ws.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, ws.Sync())

	ws2, err := OpenFile(path, FileModeAppend)
	require.NoError(t, err)
	_, err = ws2.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, ws2.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestOpenFileTruncateOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader.log")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	ws, err := OpenFile(path, FileModeTruncate)
	require.NoError(t, err)
	_, err = ws.Write([]byte("fresh"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestOpenFileSpecialPaths(t *testing.T) {
	ws, err := OpenFile("/dev/null", FileModeAppend)
	require.NoError(t, err)
	_, err = ws.Write([]byte("discarded"))
	require.NoError(t, err)
}

func TestNewBuildsLoggerWithReaderID(t *testing.T) {
	logger, err := New(Config{Path: "/dev/null", Level: zapcore.InfoLevel})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync()
	logger.Info("test message")
}
