package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/twlm/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	log, err := logger.New(dir, false)
	require.NoError(t, err)

	log.Info("game config saved", zap.String("game", "warhammer_3"))
	log.Debug("hidden at info level")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(filepath.Join(dir, logger.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO")
	assert.Contains(t, string(data), "game config saved")
	assert.Contains(t, string(data), "warhammer_3")
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestNew_VerboseIncludesDebug(t *testing.T) {
	dir := t.TempDir()

	log, err := logger.New(dir, true)
	require.NoError(t, err)
	log.Debug("scanning data dir")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(filepath.Join(dir, logger.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "scanning data dir")
}

func TestNew_Appends(t *testing.T) {
	dir := t.TempDir()

	for _, msg := range []string{"first run", "second run"} {
		log, err := logger.New(dir, false)
		require.NoError(t, err)
		log.Info(msg)
		require.NoError(t, log.Sync())
	}

	data, err := os.ReadFile(filepath.Join(dir, logger.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, logger.OrNop(nil))

	log := zap.NewExample()
	assert.Same(t, log, logger.OrNop(log))
}
