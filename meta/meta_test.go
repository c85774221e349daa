package meta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
engine:
  transport: websocket
  url: ws://localhost:8000/showdown/websocket
search:
  simulations: 0
  duration: 250ms
  evaluator: hp
  seed: 42
slots: 2
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		require.Equal(t, "websocket", cfg.Engine.Transport)
		require.Equal(t, 250*time.Millisecond, cfg.Search.Duration)
		require.Equal(t, 0, cfg.Search.Simulations)
		require.Equal(t, "hp", cfg.Search.Evaluator)
		require.Equal(t, uint64(42), cfg.Search.Seed)
		require.Equal(t, 2, cfg.Slots)
		require.Equal(t, WITH_CUTOFF, cfg.Search.Cutoff, "unset keys keep defaults")
		require.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

		require.Error(t, err)
	})

	t.Run("invalid settings are rejected", func(t *testing.T) {
		for _, body := range []string{
			"engine: {transport: carrier-pigeon}",
			"engine: {transport: websocket}",
			"search: {simulations: 0}",
			"slots: 0",
			"search: {evaluator: material}",
			"search: [",
		} {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err, body)
		}
	})
}

func TestDefault(t *testing.T) {
	require.NoError(t, Default().Validate())
	require.Equal(t, ENGINE_COMMAND, Default().Engine.Command)
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	require.NoError(t, SetupLogging("debug", false))
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	require.Error(t, SetupLogging("loud", false))
}
