package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30, cfg.Pipeline.WindowSize)
	require.Equal(t, "abort", cfg.Pipeline.OnDetectError)
	require.Equal(t, 500, cfg.Storage.MaxUploadMB)
	require.Equal(t, int64(500)<<20, cfg.MaxUploadBytes())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WINDOW_SIZE", "10")
	t.Setenv("ON_DETECT_ERROR", "skip")
	t.Setenv("DETECTOR_TIMEOUT", "250ms")
	t.Setenv("DETECTOR_MIN_SCORE", "0.5")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg := LoadConfig()
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 10, cfg.Pipeline.WindowSize)
	require.Equal(t, "skip", cfg.Pipeline.OnDetectError)
	require.Equal(t, 250*time.Millisecond, cfg.Detector.Timeout)
	require.InDelta(t, 0.5, cfg.Detector.MinScore, 1e-9)
	require.Equal(t, "memory", cfg.Database.Driver)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "7")
	require.Equal(t, 7*time.Second, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "garbage")
	require.Equal(t, time.Second, getEnvDuration("X_TIMEOUT", time.Second))
}

func TestGetEnvInt_Invalid(t *testing.T) {
	t.Setenv("X_INT", "abc")
	require.Equal(t, 3, getEnvInt("X_INT", 3))
}
