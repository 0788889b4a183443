package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"crowd-monitor-go/internal/config"
)

func TestServeRejectsGRPCBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Detector.Backend = "grpc"
	require.Error(t, serve(context.Background(), cfg, "127.0.0.1:0"))
}

func TestServeRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Detector.Backend = "tflite"
	cfg.Logging.Level = "error"
	require.Error(t, serve(context.Background(), cfg, "127.0.0.1:0"))
}
