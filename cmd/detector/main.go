package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"crowd-monitor-go/internal/app"
	"crowd-monitor-go/internal/config"
	"crowd-monitor-go/internal/rpc"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cfg := config.LoadConfig()
	listen := ":50051"

	cmd := &cobra.Command{
		Use:          "crowd-detector",
		Short:        "gRPC сервис детекции людей на кадре",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, listen)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&listen, "listen", listen, "адрес gRPC сервера")
	fs.StringVar(&cfg.Detector.Backend, "backend", "gocv", "детектор за сервисом: gocv или http")
	fs.StringVar(&cfg.Detector.ModelPath, "model", cfg.Detector.ModelPath, "путь к ONNX модели")
	fs.StringVar(&cfg.Detector.BaseURL, "detector-url", cfg.Detector.BaseURL, "адрес HTTP детектора")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, listen string) error {
	if strings.EqualFold(cfg.Detector.Backend, "grpc") {
		return fmt.Errorf("detector service cannot proxy to another gRPC detector")
	}

	logger := app.NewLogger(cfg)
	det, closer, err := app.NewDetector(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	srv := grpc.NewServer()
	rpc.Register(srv, det, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("Остановка сервиса детекции...")
		srv.GracefulStop()
	}()

	logger.WithFields(logrus.Fields{
		"listen":  listen,
		"backend": cfg.Detector.Backend,
	}).Info("Сервис детекции запущен")
	return srv.Serve(lis)
}
