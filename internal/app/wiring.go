package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/client"
	"crowd-monitor-go/internal/config"
	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/pipeline"
	"crowd-monitor-go/internal/rpc"
	"crowd-monitor-go/internal/vision"
)

// NewLogger создаёт логгер с уровнем из конфигурации
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// NewDetector создаёт детектор по DETECTOR_BACKEND и оборачивает его фильтрами
func NewDetector(cfg *config.Config, logger *logrus.Logger) (detector.Detector, io.Closer, error) {
	var (
		inner  detector.Detector
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(cfg.Detector.Backend) {
	case "http":
		inner = client.NewHTTPDetector(cfg.Detector.BaseURL, cfg.Detector.Timeout, logger)
	case "grpc":
		c, err := rpc.Dial(cfg.Detector.GRPCTarget, logger)
		if err != nil {
			return nil, nil, err
		}
		inner, closer = c, c
	case "gocv":
		d, err := vision.NewYOLODetector(cfg.Detector.ModelPath, cfg.Detector.MinScore, cfg.Detector.NMS)
		if err != nil {
			return nil, nil, fmt.Errorf("could not load local detector: %w", err)
		}
		inner, closer = d, d
	default:
		return nil, nil, fmt.Errorf("unknown detector backend %q", cfg.Detector.Backend)
	}

	var posts []detector.Postprocessor
	if cfg.Detector.MinScore > 0 {
		posts = append(posts, detector.NewScoreFilter(cfg.Detector.MinScore))
	}
	if cfg.Detector.MinArea > 0 {
		posts = append(posts, detector.NewAreaFilter(cfg.Detector.MinArea))
	}
	return detector.WithPostprocessors(inner, posts...), closer, nil
}

// NewVideoBackend создаёт бэкенд чтения и записи видео
func NewVideoBackend(cfg *config.Config) (media.VideoBackend, error) {
	switch strings.ToLower(cfg.Media.Backend) {
	case "ffmpeg":
		b, err := media.NewFFmpegBackend(cfg.Media.Codec)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "gocv":
		b, err := vision.NewCaptureBackend(cfg.Media.Codec)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}
}

// PipelineOptions настройки конвейера из конфигурации
func PipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	policy := pipeline.FailurePolicy(strings.ToLower(cfg.Pipeline.OnDetectError))
	if policy != pipeline.FailAbort && policy != pipeline.FailSkip {
		return pipeline.Options{}, fmt.Errorf("unknown detection failure policy %q", cfg.Pipeline.OnDetectError)
	}
	return pipeline.Options{
		WindowSize:    cfg.Pipeline.WindowSize,
		Class:         detector.PersonClass,
		DetectTimeout: cfg.Detector.Timeout,
		OnDetectError: policy,
		ProgressEvery: cfg.Pipeline.ProgressEvery,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
