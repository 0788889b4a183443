package service

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/pipeline"
)

// OutputPrefix префикс имени обработанного файла
const OutputPrefix = "processed_"

// AnalyzerService запускает конвейер, подходящий типу файла
type AnalyzerService struct {
	video     *pipeline.VideoPipeline
	image     *pipeline.ImagePipeline
	detector  detector.Detector
	backend   string
	outputDir string
	outputURL string
	logger    *logrus.Logger
}

// NewAnalyzerService создает новый сервис анализатора.
// outputURL префикс, по которому outputDir раздаётся по HTTP.
func NewAnalyzerService(video *pipeline.VideoPipeline, image *pipeline.ImagePipeline, det detector.Detector, backend, outputDir, outputURL string, logger *logrus.Logger) *AnalyzerService {
	return &AnalyzerService{
		video:     video,
		image:     image,
		detector:  det,
		backend:   backend,
		outputDir: outputDir,
		outputURL: outputURL,
		logger:    logger,
	}
}

// OutputName имя обработанного файла
func OutputName(filename string) string {
	return OutputPrefix + filepath.Base(filename)
}

// Analyze обрабатывает сохранённый файл. displayName используется для
// имени результата и определения типа.
func (s *AnalyzerService) Analyze(ctx context.Context, sourcePath, displayName string) (*Outcome, error) {
	kind, err := media.KindOf(displayName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	name := OutputName(displayName)
	outputPath := ""
	if s.outputDir != "" {
		outputPath = filepath.Join(s.outputDir, name)
	}
	webURL := ""
	if s.outputURL != "" && outputPath != "" {
		webURL = path.Join(s.outputURL, name)
	}

	s.logger.WithFields(logrus.Fields{
		"file": displayName,
		"kind": kind.String(),
	}).Info("Начинаем анализ файла")

	outcome := &Outcome{Kind: kind}
	switch kind {
	case media.KindVideo:
		res, err := s.video.Run(ctx, pipeline.VideoRequest{SourcePath: sourcePath, OutputPath: outputPath})
		outcome.Video = res
		if err != nil {
			return outcome, err
		}
		if res.OutputPath == "" {
			webURL = ""
		}
		outcome.ID = res.RunID
		outcome.Response = videoResponse(res, webURL)
	case media.KindImage:
		res, err := s.image.Run(ctx, pipeline.ImageRequest{SourcePath: sourcePath, OutputPath: outputPath})
		outcome.Image = res
		if err != nil {
			return outcome, err
		}
		if res.OutputPath == "" {
			webURL = ""
		}
		outcome.ID = res.RunID
		outcome.Response = imageResponse(res, webURL)
	default:
		return nil, fmt.Errorf("%w: unsupported media kind", ErrInvalidInput)
	}

	return outcome, nil
}

// CheckHealth проверяет доступность детектора
func (s *AnalyzerService) CheckHealth(ctx context.Context) error {
	hc, ok := s.detector.(detector.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.CheckHealth(ctx); err != nil {
		s.logger.Errorf("Детектор недоступен: %v", err)
		return err
	}
	return nil
}

// Backend имя видео бэкенда
func (s *AnalyzerService) Backend() string {
	return s.backend
}
