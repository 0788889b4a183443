package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/crowd"
	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/metrics"
	"crowd-monitor-go/internal/render"
)

// ImagePipeline анализ одного изображения, без скользящего окна
type ImagePipeline struct {
	detect    *frameDetector
	annotator Annotator
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewImagePipeline создаёт конвейер для изображений
func NewImagePipeline(det detector.Detector, annotator Annotator, m *metrics.Metrics, logger *logrus.Logger, opts Options) *ImagePipeline {
	opts = opts.withDefaults()
	return &ImagePipeline{
		detect: &frameDetector{
			detector: det,
			class:    opts.Class,
			timeout:  opts.DetectTimeout,
			metrics:  m,
		},
		annotator: annotator,
		metrics:   m,
		logger:    logger,
	}
}

// ImageRequest входные данные. Пустой OutputPath отключает запись результата.
type ImageRequest struct {
	SourcePath string
	OutputPath string
}

// ImageResult итог анализа изображения
type ImageResult struct {
	RunID       string
	State       State
	PeopleCount int
	Density     crowd.Level
	Width       int
	Height      int
	OutputPath  string
}

// Run считает людей на изображении и классифицирует плотность
func (p *ImagePipeline) Run(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	result := &ImageResult{RunID: uuid.New().String(), State: StateInitializing}
	log := p.logger.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"kind":   media.KindImage.String(),
		"source": req.SourcePath,
	})

	start := time.Now()
	err := p.run(ctx, req, result, log)
	p.metrics.RunFinished(media.KindImage.String(), string(result.State), time.Since(start))
	if err != nil {
		kind, _ := KindOf(err)
		if kind == KindCancelled {
			result.State = StateCancelled
		} else {
			result.State = StateFailed
		}
		result.OutputPath = ""
		log.Errorf("Обработка изображения прервана: %v", err)
		return result, err
	}
	return result, nil
}

func (p *ImagePipeline) run(ctx context.Context, req ImageRequest, result *ImageResult, log *logrus.Entry) error {
	if err := ctx.Err(); err != nil {
		return newError(KindCancelled, -1, err)
	}

	img, err := media.LoadImage(req.SourcePath)
	if err != nil {
		return newError(KindSourceUnavailable, -1, err)
	}
	b := img.Bounds()
	result.Width, result.Height = b.Dx(), b.Dy()

	result.State = StateStreaming
	detections, err := p.detect.detect(ctx, img)
	if err != nil {
		if ctx.Err() != nil {
			return newError(KindCancelled, 0, ctx.Err())
		}
		return newError(KindDetectionUnavailable, 0, err)
	}

	result.PeopleCount = len(detections)
	result.Density = crowd.ClassifyLevel(result.PeopleCount)
	p.metrics.FrameProcessed(result.Density.IsAlert())

	result.State = StateFinalizing
	if req.OutputPath != "" {
		if err := p.writeOutput(img, req.OutputPath, result, detections); err != nil {
			return newError(KindSinkWriteFailure, 0, err)
		}
		result.OutputPath = req.OutputPath
	}

	result.State = StateCompleted
	log.Infof("Изображение обработано: %d человек, плотность %s", result.PeopleCount, result.Density)
	return nil
}

func (p *ImagePipeline) writeOutput(img image.Image, path string, result *ImageResult, detections []detector.Detection) error {
	sink, err := media.NewImageSink(path)
	if err != nil {
		return err
	}

	out := img
	if p.annotator != nil {
		out = p.annotator.Annotate(img, render.Overlay{Count: result.PeopleCount, Level: result.Density, Detections: detections})
	}

	if err := sink.Write(out); err != nil {
		_ = sink.Discard()
		return fmt.Errorf("could not write output image: %w", err)
	}
	if err := sink.Commit(); err != nil {
		_ = sink.Discard()
		return err
	}
	return nil
}
