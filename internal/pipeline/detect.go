package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/metrics"
	"crowd-monitor-go/internal/render"
)

// Annotator рисует сводку поверх кадра, не изменяя исходный кадр
type Annotator interface {
	Annotate(frame image.Image, o render.Overlay) image.Image
}

// FailurePolicy поведение при ошибке детектора на кадре
type FailurePolicy string

const (
	// FailAbort прерывает весь прогон
	FailAbort FailurePolicy = "abort"
	// FailSkip пропускает кадр и продолжает
	FailSkip FailurePolicy = "skip"
)

// errDetectTimeout детектор не уложился в отведённое время
var errDetectTimeout = errors.New("detection timed out")

type detectResult struct {
	detections []detector.Detection
	err        error
}

// frameDetector вызывает детектор для одного кадра с ограничением по времени
type frameDetector struct {
	detector detector.Detector
	class    string
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// detect синхронно с точки зрения конвейера. Зависший вызов детектора
// отпускается по таймауту, его результат отбрасывается.
func (d *frameDetector) detect(ctx context.Context, frame image.Image) ([]detector.Detection, error) {
	detectCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		detectCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan detectResult, 1)
	go func() {
		dets, err := d.detector.Detect(detectCtx, frame, d.class)
		done <- detectResult{detections: dets, err: err}
	}()

	select {
	case res := <-done:
		d.metrics.ObserveDetection(time.Since(start))
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", detector.ErrUnavailable, res.err)
		}
		return res.detections, nil
	case <-detectCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w after %s", detector.ErrUnavailable, errDetectTimeout, d.timeout)
	}
}
