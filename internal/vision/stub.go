//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
)

// ErrNotBuilt сборка без тега gocv
var ErrNotBuilt = errors.New("gocv build tag is not enabled")

// YOLODetector заглушка без OpenCV
type YOLODetector struct{}

// NewYOLODetector возвращает ошибку, если сборка без тега gocv
func NewYOLODetector(modelPath string, minScore, nms float64) (*YOLODetector, error) {
	return nil, ErrNotBuilt
}

func (d *YOLODetector) Detect(ctx context.Context, frame image.Image, class string) ([]detector.Detection, error) {
	return nil, ErrNotBuilt
}

func (d *YOLODetector) Close() error {
	return nil
}

// CaptureBackend заглушка без OpenCV
type CaptureBackend struct{}

// NewCaptureBackend возвращает ошибку, если сборка без тега gocv
func NewCaptureBackend(codec string) (*CaptureBackend, error) {
	return nil, ErrNotBuilt
}

func (b *CaptureBackend) Name() string {
	return "gocv"
}

func (b *CaptureBackend) OpenSource(ctx context.Context, path string) (media.Source, error) {
	return nil, ErrNotBuilt
}

func (b *CaptureBackend) CreateSink(path string, props media.VideoProperties) (media.Sink, error) {
	return nil, ErrNotBuilt
}
