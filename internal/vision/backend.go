//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"crowd-monitor-go/internal/media"
)

// CaptureBackend чтение и запись видео через OpenCV VideoCapture/VideoWriter
type CaptureBackend struct {
	// Codec FourCC выходного видео
	Codec string
}

// NewCaptureBackend создаёт бэкенд. Пустой codec означает mp4v.
func NewCaptureBackend(codec string) (*CaptureBackend, error) {
	if codec == "" {
		codec = "mp4v"
	}
	return &CaptureBackend{Codec: codec}, nil
}

func (b *CaptureBackend) Name() string {
	return "gocv"
}

// OpenSource открывает видеофайл
func (b *CaptureBackend) OpenSource(ctx context.Context, path string) (media.Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("could not open video file %s", path)
	}

	props := media.VideoProperties{
		Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        vc.Get(gocv.VideoCaptureFPS),
		FrameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
	}
	return &captureSource{vc: vc, props: props, mat: gocv.NewMat()}, nil
}

type captureSource struct {
	vc    *gocv.VideoCapture
	props media.VideoProperties
	mat   gocv.Mat
}

func (s *captureSource) Properties() media.VideoProperties {
	return s.props
}

func (s *captureSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	return s.mat.ToImage()
}

func (s *captureSource) Close() error {
	_ = s.mat.Close()
	return s.vc.Close()
}

// CreateSink открывает VideoWriter на временный файл
func (b *CaptureBackend) CreateSink(path string, props media.VideoProperties) (media.Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}
	fps := props.FPS
	if fps <= 0 {
		fps = 25
	}
	vw, err := gocv.VideoWriterFile(media.PartialPath(path), b.Codec, fps, props.Width, props.Height, true)
	if err != nil {
		return nil, err
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("could not create output video %s", path)
	}
	return &writerSink{vw: vw, path: path}, nil
}

type writerSink struct {
	vw     *gocv.VideoWriter
	path   string
	closed bool
}

func (s *writerSink) Write(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return err
	}
	defer mat.Close()
	return s.vw.Write(mat)
}

func (s *writerSink) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.vw.Close()
}

func (s *writerSink) Commit() error {
	if err := s.close(); err != nil {
		_ = media.DiscardPartial(s.path)
		return err
	}
	return media.CommitPartial(s.path)
}

func (s *writerSink) Discard() error {
	_ = s.close()
	return media.DiscardPartial(s.path)
}
