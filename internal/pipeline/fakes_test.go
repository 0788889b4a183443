package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/render"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// countFrame кадр 1x1, красный канал которого задаёт число людей
func countFrame(n int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: uint8(n), A: 255})
	return img
}

func frameCount(img image.Image) int {
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return int(r >> 8)
}

func framesOf(counts ...int) []image.Image {
	out := make([]image.Image, len(counts))
	for i, c := range counts {
		out[i] = countFrame(c)
	}
	return out
}

// countingDetector возвращает столько людей, сколько закодировано в кадре
type countingDetector struct {
	mu     sync.Mutex
	calls  int
	failAt map[int]bool
	onCall func(call int)
}

func (d *countingDetector) Detect(ctx context.Context, frame image.Image, class string) ([]detector.Detection, error) {
	d.mu.Lock()
	call := d.calls
	d.calls++
	d.mu.Unlock()

	if d.onCall != nil {
		d.onCall(call)
	}
	if d.failAt[call] {
		return nil, errors.New("inference failed")
	}

	n := frameCount(frame)
	out := make([]detector.Detection, n)
	for i := range out {
		out[i] = detector.Detection{Class: class, Score: 1, Box: image.Rect(0, 0, 1, 1)}
	}
	return out, nil
}

type fakeSource struct {
	frames []image.Image
	props  media.VideoProperties
	next   int
	closed bool
}

func (s *fakeSource) Properties() media.VideoProperties { return s.props }

func (s *fakeSource) Next(ctx context.Context) (image.Image, error) {
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	written   []image.Image
	committed bool
	discarded bool
	writeErr  error
	commitErr error
}

func (s *fakeSink) Write(frame image.Image) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written = append(s.written, frame)
	return nil
}

func (s *fakeSink) Commit() error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed = true
	return nil
}

func (s *fakeSink) Discard() error {
	s.discarded = true
	return nil
}

type fakeBackend struct {
	source  *fakeSource
	sink    *fakeSink
	openErr error
	sinkErr error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) OpenSource(ctx context.Context, path string) (media.Source, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.source, nil
}

func (b *fakeBackend) CreateSink(path string, props media.VideoProperties) (media.Sink, error) {
	if b.sinkErr != nil {
		return nil, b.sinkErr
	}
	return b.sink, nil
}

func newBackend(fps float64, counts ...int) *fakeBackend {
	return &fakeBackend{
		source: &fakeSource{
			frames: framesOf(counts...),
			props:  media.VideoProperties{Width: 1, Height: 1, FPS: fps, FrameCount: len(counts)},
		},
		sink: &fakeSink{},
	}
}

type recordingAnnotator struct {
	overlays []render.Overlay
}

func (a *recordingAnnotator) Annotate(frame image.Image, o render.Overlay) image.Image {
	a.overlays = append(a.overlays, o)
	return frame
}
