package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/crowd"
	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/metrics"
	"crowd-monitor-go/internal/render"
)

// Options настройки конвейера
type Options struct {
	WindowSize    int
	Class         string
	DetectTimeout time.Duration
	OnDetectError FailurePolicy
	ProgressEvery int
}

func (o Options) withDefaults() Options {
	if o.WindowSize <= 0 {
		o.WindowSize = crowd.DefaultWindowSize
	}
	if o.Class == "" {
		o.Class = detector.PersonClass
	}
	if o.OnDetectError == "" {
		o.OnDetectError = FailAbort
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = 30
	}
	return o
}

// VideoPipeline покадровый анализ видео. Значение не хранит состояния прогона
// и может использоваться конкурентно.
type VideoPipeline struct {
	detect    *frameDetector
	backend   media.VideoBackend
	annotator Annotator
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	opts      Options
}

// NewVideoPipeline создаёт конвейер. annotator и m могут быть nil.
func NewVideoPipeline(det detector.Detector, backend media.VideoBackend, annotator Annotator, m *metrics.Metrics, logger *logrus.Logger, opts Options) *VideoPipeline {
	opts = opts.withDefaults()
	return &VideoPipeline{
		detect: &frameDetector{
			detector: det,
			class:    opts.Class,
			timeout:  opts.DetectTimeout,
			metrics:  m,
		},
		backend:   backend,
		annotator: annotator,
		metrics:   m,
		logger:    logger,
		opts:      opts,
	}
}

// VideoRequest входные данные прогона. Пустой OutputPath отключает запись видео.
type VideoRequest struct {
	SourcePath string
	OutputPath string
}

// VideoResult итог прогона. Summary заполняется только в состоянии Completed.
type VideoResult struct {
	RunID      string
	State      State
	Properties media.VideoProperties
	Summary    *crowd.RunSummary
	OutputPath string
}

// videoRun состояние одного прогона
type videoRun struct {
	p       *VideoPipeline
	result  *VideoResult
	log     *logrus.Entry
	window  *crowd.SlidingWindow
	records []crowd.FrameRecord
	alerts  int
	skipped int
	source  media.Source
	sink    media.Sink
}

// Run обрабатывает видео от первого до последнего кадра строго по порядку
func (p *VideoPipeline) Run(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	run := &videoRun{
		p:      p,
		result: &VideoResult{RunID: uuid.New().String(), State: StateIdle},
		window: crowd.NewSlidingWindow(p.opts.WindowSize),
	}
	run.log = p.logger.WithFields(logrus.Fields{
		"run_id": run.result.RunID,
		"kind":   media.KindVideo.String(),
		"source": req.SourcePath,
	})

	start := time.Now()
	err := run.execute(ctx, req)
	p.metrics.RunFinished(media.KindVideo.String(), string(run.result.State), time.Since(start))
	if err != nil {
		return run.result, err
	}
	return run.result, nil
}

func (r *videoRun) transition(to State) {
	from := r.result.State
	if !canTransition(from, to) {
		r.log.Errorf("Недопустимый переход состояния %s -> %s", from, to)
		return
	}
	r.result.State = to
	r.log.Debugf("Состояние прогона: %s -> %s", from, to)
}

// fail переводит прогон в Failed или Cancelled и удаляет частично записанный результат
func (r *videoRun) fail(ctx context.Context, kind ErrorKind, frame int, err error) error {
	if ctx.Err() != nil && kind != KindSinkWriteFailure {
		kind = KindCancelled
		err = ctx.Err()
	}

	if kind == KindCancelled {
		r.transition(StateCancelled)
		r.log.Warnf("Обработка видео отменена на кадре %d", frame)
	} else {
		r.transition(StateFailed)
		r.log.Errorf("Обработка видео прервана (%s): %v", kind, err)
	}

	if r.sink != nil {
		if derr := r.sink.Discard(); derr != nil {
			r.log.Warnf("Не удалось удалить частичный файл %s: %v", r.result.OutputPath, derr)
		}
		r.sink = nil
	}
	r.result.OutputPath = ""
	return newError(kind, frame, err)
}

func (r *videoRun) execute(ctx context.Context, req VideoRequest) error {
	r.transition(StateInitializing)

	if err := ctx.Err(); err != nil {
		return r.fail(ctx, KindCancelled, -1, err)
	}

	src, err := r.p.backend.OpenSource(ctx, req.SourcePath)
	if err != nil {
		return r.fail(ctx, KindSourceUnavailable, -1, fmt.Errorf("could not open video file: %w", err))
	}
	r.source = src
	defer func() {
		if cerr := r.source.Close(); cerr != nil {
			r.log.Warnf("Ошибка закрытия источника: %v", cerr)
		}
	}()

	props := src.Properties()
	r.result.Properties = props

	if req.OutputPath != "" {
		sink, err := r.p.backend.CreateSink(req.OutputPath, props)
		if err != nil {
			return r.fail(ctx, KindSinkWriteFailure, -1, fmt.Errorf("could not create output video: %w", err))
		}
		r.sink = sink
		r.result.OutputPath = req.OutputPath
	}

	r.log.Infof("Обработка видео: %dx%d, FPS: %.2f, кадров: %d", props.Width, props.Height, props.FPS, props.FrameCount)
	r.transition(StateStreaming)

	if err := r.stream(ctx); err != nil {
		return err
	}

	r.transition(StateFinalizing)
	summary := crowd.BuildSummary(r.records, r.skipped, props.FPS)

	if r.sink != nil {
		if err := r.sink.Commit(); err != nil {
			return r.fail(ctx, KindSinkWriteFailure, -1, err)
		}
		r.sink = nil
	}

	r.result.Summary = &summary
	r.transition(StateCompleted)
	r.log.Infof("Обработка завершена: в среднем %d человек, плотность %s, кадров %d, тревожных %d, пропущено %d",
		summary.AveragePeople, summary.Density, summary.TotalFrames, r.alerts, summary.SkippedFrames)
	return nil
}

// stream читает кадры до исчерпания источника
func (r *videoRun) stream(ctx context.Context) error {
	props := r.result.Properties
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, KindCancelled, index, err)
		}

		frame, err := r.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return r.fail(ctx, KindSourceUnavailable, index, fmt.Errorf("could not decode frame: %w", err))
		}

		if err := r.processFrame(ctx, index, frame); err != nil {
			return err
		}

		if read := index + 1; read%r.p.opts.ProgressEvery == 0 {
			if props.FrameCount > 0 {
				r.log.Infof("Обработка: %.1f%% завершено", float64(read)/float64(props.FrameCount)*100)
			} else {
				r.log.Infof("Обработано кадров: %d", read)
			}
		}
	}
}

func (r *videoRun) processFrame(ctx context.Context, index int, frame image.Image) error {
	detections, err := r.p.detect.detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil || r.p.opts.OnDetectError != FailSkip {
			return r.fail(ctx, KindDetectionUnavailable, index, err)
		}
		r.skipped++
		r.p.metrics.FrameSkipped()
		r.log.Warnf("Кадр %d пропущен: %v", index, err)
		return r.write(ctx, index, frame)
	}

	count := len(detections)
	avg := r.window.Push(count)
	level, _ := crowd.Classify(avg)
	if level.IsAlert() {
		r.alerts++
	}
	r.records = append(r.records, crowd.FrameRecord{
		Frame:       index,
		PeopleCount: count,
		AvgCount:    avg,
		Density:     level,
	})
	r.p.metrics.FrameProcessed(level.IsAlert())

	if r.sink == nil {
		return nil
	}
	out := frame
	if r.p.annotator != nil {
		out = r.p.annotator.Annotate(frame, render.Overlay{Count: avg, Level: level, Detections: detections})
	}
	return r.write(ctx, index, out)
}

func (r *videoRun) write(ctx context.Context, index int, frame image.Image) error {
	if r.sink == nil {
		return nil
	}
	if err := r.sink.Write(frame); err != nil {
		return r.fail(ctx, KindSinkWriteFailure, index, err)
	}
	return nil
}
