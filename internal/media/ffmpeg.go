package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegBackend читает и пишет видео через внешний процесс ffmpeg, без cgo
type FFmpegBackend struct {
	// Codec кодек для итогового видео
	Codec string
}

// NewFFmpegBackend проверяет наличие ffmpeg в PATH
func NewFFmpegBackend(codec string) (*FFmpegBackend, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	if codec == "" {
		codec = "libx264"
	}
	return &FFmpegBackend{Codec: codec}, nil
}

func (b *FFmpegBackend) Name() string {
	return "ffmpeg"
}

type probeResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
}

// probeVideo читает параметры первого видеопотока через ffprobe
func probeVideo(path string) (VideoProperties, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return VideoProperties{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeResult
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return VideoProperties{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		fps := parseRate(s.AvgFrameRate)
		if fps == 0 {
			fps = parseRate(s.RFrameRate)
		}
		frames, _ := strconv.Atoi(s.NbFrames)
		return VideoProperties{
			Width:      s.Width,
			Height:     s.Height,
			FPS:        fps,
			FrameCount: frames,
		}, nil
	}

	return VideoProperties{}, errors.New("no video stream found")
}

// parseRate разбирает частоту кадров вида "30000/1001"
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// OpenSource запускает декодирование в сырой поток rgb24
func (b *FFmpegBackend) OpenSource(ctx context.Context, path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not found: %w", err)
	}

	props, err := probeVideo(path)
	if err != nil {
		return nil, err
	}
	if props.Width <= 0 || props.Height <= 0 {
		return nil, fmt.Errorf("invalid video dimensions %dx%d", props.Width, props.Height)
	}

	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	src := &ffmpegSource{
		props:  props,
		reader: pr,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	stream := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{"format": "rawvideo", "pix_fmt": "rgb24"})
	stream.Context = ctx

	go func() {
		err := stream.WithOutput(pw).Run()
		pw.CloseWithError(err)
		src.done <- err
	}()

	return src, nil
}

type ffmpegSource struct {
	props  VideoProperties
	reader *io.PipeReader
	cancel context.CancelFunc
	done   chan error
	buf    []byte
}

func (s *ffmpegSource) Properties() VideoProperties {
	return s.props
}

// Next читает ровно один кадр из потока
func (s *ffmpegSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := s.props.Width * s.props.Height * 3
	if len(s.buf) != size {
		s.buf = make([]byte, size)
	}

	if _, err := io.ReadFull(s.reader, s.buf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	return fromRGB(s.buf, s.props.Width, s.props.Height), nil
}

func (s *ffmpegSource) Close() error {
	s.cancel()
	s.reader.Close()
	<-s.done
	return nil
}

// CreateSink запускает кодирование сырых кадров во временный файл
func (b *FFmpegBackend) CreateSink(path string, props VideoProperties) (Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	fps := props.FPS
	if fps <= 0 {
		fps = 25
	}

	pr, pw := io.Pipe()
	sink := &ffmpegSink{
		path:   path,
		props:  props,
		writer: pw,
		done:   make(chan error, 1),
	}

	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":  "rawvideo",
		"pix_fmt": "rgb24",
		"s":       fmt.Sprintf("%dx%d", props.Width, props.Height),
		"r":       strconv.FormatFloat(fps, 'f', -1, 64),
	}).
		Output(PartialPath(path), encoderArgs(b.Codec)).
		OverWriteOutput()

	go func() {
		err := stream.WithInput(pr).Run()
		pr.CloseWithError(err)
		sink.done <- err
	}()

	return sink, nil
}

// evenScale приводит размеры кадра к чётным, yuv420p других не принимает
const evenScale = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

func encoderArgs(codec string) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"vcodec":  codec,
		"pix_fmt": "yuv420p",
		"vf":      evenScale,
	}
}

type ffmpegSink struct {
	path   string
	props  VideoProperties
	writer *io.PipeWriter
	done   chan error
	buf    []byte
	closed bool
}

func (s *ffmpegSink) Write(frame image.Image) error {
	s.buf = toRGB(frame, s.props.Width, s.props.Height, s.buf)
	if _, err := s.writer.Write(s.buf); err != nil {
		return fmt.Errorf("failed to write frame to encoder: %w", err)
	}
	return nil
}

// finish закрывает вход кодировщика и ждёт завершения процесса
func (s *ffmpegSink) finish(cause error) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.writer.CloseWithError(cause)
	return <-s.done
}

func (s *ffmpegSink) Commit() error {
	if err := s.finish(nil); err != nil {
		_ = DiscardPartial(s.path)
		return fmt.Errorf("encoder failed: %w", err)
	}
	return CommitPartial(s.path)
}

func (s *ffmpegSink) Discard() error {
	_ = s.finish(errors.New("output discarded"))
	return DiscardPartial(s.path)
}
