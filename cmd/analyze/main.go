package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"crowd-monitor-go/internal/app"
	"crowd-monitor-go/internal/config"
	"crowd-monitor-go/internal/pipeline"
	"crowd-monitor-go/internal/render"
	"crowd-monitor-go/internal/service"
)

// Коды завершения по категории ошибки
const (
	exitOK                   = 0
	exitFailure              = 1
	exitInvalidInput         = 2
	exitSourceUnavailable    = 3
	exitDetectionUnavailable = 4
	exitSinkWriteFailure     = 5
	exitCancelled            = 130
)

type options struct {
	outputDir     string
	noOutput      bool
	noOverlay     bool
	windowSize    int
	onDetectError string
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadConfig()
	opts := options{
		outputDir:     cfg.Storage.OutputDir,
		windowSize:    cfg.Pipeline.WindowSize,
		onDetectError: cfg.Pipeline.OnDetectError,
	}
	code := exitOK

	cmd := &cobra.Command{
		Use:           "crowd-analyze <file>",
		Short:         "Анализ плотности толпы на видео или изображении",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Pipeline.WindowSize = opts.windowSize
			cfg.Pipeline.OnDetectError = opts.onDetectError
			err := analyze(cmd.Context(), cfg, opts, args[0])
			code = exitCode(err)
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.outputDir, "output-dir", "o", opts.outputDir, "папка для обработанного файла")
	fs.BoolVar(&opts.noOutput, "no-output", false, "не сохранять обработанный файл")
	fs.BoolVar(&opts.noOverlay, "no-overlay", false, "не рисовать разметку на кадрах")
	fs.IntVar(&opts.windowSize, "window", opts.windowSize, "размер скользящего окна, кадров")
	fs.StringVar(&opts.onDetectError, "on-detect-error", opts.onDetectError, "поведение при ошибке детектора: abort или skip")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		if code == exitOK {
			code = exitFailure
		}
	}
	return code
}

func analyze(ctx context.Context, cfg *config.Config, opts options, path string) error {
	logger := app.NewLogger(cfg)
	logger.SetOutput(os.Stderr)

	det, closer, err := app.NewDetector(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	backend, err := app.NewVideoBackend(cfg)
	if err != nil {
		return err
	}

	pipelineOpts, err := app.PipelineOptions(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	var annotator pipeline.Annotator
	if !opts.noOverlay {
		a, err := render.NewAnnotator()
		if err != nil {
			return err
		}
		annotator = a
	}

	outputDir := opts.outputDir
	if opts.noOutput {
		outputDir = ""
	}

	video := pipeline.NewVideoPipeline(det, backend, annotator, nil, logger, pipelineOpts)
	img := pipeline.NewImagePipeline(det, annotator, nil, logger, pipelineOpts)
	analyzer := service.NewAnalyzerService(video, img, det, backend.Name(), outputDir, "", logger)

	outcome, err := analyzer.Analyze(ctx, path, filepath.Base(path))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Response)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, service.ErrInvalidInput) {
		return exitInvalidInput
	}
	kind, ok := pipeline.KindOf(err)
	if !ok {
		return exitFailure
	}
	switch kind {
	case pipeline.KindSourceUnavailable:
		return exitSourceUnavailable
	case pipeline.KindDetectionUnavailable:
		return exitDetectionUnavailable
	case pipeline.KindSinkWriteFailure:
		return exitSinkWriteFailure
	case pipeline.KindCancelled:
		return exitCancelled
	}
	return exitFailure
}
