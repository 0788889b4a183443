package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"crowd-monitor-go/internal/crowd"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/render"
)

func writePNG(t *testing.T, dir string, count int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(count), A: 255})
		}
	}
	path := filepath.Join(dir, "crowd.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestImagePipeline_CountsAndClassifies(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 17)
	out := filepath.Join(dir, "out", "processed_crowd.png")

	ann, err := render.NewAnnotator()
	require.NoError(t, err)

	p := NewImagePipeline(&countingDetector{}, ann, nil, quietLogger(), Options{})
	res, err := p.Run(context.Background(), ImageRequest{SourcePath: src, OutputPath: out})
	require.NoError(t, err)

	require.Equal(t, StateCompleted, res.State)
	require.Equal(t, 17, res.PeopleCount)
	require.Equal(t, crowd.LevelHigh, res.Density)
	require.Equal(t, 4, res.Width)
	require.Equal(t, 4, res.Height)
	require.Equal(t, out, res.OutputPath)

	require.FileExists(t, out)
	require.NoFileExists(t, media.PartialPath(out))
}

func TestImagePipeline_ZeroPeople(t *testing.T) {
	src := writePNG(t, t.TempDir(), 0)

	p := NewImagePipeline(&countingDetector{}, nil, nil, quietLogger(), Options{})
	res, err := p.Run(context.Background(), ImageRequest{SourcePath: src})
	require.NoError(t, err)
	require.Equal(t, 0, res.PeopleCount)
	require.Equal(t, crowd.LevelLow, res.Density)
	require.Empty(t, res.OutputPath)
}

func TestImagePipeline_MissingSource(t *testing.T) {
	p := NewImagePipeline(&countingDetector{}, nil, nil, quietLogger(), Options{})
	res, err := p.Run(context.Background(), ImageRequest{SourcePath: filepath.Join(t.TempDir(), "none.png")})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindSourceUnavailable, kind)
	require.Equal(t, StateFailed, res.State)
}

func TestImagePipeline_DetectorFailure(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 3)
	out := filepath.Join(dir, "processed_crowd.png")

	p := NewImagePipeline(&countingDetector{failAt: map[int]bool{0: true}}, nil, nil, quietLogger(), Options{})
	res, err := p.Run(context.Background(), ImageRequest{SourcePath: src, OutputPath: out})

	kind, _ := KindOf(err)
	require.Equal(t, KindDetectionUnavailable, kind)
	require.Equal(t, StateFailed, res.State)
	require.NoFileExists(t, out)
}

func TestImagePipeline_Cancelled(t *testing.T) {
	src := writePNG(t, t.TempDir(), 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewImagePipeline(&countingDetector{}, nil, nil, quietLogger(), Options{})
	res, err := p.Run(ctx, ImageRequest{SourcePath: src})

	kind, _ := KindOf(err)
	require.Equal(t, KindCancelled, kind)
	require.Equal(t, StateCancelled, res.State)
}
