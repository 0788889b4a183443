package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"crowd-monitor-go/internal/crowd"
	"crowd-monitor-go/internal/detector"
)

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func TestAnnotate_DoesNotMutateInput(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	src := blank(320, 240)
	before := append([]byte(nil), src.Pix...)

	out := a.Annotate(src, Overlay{
		Count:      20,
		Level:      crowd.LevelHigh,
		Detections: []detector.Detection{{Class: "person", Box: image.Rect(10, 10, 60, 120)}},
	})

	require.Equal(t, before, src.Pix)
	require.Equal(t, src.Bounds(), out.Bounds())
	require.NotEqual(t, before, out.(*image.RGBA).Pix)
}

func TestAnnotate_AlertBorderOnlyWhenHigh(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	high := a.Annotate(blank(320, 240), Overlay{Count: 30, Level: crowd.LevelHigh})
	r, _, _, _ := high.At(319, 239).RGBA()
	require.Greater(t, r, uint32(0))

	low := a.Annotate(blank(320, 240), Overlay{Count: 1, Level: crowd.LevelLow})
	require.Equal(t, color.RGBAModel.Convert(color.RGBA{A: 255}), color.RGBAModel.Convert(low.At(319, 239)))
}

func TestLevelColor(t *testing.T) {
	require.Equal(t, red, LevelColor(crowd.LevelHigh))
	require.Equal(t, orange, LevelColor(crowd.LevelMedium))
	require.Equal(t, green, LevelColor(crowd.LevelLow))
}
