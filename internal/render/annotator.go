package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"crowd-monitor-go/internal/crowd"
	"crowd-monitor-go/internal/detector"
)

var (
	green  = color.RGBA{G: 255, A: 255}
	orange = color.RGBA{R: 255, G: 165, A: 255}
	red    = color.RGBA{R: 255, A: 255}
	blue   = color.RGBA{R: 30, G: 144, B: 255, A: 255}
)

const (
	textSize     = 28
	bannerSize   = 30
	borderWidth  = 10
	boxLineWidth = 2
	bannerText   = "HIGH DENSITY ALERT!"
)

// Overlay данные, которые выводятся поверх кадра
type Overlay struct {
	Count      int
	Level      crowd.Level
	Detections []detector.Detection
}

// Annotator рисует рамки обнаружений и сводку плотности поверх кадра
type Annotator struct {
	font *truetype.Font
}

// NewAnnotator загружает встроенный шрифт
func NewAnnotator() (*Annotator, error) {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Annotator{font: font}, nil
}

// Annotate возвращает новый кадр с наложенной информацией; исходный кадр не меняется
func (a *Annotator) Annotate(frame image.Image, o Overlay) image.Image {
	dc := gg.NewContextForImage(frame)
	w, h := dc.Width(), dc.Height()

	dc.SetColor(blue)
	dc.SetLineWidth(boxLineWidth)
	for _, d := range o.Detections {
		r := d.Box.Sub(frame.Bounds().Min)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
	}

	a.drawString(dc, fmt.Sprintf("People: %d", o.Count), 20, 50, green, textSize)
	a.drawString(dc, fmt.Sprintf("Density: %s", o.Level), 20, 90, LevelColor(o.Level), textSize)

	if o.Level.IsAlert() {
		dc.SetColor(red)
		dc.SetLineWidth(borderWidth)
		dc.DrawRectangle(0, 0, float64(w-1), float64(h-1))
		dc.Stroke()
		a.drawString(dc, bannerText, float64(w/2-150), 130, red, bannerSize)
	}

	return dc.Image()
}

func (a *Annotator) drawString(dc *gg.Context, text string, x, y float64, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawString(text, x, y)
}

// LevelColor цвет текста для уровня плотности
func LevelColor(level crowd.Level) color.RGBA {
	switch level {
	case crowd.LevelHigh:
		return red
	case crowd.LevelMedium:
		return orange
	}
	return green
}
