package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// LoadImage читает и декодирует изображение из файла
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ImageSink записывает один кадр в файл изображения
type ImageSink struct {
	path    string
	written bool
}

// NewImageSink создаёт приёмник для изображения; формат выбирается по расширению
func NewImageSink(path string) (*ImageSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ImageSink{path: path}, nil
}

// Write кодирует кадр во временный файл
func (s *ImageSink) Write(frame image.Image) error {
	f, err := os.Create(PartialPath(s.path))
	if err != nil {
		return fmt.Errorf("failed to create output image: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".png":
		err = png.Encode(f, frame)
	default:
		err = jpeg.Encode(f, frame, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to encode output image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output image: %w", err)
	}

	s.written = true
	return nil
}

// Commit переносит изображение на итоговое место
func (s *ImageSink) Commit() error {
	if !s.written {
		return fmt.Errorf("no image was written to %s", s.path)
	}
	return CommitPartial(s.path)
}

// Discard удаляет временный файл
func (s *ImageSink) Discard() error {
	return DiscardPartial(s.path)
}

// toRGB упаковывает кадр в плотный буфер rgb24 заданного размера
func toRGB(frame image.Image, width, height int, buf []byte) []byte {
	need := width * height * 3
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]

	b := frame.Bounds()
	if rgba, ok := frame.(*image.RGBA); ok && b.Dx() == width && b.Dy() == height {
		for y := 0; y < height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
			for x := 0; x < width; x++ {
				copy(buf[(y*width+x)*3:], row[x*4:x*4+3])
			}
		}
		return buf
	}

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
			buf[i], buf[i+1], buf[i+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			i += 3
		}
	}
	return buf
}

// fromRGB строит RGBA-кадр из буфера rgb24
func fromRGB(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i+2 < len(data) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = data[i]
		img.Pix[j+1] = data[i+1]
		img.Pix[j+2] = data[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
