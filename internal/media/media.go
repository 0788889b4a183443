package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// Kind тип медиафайла, определяется один раз при приёме файла
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	}
	return "unknown"
}

// ErrUnsupportedType расширение файла не поддерживается
var ErrUnsupportedType = errors.New("unsupported media type")

var extensions = map[string]Kind{
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".avi":  KindVideo,
	".mkv":  KindVideo,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
}

// KindOf определяет тип медиа по расширению имени файла
func KindOf(filename string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := extensions[ext]
	if !ok {
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return kind, nil
}

// VideoProperties параметры видеопотока, фиксируются при открытии источника
type VideoProperties struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
}

// Source последовательный источник кадров. Next возвращает io.EOF, когда кадры закончились.
type Source interface {
	Properties() VideoProperties
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// Sink приёмник кадров. Файл считается готовым только после Commit,
// Discard удаляет всё записанное.
type Sink interface {
	Write(frame image.Image) error
	Commit() error
	Discard() error
}

// VideoBackend открывает видеоисточники и создаёт видеоприёмники
type VideoBackend interface {
	Name() string
	OpenSource(ctx context.Context, path string) (Source, error)
	CreateSink(path string, props VideoProperties) (Sink, error)
}
