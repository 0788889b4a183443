package detector

import (
	"context"
	"errors"
	"image"
	"strings"
)

// PersonClass метка класса "человек" в наборе COCO
const PersonClass = "person"

// ErrUnavailable детектор не может обработать кадр
var ErrUnavailable = errors.New("detection unavailable")

// Detection один найденный объект на кадре
type Detection struct {
	Class string          `json:"class"`
	Score float64         `json:"score"`
	Box   image.Rectangle `json:"box"`
}

// Detector возвращает объекты заданного класса, найденные на кадре.
// Реализация не должна изменять переданный кадр.
type Detector interface {
	Detect(ctx context.Context, frame image.Image, class string) ([]Detection, error)
}

// HealthChecker реализуется детекторами, умеющими сообщать о своей готовности
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Postprocessor фильтрует или изменяет список обнаружений
type Postprocessor func([]Detection) []Detection

// NewScoreFilter отбрасывает обнаружения с уверенностью ниже порога
func NewScoreFilter(minScore float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Score >= minScore {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewAreaFilter отбрасывает обнаружения с площадью рамки меньше заданной
func NewAreaFilter(minArea int) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Box.Dx()*d.Box.Dy() >= minArea {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewClassFilter оставляет только обнаружения указанного класса
func NewClassFilter(class string) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if strings.EqualFold(d.Class, class) {
				out = append(out, d)
			}
		}
		return out
	}
}

// filtered применяет постобработку к результатам вложенного детектора
type filtered struct {
	inner Detector
	posts []Postprocessor
}

// WithPostprocessors оборачивает детектор: сначала фильтр по классу, затем переданные фильтры
func WithPostprocessors(inner Detector, posts ...Postprocessor) Detector {
	return &filtered{inner: inner, posts: posts}
}

func (f *filtered) Detect(ctx context.Context, frame image.Image, class string) ([]Detection, error) {
	detections, err := f.inner.Detect(ctx, frame, class)
	if err != nil {
		return nil, err
	}
	detections = NewClassFilter(class)(detections)
	for _, p := range f.posts {
		detections = p(detections)
	}
	return detections, nil
}

// CheckHealth проксирует проверку состояния во вложенный детектор
func (f *filtered) CheckHealth(ctx context.Context) error {
	if hc, ok := f.inner.(HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}

// Func адаптер обычной функции к интерфейсу Detector
type Func func(ctx context.Context, frame image.Image, class string) ([]Detection, error)

// Detect вызывает саму функцию
func (fn Func) Detect(ctx context.Context, frame image.Image, class string) ([]Detection, error) {
	return fn(ctx, frame, class)
}
