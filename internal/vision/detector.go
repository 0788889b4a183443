//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"crowd-monitor-go/internal/detector"
)

const defaultInputSize = 640

// YOLODetector локальный детектор на OpenCV DNN с моделью YOLOv8 в формате ONNX.
// Сеть не потокобезопасна, вызовы сериализуются.
type YOLODetector struct {
	mu        sync.Mutex
	net       gocv.Net
	inputSize int
	minScore  float32
	nms       float32
}

// NewYOLODetector загружает модель
func NewYOLODetector(modelPath string, minScore, nms float64) (*YOLODetector, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("could not load model %s", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}
	return &YOLODetector{
		net:       net,
		inputSize: defaultInputSize,
		minScore:  float32(minScore),
		nms:       float32(nms),
	}, nil
}

// Detect ищет объекты класса class на кадре
func (d *YOLODetector) Detect(ctx context.Context, frame image.Image, class string) ([]detector.Detection, error) {
	classID := classIndex(class)
	if classID < 0 {
		return nil, fmt.Errorf("unknown class %q", class)
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("could not convert frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	width, height := mat.Cols(), mat.Rows()
	side := max(width, height)

	square := gocv.NewMatWithSize(side, side, gocv.MatTypeCV8UC3)
	defer square.Close()
	roi := square.Region(image.Rect(0, 0, width, height))
	mat.CopyTo(&roi)
	roi.Close()

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	return d.parse(out, classID, class, letterboxScale(width, height, d.inputSize)), nil
}

// parse разбирает выход YOLOv8 формы [1, 4+классы, N]
func (d *YOLODetector) parse(out gocv.Mat, classID int, class string, scale float64) []detector.Detection {
	sizes := out.Size()
	if len(sizes) != 3 {
		return nil
	}
	rows, anchors := sizes[1], sizes[2]
	scoreRow := 4 + classID
	if scoreRow >= rows {
		return nil
	}

	var boxes []image.Rectangle
	var scores []float32
	for i := 0; i < anchors; i++ {
		score := out.GetFloatAt3(0, scoreRow, i)
		if score < d.minScore {
			continue
		}
		cx := out.GetFloatAt3(0, 0, i)
		cy := out.GetFloatAt3(0, 1, i)
		w := out.GetFloatAt3(0, 2, i)
		h := out.GetFloatAt3(0, 3, i)

		boxes = append(boxes, image.Rect(
			int(float64(cx-w/2)*scale), int(float64(cy-h/2)*scale),
			int(float64(cx+w/2)*scale), int(float64(cy+h/2)*scale),
		))
		scores = append(scores, score)
	}
	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, scores, d.minScore, d.nms)
	detections := make([]detector.Detection, 0, len(indices))
	for _, idx := range indices {
		detections = append(detections, detector.Detection{
			Class: class,
			Score: float64(scores[idx]),
			Box:   boxes[idx],
		})
	}
	return detections
}

// Close освобождает сеть
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
