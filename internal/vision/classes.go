package vision

import "strings"

// cocoClasses классы модели YOLOv8, обученной на COCO
var cocoClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

// classIndex номер класса по имени, -1 если класс неизвестен
func classIndex(name string) int {
	for i, c := range cocoClasses {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// letterboxScale коэффициент пересчёта координат модели в координаты кадра.
// Кадр вписывается в квадрат со стороной max(w, h) от левого верхнего угла.
func letterboxScale(width, height, inputSize int) float64 {
	side := width
	if height > side {
		side = height
	}
	if inputSize <= 0 {
		return 1
	}
	return float64(side) / float64(inputSize)
}
