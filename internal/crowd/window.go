package crowd

import "math"

// DefaultWindowSize количество последних кадров, по которым считается среднее
const DefaultWindowSize = 30

// SlidingWindow хранит последние значения счётчика людей и считает скользящее среднее.
// Окно принадлежит одному прогону и не предназначено для конкурентного использования.
type SlidingWindow struct {
	values []int
	start  int
	size   int
	sum    int
}

// NewSlidingWindow создаёт окно заданной ёмкости
func NewSlidingWindow(capacity int) *SlidingWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &SlidingWindow{
		values: make([]int, capacity),
	}
}

// Push добавляет значение, вытесняя самое старое при переполнении, и возвращает
// округлённое среднее по текущему содержимому окна.
func (w *SlidingWindow) Push(count int) int {
	capacity := len(w.values)
	if w.size == capacity {
		w.sum -= w.values[w.start]
		w.values[w.start] = count
		w.start = (w.start + 1) % capacity
	} else {
		w.values[(w.start+w.size)%capacity] = count
		w.size++
	}
	w.sum += count
	return w.Average()
}

// Average округлённое среднее (половина округляется к чётному), 0 для пустого окна
func (w *SlidingWindow) Average() int {
	if w.size == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(w.sum) / float64(w.size)))
}

// Len текущее количество значений в окне
func (w *SlidingWindow) Len() int {
	return w.size
}

// Cap ёмкость окна
func (w *SlidingWindow) Cap() int {
	return len(w.values)
}

// Values значения окна от самого старого к самому новому
func (w *SlidingWindow) Values() []int {
	out := make([]int, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.values[(w.start+i)%len(w.values)]
	}
	return out
}
