package crowd

// Level уровень плотности толпы
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// HintColor подсказка цвета для отрисовки уровня
type HintColor string

const (
	ColorGreen  HintColor = "green"
	ColorOrange HintColor = "orange"
	ColorRed    HintColor = "red"
)

// Пороги плотности. Нижняя граница каждого диапазона включается в старший уровень.
const (
	MediumThreshold = 5
	HighThreshold   = 15
)

// Classify относит количество людей к одному из трёх уровней плотности
func Classify(count int) (Level, HintColor) {
	switch {
	case count < MediumThreshold:
		return LevelLow, ColorGreen
	case count < HighThreshold:
		return LevelMedium, ColorOrange
	default:
		return LevelHigh, ColorRed
	}
}

// ClassifyLevel возвращает только уровень плотности
func ClassifyLevel(count int) Level {
	level, _ := Classify(count)
	return level
}

// Rank порядковый номер уровня: Low < Medium < High
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	}
	return -1
}

// IsAlert сообщает, считается ли уровень тревожным
func (l Level) IsAlert() bool {
	return l == LevelHigh
}
